package domain

import "time"

// MemberEventType names a change applied to a team member.
type MemberEventType string

const (
	MemberCreated MemberEventType = "member.created"
	MemberUpdated MemberEventType = "member.updated"
	MemberDeleted MemberEventType = "member.deleted"
)

// MemberEvent describes a completed mutation. Member is nil for deletions.
type MemberEvent struct {
	Type       MemberEventType `json:"type"`
	MemberID   string          `json:"member_id"`
	Member     *TeamMember     `json:"member,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}
