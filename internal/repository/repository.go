package repository

import "github.com/splax/teamboard/internal/domain"

// MemberRepository stores team members keyed by member id.
type MemberRepository interface {
	GetMember(id string) (domain.TeamMember, error)
	ListMembers() []domain.TeamMember
	PutMember(member domain.TeamMember) domain.TeamMember
	ReplaceMember(id string, member domain.TeamMember) (domain.TeamMember, error)
	DeleteMember(id string) error
	CountMembers() int
}
