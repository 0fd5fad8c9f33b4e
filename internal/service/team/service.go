package team

import (
	"errors"
	"time"

	"log/slog"

	"github.com/splax/teamboard/internal/domain"
	"github.com/splax/teamboard/internal/repository"
)

// Publisher receives member change events after a mutation succeeds.
type Publisher interface {
	Publish(event domain.MemberEvent)
}

// Service handles team member and task workflows.
type Service struct {
	repo      repository.MemberRepository
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// New constructs a Service. publisher may be nil.
func New(repo repository.MemberRepository, publisher Publisher, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return Service{repo: repo, publisher: publisher, logger: logger, now: time.Now}
}

// GetTeamMember returns the member stored under id.
func (s Service) GetTeamMember(id string) (domain.TeamMember, bool) {
	member, err := s.repo.GetMember(id)
	if err != nil {
		s.logLookupError("get member", id, err)
		return domain.TeamMember{}, false
	}
	return member, true
}

// GetTasks returns the member's tasks in stored order.
func (s Service) GetTasks(memberID string) ([]domain.Task, bool) {
	member, ok := s.GetTeamMember(memberID)
	if !ok {
		return nil, false
	}
	return member.Tasks, true
}

// GetTask returns the first task on the member whose id equals taskID.
func (s Service) GetTask(memberID, taskID string) (domain.Task, bool) {
	member, ok := s.GetTeamMember(memberID)
	if !ok {
		return domain.Task{}, false
	}
	return member.FindTask(taskID)
}

// ListTeamMembers returns every stored member ordered by id.
func (s Service) ListTeamMembers() []domain.TeamMember {
	return s.repo.ListMembers()
}

// CountTeamMembers reports the number of stored members.
func (s Service) CountTeamMembers() int {
	return s.repo.CountMembers()
}

// AddTeamMember stores member under member.ID, silently replacing an existing entry.
func (s Service) AddTeamMember(member domain.TeamMember) domain.TeamMember {
	stored := s.repo.PutMember(member)
	s.logger.Info("team member added", "member_id", stored.ID, "tasks", len(stored.Tasks))
	s.publish(domain.MemberCreated, stored.ID, &stored)
	return stored
}

// UpdateTeamMember replaces the member at id wholesale. Nothing changes when id is unknown.
func (s Service) UpdateTeamMember(id string, updated domain.TeamMember) (domain.TeamMember, bool) {
	stored, err := s.repo.ReplaceMember(id, updated)
	if err != nil {
		s.logLookupError("update member", id, err)
		return domain.TeamMember{}, false
	}
	s.logger.Info("team member updated", "member_id", id, "tasks", len(stored.Tasks))
	s.publish(domain.MemberUpdated, id, &stored)
	return stored, true
}

// DeleteTeamMember removes the member at id and reports whether it existed.
func (s Service) DeleteTeamMember(id string) bool {
	if err := s.repo.DeleteMember(id); err != nil {
		s.logLookupError("delete member", id, err)
		return false
	}
	s.logger.Info("team member deleted", "member_id", id)
	s.publish(domain.MemberDeleted, id, nil)
	return true
}

func (s Service) publish(kind domain.MemberEventType, memberID string, member *domain.TeamMember) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(domain.MemberEvent{
		Type:       kind,
		MemberID:   memberID,
		Member:     member,
		OccurredAt: s.now().UTC(),
	})
}

func (s Service) logLookupError(op, id string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Debug(op+": not found", "member_id", id)
		return
	}
	s.logger.Error(op+" failed", "member_id", id, "error", err)
}
