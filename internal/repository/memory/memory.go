package memory

import (
	"slices"
	"strings"
	"sync"

	"github.com/splax/teamboard/internal/domain"
	"github.com/splax/teamboard/internal/repository"
)

// Repository keeps team members in a process-local map.
type Repository struct {
	mu      sync.RWMutex
	members map[string]domain.TeamMember
}

// New constructs an empty Repository.
func New() *Repository {
	return &Repository{members: make(map[string]domain.TeamMember)}
}

var _ repository.MemberRepository = (*Repository)(nil)

// GetMember returns a copy of the stored member.
func (r *Repository) GetMember(id string) (domain.TeamMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	member, ok := r.members[id]
	if !ok {
		return domain.TeamMember{}, repository.ErrNotFound
	}
	return member.Clone(), nil
}

// ListMembers returns all members ordered by id.
func (r *Repository) ListMembers() []domain.TeamMember {
	r.mu.RLock()
	members := make([]domain.TeamMember, 0, len(r.members))
	for _, member := range r.members {
		members = append(members, member.Clone())
	}
	r.mu.RUnlock()
	slices.SortFunc(members, func(a, b domain.TeamMember) int {
		return strings.Compare(a.ID, b.ID)
	})
	return members
}

// PutMember stores member under member.ID, replacing any existing entry.
func (r *Repository) PutMember(member domain.TeamMember) domain.TeamMember {
	stored := member.Clone()
	r.mu.Lock()
	r.members[stored.ID] = stored
	r.mu.Unlock()
	return stored.Clone()
}

// ReplaceMember overwrites the entry at id only when it already exists.
func (r *Repository) ReplaceMember(id string, member domain.TeamMember) (domain.TeamMember, error) {
	stored := member.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[id]; !ok {
		return domain.TeamMember{}, repository.ErrNotFound
	}
	r.members[id] = stored
	return stored.Clone(), nil
}

// DeleteMember removes the entry at id.
func (r *Repository) DeleteMember(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.members, id)
	return nil
}

// CountMembers reports how many members are stored.
func (r *Repository) CountMembers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}
