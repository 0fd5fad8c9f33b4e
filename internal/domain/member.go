package domain

import "slices"

// Task is a unit of work owned by a single team member.
type Task struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TeamMember is a member record together with its ordered task list.
type TeamMember struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Tasks []Task `json:"tasks"`
}

// Clone returns a copy that shares no task storage with m.
// A nil task list becomes an empty one so it renders as [] in JSON.
func (m TeamMember) Clone() TeamMember {
	out := m
	out.Tasks = CloneTasks(m.Tasks)
	return out
}

// FindTask returns the first task whose id matches taskID.
func (m TeamMember) FindTask(taskID string) (Task, bool) {
	idx := slices.IndexFunc(m.Tasks, func(t Task) bool { return t.ID == taskID })
	if idx < 0 {
		return Task{}, false
	}
	return m.Tasks[idx], true
}

// CloneTasks copies tasks into a fresh, non-nil slice.
func CloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}
