package domain

import "time"

// Length bounds shared by story and task basic details.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 2000
)

// Story is the aggregate root: a work item owning an ordered set of tasks.
type Story struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Tasks       []Task     `json:"tasks"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Task is owned exclusively by one story; its id is treated as globally unique.
type Task struct {
	ID          string     `json:"id"`
	StoryID     string     `json:"story_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Revise replaces the story's basic details and stamps the revision time.
// UpdatedAt stays nil until the first revision.
func (s *Story) Revise(title, description string, at time.Time) {
	if s == nil {
		return
	}
	s.Title = title
	s.Description = description
	s.UpdatedAt = &at
}

// Revise replaces the task's basic details and stamps the revision time.
func (t *Task) Revise(title, description string, at time.Time) {
	if t == nil {
		return
	}
	t.Title = title
	t.Description = description
	t.UpdatedAt = &at
}

// FindTask returns the owned task with the given id, or nil.
func (s *Story) FindTask(taskID string) *Task {
	if s == nil {
		return nil
	}
	for i := range s.Tasks {
		if s.Tasks[i].ID == taskID {
			return &s.Tasks[i]
		}
	}
	return nil
}

// RemoveTask detaches the owned task with the given id and reports whether it was present.
func (s *Story) RemoveTask(taskID string) bool {
	if s == nil {
		return false
	}
	for i := range s.Tasks {
		if s.Tasks[i].ID == taskID {
			s.Tasks = append(s.Tasks[:i], s.Tasks[i+1:]...)
			return true
		}
	}
	return false
}
