package repository

import (
	"context"

	"github.com/storytrack/backend/domain"
)

// StoryPage is one page of the stable story listing.
type StoryPage struct {
	Stories []domain.Story
	// NextPageToken resumes the listing after the last story of this
	// page; empty when the listing is exhausted.
	NextPageToken string
}

// StoryStore is the event-applying persistence boundary for the story
// aggregate. Implementations run every operation on the ambient
// transaction owned by the request's unit of work and never commit or
// roll back themselves.
type StoryStore interface {
	// StoryExists reports whether a story row with the given id exists.
	StoryExists(ctx context.Context, id string) (bool, error)
	// TaskExists reports whether a task row with the given id exists
	// under any story.
	TaskExists(ctx context.Context, id string) (bool, error)
	// GetStory loads the aggregate with its tasks in persisted order.
	// Absence surfaces as domain.ErrCodeNotFound.
	GetStory(ctx context.Context, id string) (*domain.Story, error)
	// ListStories returns one page of stories (without tasks) in a
	// stable total order: created_at ascending, id ascending.
	ListStories(ctx context.Context, pageSize int, cursor *StoryCursor) (StoryPage, error)
	// ListEvents returns the audit trail of one aggregate ordered by
	// creation time, ties broken by insertion order.
	ListEvents(ctx context.Context, aggregateID string) ([]domain.Event, error)
	// ApplyEvent translates the event into its row mutation and appends
	// the event record, all within the ambient transaction. Each write
	// must affect exactly one row; anything else is an internal fault.
	ApplyEvent(ctx context.Context, event domain.Event) error
}
