package domain

import (
	"encoding/json"
	"time"
)

// AggregateTypeStory is the only aggregate type recorded by this service.
const AggregateTypeStory = "Story"

// Domain event types. One event is appended per mutating command.
const (
	TypeStoryCaptured = "StoryBasicDetailsCaptured"
	TypeStoryRevised  = "StoryBasicDetailsRevised"
	TypeStoryRemoved  = "StoryRemoved"
	TypeTaskAdded     = "TaskBasicDetailsAdded"
	TypeTaskRevised   = "TaskBasicDetailsRevised"
	TypeTaskRemoved   = "TaskRemoved"
)

// Event is an immutable audit record of one committed mutation.
// AggregateID is always the owning story id; task events carry the
// task id inside the payload.
type Event struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Type          string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// StoryDetailsPayload carries the basic details written by story capture and revision events.
type StoryDetailsPayload struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// TaskDetailsPayload carries the task id and basic details for task events.
type TaskDetailsPayload struct {
	TaskID      string `json:"task_id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// NewStoryEvent builds a story-scoped event with a marshaled details payload.
func NewStoryEvent(id, eventType, storyID string, payload StoryDetailsPayload, at time.Time) Event {
	raw, _ := json.Marshal(payload)
	return Event{
		ID:            id,
		AggregateID:   storyID,
		AggregateType: AggregateTypeStory,
		Type:          eventType,
		Payload:       raw,
		CreatedAt:     at,
	}
}

// NewTaskEvent builds a task-scoped event; the aggregate id remains the owning story.
func NewTaskEvent(id, eventType, storyID string, payload TaskDetailsPayload, at time.Time) Event {
	raw, _ := json.Marshal(payload)
	return Event{
		ID:            id,
		AggregateID:   storyID,
		AggregateType: AggregateTypeStory,
		Type:          eventType,
		Payload:       raw,
		CreatedAt:     at,
	}
}

// StoryRemovedEvent builds the payload-free event recorded when a story is removed.
func StoryRemovedEvent(id, storyID string, at time.Time) Event {
	return Event{
		ID:            id,
		AggregateID:   storyID,
		AggregateType: AggregateTypeStory,
		Type:          TypeStoryRemoved,
		CreatedAt:     at,
	}
}

// StoryPayload decodes the event payload as story details.
func (e Event) StoryPayload() (StoryDetailsPayload, error) {
	var p StoryDetailsPayload
	err := json.Unmarshal(e.Payload, &p)
	return p, err
}

// TaskPayload decodes the event payload as task details.
func (e Event) TaskPayload() (TaskDetailsPayload, error) {
	var p TaskDetailsPayload
	err := json.Unmarshal(e.Payload, &p)
	return p, err
}
