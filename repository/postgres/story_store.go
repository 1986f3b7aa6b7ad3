package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/storytrack/backend/domain"
	"github.com/storytrack/backend/repository"
)

// Querier is the subset of pgx used by the store. Both pgxpool.Pool and
// pgx.Tx satisfy it; the unit of work always hands the store a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type storyStore struct {
	q Querier
}

// NewStoryStore returns a Postgres-backed StoryStore bound to the given
// querier. The store never commits or rolls back.
func NewStoryStore(q Querier) repository.StoryStore {
	return &storyStore{q: q}
}

func (s *storyStore) StoryExists(ctx context.Context, id string) (bool, error) {
	return s.exists(ctx, `SELECT COUNT(*) FROM stories WHERE id = $1::uuid`, id, "stories")
}

func (s *storyStore) TaskExists(ctx context.Context, id string) (bool, error) {
	return s.exists(ctx, `SELECT COUNT(*) FROM tasks WHERE id = $1::uuid`, id, "tasks")
}

func (s *storyStore) exists(ctx context.Context, query, id, table string) (bool, error) {
	var count int
	if err := s.q.QueryRow(ctx, query, id).Scan(&count); err != nil {
		return false, err
	}
	// The id columns are primary keys; any other count means the
	// database no longer satisfies its own invariants.
	if count > 1 {
		return false, domain.NewError(domain.ErrCodeInternal,
			fmt.Sprintf("%s holds %d rows for id %s, want at most 1", table, count, id))
	}
	return count == 1, nil
}

func (s *storyStore) GetStory(ctx context.Context, id string) (*domain.Story, error) {
	const storyQuery = `
	SELECT id, title, description, created_at, updated_at
	FROM stories
	WHERE id = $1::uuid
	`
	var story domain.Story
	err := s.q.QueryRow(ctx, storyQuery, id).Scan(
		&story.ID,
		&story.Title,
		&story.Description,
		&story.CreatedAt,
		&story.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewStoryNotFound(id)
		}
		return nil, err
	}

	const taskQuery = `
	SELECT id, story_id, title, description, created_at, updated_at
	FROM tasks
	WHERE story_id = $1::uuid
	ORDER BY created_at, id
	`
	rows, err := s.q.Query(ctx, taskQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var task domain.Task
		if err := rows.Scan(
			&task.ID,
			&task.StoryID,
			&task.Title,
			&task.Description,
			&task.CreatedAt,
			&task.UpdatedAt,
		); err != nil {
			return nil, err
		}
		story.Tasks = append(story.Tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &story, nil
}

func (s *storyStore) ListStories(ctx context.Context, pageSize int, cursor *repository.StoryCursor) (repository.StoryPage, error) {
	if pageSize <= 0 {
		return repository.StoryPage{}, domain.ErrInvalidPayload
	}

	var (
		rows pgx.Rows
		err  error
	)
	if cursor == nil {
		rows, err = s.q.Query(ctx, `
		SELECT id, title, description, created_at, updated_at
		FROM stories
		ORDER BY created_at, id
		LIMIT $1`,
			pageSize+1,
		)
	} else {
		rows, err = s.q.Query(ctx, `
		SELECT id, title, description, created_at, updated_at
		FROM stories
		WHERE (created_at, id) > ($1, $2::uuid)
		ORDER BY created_at, id
		LIMIT $3`,
			cursor.CreatedAt,
			cursor.ID,
			pageSize+1,
		)
	}
	if err != nil {
		return repository.StoryPage{}, err
	}
	defer rows.Close()

	page := repository.StoryPage{
		Stories: make([]domain.Story, 0, pageSize),
	}
	for rows.Next() {
		var story domain.Story
		if err := rows.Scan(
			&story.ID,
			&story.Title,
			&story.Description,
			&story.CreatedAt,
			&story.UpdatedAt,
		); err != nil {
			return repository.StoryPage{}, err
		}
		page.Stories = append(page.Stories, story)
	}
	if err := rows.Err(); err != nil {
		return repository.StoryPage{}, err
	}

	if len(page.Stories) > pageSize {
		last := page.Stories[pageSize-1]
		page.NextPageToken = repository.EncodeStoryCursor(repository.StoryCursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
		page.Stories = page.Stories[:pageSize]
	}

	return page, nil
}

func (s *storyStore) ListEvents(ctx context.Context, aggregateID string) ([]domain.Event, error) {
	const query = `
	SELECT id, aggregate_id, aggregate_type, event_type, payload, created_at
	FROM domain_events
	WHERE aggregate_id = $1::uuid
	ORDER BY created_at, seq
	`
	rows, err := s.q.Query(ctx, query, aggregateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var event domain.Event
		if err := rows.Scan(
			&event.ID,
			&event.AggregateID,
			&event.AggregateType,
			&event.Type,
			&event.Payload,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (s *storyStore) ApplyEvent(ctx context.Context, event domain.Event) error {
	if err := s.applyMutation(ctx, event); err != nil {
		return err
	}
	return s.appendEvent(ctx, event)
}

func (s *storyStore) applyMutation(ctx context.Context, event domain.Event) error {
	switch event.Type {
	case domain.TypeStoryCaptured:
		payload, err := event.StoryPayload()
		if err != nil {
			return domain.WrapError(domain.ErrCodeInternal, "decode story captured payload", err)
		}
		tag, err := s.q.Exec(ctx, `
		INSERT INTO stories (id, title, description, created_at)
		VALUES ($1::uuid, $2, $3, $4)`,
			event.AggregateID, payload.Title, payload.Description, event.CreatedAt,
		)
		if err != nil {
			return err
		}
		return oneRow(tag, "insert story")

	case domain.TypeStoryRevised:
		payload, err := event.StoryPayload()
		if err != nil {
			return domain.WrapError(domain.ErrCodeInternal, "decode story revised payload", err)
		}
		tag, err := s.q.Exec(ctx, `
		UPDATE stories
		SET title = $2, description = $3, updated_at = $4
		WHERE id = $1::uuid`,
			event.AggregateID, payload.Title, payload.Description, event.CreatedAt,
		)
		if err != nil {
			return err
		}
		return oneRow(tag, "update story")

	case domain.TypeStoryRemoved:
		// Task rows go with the story via ON DELETE CASCADE.
		tag, err := s.q.Exec(ctx, `DELETE FROM stories WHERE id = $1::uuid`, event.AggregateID)
		if err != nil {
			return err
		}
		return oneRow(tag, "delete story")

	case domain.TypeTaskAdded:
		payload, err := event.TaskPayload()
		if err != nil {
			return domain.WrapError(domain.ErrCodeInternal, "decode task added payload", err)
		}
		tag, err := s.q.Exec(ctx, `
		INSERT INTO tasks (id, story_id, title, description, created_at)
		VALUES ($1::uuid, $2::uuid, $3, $4, $5)`,
			payload.TaskID, event.AggregateID, payload.Title, payload.Description, event.CreatedAt,
		)
		if err != nil {
			return err
		}
		return oneRow(tag, "insert task")

	case domain.TypeTaskRevised:
		payload, err := event.TaskPayload()
		if err != nil {
			return domain.WrapError(domain.ErrCodeInternal, "decode task revised payload", err)
		}
		tag, err := s.q.Exec(ctx, `
		UPDATE tasks
		SET title = $3, description = $4, updated_at = $5
		WHERE id = $1::uuid AND story_id = $2::uuid`,
			payload.TaskID, event.AggregateID, payload.Title, payload.Description, event.CreatedAt,
		)
		if err != nil {
			return err
		}
		return oneRow(tag, "update task")

	case domain.TypeTaskRemoved:
		payload, err := event.TaskPayload()
		if err != nil {
			return domain.WrapError(domain.ErrCodeInternal, "decode task removed payload", err)
		}
		tag, err := s.q.Exec(ctx, `
		DELETE FROM tasks WHERE id = $1::uuid AND story_id = $2::uuid`,
			payload.TaskID, event.AggregateID,
		)
		if err != nil {
			return err
		}
		return oneRow(tag, "delete task")

	default:
		return domain.NewError(domain.ErrCodeInternal, fmt.Sprintf("unknown event type %q", event.Type))
	}
}

func (s *storyStore) appendEvent(ctx context.Context, event domain.Event) error {
	tag, err := s.q.Exec(ctx, `
	INSERT INTO domain_events (id, aggregate_id, aggregate_type, event_type, payload, created_at)
	VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6)`,
		event.ID,
		event.AggregateID,
		event.AggregateType,
		event.Type,
		[]byte(event.Payload),
		event.CreatedAt,
	)
	if err != nil {
		return err
	}
	return oneRow(tag, "insert domain event")
}

// oneRow guards the store's single-row invariant: every mutation applied
// from an event touches exactly one row.
func oneRow(tag pgconn.CommandTag, op string) error {
	if n := tag.RowsAffected(); n != 1 {
		return domain.NewError(domain.ErrCodeInternal,
			fmt.Sprintf("%s affected %d rows, want 1", op, n))
	}
	return nil
}
