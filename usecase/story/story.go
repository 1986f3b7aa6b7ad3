package story

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storytrack/backend/domain"
	"github.com/storytrack/backend/repository"
)

// Clock supplies the current UTC time; injected for deterministic tests.
type Clock func() time.Time

// UTCNow is the production clock.
func UTCNow() time.Time {
	return time.Now().UTC()
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// UseCase executes story commands and queries for one request. It is
// built per unit of work around the principal and the transaction-bound
// store, and follows the same sequence everywhere: authorize, validate,
// check existence, apply the mutation together with exactly one domain
// event. The unit of work is committed by the caller, never here.
type UseCase struct {
	principal domain.Principal
	store     repository.StoryStore
	clock     Clock
	logger    *zap.Logger
}

// New builds a request-scoped UseCase.
func New(principal domain.Principal, store repository.StoryStore, clock Clock, logger *zap.Logger) *UseCase {
	if clock == nil {
		clock = UTCNow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		principal: principal,
		store:     store,
		clock:     clock,
		logger:    logger,
	}
}

type CaptureStoryRequest struct {
	StoryID     string
	Title       string
	Description string
}

type AddTaskRequest struct {
	StoryID     string
	TaskID      string
	Title       string
	Description string
}

type ReviseStoryRequest struct {
	StoryID     string
	Title       string
	Description string
}

type ReviseTaskRequest struct {
	StoryID     string
	TaskID      string
	Title       string
	Description string
}

type RemoveStoryRequest struct {
	StoryID string
}

type RemoveTaskRequest struct {
	StoryID string
	TaskID  string
}

type GetStoryRequest struct {
	StoryID string
}

type ListStoriesRequest struct {
	PageSize  int
	PageToken string
}

type ListEventsRequest struct {
	AggregateID string
}

// CaptureStory records a new story's basic details.
func (uc *UseCase) CaptureStory(ctx context.Context, req CaptureStoryRequest) (string, error) {
	if err := uc.authorize(domain.RoleMember); err != nil {
		return "", err
	}

	var fields []domain.FieldError
	requireID(&fields, "id", req.StoryID)
	requireTitle(&fields, "title", req.Title)
	boundDescription(&fields, "description", req.Description)
	if len(fields) > 0 {
		return "", domain.NewValidationError(fields)
	}

	exists, err := uc.store.StoryExists(ctx, req.StoryID)
	if err != nil {
		return "", err
	}
	if exists {
		return "", domain.NewDuplicateStory(req.StoryID)
	}

	event := domain.NewStoryEvent(uuid.NewString(), domain.TypeStoryCaptured, req.StoryID,
		domain.StoryDetailsPayload{Title: req.Title, Description: req.Description}, uc.clock())
	if err := uc.store.ApplyEvent(ctx, event); err != nil {
		return "", err
	}

	uc.logger.Debug("story captured", zap.String("story_id", req.StoryID))
	return req.StoryID, nil
}

// AddTask records a new task's basic details under an existing story.
func (uc *UseCase) AddTask(ctx context.Context, req AddTaskRequest) (string, error) {
	if err := uc.authorize(domain.RoleMember); err != nil {
		return "", err
	}

	var fields []domain.FieldError
	requireID(&fields, "story_id", req.StoryID)
	requireID(&fields, "id", req.TaskID)
	requireTitle(&fields, "title", req.Title)
	boundDescription(&fields, "description", req.Description)
	if len(fields) > 0 {
		return "", domain.NewValidationError(fields)
	}

	storyExists, err := uc.store.StoryExists(ctx, req.StoryID)
	if err != nil {
		return "", err
	}
	if !storyExists {
		return "", domain.NewStoryNotFound(req.StoryID)
	}
	taskExists, err := uc.store.TaskExists(ctx, req.TaskID)
	if err != nil {
		return "", err
	}
	if taskExists {
		return "", domain.NewDuplicateTask(req.TaskID)
	}

	event := domain.NewTaskEvent(uuid.NewString(), domain.TypeTaskAdded, req.StoryID,
		domain.TaskDetailsPayload{TaskID: req.TaskID, Title: req.Title, Description: req.Description}, uc.clock())
	if err := uc.store.ApplyEvent(ctx, event); err != nil {
		return "", err
	}

	uc.logger.Debug("task added",
		zap.String("story_id", req.StoryID),
		zap.String("task_id", req.TaskID))
	return req.TaskID, nil
}

// ReviseStory replaces an existing story's basic details. Revision
// requires existence only; the id stays the same so uniqueness is not
// re-checked.
func (uc *UseCase) ReviseStory(ctx context.Context, req ReviseStoryRequest) (string, error) {
	if err := uc.authorize(domain.RoleMember); err != nil {
		return "", err
	}

	var fields []domain.FieldError
	requireID(&fields, "id", req.StoryID)
	requireTitle(&fields, "title", req.Title)
	boundDescription(&fields, "description", req.Description)
	if len(fields) > 0 {
		return "", domain.NewValidationError(fields)
	}

	story, err := uc.store.GetStory(ctx, req.StoryID)
	if err != nil {
		return "", err
	}

	now := uc.clock()
	story.Revise(req.Title, req.Description, now)

	event := domain.NewStoryEvent(uuid.NewString(), domain.TypeStoryRevised, story.ID,
		domain.StoryDetailsPayload{Title: story.Title, Description: story.Description}, now)
	if err := uc.store.ApplyEvent(ctx, event); err != nil {
		return "", err
	}

	uc.logger.Debug("story revised", zap.String("story_id", story.ID))
	return story.ID, nil
}

// ReviseTask replaces an owned task's basic details.
func (uc *UseCase) ReviseTask(ctx context.Context, req ReviseTaskRequest) (string, error) {
	if err := uc.authorize(domain.RoleMember); err != nil {
		return "", err
	}

	var fields []domain.FieldError
	requireID(&fields, "story_id", req.StoryID)
	requireID(&fields, "id", req.TaskID)
	requireTitle(&fields, "title", req.Title)
	boundDescription(&fields, "description", req.Description)
	if len(fields) > 0 {
		return "", domain.NewValidationError(fields)
	}

	story, err := uc.store.GetStory(ctx, req.StoryID)
	if err != nil {
		return "", err
	}
	task := story.FindTask(req.TaskID)
	if task == nil {
		return "", domain.NewTaskNotFound(req.TaskID)
	}

	now := uc.clock()
	task.Revise(req.Title, req.Description, now)

	event := domain.NewTaskEvent(uuid.NewString(), domain.TypeTaskRevised, story.ID,
		domain.TaskDetailsPayload{TaskID: task.ID, Title: task.Title, Description: task.Description}, now)
	if err := uc.store.ApplyEvent(ctx, event); err != nil {
		return "", err
	}

	uc.logger.Debug("task revised",
		zap.String("story_id", story.ID),
		zap.String("task_id", task.ID))
	return task.ID, nil
}

// RemoveStory deletes a story and, through the store, its owned tasks.
func (uc *UseCase) RemoveStory(ctx context.Context, req RemoveStoryRequest) (string, error) {
	if err := uc.authorize(domain.RoleMember); err != nil {
		return "", err
	}

	var fields []domain.FieldError
	requireID(&fields, "id", req.StoryID)
	if len(fields) > 0 {
		return "", domain.NewValidationError(fields)
	}

	exists, err := uc.store.StoryExists(ctx, req.StoryID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", domain.NewStoryNotFound(req.StoryID)
	}

	event := domain.StoryRemovedEvent(uuid.NewString(), req.StoryID, uc.clock())
	if err := uc.store.ApplyEvent(ctx, event); err != nil {
		return "", err
	}

	uc.logger.Debug("story removed", zap.String("story_id", req.StoryID))
	return req.StoryID, nil
}

// RemoveTask deletes a single owned task.
func (uc *UseCase) RemoveTask(ctx context.Context, req RemoveTaskRequest) (string, error) {
	if err := uc.authorize(domain.RoleMember); err != nil {
		return "", err
	}

	var fields []domain.FieldError
	requireID(&fields, "story_id", req.StoryID)
	requireID(&fields, "id", req.TaskID)
	if len(fields) > 0 {
		return "", domain.NewValidationError(fields)
	}

	story, err := uc.store.GetStory(ctx, req.StoryID)
	if err != nil {
		return "", err
	}
	if !story.RemoveTask(req.TaskID) {
		return "", domain.NewTaskNotFound(req.TaskID)
	}

	event := domain.NewTaskEvent(uuid.NewString(), domain.TypeTaskRemoved, story.ID,
		domain.TaskDetailsPayload{TaskID: req.TaskID}, uc.clock())
	if err := uc.store.ApplyEvent(ctx, event); err != nil {
		return "", err
	}

	uc.logger.Debug("task removed",
		zap.String("story_id", story.ID),
		zap.String("task_id", req.TaskID))
	return req.TaskID, nil
}

// GetStory loads one aggregate with its tasks.
func (uc *UseCase) GetStory(ctx context.Context, req GetStoryRequest) (*domain.Story, error) {
	if err := uc.authorize(domain.RoleMember); err != nil {
		return nil, err
	}

	var fields []domain.FieldError
	requireID(&fields, "id", req.StoryID)
	if len(fields) > 0 {
		return nil, domain.NewValidationError(fields)
	}

	return uc.store.GetStory(ctx, req.StoryID)
}

// ListStories returns one page of stories in a stable total order.
// Concatenating pages yields every story exactly once regardless of
// page size.
func (uc *UseCase) ListStories(ctx context.Context, req ListStoriesRequest) (repository.StoryPage, error) {
	if err := uc.authorize(domain.RoleMember); err != nil {
		return repository.StoryPage{}, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	var cursor *repository.StoryCursor
	if req.PageToken != "" {
		decoded, err := repository.DecodeStoryCursor(req.PageToken)
		if err != nil {
			return repository.StoryPage{}, domain.NewValidationError([]domain.FieldError{
				{Field: "page_token", Message: "page token is not a valid cursor"},
			})
		}
		cursor = &decoded
	}

	return uc.store.ListStories(ctx, pageSize, cursor)
}

// ListEvents returns the audit trail of one aggregate. Restricted to
// administrators.
func (uc *UseCase) ListEvents(ctx context.Context, req ListEventsRequest) ([]domain.Event, error) {
	if err := uc.authorize(domain.RoleAdmin); err != nil {
		return nil, err
	}

	var fields []domain.FieldError
	requireID(&fields, "aggregate_id", req.AggregateID)
	if len(fields) > 0 {
		return nil, domain.NewValidationError(fields)
	}

	return uc.store.ListEvents(ctx, req.AggregateID)
}

func (uc *UseCase) authorize(role domain.Role) error {
	if !uc.principal.HasRole(role) {
		return domain.NewAuthorizationError(role)
	}
	return nil
}
