package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/storytrack/backend/api/transport"
	"github.com/storytrack/backend/internal/uow"
	"github.com/storytrack/backend/pkg/httpcontext"
	storyUC "github.com/storytrack/backend/usecase/story"
)

// StoryHandler maps HTTP calls onto story commands and queries. Each
// request gets its own unit of work: the transaction commits only when
// the use case succeeds and is rolled back otherwise.
type StoryHandler struct {
	baseHandler
	envs  *uow.Factory
	clock storyUC.Clock
}

func NewStoryHandler(envs *uow.Factory, clock storyUC.Clock, adapter *httpcontext.Adapter, logger *zap.Logger) *StoryHandler {
	if clock == nil {
		clock = storyUC.UTCNow
	}
	return &StoryHandler{
		baseHandler: newBaseHandler(adapter, logger),
		envs:        envs,
		clock:       clock,
	}
}

// run executes one use case inside a fresh unit of work and writes the
// response. The deferred Close rolls back whenever fn failed or the
// handler panicked before commit.
func (h *StoryHandler) run(ctx *fasthttp.RequestCtx, successStatus int,
	fn func(stdCtx context.Context, uc *storyUC.UseCase) (interface{}, interface{}, error)) {

	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	env := h.envs.New()
	defer env.Close(stdCtx)

	store, err := env.Begin(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	uc := storyUC.New(principal, store, h.clock, h.logger)
	data, meta, err := fn(stdCtx, uc)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if err := env.Commit(stdCtx); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccessMeta(ctx, successStatus, data, meta)
}

// @Summary Capture story basic details
// @Tags stories
// @Router /api/v1/stories [post]
func (h *StoryHandler) CaptureStory(ctx *fasthttp.RequestCtx) {
	var req transport.StoryRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.badRequest(ctx, "invalid payload")
		return
	}

	h.run(ctx, http.StatusCreated, func(stdCtx context.Context, uc *storyUC.UseCase) (interface{}, interface{}, error) {
		id, err := uc.CaptureStory(stdCtx, storyUC.CaptureStoryRequest{
			StoryID:     req.ID,
			Title:       req.Title,
			Description: req.Description,
		})
		return map[string]string{"id": id}, nil, err
	})
}

// @Summary Add task basic details to a story
// @Tags stories
// @Router /api/v1/stories/{id}/tasks [post]
func (h *StoryHandler) AddTask(ctx *fasthttp.RequestCtx) {
	var req transport.TaskRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.badRequest(ctx, "invalid payload")
		return
	}
	storyID, _ := ctx.UserValue("id").(string)

	h.run(ctx, http.StatusCreated, func(stdCtx context.Context, uc *storyUC.UseCase) (interface{}, interface{}, error) {
		id, err := uc.AddTask(stdCtx, storyUC.AddTaskRequest{
			StoryID:     storyID,
			TaskID:      req.ID,
			Title:       req.Title,
			Description: req.Description,
		})
		return map[string]string{"id": id}, nil, err
	})
}

// @Summary Revise story basic details
// @Tags stories
// @Router /api/v1/stories/{id} [put]
func (h *StoryHandler) ReviseStory(ctx *fasthttp.RequestCtx) {
	var req transport.StoryRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.badRequest(ctx, "invalid payload")
		return
	}
	storyID, _ := ctx.UserValue("id").(string)

	h.run(ctx, http.StatusOK, func(stdCtx context.Context, uc *storyUC.UseCase) (interface{}, interface{}, error) {
		id, err := uc.ReviseStory(stdCtx, storyUC.ReviseStoryRequest{
			StoryID:     storyID,
			Title:       req.Title,
			Description: req.Description,
		})
		return map[string]string{"id": id}, nil, err
	})
}

// @Summary Revise task basic details
// @Tags stories
// @Router /api/v1/stories/{id}/tasks/{taskId} [put]
func (h *StoryHandler) ReviseTask(ctx *fasthttp.RequestCtx) {
	var req transport.TaskRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.badRequest(ctx, "invalid payload")
		return
	}
	storyID, _ := ctx.UserValue("id").(string)
	taskID, _ := ctx.UserValue("taskId").(string)

	h.run(ctx, http.StatusOK, func(stdCtx context.Context, uc *storyUC.UseCase) (interface{}, interface{}, error) {
		id, err := uc.ReviseTask(stdCtx, storyUC.ReviseTaskRequest{
			StoryID:     storyID,
			TaskID:      taskID,
			Title:       req.Title,
			Description: req.Description,
		})
		return map[string]string{"id": id}, nil, err
	})
}

// @Summary Remove a story and its tasks
// @Tags stories
// @Router /api/v1/stories/{id} [delete]
func (h *StoryHandler) RemoveStory(ctx *fasthttp.RequestCtx) {
	storyID, _ := ctx.UserValue("id").(string)

	h.run(ctx, http.StatusOK, func(stdCtx context.Context, uc *storyUC.UseCase) (interface{}, interface{}, error) {
		id, err := uc.RemoveStory(stdCtx, storyUC.RemoveStoryRequest{StoryID: storyID})
		return map[string]string{"id": id}, nil, err
	})
}

// @Summary Remove a task
// @Tags stories
// @Router /api/v1/stories/{id}/tasks/{taskId} [delete]
func (h *StoryHandler) RemoveTask(ctx *fasthttp.RequestCtx) {
	storyID, _ := ctx.UserValue("id").(string)
	taskID, _ := ctx.UserValue("taskId").(string)

	h.run(ctx, http.StatusOK, func(stdCtx context.Context, uc *storyUC.UseCase) (interface{}, interface{}, error) {
		id, err := uc.RemoveTask(stdCtx, storyUC.RemoveTaskRequest{StoryID: storyID, TaskID: taskID})
		return map[string]string{"id": id}, nil, err
	})
}

// @Summary Get a story with its tasks
// @Tags stories
// @Router /api/v1/stories/{id} [get]
func (h *StoryHandler) GetStory(ctx *fasthttp.RequestCtx) {
	storyID, _ := ctx.UserValue("id").(string)

	h.run(ctx, http.StatusOK, func(stdCtx context.Context, uc *storyUC.UseCase) (interface{}, interface{}, error) {
		story, err := uc.GetStory(stdCtx, storyUC.GetStoryRequest{StoryID: storyID})
		return story, nil, err
	})
}

// @Summary List stories page by page
// @Tags stories
// @Router /api/v1/stories [get]
func (h *StoryHandler) ListStories(ctx *fasthttp.RequestCtx) {
	req := storyUC.ListStoriesRequest{
		PageSize:  parseInt(string(ctx.QueryArgs().Peek("limit")), 0),
		PageToken: string(ctx.QueryArgs().Peek("cursor")),
	}

	h.run(ctx, http.StatusOK, func(stdCtx context.Context, uc *storyUC.UseCase) (interface{}, interface{}, error) {
		page, err := uc.ListStories(stdCtx, req)
		if err != nil {
			return nil, nil, err
		}
		return page.Stories, transport.StoryPageMeta{NextPageToken: page.NextPageToken}, nil
	})
}

// @Summary List the domain events of one aggregate
// @Tags stories
// @Router /api/v1/stories/{id}/events [get]
func (h *StoryHandler) ListEvents(ctx *fasthttp.RequestCtx) {
	storyID, _ := ctx.UserValue("id").(string)

	h.run(ctx, http.StatusOK, func(stdCtx context.Context, uc *storyUC.UseCase) (interface{}, interface{}, error) {
		events, err := uc.ListEvents(stdCtx, storyUC.ListEventsRequest{AggregateID: storyID})
		return events, nil, err
	})
}

func parseInt(value string, fallback int) int {
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}
