package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/storytrack/backend/api/transport"
	"github.com/storytrack/backend/domain"
	"github.com/storytrack/backend/internal/middleware"
	"github.com/storytrack/backend/pkg/httpcontext"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

// principal returns the authenticated principal installed by the auth
// middleware, responding 401 when it is absent.
func (h baseHandler) principal(ctx *fasthttp.RequestCtx) (domain.Principal, bool) {
	principal, ok := middleware.PrincipalFrom(ctx)
	if !ok {
		h.respondProblem(ctx, transport.NewProblem(domain.ErrUnauthorized))
		return domain.Principal{}, false
	}
	return principal, true
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondSuccessMeta(ctx, status, data, nil)
}

func (h baseHandler) respondSuccessMeta(ctx *fasthttp.RequestCtx, status int, data, meta interface{}) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(transport.NewSuccess(data, meta))
	ctx.SetBody(body)
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	problem := transport.NewProblem(err)
	if problem.Status == http.StatusInternalServerError {
		// Full detail stays server-side; the client gets an opaque body.
		h.logger.Error("request failed", zap.Error(err))
	}
	h.respondProblem(ctx, problem)
}

func (h baseHandler) respondProblem(ctx *fasthttp.RequestCtx, problem transport.Problem) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(problem.Status)
	body, _ := json.Marshal(problem)
	ctx.SetBody(body)
}

func (h baseHandler) badRequest(ctx *fasthttp.RequestCtx, detail string) {
	h.respondProblem(ctx, transport.Problem{
		Type:   string(domain.ErrCodeInvalid),
		Title:  "validation failed",
		Status: http.StatusBadRequest,
		Detail: detail,
	})
}
