package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/storytrack/backend/api/handler"
)

type Handlers struct {
	Auth   *apiHandler.AuthHandler
	Story  *apiHandler.StoryHandler
	Health *apiHandler.HealthHandler
}

// Middleware wraps a request handler; applied outermost-first.
type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

func New(handlers Handlers, authenticate Middleware, common ...Middleware) *router.Router {
	r := router.New()

	wrap := func(h fasthttp.RequestHandler) fasthttp.RequestHandler {
		for i := len(common) - 1; i >= 0; i-- {
			h = common[i](h)
		}
		return h
	}
	protected := func(h fasthttp.RequestHandler) fasthttp.RequestHandler {
		return wrap(authenticate(h))
	}

	r.GET("/health", wrap(handlers.Health.Check))

	// Auth routes
	r.POST("/api/v1/auth/login", wrap(handlers.Auth.Login))
	r.POST("/api/v1/auth/refresh", wrap(handlers.Auth.Refresh))
	r.POST("/api/v1/auth/revoke", wrap(handlers.Auth.Revoke))

	// Story aggregate routes; role checks live in the use cases.
	r.GET("/api/v1/stories", protected(handlers.Story.ListStories))
	r.POST("/api/v1/stories", protected(handlers.Story.CaptureStory))
	r.GET("/api/v1/stories/{id}", protected(handlers.Story.GetStory))
	r.PUT("/api/v1/stories/{id}", protected(handlers.Story.ReviseStory))
	r.DELETE("/api/v1/stories/{id}", protected(handlers.Story.RemoveStory))
	r.POST("/api/v1/stories/{id}/tasks", protected(handlers.Story.AddTask))
	r.PUT("/api/v1/stories/{id}/tasks/{taskId}", protected(handlers.Story.ReviseTask))
	r.DELETE("/api/v1/stories/{id}/tasks/{taskId}", protected(handlers.Story.RemoveTask))
	r.GET("/api/v1/stories/{id}/events", protected(handlers.Story.ListEvents))

	return r
}
