package middleware

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Recover converts a panicking handler into an opaque 500. The unit of
// work's deferred rollback has already run by the time this fires.
func Recover(logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("handler panicked",
						zap.Any("panic", r),
						zap.ByteString("path", ctx.Path()))
					ctx.Response.Reset()
					ctx.SetStatusCode(http.StatusInternalServerError)
					ctx.SetContentType("application/json")
					ctx.SetBodyString(`{"type":"INTERNAL","title":"internal error","status":500}`)
				}
			}()
			next(ctx)
		}
	}
}
