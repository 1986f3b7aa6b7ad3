package middleware

import (
	"encoding/json"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/storytrack/backend/internal/infrastructure/audit"
)

// AccessLog records every request's method, path, status and duration
// to the structured log and, when an audit store is configured, to the
// local audit trail. Mutating requests also capture the payload.
// Recording is fire-and-forget and never affects the response.
func AccessLog(store *audit.Store, maxPayloadBytes int, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxPayloadBytes <= 0 {
		maxPayloadBytes = 4096
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			start := time.Now()
			next(ctx)
			duration := time.Since(start)

			method := string(ctx.Method())
			path := string(ctx.Path())
			status := ctx.Response.StatusCode()

			logger.Info("request handled",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("status", status),
				zap.Duration("duration", duration))

			if store == nil {
				return
			}
			record := audit.Record{
				RequestID: string(ctx.Response.Header.Peek("X-Request-ID")),
				Method:    method,
				Path:      path,
				Status:    status,
				Duration:  duration,
				At:        start.UTC(),
			}
			if principal, ok := PrincipalFrom(ctx); ok {
				record.Subject = principal.SubjectID
			}
			if isMutation(method) {
				record.Payload = capturePayload(ctx.PostBody(), maxPayloadBytes)
			}
			if err := store.Append(record); err != nil {
				logger.Warn("audit record dropped", zap.Error(err))
			}
		}
	}
}

func isMutation(method string) bool {
	switch method {
	case fasthttp.MethodPost, fasthttp.MethodPut, fasthttp.MethodDelete, fasthttp.MethodPatch:
		return true
	}
	return false
}

// capturePayload keeps the body only when it is valid JSON within the
// size cap; anything else is summarized.
func capturePayload(body []byte, max int) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if len(body) > max || !json.Valid(body) {
		summary, _ := json.Marshal(map[string]int{"truncated_bytes": len(body)})
		return summary
	}
	payload := make([]byte, len(body))
	copy(payload, body)
	return payload
}
