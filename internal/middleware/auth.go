package middleware

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/storytrack/backend/domain"
	"github.com/storytrack/backend/repository"
)

const principalKey = "principal"

// Authenticator verifies bearer tokens and installs the resulting
// principal on the request. Authorization against roles happens inside
// the use cases, not here.
type Authenticator struct {
	secret   string
	sessions repository.SessionRepository
	logger   *zap.Logger
}

func NewAuthenticator(secret string, sessions repository.SessionRepository, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{
		secret:   secret,
		sessions: sessions,
		logger:   logger,
	}
}

// Wrap rejects requests without a live, validly signed session token.
func (a *Authenticator) Wrap(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		tokenString := extractToken(ctx)
		if tokenString == "" {
			ctx.SetStatusCode(fasthttp.StatusUnauthorized)
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return []byte(a.secret), nil
		})
		if err != nil || !token.Valid {
			a.logger.Warn("invalid token", zap.Error(err))
			ctx.SetStatusCode(fasthttp.StatusUnauthorized)
			return
		}

		principal, ok := a.principalFromClaims(ctx, token.Claims)
		if !ok {
			ctx.SetStatusCode(fasthttp.StatusUnauthorized)
			return
		}

		ctx.SetUserValue(principalKey, principal)
		next(ctx)
	}
}

// principalFromClaims rebuilds the principal from the token claims and
// verifies the referenced session has not been revoked.
func (a *Authenticator) principalFromClaims(ctx context.Context, claims jwt.Claims) (domain.Principal, bool) {
	mapClaims, ok := claims.(jwt.MapClaims)
	if !ok {
		return domain.Principal{}, false
	}

	subject, _ := mapClaims["sub"].(string)
	sessionID, _ := mapClaims["sid"].(string)
	if subject == "" || sessionID == "" {
		return domain.Principal{}, false
	}

	if a.sessions != nil {
		if _, err := a.sessions.Get(ctx, sessionID); err != nil {
			a.logger.Warn("session rejected",
				zap.String("session_id", sessionID),
				zap.Error(err))
			return domain.Principal{}, false
		}
	}

	principal := domain.Principal{SubjectID: subject}
	if rawRoles, ok := mapClaims["roles"].([]interface{}); ok {
		for _, raw := range rawRoles {
			if role, ok := raw.(string); ok {
				principal.Roles = append(principal.Roles, domain.Role(role))
			}
		}
	}
	return principal, true
}

// PrincipalFrom returns the principal installed by the Authenticator.
func PrincipalFrom(ctx *fasthttp.RequestCtx) (domain.Principal, bool) {
	principal, ok := ctx.UserValue(principalKey).(domain.Principal)
	return principal, ok
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
