package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storytrack/backend/domain"
	"github.com/storytrack/backend/repository"
)

// TokenConfig carries the signing parameters for issued tokens.
type TokenConfig struct {
	Secret string
	Issuer string
}

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	token    TokenConfig
	logger   *zap.Logger
}

func New(users repository.UserRepository, sessions repository.SessionRepository, token TokenConfig, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		token:    token,
		logger:   logger,
	}
}

// LoginResult carries the signed token together with the session it references.
type LoginResult struct {
	Token   string          `json:"token"`
	Session *domain.Session `json:"session"`
}

// Login resolves the user's roles, stores a revocable session and signs
// a token referencing it.
func (uc *UseCase) Login(ctx context.Context, userID string, ttl time.Duration) (*LoginResult, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive() {
		return nil, domain.ErrUnauthorized
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Roles:     user.Roles,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	token, err := uc.sign(session, now)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("session issued",
		zap.String("user_id", user.ID),
		zap.String("session_id", session.ID))
	return &LoginResult{Token: token, Session: session}, nil
}

// RefreshSession extends an existing session's expiry.
func (uc *UseCase) RefreshSession(ctx context.Context, sessionID string, ttl time.Duration) (*domain.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := uc.sessions.Extend(ctx, sessionID, int(ttl.Seconds())); err != nil {
		return nil, err
	}
	session.ExpiresAt = time.Now().UTC().Add(ttl)
	return session, nil
}

// RevokeSession deletes the session; tokens referencing it stop working
// immediately.
func (uc *UseCase) RevokeSession(ctx context.Context, sessionID string) error {
	return uc.sessions.Delete(ctx, sessionID)
}

func (uc *UseCase) sign(session *domain.Session, now time.Time) (string, error) {
	roles := make([]string, 0, len(session.Roles))
	for _, role := range session.Roles {
		roles = append(roles, string(role))
	}
	claims := jwt.MapClaims{
		"sub":   session.UserID,
		"sid":   session.ID,
		"roles": roles,
		"iss":   uc.token.Issuer,
		"iat":   now.Unix(),
		"exp":   session.ExpiresAt.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(uc.token.Secret))
}
