package repository

import (
	"context"

	"github.com/storytrack/backend/domain"
)

// UserRepository resolves registered accounts for session issuance.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
