package ports

import (
	"context"
	"time"

	"github.com/handyhub/accounts/internal/core/domain"
)

// UserRepository defines the persistence contract for user accounts.
// Implementations return domain.ErrUserExists on a duplicate email and
// domain.ErrUserNotFound when a lookup matches nothing.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// SessionStore tracks issued sessions so they can be revoked before expiry.
type SessionStore interface {
	Save(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	Revoke(ctx context.Context, sessionID string) error
}
