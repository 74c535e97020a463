package ports

import (
	"context"

	"github.com/handyhub/accounts/internal/core/domain"
)

// CreateUserInput carries the validated registration fields.
type CreateUserInput struct {
	Email        string
	Password     string
	FirstName    string
	LastName     string
	Phone        string
	UserType     domain.UserType
	BusinessName string
}

// CreateUserResult is the structured outcome of an account creation attempt.
// Exactly one of (User, Token) or Error is meaningful, selected by Success.
type CreateUserResult struct {
	Success bool
	User    *domain.User
	Token   string
	Error   string
}

// UserCreator persists a new account and issues its first session token.
// Business rejections (e.g. duplicate email) come back as a result with
// Success=false; a non-nil error means the attempt itself failed.
type UserCreator interface {
	CreateUser(ctx context.Context, in CreateUserInput) (CreateUserResult, error)
}

// Claims are the verified contents of a session token.
type Claims struct {
	SessionID string
	UserID    string
	Email     string
	UserType  domain.UserType
}

// AuthService covers the whole account session lifecycle.
type AuthService interface {
	UserCreator
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*Claims, error)
	CurrentUser(ctx context.Context, userID string) (*domain.User, error)
}
