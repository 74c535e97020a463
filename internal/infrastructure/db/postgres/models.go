package postgres

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/handyhub/accounts/internal/core/domain"
)

// PgUser mirrors a row of the users table.
type PgUser struct {
	ID           uuid.UUID      `db:"id"`
	Email        string         `db:"email"`
	PasswordHash string         `db:"password_hash"`
	FirstName    string         `db:"first_name"`
	LastName     string         `db:"last_name"`
	Phone        sql.NullString `db:"phone"`
	UserType     string         `db:"user_type"`
	BusinessName sql.NullString `db:"business_name"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// FromDomain fills the row from user, assigning a fresh id when user has none.
func (p *PgUser) FromDomain(user *domain.User) {
	id, err := uuid.Parse(user.ID)
	if err != nil {
		id = uuid.New()
	}

	*p = PgUser{
		ID:           id,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Phone:        nullString(user.Phone),
		UserType:     string(user.UserType),
		BusinessName: nullString(user.BusinessName),
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func (p *PgUser) ToDomain() *domain.User {
	return &domain.User{
		ID:           p.ID.String(),
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Phone:        p.Phone.String,
		UserType:     domain.UserType(p.UserType),
		BusinessName: p.BusinessName.String,
		CreatedAt:    p.CreatedAt.UTC(),
		UpdatedAt:    p.UpdatedAt.UTC(),
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
