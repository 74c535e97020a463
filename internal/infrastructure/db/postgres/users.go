package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/handyhub/accounts/internal/core/domain"
)

const (
	usersTable = "users"

	// SQLSTATE unique_violation
	codeUniqueViolation = "23505"
)

// Builder is the subset of goqu used to build user queries. Both a goqu
// database handle and a bare dialect satisfy it.
type Builder interface {
	From(table ...interface{}) *goqu.SelectDataset
	Insert(table interface{}) *goqu.InsertDataset
}

// UserRepository implements ports.UserRepository on PostgreSQL.
type UserRepository struct {
	builder Builder
}

func NewUserRepository(builder Builder) *UserRepository {
	return &UserRepository{builder: builder}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	var row PgUser
	row.FromDomain(user)

	var created PgUser
	if _, err := r.insertQuery(row).Executor().ScanStructContext(ctx, &created); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("could not insert user into pg: %w", err)
	}
	return created.ToDomain(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, r.selectQuery(goqu.C("email").Eq(email)))
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, r.selectQuery(goqu.C("id").Eq(uid)))
}

func (r *UserRepository) findOne(ctx context.Context, ds *goqu.SelectDataset) (*domain.User, error) {
	var row PgUser
	found, err := ds.ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not find user in pg: %w", err)
	}
	if !found {
		return nil, domain.ErrUserNotFound
	}
	return row.ToDomain(), nil
}

func (r *UserRepository) insertQuery(row PgUser) *goqu.InsertDataset {
	return r.builder.Insert(usersTable).Rows(row).Returning(&PgUser{})
}

func (r *UserRepository) selectQuery(where exp.Expression) *goqu.SelectDataset {
	return r.builder.From(usersTable).Select(&PgUser{}).Where(where)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}
