package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/TiaaDeals/internal/domain"
	"github.com/utafrali/TiaaDeals/pkg/database"
	apperrors "github.com/utafrali/TiaaDeals/pkg/errors"
)

const userColumns = "id, first_name, last_name, email, password_hash, created_at, updated_at"

// userRow mirrors the users table; pgx maps columns onto it by name.
type userRow struct {
	ID           string    `db:"id"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r userRow) user() *domain.User {
	u := domain.User(r)
	return &u
}

// UserRepository stores shoppers in the users table.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository returns a repository running its queries on db.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts u. A taken email is reported as ErrAlreadyExists.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (err error) {
	const query = "INSERT INTO users (" + userColumns + ") VALUES ($1, $2, $3, $4, $5, $6, $7)"

	ctx, end := database.TraceQuery(ctx, "CreateUser", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query, u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	switch {
	case err == nil:
		return nil
	case database.IsUniqueViolation(err):
		return apperrors.AlreadyExists("user", "email", u.Email)
	}
	return fmt.Errorf("insert user: %w", err)
}

// GetByID looks a user up by primary key.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, "GetUserByID", "id", id)
}

// GetByEmail looks a user up by their normalized email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "GetUserByEmail", "email", email)
}

// findOne selects the single user whose column equals value. column is
// always one of the literals above, never caller input.
func (r *UserRepository) findOne(ctx context.Context, op, column, value string) (_ *domain.User, err error) {
	query := "SELECT " + userColumns + " FROM users WHERE " + column + " = $1"

	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, value)
	if err == nil {
		var row userRow
		row, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[userRow])
		if err == nil {
			return row.user(), nil
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("user", value)
	}
	return nil, fmt.Errorf("select user by %s: %w", column, err)
}
