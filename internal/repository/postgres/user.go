package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/msomdec/taskdesk/internal/domain"
)

const uniqueViolation = "23505"

// UserRepository implements domain.UserRepository on PostgreSQL.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new PostgreSQL-backed UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, profile_pic_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Name, user.Email, user.PasswordHash, string(user.Role), user.ProfilePicURL, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, role, profile_pic_url, created_at, updated_at
		 FROM users WHERE id = $1`, id)
	return scanOne(row, "query user by id")
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, role, profile_pic_url, created_at, updated_at
		 FROM users WHERE email = $1`, email)
	return scanOne(row, "query user by email")
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, password_hash, role, profile_pic_url, created_at, updated_at
		 FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var (
			u    domain.User
			role string
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.ProfilePicURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Role = domain.Role(role)
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) Update(ctx context.Context, id string, changes domain.UserChanges) error {
	cols, args := changes.Assignments()
	var set strings.Builder
	for i, col := range cols {
		fmt.Fprintf(&set, "%s = $%d, ", col, i+1)
	}
	fmt.Fprintf(&set, "updated_at = $%d", len(cols)+1)
	args = append(args, time.Now().UTC(), id)

	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET `+set.String()+fmt.Sprintf(` WHERE id = $%d`, len(args)), args...)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("update user: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanOne(row *sql.Row, op string) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.ProfilePicURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u.Role = domain.Role(role)
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
