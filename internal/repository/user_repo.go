package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"user_admin/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicate indicates a unique-constraint violation on username or email.
var ErrDuplicate = errors.New("username or email already exists")

const uniqueViolationCode = "23505"

// DB is the subset of pgxpool.Pool the repository needs. pgxmock satisfies it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository defines operations for user data
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindAll(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, username string) (bool, error)
	SetResetToken(ctx context.Context, userID int, token string, expires time.Time) error
	RedeemResetToken(ctx context.Context, token, passwordHash string) (bool, error)
}

type userRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, email, password_hash, role, reset_password_token, reset_password_expires, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role,
		&user.ResetPasswordToken, &user.ResetPasswordExpires, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found is not an error for find methods, service layer handles it
		}
		return nil, err
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	sql := `INSERT INTO users (username, email, password_hash, role, created_at)
            VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := r.db.QueryRow(ctx, sql, user.Username, user.Email, user.PasswordHash, user.Role, user.CreatedAt).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByUsername retrieves a user by their username
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	user, err := scanUser(r.db.QueryRow(ctx, sql, username))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}
	return user, nil
}

// FindByEmail retrieves a user by their email address
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRow(ctx, sql, email))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// FindAll retrieves all users ordered by username
func (r *userRepository) FindAll(ctx context.Context) ([]model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users ORDER BY username`
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
			&u.ResetPasswordToken, &u.ResetPasswordExpires, &u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

// Update persists email, password hash and role changes for an existing user
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	sql := `UPDATE users SET email = $1, password_hash = $2, role = $3 WHERE id = $4`
	cmdTag, err := r.db.Exec(ctx, sql, user.Email, user.PasswordHash, user.Role, user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("user not found for update")
	}
	return nil
}

// Delete removes a user. Returns false if no row matched the username.
func (r *userRepository) Delete(ctx context.Context, username string) (bool, error) {
	sql := `DELETE FROM users WHERE username = $1`
	cmdTag, err := r.db.Exec(ctx, sql, username)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	return cmdTag.RowsAffected() > 0, nil
}

// SetResetToken stores a reset token and its expiry, replacing any previous one.
func (r *userRepository) SetResetToken(ctx context.Context, userID int, token string, expires time.Time) error {
	sql := `UPDATE users SET reset_password_token = $1, reset_password_expires = $2 WHERE id = $3`
	cmdTag, err := r.db.Exec(ctx, sql, token, expires, userID)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("user not found for reset token update")
	}
	return nil
}

// RedeemResetToken sets the new password hash and clears the reset columns in one
// statement, matching only an unexpired token. Returns false when no row matched,
// which covers both unknown and expired tokens.
func (r *userRepository) RedeemResetToken(ctx context.Context, token, passwordHash string) (bool, error) {
	sql := `UPDATE users SET password_hash = $1, reset_password_token = NULL, reset_password_expires = NULL
            WHERE reset_password_token = $2 AND reset_password_expires > NOW()`
	cmdTag, err := r.db.Exec(ctx, sql, passwordHash, token)
	if err != nil {
		return false, fmt.Errorf("failed to redeem reset token: %w", err)
	}
	return cmdTag.RowsAffected() > 0, nil
}
