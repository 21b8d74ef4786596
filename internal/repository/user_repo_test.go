package repository

import (
	"context"
	"testing"
	"time"

	"user_admin/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, UserRepository) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return mockPool, NewUserRepository(mockPool)
}

func TestUserRepository_Create(t *testing.T) {
	t.Run("inserts user and returns generated id", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		user := &model.User{
			Username:     "joao_silva",
			Email:        "joao@example.com",
			PasswordHash: "$2a$10$dummyhash",
			Role:         model.RoleEditor,
			CreatedAt:    time.Now(),
		}

		mockPool.ExpectQuery("INSERT INTO users").
			WithArgs(user.Username, user.Email, user.PasswordHash, user.Role, user.CreatedAt).
			WillReturnRows(mockPool.NewRows([]string{"id"}).AddRow(7))

		err := repo.Create(context.Background(), user)
		assert.NoError(t, err)
		assert.Equal(t, 7, user.ID)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("maps unique violation to ErrDuplicate", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		user := &model.User{
			Username:     "joao_silva",
			Email:        "joao@example.com",
			PasswordHash: "$2a$10$dummyhash",
			Role:         model.RoleEditor,
			CreatedAt:    time.Now(),
		}

		mockPool.ExpectQuery("INSERT INTO users").
			WithArgs(user.Username, user.Email, user.PasswordHash, user.Role, user.CreatedAt).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

		err := repo.Create(context.Background(), user)
		assert.ErrorIs(t, err, ErrDuplicate)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestUserRepository_FindByUsername(t *testing.T) {
	t.Run("returns user when row exists", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		now := time.Now()
		var nilToken *string
		var nilExpires *time.Time

		rows := mockPool.NewRows([]string{
			"id", "username", "email", "password_hash", "role",
			"reset_password_token", "reset_password_expires", "created_at",
		}).AddRow(1, "admin_geral", "admin@example.com", "$2a$10$dummyhash", model.RoleAdmin, nilToken, nilExpires, now)

		mockPool.ExpectQuery("SELECT (.+) FROM users WHERE username = \\$1").
			WithArgs("admin_geral").
			WillReturnRows(rows)

		user, err := repo.FindByUsername(context.Background(), "admin_geral")
		assert.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "admin_geral", user.Username)
		assert.Equal(t, model.RoleAdmin, user.Role)
		assert.Nil(t, user.ResetPasswordToken)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("returns nil without error when no row matches", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)

		mockPool.ExpectQuery("SELECT (.+) FROM users WHERE username = \\$1").
			WithArgs("ghost").
			WillReturnError(pgx.ErrNoRows)

		user, err := repo.FindByUsername(context.Background(), "ghost")
		assert.NoError(t, err)
		assert.Nil(t, user)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestUserRepository_FindAll(t *testing.T) {
	mockPool, repo := newMockRepo(t)
	now := time.Now()
	var nilToken *string
	var nilExpires *time.Time

	rows := mockPool.NewRows([]string{
		"id", "username", "email", "password_hash", "role",
		"reset_password_token", "reset_password_expires", "created_at",
	}).
		AddRow(1, "admin_geral", "admin@example.com", "h1", model.RoleAdmin, nilToken, nilExpires, now).
		AddRow(2, "joao_silva", "joao@example.com", "h2", model.RoleEditor, nilToken, nilExpires, now)

	mockPool.ExpectQuery("SELECT (.+) FROM users ORDER BY username").
		WillReturnRows(rows)

	users, err := repo.FindAll(context.Background())
	assert.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "admin_geral", users[0].Username)
	assert.Equal(t, "joao_silva", users[1].Username)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestUserRepository_Delete(t *testing.T) {
	t.Run("reports true when a row was removed", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)

		mockPool.ExpectExec("DELETE FROM users WHERE username = \\$1").
			WithArgs("joao_silva").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		deleted, err := repo.Delete(context.Background(), "joao_silva")
		assert.NoError(t, err)
		assert.True(t, deleted)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("reports false when no row matched", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)

		mockPool.ExpectExec("DELETE FROM users WHERE username = \\$1").
			WithArgs("ghost").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		deleted, err := repo.Delete(context.Background(), "ghost")
		assert.NoError(t, err)
		assert.False(t, deleted)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestUserRepository_SetResetToken(t *testing.T) {
	mockPool, repo := newMockRepo(t)
	expires := time.Now().Add(time.Hour)

	mockPool.ExpectExec("UPDATE users SET reset_password_token = \\$1, reset_password_expires = \\$2 WHERE id = \\$3").
		WithArgs("some-token", expires, 1).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.SetResetToken(context.Background(), 1, "some-token", expires)
	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestUserRepository_RedeemResetToken(t *testing.T) {
	t.Run("redeems a matching unexpired token", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)

		mockPool.ExpectExec("UPDATE users SET password_hash = \\$1, reset_password_token = NULL").
			WithArgs("$2a$10$newhash", "some-token").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		redeemed, err := repo.RedeemResetToken(context.Background(), "some-token", "$2a$10$newhash")
		assert.NoError(t, err)
		assert.True(t, redeemed)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("reports false for unknown or expired tokens", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)

		mockPool.ExpectExec("UPDATE users SET password_hash = \\$1, reset_password_token = NULL").
			WithArgs("$2a$10$newhash", "stale-token").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		redeemed, err := repo.RedeemResetToken(context.Background(), "stale-token", "$2a$10$newhash")
		assert.NoError(t, err)
		assert.False(t, redeemed)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
