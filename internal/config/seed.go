package config

import (
	"context"
	"fmt"

	"user_admin/internal/model"
	"user_admin/internal/utils"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type seedUser struct {
	username string
	password string
	role     string
	email    string
}

// SeedUsers populates the users table with initial accounts when it is empty,
// so a fresh deployment has an admin to log in with.
func SeedUsers(ctx context.Context, db *pgxpool.Pool, logger *zap.Logger) error {
	var count int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	initialUsers := []seedUser{
		{username: "admin_geral", password: "admin123", role: model.RoleAdmin, email: "admin@example.com"},
		{username: "joao_silva", password: "joao123", role: model.RoleEditor, email: "joao@example.com"},
		{username: "maria_ferreira", password: "maria123", role: model.RoleReader, email: "maria@example.com"},
	}

	for _, u := range initialUsers {
		hash, err := utils.HashPassword(u.password)
		if err != nil {
			return fmt.Errorf("failed to hash seed password: %w", err)
		}
		_, err = db.Exec(ctx,
			`INSERT INTO users (username, email, password_hash, role) VALUES ($1, $2, $3, $4)`,
			u.username, u.email, hash, u.role)
		if err != nil {
			return fmt.Errorf("failed to insert seed user %s: %w", u.username, err)
		}
	}

	logger.Info("seeded initial users", zap.Int("count", len(initialUsers)))
	return nil
}
