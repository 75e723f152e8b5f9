package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"bhatta/internal/domain/auth"
	"bhatta/internal/platform/config"
)

func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if err := ensureAdminUser(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
		return err
	}
	return ensureInventoryRow(ctx, pool, cfg.SeedOpeningStock)
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	return pool.QueryRow(ctx, "INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id", email, hash).Scan(&id)
}

// ensureInventoryRow creates the single stock row the movement ledger applies to.
func ensureInventoryRow(ctx context.Context, pool *pgxpool.Pool, openingStock int) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM inventory").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err := pool.Exec(ctx, "INSERT INTO inventory (current_stock, khanger_stock) VALUES ($1, 0)", openingStock)
	return err
}
