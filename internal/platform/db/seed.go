package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"mindwell/internal/platform/config"
)

// Seed provisions the built-in survey catalogue and, when enabled, a demo user
// for local development. Every statement is idempotent.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if err := ensureSurveys(ctx, pool); err != nil {
		return err
	}

	if cfg.SeedDemoUser && cfg.SeedDemoEmail != "" && cfg.SeedDemoPassword != "" {
		if err := ensureDemoUser(ctx, pool, cfg.SeedDemoEmail, cfg.SeedDemoPassword); err != nil {
			return err
		}
	}

	return nil
}

var builtinSurveys = []struct {
	Slug  string
	Title string
}{
	{"onboarding-baseline", "Onboarding Baseline"},
	{"weekly-wellbeing", "Weekly Wellbeing Pulse"},
	{"sleep-quality", "Sleep Quality"},
}

func ensureSurveys(ctx context.Context, pool *pgxpool.Pool) error {
	for _, survey := range builtinSurveys {
		if _, err := pool.Exec(ctx, `
      INSERT INTO surveys (slug, title, active)
      VALUES ($1, $2, true)
      ON CONFLICT (slug) DO NOTHING
    `, survey.Slug, survey.Title); err != nil {
			return err
		}
	}
	return nil
}

func ensureDemoUser(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE email = $1", email).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
    INSERT INTO users (email, password_hash, display_name, status)
    VALUES ($1, $2, 'Demo User', 'active')
  `, email, string(hash))
	return err
}
