package auth

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

type AuthUser struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Status       string
}

func (s *Store) CreateUser(ctx context.Context, email, passwordHash, displayName string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (email, password_hash, display_name, status)
    VALUES ($1, $2, $3, 'active')
    RETURNING id
  `, email, passwordHash, displayName).Scan(&id)
	return id, err
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	var out AuthUser
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, display_name, password_hash, status
    FROM users
    WHERE email = $1
  `, email).Scan(&out.ID, &out.Email, &out.DisplayName, &out.PasswordHash, &out.Status)
	return out, err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}
