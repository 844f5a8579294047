package consent

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Append(ctx context.Context, userID, consentType string, granted bool) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO consent_records (user_id, consent_type, granted)
    VALUES ($1, $2, $3)
    RETURNING id
  `, userID, consentType, granted).Scan(&id)
	return id, err
}

func (s *Store) AppendTx(ctx context.Context, tx pgx.Tx, userID, consentType string, granted bool) error {
	_, err := tx.Exec(ctx, `
    INSERT INTO consent_records (user_id, consent_type, granted)
    VALUES ($1, $2, $3)
  `, userID, consentType, granted)
	return err
}

func (s *Store) History(ctx context.Context, userID string) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, user_id, consent_type, granted, created_at
    FROM consent_records
    WHERE user_id = $1
    ORDER BY created_at DESC
  `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Type, &rec.Granted, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Current returns the newest record per consent type.
func (s *Store) Current(ctx context.Context, userID string) (map[string]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT DISTINCT ON (consent_type) id, user_id, consent_type, granted, created_at
    FROM consent_records
    WHERE user_id = $1
    ORDER BY consent_type, created_at DESC, id DESC
  `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	current := map[string]Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Type, &rec.Granted, &rec.CreatedAt); err != nil {
			return nil, err
		}
		current[rec.Type] = rec
	}
	return current, nil
}

func (s *Store) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return s.DB.Begin(ctx)
}
