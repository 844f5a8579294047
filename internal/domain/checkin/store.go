package checkin

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"mindwell/internal/platform/crypto"
)

// Store persists mood check-ins. Notes go through the encryption service
// before they touch the database.
type Store struct {
	DB     *pgxpool.Pool
	Crypto *crypto.Service
}

func (s *Store) Insert(ctx context.Context, userID string, mood int, note string) (Entry, error) {
	sealed, err := s.Crypto.Encrypt([]byte(note))
	if err != nil {
		return Entry{}, fmt.Errorf("encrypt note: %w", err)
	}

	var entry Entry
	err = s.DB.QueryRow(ctx, `
		INSERT INTO mood_checkins (user_id, mood, note)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, mood, created_at`,
		userID, mood, sealed,
	).Scan(&entry.ID, &entry.UserID, &entry.Mood, &entry.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("insert checkin: %w", err)
	}
	entry.Note = note
	return entry, nil
}

func (s *Store) List(ctx context.Context, userID string, limit, offset int) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, user_id, mood, note, created_at
		FROM mood_checkins
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list checkins: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var entry Entry
		var sealed []byte
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Mood, &sealed, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan checkin: %w", err)
		}
		plain, err := s.Crypto.Decrypt(sealed)
		if err != nil {
			return nil, fmt.Errorf("decrypt note: %w", err)
		}
		entry.Note = string(plain)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ListAll returns the full history newest first, for summaries and exports.
func (s *Store) ListAll(ctx context.Context, userID string) ([]Entry, error) {
	return s.List(ctx, userID, 10000, 0)
}
