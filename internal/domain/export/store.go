package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

const exportColumns = `id, user_id, kind, status, COALESCE(file_path, ''), COALESCE(error, ''), created_at, completed_at`

func scanExport(row pgx.Row) (Export, error) {
	var e Export
	err := row.Scan(&e.ID, &e.UserID, &e.Kind, &e.Status, &e.FilePath, &e.Error, &e.CreatedAt, &e.CompletedAt)
	return e, err
}

func (s *Store) Create(ctx context.Context, userID, kind string) (Export, error) {
	e, err := scanExport(s.DB.QueryRow(ctx, `
		INSERT INTO data_exports (user_id, kind, status)
		VALUES ($1, $2, 'pending')
		RETURNING `+exportColumns,
		userID, kind,
	))
	if err != nil {
		return Export{}, fmt.Errorf("create export: %w", err)
	}
	return e, nil
}

func (s *Store) FindForUser(ctx context.Context, id, userID string) (Export, error) {
	e, err := scanExport(s.DB.QueryRow(ctx, `
		SELECT `+exportColumns+`
		FROM data_exports
		WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Export{}, ErrExportNotFound
	}
	if err != nil {
		return Export{}, fmt.Errorf("find export: %w", err)
	}
	return e, nil
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]Export, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT `+exportColumns+`
		FROM data_exports
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()

	exports := []Export{}
	for rows.Next() {
		e, err := scanExport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		exports = append(exports, e)
	}
	return exports, rows.Err()
}

// ClaimNextPending flips the oldest pending export to processing and returns
// it. SKIP LOCKED makes concurrent workers safe. found=false means the queue
// is drained.
func (s *Store) ClaimNextPending(ctx context.Context) (Export, bool, error) {
	e, err := scanExport(s.DB.QueryRow(ctx, `
		UPDATE data_exports
		SET status = 'processing'
		WHERE id = (
			SELECT id FROM data_exports
			WHERE status = 'pending'
			ORDER BY created_at, id
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING `+exportColumns,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Export{}, false, nil
	}
	if err != nil {
		return Export{}, false, fmt.Errorf("claim export: %w", err)
	}
	return e, true, nil
}

func (s *Store) MarkReady(ctx context.Context, id, filePath string) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE data_exports
		SET status = 'ready', file_path = $2, error = NULL, completed_at = now()
		WHERE id = $1`,
		id, filePath,
	)
	if err != nil {
		return fmt.Errorf("mark export ready: %w", err)
	}
	return nil
}

func (s *Store) MarkFailed(ctx context.Context, id, reason string) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE data_exports
		SET status = 'failed', error = $2, completed_at = now()
		WHERE id = $1`,
		id, reason,
	)
	if err != nil {
		return fmt.Errorf("mark export failed: %w", err)
	}
	return nil
}
