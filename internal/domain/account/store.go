package account

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) GetUser(ctx context.Context, userID string) (User, error) {
	var out User
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, display_name, status, created_at
    FROM users
    WHERE id = $1
  `, userID).Scan(&out.ID, &out.Email, &out.DisplayName, &out.Status, &out.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return out, err
}

func (s *Store) GetScheduledDeletion(ctx context.Context, userID string) (ScheduledDeletion, bool, error) {
	var out ScheduledDeletion
	err := s.DB.QueryRow(ctx, `
    SELECT user_id, scheduled_for, reason, can_cancel
    FROM scheduled_deletions
    WHERE user_id = $1
  `, userID).Scan(&out.UserID, &out.ScheduledDeletionDate, &out.DeletionReason, &out.CanCancel)
	if errors.Is(err, pgx.ErrNoRows) {
		return ScheduledDeletion{}, false, nil
	}
	if err != nil {
		return ScheduledDeletion{}, false, err
	}
	return out, true, nil
}

// ScheduleDeletion inserts the single scheduled-deletion row for the account
// and flips its status, atomically. The unique constraint on user_id enforces
// the one-pending-deletion invariant even against a concurrent session.
func (s *Store) ScheduleDeletion(ctx context.Context, userID string, scheduledFor time.Time, reason string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
    INSERT INTO scheduled_deletions (user_id, scheduled_for, reason, can_cancel)
    VALUES ($1, $2, $3, true)
    ON CONFLICT (user_id) DO NOTHING
  `, userID, scheduledFor, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyScheduled
	}

	if _, err := tx.Exec(ctx, `
    UPDATE users SET status = $1 WHERE id = $2
  `, StatusScheduledForDeletion, userID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *Store) CancelScheduledDeletion(ctx context.Context, userID string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, "DELETE FROM scheduled_deletions WHERE user_id = $1", userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotScheduled
	}

	if _, err := tx.Exec(ctx, `
    UPDATE users SET status = $1 WHERE id = $2
  `, StatusActive, userID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// HardDelete removes the account and every row it owns in one transaction.
func (s *Store) HardDelete(ctx context.Context, userID string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	owned := []string{
		"DELETE FROM mood_checkins WHERE user_id = $1",
		"DELETE FROM survey_responses WHERE user_id = $1",
		"DELETE FROM consent_records WHERE user_id = $1",
		"DELETE FROM data_exports WHERE user_id = $1",
		"DELETE FROM activity_events WHERE user_id = $1",
		"DELETE FROM idempotency_keys WHERE user_id = $1",
		"DELETE FROM scheduled_deletions WHERE user_id = $1",
		"DELETE FROM users WHERE id = $1",
	}
	for _, statement := range owned {
		if _, err := tx.Exec(ctx, statement, userID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// DueDeletions lists accounts whose grace window has elapsed.
func (s *Store) DueDeletions(ctx context.Context, now time.Time) ([]ScheduledDeletion, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT user_id, scheduled_for, reason, can_cancel
    FROM scheduled_deletions
    WHERE scheduled_for <= $1
    ORDER BY scheduled_for
  `, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []ScheduledDeletion
	for rows.Next() {
		var sd ScheduledDeletion
		if err := rows.Scan(&sd.UserID, &sd.ScheduledDeletionDate, &sd.DeletionReason, &sd.CanCancel); err != nil {
			return nil, err
		}
		due = append(due, sd)
	}
	return due, nil
}

// EligibilityFacts gathers the server-side facts eligibility is computed from.
func (s *Store) EligibilityFacts(ctx context.Context, userID string) (Facts, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return Facts{}, err
	}

	facts := Facts{
		Status:         user.Status,
		AccountAgeDays: int(time.Since(user.CreatedAt).Hours() / 24),
	}

	if err := s.DB.QueryRow(ctx,
		"SELECT COUNT(1) FROM mood_checkins WHERE user_id = $1", userID,
	).Scan(&facts.CheckinCount); err != nil {
		return Facts{}, err
	}
	if err := s.DB.QueryRow(ctx,
		"SELECT COUNT(1) FROM survey_responses WHERE user_id = $1", userID,
	).Scan(&facts.SurveyResponseCount); err != nil {
		return Facts{}, err
	}
	if err := s.DB.QueryRow(ctx,
		"SELECT COUNT(1) FROM data_exports WHERE user_id = $1 AND status = 'processing'", userID,
	).Scan(&facts.ProcessingExports); err != nil {
		return Facts{}, err
	}
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM (
      SELECT DISTINCT ON (consent_type) granted
      FROM consent_records
      WHERE user_id = $1
      ORDER BY consent_type, created_at DESC, id DESC
    ) latest
    WHERE latest.granted
  `, userID).Scan(&facts.GrantedConsents); err != nil {
		return Facts{}, err
	}

	return facts, nil
}
