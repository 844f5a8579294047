package consent

import (
	"context"
	"errors"
	"fmt"
)

var ErrUnknownType = errors.New("unknown consent type")

type Events interface {
	Publish(userID, eventType string, payload map[string]any)
}

type Service struct {
	store  *Store
	events Events
}

func NewService(store *Store, events Events) *Service {
	return &Service{store: store, events: events}
}

// Set appends one grant/revoke record. Safe to repeat: replaying the same call
// leaves the current value unchanged.
func (s *Service) Set(ctx context.Context, userID, consentType string, granted bool) (Record, error) {
	if !ValidType(consentType) {
		return Record{}, ErrUnknownType
	}

	id, err := s.store.Append(ctx, userID, consentType, granted)
	if err != nil {
		return Record{}, fmt.Errorf("append consent record: %w", err)
	}

	// Return what was persisted, not what was asked for.
	current, err := s.store.Current(ctx, userID)
	if err != nil {
		return Record{}, fmt.Errorf("read back consent: %w", err)
	}
	rec, ok := current[consentType]
	if !ok || rec.ID != id {
		return Record{}, fmt.Errorf("consent record %s not visible after write", id)
	}
	return rec, nil
}

func (s *Service) Current(ctx context.Context, userID string) (map[string]Record, error) {
	return s.store.Current(ctx, userID)
}

func (s *Service) History(ctx context.Context, userID string) ([]Record, error) {
	return s.store.History(ctx, userID)
}

// WithdrawalWrite is one consent record a full withdrawal must persist.
type WithdrawalWrite struct {
	Type    string
	Granted bool
}

// WithdrawalWrites lists the records a consent withdrawal writes. Withdrawing
// always pairs withdrawConsent=true with dataUsage=false; the two must never
// diverge.
func WithdrawalWrites() []WithdrawalWrite {
	return []WithdrawalWrite{
		{Type: TypeWithdrawConsent, Granted: true},
		{Type: TypeDataUsage, Granted: false},
	}
}

// WithdrawAll revokes data usage in one transaction. Either both records are
// persisted or neither is; the returned state is read back after commit.
func (s *Service) WithdrawAll(ctx context.Context, userID string) (map[string]Record, error) {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin withdrawal: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, write := range WithdrawalWrites() {
		if err := s.store.AppendTx(ctx, tx, userID, write.Type, write.Granted); err != nil {
			return nil, fmt.Errorf("append %s record: %w", write.Type, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit withdrawal: %w", err)
	}

	current, err := s.store.Current(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read back consent: %w", err)
	}

	if s.events != nil {
		s.events.Publish(userID, "consent.withdrawn", nil)
	}
	return current, nil
}
