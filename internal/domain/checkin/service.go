package checkin

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidMood = errors.New("mood must be between 1 and 5")

const maxNoteLength = 2000

var ErrNoteTooLong = errors.New("note is too long")

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) Record(ctx context.Context, userID string, mood int, note string) (Entry, error) {
	if mood < MinMood || mood > MaxMood {
		return Entry{}, ErrInvalidMood
	}
	if len(note) > maxNoteLength {
		return Entry{}, ErrNoteTooLong
	}
	return s.store.Insert(ctx, userID, mood, note)
}

func (s *Service) History(ctx context.Context, userID string, limit, offset int) ([]Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.List(ctx, userID, limit, offset)
}

func (s *Service) Summary(ctx context.Context, userID string) (Summary, error) {
	entries, err := s.store.ListAll(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	return BuildSummary(entries, time.Now()), nil
}
