package survey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"mindwell/internal/domain/consent"
)

var (
	ErrSurveyNotFound  = errors.New("survey not found")
	ErrSurveyInactive  = errors.New("survey is no longer active")
	ErrConsentRequired = errors.New("survey submission consent has not been granted")
	ErrInvalidAnswers  = errors.New("answers must be a JSON object")
)

// Consents reports a user's current consent records.
type Consents interface {
	Current(ctx context.Context, userID string) (map[string]consent.Record, error)
}

type Service struct {
	store    *Store
	consents Consents
}

func NewService(store *Store, consents Consents) *Service {
	return &Service{store: store, consents: consents}
}

func (s *Service) ListActive(ctx context.Context) ([]Survey, error) {
	return s.store.ListActive(ctx)
}

// Submit records a response. Submission requires a current surveySubmission
// consent grant; the check happens at submit time, not at listing.
func (s *Service) Submit(ctx context.Context, userID string, surveyID int64, answers json.RawMessage) (Response, error) {
	current, err := s.consents.Current(ctx, userID)
	if err != nil {
		return Response{}, fmt.Errorf("check consent: %w", err)
	}
	if !current[consent.TypeSurveySubmission].Granted {
		return Response{}, ErrConsentRequired
	}

	sv, err := s.store.FindByID(ctx, surveyID)
	if err != nil {
		return Response{}, err
	}
	if !sv.Active {
		return Response{}, ErrSurveyInactive
	}

	var obj map[string]any
	if err := json.Unmarshal(answers, &obj); err != nil || obj == nil {
		return Response{}, ErrInvalidAnswers
	}

	return s.store.InsertResponse(ctx, surveyID, userID, answers)
}

func (s *Service) Responses(ctx context.Context, userID string) ([]Response, error) {
	return s.store.ListResponses(ctx, userID)
}
