package survey

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"mindwell/internal/domain/consent"
)

type stubConsents struct {
	current map[string]consent.Record
	err     error
}

func (s stubConsents) Current(ctx context.Context, userID string) (map[string]consent.Record, error) {
	return s.current, s.err
}

func TestSubmitRequiresConsent(t *testing.T) {
	tests := []struct {
		name    string
		current map[string]consent.Record
	}{
		{"no record", map[string]consent.Record{}},
		{"explicitly denied", map[string]consent.Record{
			consent.TypeSurveySubmission: {Type: consent.TypeSurveySubmission, Granted: false},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(nil, stubConsents{current: tt.current})
			_, err := svc.Submit(context.Background(), "u1", 1, json.RawMessage(`{"q1":"a"}`))
			if !errors.Is(err, ErrConsentRequired) {
				t.Fatalf("err = %v, want ErrConsentRequired", err)
			}
		})
	}
}

func TestSubmitConsentCheckFailure(t *testing.T) {
	svc := NewService(nil, stubConsents{err: errors.New("boom")})
	_, err := svc.Submit(context.Background(), "u1", 1, json.RawMessage(`{}`))
	if err == nil || errors.Is(err, ErrConsentRequired) {
		t.Fatalf("err = %v, want wrapped consent lookup failure", err)
	}
}
