package export

import (
	"errors"
	"time"
)

const (
	KindAccount         = "account"
	KindConsents        = "consents"
	KindMoodHistory     = "mood-history"
	KindSurveyResponses = "survey-responses"
)

var Kinds = []string{KindAccount, KindConsents, KindMoodHistory, KindSurveyResponses}

func ValidKind(kind string) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

var (
	ErrUnknownKind    = errors.New("unknown export kind")
	ErrExportNotFound = errors.New("export not found")
	ErrNotReady       = errors.New("export is not ready for download")
)

// Export is one requested data export. The archive on disk is encrypted;
// FilePath never leaves the server.
type Export struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Kind        string     `json:"kind"`
	Status      string     `json:"status"`
	FilePath    string     `json:"-"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
