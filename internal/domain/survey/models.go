package survey

import (
	"encoding/json"
	"time"
)

// Survey is an active questionnaire. Questions are stored as an opaque JSON
// document; the server validates answers only structurally.
type Survey struct {
	ID        int64           `json:"id"`
	Slug      string          `json:"slug"`
	Title     string          `json:"title"`
	Questions json.RawMessage `json:"questions"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"createdAt"`
}

type Response struct {
	ID        int64           `json:"id"`
	SurveyID  int64           `json:"surveyId"`
	UserID    string          `json:"userId"`
	Answers   json.RawMessage `json:"answers"`
	CreatedAt time.Time       `json:"createdAt"`
}
