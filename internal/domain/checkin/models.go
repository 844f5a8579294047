package checkin

import "time"

const (
	MinMood = 1
	MaxMood = 5
)

// Entry is one mood check-in. Mood is a 1..5 scale; Note is optional
// free text, encrypted at rest.
type Entry struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	Mood      int       `json:"mood"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary aggregates a user's check-in history.
type Summary struct {
	Count       int     `json:"count"`
	AverageMood float64 `json:"averageMood"`
	StreakDays  int     `json:"streakDays"`
}
