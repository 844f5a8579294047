package account

import "time"

const (
	StatusActive               = "active"
	StatusSuspended            = "suspended"
	StatusScheduledForDeletion = "scheduled_for_deletion"
)

// ValidGracePeriodDays are the only accepted deletion delays, in days.
// 0 means immediate deletion.
var ValidGracePeriodDays = []int{0, 7, 14, 30}

func ValidGracePeriod(days int) bool {
	for _, allowed := range ValidGracePeriodDays {
		if days == allowed {
			return true
		}
	}
	return false
}

type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DeletionStatus is the answer to "is a deletion pending for this account".
type DeletionStatus struct {
	Status                string     `json:"status"`
	ScheduledDeletionDate *time.Time `json:"scheduledDeletionDate,omitempty"`
	DeletionReason        string     `json:"deletionReason,omitempty"`
	CanCancel             bool       `json:"canCancel,omitempty"`
}

// DeletionEligibility is computed fresh on every request and never cached.
type DeletionEligibility struct {
	CanDelete            bool     `json:"canDelete"`
	Blockers             []string `json:"blockers"`
	Warnings             []string `json:"warnings"`
	RecommendGracePeriod bool     `json:"recommendGracePeriod"`
}

type DeletionRequest struct {
	GracePeriodDays int    `json:"gracePeriodDays"`
	Reason          string `json:"reason"`
}

type DeletionResult struct {
	Scheduled    bool       `json:"scheduled"`
	DeletionDate *time.Time `json:"deletionDate,omitempty"`
}

type ScheduledDeletion struct {
	UserID                string    `json:"userId"`
	ScheduledDeletionDate time.Time `json:"scheduledDeletionDate"`
	DeletionReason        string    `json:"deletionReason"`
	CanCancel             bool      `json:"canCancel"`
}
