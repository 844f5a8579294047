package deletionflow

import (
	"context"

	"mindwell/internal/domain/account"
)

// Backend is everything the flow needs from the server side. Implementations
// must return *Error values so failures carry a Kind; anything else is
// treated as a transport failure.
type Backend interface {
	DeletionStatus(ctx context.Context, userID string) (account.DeletionStatus, error)
	DeletionEligibility(ctx context.Context, userID string) (account.DeletionEligibility, error)
	DeleteAccount(ctx context.Context, userID string, req account.DeletionRequest) (account.DeletionResult, error)
	CancelDeletion(ctx context.Context, userID string) error
}

// ActivityLogger records workflow transitions for audit. Best-effort: the
// flow never waits on it or reacts to its failures.
type ActivityLogger interface {
	Record(ctx context.Context, userID, name string, payload map[string]any)
}
