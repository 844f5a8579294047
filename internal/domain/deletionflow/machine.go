package deletionflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mindwell/internal/domain/account"
)

// Flow drives one account-deletion workflow for one user. All transitions are
// serialized by the mutex: a caller arriving while a backend call is in
// flight waits for it to resolve, then sees the settled state. State only
// ever changes on a completed result, never optimistically.
type Flow struct {
	mu      sync.Mutex
	backend Backend
	log     ActivityLogger
	userID  string
	state   State
}

func New(backend Backend, log ActivityLogger, userID string) *Flow {
	return &Flow{backend: backend, log: log, userID: userID, state: Idle{}}
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Start opens the workflow. An existing scheduled deletion preempts
// everything else; otherwise eligibility decides between blocked and warning.
// Valid from idle, closed or error only: a flow that is already open cannot
// be started again.
func (f *Flow) Start(ctx context.Context) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state.(type) {
	case Idle, Closed, Errored:
	default:
		return f.state, ErrInvalidTransition
	}
	return f.load(ctx), nil
}

// Retry re-runs the failed initial load.
func (f *Flow) Retry(ctx context.Context) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.state.(Errored); !ok {
		return f.state, ErrInvalidTransition
	}
	return f.load(ctx), nil
}

func (f *Flow) load(ctx context.Context) State {
	status, err := f.backend.DeletionStatus(ctx, f.userID)
	if err != nil {
		f.state = Errored{Err: AsFlowError(err)}
		return f.state
	}

	if scheduled := scheduledFromStatus(f.userID, status); scheduled != nil {
		f.state = stateAfterLoad(scheduled, account.DeletionEligibility{})
		f.record(ctx, "deletion_flow.opened", map[string]any{"state": string(PhaseScheduled)})
		return f.state
	}

	eligibility, err := f.backend.DeletionEligibility(ctx, f.userID)
	if err != nil {
		f.state = Errored{Err: AsFlowError(err)}
		return f.state
	}

	f.state = stateAfterLoad(nil, eligibility)
	f.record(ctx, "deletion_flow.opened", map[string]any{"state": string(f.state.Phase())})
	return f.state
}

// SetMode selects immediate vs grace-period deletion. Warning state only.
func (f *Flow) SetMode(mode Mode) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	warning, ok := f.state.(Warning)
	if !ok {
		return f.state, ErrInvalidTransition
	}
	if mode != ModeImmediate && mode != ModeGracePeriod {
		return f.state, fmt.Errorf("%w: unknown mode %q", ErrInvalidTransition, mode)
	}
	warning.Mode = mode
	f.state = warning
	return f.state, nil
}

// SetGraceDays selects the grace period length. Warning state only; 0 is not
// a grace length, immediate deletion is a mode.
func (f *Flow) SetGraceDays(days int) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	warning, ok := f.state.(Warning)
	if !ok {
		return f.state, ErrInvalidTransition
	}
	if days <= 0 || !account.ValidGracePeriod(days) {
		return f.state, fmt.Errorf("%w: %d days is not an offered grace period", ErrInvalidTransition, days)
	}
	warning.GraceDays = days
	f.state = warning
	return f.state, nil
}

// SetReason attaches an optional free-text reason. Warning state only.
func (f *Flow) SetReason(reason string) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	warning, ok := f.state.(Warning)
	if !ok {
		return f.state, ErrInvalidTransition
	}
	warning.Reason = reason
	f.state = warning
	return f.state, nil
}

// Continue advances past the warning to confirmation (immediate) or the
// grace-period preview (scheduled).
func (f *Flow) Continue(ctx context.Context) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	warning, ok := f.state.(Warning)
	if !ok {
		return f.state, ErrInvalidTransition
	}
	f.state = stateAfterContinue(warning, time.Now().UTC())
	f.record(ctx, "deletion_flow.mode_chosen", map[string]any{
		"mode":      string(warning.Mode),
		"graceDays": warning.GraceDays,
	})
	return f.state, nil
}

// TypeConfirmation records the typed phrase. A mismatch leaves confirm
// disabled; it is never an error.
func (f *Flow) TypeConfirmation(text string) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	confirmation, ok := f.state.(Confirmation)
	if !ok {
		return f.state, ErrInvalidTransition
	}
	confirmation.Typed = text
	f.state = confirmation
	return f.state, nil
}

// Confirm submits the deletion mutation. From the grace-period state it
// schedules; from the confirmation state it deletes immediately, and only
// with the exact phrase typed. On failure the flow returns to the state that
// initiated processing, resumable without a fresh eligibility check.
func (f *Flow) Confirm(ctx context.Context) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch origin := f.state.(type) {
	case GracePeriod:
		return f.submit(ctx, origin, account.DeletionRequest{
			GracePeriodDays: origin.Days,
			Reason:          origin.Reason,
		}), nil
	case Confirmation:
		if !IsConfirmed(origin.Typed) {
			return f.state, ErrNotConfirmed
		}
		return f.submit(ctx, origin, account.DeletionRequest{
			GracePeriodDays: 0,
			Reason:          origin.Reason,
		}), nil
	default:
		return f.state, ErrInvalidTransition
	}
}

func (f *Flow) submit(ctx context.Context, origin State, req account.DeletionRequest) State {
	f.state = Processing{From: origin.Phase()}

	result, err := f.backend.DeleteAccount(ctx, f.userID, req)
	if err != nil {
		f.state = f.stateAfterFailure(ctx, origin, err)
		f.record(ctx, "deletion_flow.failed", map[string]any{
			"from": string(origin.Phase()),
			"kind": string(AsFlowError(err).Kind),
		})
		return f.state
	}

	if result.Scheduled {
		f.state = Closed{Outcome: Outcome{
			Scheduled:    true,
			ScheduledFor: result.DeletionDate,
			Message:      "Your account is scheduled for deletion. You can cancel until the date shown.",
		}}
		f.record(ctx, "deletion_flow.scheduled", map[string]any{"deletionDate": result.DeletionDate})
	} else {
		f.state = Closed{Outcome: Outcome{
			Deleted: true,
			Message: "Your account has been deleted.",
		}}
		f.record(ctx, "deletion_flow.deleted", nil)
	}
	return f.state
}

// stateAfterFailure returns the flow to the originating state with the error
// attached and any typed input preserved. A conflict means another session
// changed the account; re-fetch status instead of trusting local state.
func (f *Flow) stateAfterFailure(ctx context.Context, origin State, err error) State {
	flowErr := AsFlowError(err)

	if flowErr.Kind == KindConflict {
		if status, statusErr := f.backend.DeletionStatus(ctx, f.userID); statusErr == nil {
			if scheduled := scheduledFromStatus(f.userID, status); scheduled != nil {
				return Scheduled{Deletion: *scheduled, Err: flowErr}
			}
		}
	}

	switch st := origin.(type) {
	case GracePeriod:
		st.Err = flowErr
		return st
	case Confirmation:
		st.Err = flowErr
		return st
	case Scheduled:
		st.Err = flowErr
		return st
	default:
		return Errored{Err: flowErr}
	}
}

// CancelScheduled revokes the pending deletion. Failure keeps the scheduled
// view and surfaces the error without altering the pending deletion.
func (f *Flow) CancelScheduled(ctx context.Context) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	scheduled, ok := f.state.(Scheduled)
	if !ok {
		return f.state, ErrInvalidTransition
	}
	if !scheduled.Deletion.CanCancel {
		return f.state, fmt.Errorf("%w: this deletion cannot be cancelled", ErrInvalidTransition)
	}

	f.state = Processing{From: PhaseScheduled}

	if err := f.backend.CancelDeletion(ctx, f.userID); err != nil {
		f.state = f.stateAfterFailure(ctx, scheduled, err)
		f.record(ctx, "deletion_flow.cancel_failed", map[string]any{
			"kind": string(AsFlowError(err).Kind),
		})
		return f.state, nil
	}

	f.state = Closed{Outcome: Outcome{
		Cancelled: true,
		Message:   "Your scheduled deletion has been cancelled. Your account is active again.",
	}}
	f.record(ctx, "deletion_flow.cancelled", nil)
	return f.state, nil
}

// Close abandons the workflow with no side effects. Not permitted while a
// mutation is in flight.
func (f *Flow) Close(ctx context.Context) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.state.(Processing); ok {
		return f.state, ErrCloseProcessing
	}
	if _, ok := f.state.(Closed); ok {
		return f.state, nil
	}

	f.record(ctx, "deletion_flow.closed", map[string]any{"from": string(f.state.Phase())})
	f.state = Closed{}
	return f.state, nil
}

func (f *Flow) record(ctx context.Context, name string, payload map[string]any) {
	if f.log == nil {
		return
	}
	f.log.Record(ctx, f.userID, name, payload)
}

func scheduledFromStatus(userID string, status account.DeletionStatus) *account.ScheduledDeletion {
	if status.Status != account.StatusScheduledForDeletion || status.ScheduledDeletionDate == nil {
		return nil
	}
	return &account.ScheduledDeletion{
		UserID:                userID,
		ScheduledDeletionDate: *status.ScheduledDeletionDate,
		DeletionReason:        status.DeletionReason,
		CanCancel:             status.CanCancel,
	}
}
