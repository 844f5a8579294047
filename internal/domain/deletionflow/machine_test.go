package deletionflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindwell/internal/domain/account"
)

type fakeBackend struct {
	status         account.DeletionStatus
	statusErr      error
	eligibility    account.DeletionEligibility
	eligibilityErr error
	deleteResult   account.DeletionResult
	deleteErr      error
	cancelErr      error

	statusCalls      int
	eligibilityCalls int
	deleteCalls      int
	cancelCalls      int
	lastRequest      account.DeletionRequest
}

func (b *fakeBackend) DeletionStatus(ctx context.Context, userID string) (account.DeletionStatus, error) {
	b.statusCalls++
	return b.status, b.statusErr
}

func (b *fakeBackend) DeletionEligibility(ctx context.Context, userID string) (account.DeletionEligibility, error) {
	b.eligibilityCalls++
	return b.eligibility, b.eligibilityErr
}

func (b *fakeBackend) DeleteAccount(ctx context.Context, userID string, req account.DeletionRequest) (account.DeletionResult, error) {
	b.deleteCalls++
	b.lastRequest = req
	return b.deleteResult, b.deleteErr
}

func (b *fakeBackend) CancelDeletion(ctx context.Context, userID string) error {
	b.cancelCalls++
	return b.cancelErr
}

type recordedEvent struct {
	Name    string
	Payload map[string]any
}

type fakeLogger struct {
	events []recordedEvent
}

func (l *fakeLogger) Record(ctx context.Context, userID, name string, payload map[string]any) {
	l.events = append(l.events, recordedEvent{Name: name, Payload: payload})
}

func activeBackend() *fakeBackend {
	return &fakeBackend{
		status: account.DeletionStatus{Status: account.StatusActive},
		eligibility: account.DeletionEligibility{
			CanDelete: true,
			Blockers:  []string{},
			Warnings:  []string{},
		},
	}
}

func TestStartScheduledPreemptsEligibility(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	backend := &fakeBackend{
		status: account.DeletionStatus{
			Status:                account.StatusScheduledForDeletion,
			ScheduledDeletionDate: &date,
			DeletionReason:        "taking a break",
			CanCancel:             true,
		},
		// Would normally block; must never be consulted.
		eligibility: account.DeletionEligibility{CanDelete: false, Blockers: []string{"nope"}},
	}

	flow := New(backend, &fakeLogger{}, "u1")
	state, err := flow.Start(ctx)
	require.NoError(t, err)

	scheduled, ok := state.(Scheduled)
	require.True(t, ok, "expected scheduled state, got %T", state)
	assert.Equal(t, date, scheduled.Deletion.ScheduledDeletionDate)
	assert.True(t, scheduled.Deletion.CanCancel)
	assert.Zero(t, backend.eligibilityCalls, "eligibility must be skipped when a deletion is pending")
}

func TestStartBlockedExposesBlockersVerbatim(t *testing.T) {
	ctx := context.Background()
	blockers := []string{"A data export is still being prepared.", "Your account is suspended."}
	backend := activeBackend()
	backend.eligibility = account.DeletionEligibility{CanDelete: false, Blockers: blockers}

	flow := New(backend, &fakeLogger{}, "u1")
	state, err := flow.Start(ctx)
	require.NoError(t, err)

	blocked, ok := state.(Blocked)
	require.True(t, ok, "expected blocked state, got %T", state)
	assert.Equal(t, blockers, blocked.Blockers)

	// The only exit from blocked is close.
	_, err = flow.Continue(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = flow.Confirm(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStartDefaultsModeFromRecommendation(t *testing.T) {
	ctx := context.Background()

	backend := activeBackend()
	flow := New(backend, &fakeLogger{}, "u1")
	state, err := flow.Start(ctx)
	require.NoError(t, err)
	warning := state.(Warning)
	assert.Equal(t, ModeImmediate, warning.Mode)
	assert.Equal(t, DefaultGraceDays, warning.GraceDays)

	backend = activeBackend()
	backend.eligibility.RecommendGracePeriod = true
	flow = New(backend, &fakeLogger{}, "u1")
	state, err = flow.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, ModeGracePeriod, state.(Warning).Mode)
}

func TestStartRejectedWhileOpen(t *testing.T) {
	ctx := context.Background()
	flow := New(activeBackend(), &fakeLogger{}, "u1")

	_, err := flow.Start(ctx)
	require.NoError(t, err)

	_, err = flow.Start(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestImmediateDeletionJourney(t *testing.T) {
	ctx := context.Background()
	backend := activeBackend()
	backend.deleteResult = account.DeletionResult{Scheduled: false}
	log := &fakeLogger{}
	flow := New(backend, log, "u1")

	state, err := flow.Start(ctx)
	require.NoError(t, err)
	require.Equal(t, ModeImmediate, state.(Warning).Mode)

	state, err = flow.Continue(ctx)
	require.NoError(t, err)
	confirmation, ok := state.(Confirmation)
	require.True(t, ok, "expected confirmation state, got %T", state)
	assert.False(t, confirmation.ConfirmEnabled())

	// Confirm is rejected until the exact phrase is typed.
	_, err = flow.Confirm(ctx)
	assert.ErrorIs(t, err, ErrNotConfirmed)

	state, err = flow.TypeConfirmation("delete my account")
	require.NoError(t, err)
	assert.False(t, state.(Confirmation).ConfirmEnabled())
	_, err = flow.Confirm(ctx)
	assert.ErrorIs(t, err, ErrNotConfirmed)

	state, err = flow.TypeConfirmation(ConfirmationPhrase)
	require.NoError(t, err)
	assert.True(t, state.(Confirmation).ConfirmEnabled())

	state, err = flow.Confirm(ctx)
	require.NoError(t, err)
	closed, ok := state.(Closed)
	require.True(t, ok, "expected closed state, got %T", state)
	assert.True(t, closed.Outcome.Deleted, "caller must be told to log out")
	assert.False(t, closed.Outcome.Scheduled)
	assert.Equal(t, account.DeletionRequest{GracePeriodDays: 0, Reason: ""}, backend.lastRequest)
}

func TestGracePeriodJourney(t *testing.T) {
	ctx := context.Background()
	deletionDate := time.Now().UTC().Add(30 * 24 * time.Hour)
	backend := activeBackend()
	backend.eligibility.RecommendGracePeriod = true
	backend.deleteResult = account.DeletionResult{Scheduled: true, DeletionDate: &deletionDate}
	flow := New(backend, &fakeLogger{}, "u1")

	state, err := flow.Start(ctx)
	require.NoError(t, err)
	warning := state.(Warning)
	require.Equal(t, ModeGracePeriod, warning.Mode)
	require.Equal(t, 30, warning.GraceDays)

	state, err = flow.Continue(ctx)
	require.NoError(t, err)
	grace, ok := state.(GracePeriod)
	require.True(t, ok, "expected grace-period state, got %T", state)
	assert.Equal(t, 30, grace.Days)
	assert.WithinDuration(t, time.Now().UTC().Add(30*24*time.Hour), grace.EffectiveDate, time.Minute)

	state, err = flow.Confirm(ctx)
	require.NoError(t, err)
	closed := state.(Closed)
	assert.True(t, closed.Outcome.Scheduled)
	require.NotNil(t, closed.Outcome.ScheduledFor)
	assert.Equal(t, deletionDate, *closed.Outcome.ScheduledFor)
	assert.Equal(t, 30, backend.lastRequest.GracePeriodDays)
}

func TestSelectableGraceDays(t *testing.T) {
	ctx := context.Background()
	flow := New(activeBackend(), &fakeLogger{}, "u1")
	_, err := flow.Start(ctx)
	require.NoError(t, err)

	for _, days := range []int{7, 14, 30} {
		state, err := flow.SetGraceDays(days)
		require.NoError(t, err)
		assert.Equal(t, days, state.(Warning).GraceDays)
	}
	for _, days := range []int{0, 1, 15, 90} {
		_, err := flow.SetGraceDays(days)
		assert.ErrorIs(t, err, ErrInvalidTransition, "days=%d", days)
	}
}

func TestProcessingFailureReturnsToConfirmation(t *testing.T) {
	ctx := context.Background()
	backend := activeBackend()
	backend.deleteErr = NewError(KindNetwork, "backend unreachable")
	flow := New(backend, &fakeLogger{}, "u1")

	_, err := flow.Start(ctx)
	require.NoError(t, err)
	_, err = flow.Continue(ctx)
	require.NoError(t, err)
	_, err = flow.TypeConfirmation(ConfirmationPhrase)
	require.NoError(t, err)

	state, err := flow.Confirm(ctx)
	require.NoError(t, err)
	confirmation, ok := state.(Confirmation)
	require.True(t, ok, "expected confirmation state, got %T", state)
	assert.Equal(t, ConfirmationPhrase, confirmation.Typed, "typed text must survive a failure")
	require.NotNil(t, confirmation.Err)
	assert.Equal(t, KindNetwork, confirmation.Err.Kind)
	assert.Equal(t, "backend unreachable", confirmation.Err.Message)

	// Retry must succeed without a second eligibility fetch.
	backend.deleteErr = nil
	state, err = flow.Confirm(ctx)
	require.NoError(t, err)
	assert.IsType(t, Closed{}, state)
	assert.Equal(t, 1, backend.eligibilityCalls)
	assert.Equal(t, 2, backend.deleteCalls)
}

func TestConflictDuringProcessingRefetchesStatus(t *testing.T) {
	ctx := context.Background()
	date := time.Now().UTC().Add(7 * 24 * time.Hour)
	backend := activeBackend()
	backend.deleteErr = NewError(KindConflict, "a deletion is already scheduled for this account")
	flow := New(backend, &fakeLogger{}, "u1")

	_, err := flow.Start(ctx)
	require.NoError(t, err)
	_, err = flow.Continue(ctx)
	require.NoError(t, err)
	_, err = flow.TypeConfirmation(ConfirmationPhrase)
	require.NoError(t, err)

	// Another session scheduled a deletion in the meantime.
	backend.status = account.DeletionStatus{
		Status:                account.StatusScheduledForDeletion,
		ScheduledDeletionDate: &date,
		CanCancel:             true,
	}

	state, err := flow.Confirm(ctx)
	require.NoError(t, err)
	scheduled, ok := state.(Scheduled)
	require.True(t, ok, "conflict must surface the authoritative scheduled state, got %T", state)
	assert.Equal(t, date, scheduled.Deletion.ScheduledDeletionDate)
	require.NotNil(t, scheduled.Err)
	assert.Equal(t, KindConflict, scheduled.Err.Kind)
}

func TestCancelScheduledSuccess(t *testing.T) {
	ctx := context.Background()
	date := time.Now().UTC().Add(14 * 24 * time.Hour)
	backend := activeBackend()
	backend.status = account.DeletionStatus{
		Status:                account.StatusScheduledForDeletion,
		ScheduledDeletionDate: &date,
		CanCancel:             true,
	}
	log := &fakeLogger{}
	flow := New(backend, log, "u1")

	_, err := flow.Start(ctx)
	require.NoError(t, err)

	state, err := flow.CancelScheduled(ctx)
	require.NoError(t, err)
	closed, ok := state.(Closed)
	require.True(t, ok, "expected closed state, got %T", state)
	assert.True(t, closed.Outcome.Cancelled)
	assert.NotEmpty(t, closed.Outcome.Message)
	assert.Equal(t, 1, backend.cancelCalls)

	var names []string
	for _, evt := range log.events {
		names = append(names, evt.Name)
	}
	assert.Contains(t, names, "deletion_flow.cancelled")
}

func TestCancelScheduledFailureStaysScheduled(t *testing.T) {
	ctx := context.Background()
	date := time.Now().UTC().Add(14 * 24 * time.Hour)
	backend := activeBackend()
	backend.status = account.DeletionStatus{
		Status:                account.StatusScheduledForDeletion,
		ScheduledDeletionDate: &date,
		CanCancel:             true,
	}
	backend.cancelErr = NewError(KindNetwork, "backend unreachable")
	flow := New(backend, &fakeLogger{}, "u1")

	_, err := flow.Start(ctx)
	require.NoError(t, err)

	state, err := flow.CancelScheduled(ctx)
	require.NoError(t, err)
	scheduled, ok := state.(Scheduled)
	require.True(t, ok, "expected scheduled state, got %T", state)
	assert.Equal(t, date, scheduled.Deletion.ScheduledDeletionDate)
	require.NotNil(t, scheduled.Err)
	assert.Equal(t, KindNetwork, scheduled.Err.Kind)
}

func TestStartErrorOffersRetry(t *testing.T) {
	ctx := context.Background()
	backend := activeBackend()
	backend.statusErr = NewError(KindNetwork, "backend unreachable")
	flow := New(backend, &fakeLogger{}, "u1")

	state, err := flow.Start(ctx)
	require.NoError(t, err)
	errored, ok := state.(Errored)
	require.True(t, ok, "expected error state, got %T", state)
	assert.Equal(t, KindNetwork, errored.Err.Kind)

	backend.statusErr = nil
	state, err = flow.Retry(ctx)
	require.NoError(t, err)
	assert.IsType(t, Warning{}, state)
}

func TestCloseAbandonsWithoutSideEffects(t *testing.T) {
	ctx := context.Background()
	backend := activeBackend()
	flow := New(backend, &fakeLogger{}, "u1")

	_, err := flow.Start(ctx)
	require.NoError(t, err)
	_, err = flow.Continue(ctx)
	require.NoError(t, err)

	state, err := flow.Close(ctx)
	require.NoError(t, err)
	assert.IsType(t, Closed{}, state)
	assert.Zero(t, backend.deleteCalls)
	assert.Zero(t, backend.cancelCalls)

	// A closed flow can be started again, and eligibility is fetched fresh.
	_, err = flow.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.eligibilityCalls)
}

func TestAdapterErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"invalid grace period", account.ErrInvalidGracePeriod, KindValidation},
		{"already scheduled", account.ErrAlreadyScheduled, KindConflict},
		{"not scheduled", account.ErrNotScheduled, KindConflict},
		{"grace elapsed", account.ErrGraceWindowElapsed, KindConflict},
		{"user missing", account.ErrUserNotFound, KindAuth},
		{"anything else", context.DeadlineExceeded, KindNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := mapAccountError(tt.err)
			assert.Equal(t, tt.want, mapped.Kind)
			assert.NotEmpty(t, mapped.Message)
		})
	}
}
