package deletionflow

import (
	"time"

	"mindwell/internal/domain/account"
)

type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseError        Phase = "error"
	PhaseScheduled    Phase = "scheduled"
	PhaseBlocked      Phase = "blocked"
	PhaseWarning      Phase = "warning"
	PhaseGracePeriod  Phase = "grace-period"
	PhaseConfirmation Phase = "confirmation"
	PhaseProcessing   Phase = "processing"
	PhaseClosed       Phase = "closed"
)

// Mode is the binary deletion choice offered in the warning state.
type Mode string

const (
	ModeImmediate   Mode = "immediate"
	ModeGracePeriod Mode = "grace-period"
)

const DefaultGraceDays = 30

// State is the tagged union the flow moves through. Each variant carries only
// the payload that state needs, so an illegal combination cannot be expressed.
type State interface {
	Phase() Phase
}

// Idle: no workflow open.
type Idle struct{}

func (Idle) Phase() Phase { return PhaseIdle }

// Errored: a fetch failed before the workflow could open. Retry or close.
type Errored struct {
	Err *Error
}

func (Errored) Phase() Phase { return PhaseError }

// Scheduled: a deletion is already pending; it preempts every other state.
type Scheduled struct {
	Deletion account.ScheduledDeletion
	// Err carries a failed cancellation attempt; the deletion stays pending.
	Err *Error
}

func (Scheduled) Phase() Phase { return PhaseScheduled }

// Blocked: deletion is currently impossible. Blockers are shown verbatim and
// the only exit is close.
type Blocked struct {
	Blockers []string
}

func (Blocked) Phase() Phase { return PhaseBlocked }

// Warning: deletion is possible; the user picks a mode and, for grace mode,
// a delay.
type Warning struct {
	Warnings  []string
	Mode      Mode
	GraceDays int
	Reason    string
}

func (Warning) Phase() Phase { return PhaseWarning }

// GracePeriod: preview of the effective date before a scheduled deletion is
// submitted.
type GracePeriod struct {
	Days          int
	EffectiveDate time.Time
	Reason        string
	// Err carries a failed submission; the state is resumable without a
	// fresh eligibility check.
	Err *Error
}

func (GracePeriod) Phase() Phase { return PhaseGracePeriod }

// Confirmation: the exact-phrase gate before an immediate deletion. Typed is
// preserved across failed submissions.
type Confirmation struct {
	Typed  string
	Reason string
	Err    *Error
}

func (c Confirmation) ConfirmEnabled() bool { return IsConfirmed(c.Typed) }

func (Confirmation) Phase() Phase { return PhaseConfirmation }

// Processing: a mutation is in flight. No user exits until it resolves.
type Processing struct {
	From Phase
}

func (Processing) Phase() Phase { return PhaseProcessing }

// Outcome is what a finished workflow reports to its caller.
type Outcome struct {
	// Deleted: the account is gone; the caller must force a logout.
	Deleted bool
	// Scheduled: deletion was deferred to ScheduledFor.
	Scheduled    bool
	ScheduledFor *time.Time
	// Cancelled: a pending deletion was revoked.
	Cancelled bool
	Message   string
}

// Closed: terminal for this workflow instance.
type Closed struct {
	Outcome Outcome
}

func (Closed) Phase() Phase { return PhaseClosed }

// stateAfterLoad decides the first user-facing state from the completed
// status and eligibility fetches. An existing scheduled deletion wins
// unconditionally; eligibility is not even consulted.
func stateAfterLoad(scheduled *account.ScheduledDeletion, eligibility account.DeletionEligibility) State {
	if scheduled != nil {
		return Scheduled{Deletion: *scheduled}
	}
	if !eligibility.CanDelete {
		return Blocked{Blockers: eligibility.Blockers}
	}
	mode := ModeImmediate
	if eligibility.RecommendGracePeriod {
		mode = ModeGracePeriod
	}
	return Warning{
		Warnings:  eligibility.Warnings,
		Mode:      mode,
		GraceDays: DefaultGraceDays,
	}
}

// stateAfterContinue advances past the warning according to the chosen mode.
func stateAfterContinue(warning Warning, now time.Time) State {
	if warning.Mode == ModeGracePeriod {
		return GracePeriod{
			Days:          warning.GraceDays,
			EffectiveDate: EffectiveDate(warning.GraceDays, now),
			Reason:        warning.Reason,
		}
	}
	return Confirmation{Reason: warning.Reason}
}
