package account

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mindwell/internal/platform/metrics"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Events interface {
	Publish(userID, eventType string, payload map[string]any)
}

type Activity interface {
	Record(ctx context.Context, userID, name string, payload map[string]any)
}

type Service struct {
	store     *Store
	activity  Activity
	events    Events
	mailer    Mailer
	metrics   *metrics.Collector
	emailFrom string
}

func NewService(store *Store, activity Activity, events Events, mailer Mailer, collector *metrics.Collector, emailFrom string) *Service {
	return &Service{
		store:     store,
		activity:  activity,
		events:    events,
		mailer:    mailer,
		metrics:   collector,
		emailFrom: emailFrom,
	}
}

// DeletionStatus reports whether a deletion is pending. An account holds at
// most one scheduled deletion at a time.
func (s *Service) DeletionStatus(ctx context.Context, userID string) (DeletionStatus, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return DeletionStatus{}, err
	}

	scheduled, found, err := s.store.GetScheduledDeletion(ctx, userID)
	if err != nil {
		return DeletionStatus{}, err
	}
	if !found {
		return DeletionStatus{Status: user.Status}, nil
	}

	date := scheduled.ScheduledDeletionDate
	return DeletionStatus{
		Status:                StatusScheduledForDeletion,
		ScheduledDeletionDate: &date,
		DeletionReason:        scheduled.DeletionReason,
		CanCancel:             scheduled.CanCancel,
	}, nil
}

// Eligibility computes a fresh verdict on every call; results are advisory
// for the client and never cached.
func (s *Service) Eligibility(ctx context.Context, userID string) (DeletionEligibility, error) {
	facts, err := s.store.EligibilityFacts(ctx, userID)
	if err != nil {
		return DeletionEligibility{}, err
	}
	return BuildEligibility(facts), nil
}

// RequestDeletion is the authoritative deletion mutation. The client-side
// eligibility check is advisory; everything is re-validated here.
func (s *Service) RequestDeletion(ctx context.Context, userID string, req DeletionRequest) (DeletionResult, error) {
	if !ValidGracePeriod(req.GracePeriodDays) {
		return DeletionResult{}, ErrInvalidGracePeriod
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return DeletionResult{}, err
	}

	if _, found, err := s.store.GetScheduledDeletion(ctx, userID); err != nil {
		return DeletionResult{}, err
	} else if found {
		return DeletionResult{}, ErrAlreadyScheduled
	}

	if req.GracePeriodDays == 0 {
		return s.deleteImmediately(ctx, user, req.Reason)
	}
	return s.scheduleDeletion(ctx, user, req)
}

func (s *Service) scheduleDeletion(ctx context.Context, user User, req DeletionRequest) (DeletionResult, error) {
	scheduledFor := time.Now().UTC().Add(time.Duration(req.GracePeriodDays) * 24 * time.Hour)

	if err := s.store.ScheduleDeletion(ctx, user.ID, scheduledFor, req.Reason); err != nil {
		return DeletionResult{}, err
	}

	s.activity.Record(ctx, user.ID, "account.deletion_scheduled", map[string]any{
		"gracePeriodDays": req.GracePeriodDays,
		"scheduledFor":    scheduledFor,
	})
	if s.events != nil {
		s.events.Publish(user.ID, "account.deletion_scheduled", map[string]any{
			"scheduledFor": scheduledFor,
		})
	}
	if s.metrics != nil {
		s.metrics.DeletionRequested()
	}
	s.notify(ctx, user, "Your account deletion is scheduled",
		fmt.Sprintf("Your Mindwell account will be deleted on %s. You can cancel from Settings until then.",
			scheduledFor.Format("January 2, 2006")))

	return DeletionResult{Scheduled: true, DeletionDate: &scheduledFor}, nil
}

func (s *Service) deleteImmediately(ctx context.Context, user User, reason string) (DeletionResult, error) {
	// Record the audit event before the rows it lives in disappear.
	s.activity.Record(ctx, user.ID, "account.deletion_requested", map[string]any{
		"gracePeriodDays": 0,
		"reason":          reason,
	})

	if err := s.store.HardDelete(ctx, user.ID); err != nil {
		return DeletionResult{}, err
	}

	if s.events != nil {
		s.events.Publish(user.ID, "account.deleted", nil)
	}
	if s.metrics != nil {
		s.metrics.DeletionRequested()
		s.metrics.DeletionExecuted()
	}
	s.notify(ctx, user, "Your account has been deleted",
		"Your Mindwell account and all associated data have been permanently deleted.")

	return DeletionResult{Scheduled: false}, nil
}

// CancelDeletion reverts a scheduled deletion while the grace window is open.
func (s *Service) CancelDeletion(ctx context.Context, userID string) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	scheduled, found, err := s.store.GetScheduledDeletion(ctx, userID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotScheduled
	}
	if !scheduled.CanCancel {
		return ErrCancelNotAllowed
	}
	if time.Now().After(scheduled.ScheduledDeletionDate) {
		return ErrGraceWindowElapsed
	}

	if err := s.store.CancelScheduledDeletion(ctx, userID); err != nil {
		return err
	}

	s.activity.Record(ctx, userID, "account.deletion_cancelled", nil)
	if s.events != nil {
		s.events.Publish(userID, "account.deletion_cancelled", nil)
	}
	if s.metrics != nil {
		s.metrics.DeletionCancelled()
	}
	s.notify(ctx, user, "Your account deletion was cancelled",
		"Your Mindwell account is active again. No data was removed.")

	return nil
}

// SweepDue executes every scheduled deletion whose grace window has elapsed.
// Run periodically by the background job worker.
func (s *Service) SweepDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.store.DueDeletions(ctx, now)
	if err != nil {
		return 0, err
	}

	executed := 0
	for _, scheduled := range due {
		if err := s.store.HardDelete(ctx, scheduled.UserID); err != nil {
			slog.Warn("scheduled deletion failed", "userId", scheduled.UserID, "err", err)
			continue
		}
		if s.events != nil {
			s.events.Publish(scheduled.UserID, "account.deleted", map[string]any{
				"scheduledFor": scheduled.ScheduledDeletionDate,
			})
		}
		if s.metrics != nil {
			s.metrics.DeletionExecuted()
		}
		executed++
	}
	return executed, nil
}

func (s *Service) notify(ctx context.Context, user User, subject, body string) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.Send(ctx, s.emailFrom, user.Email, subject, body); err != nil {
		slog.Warn("account email failed", "userId", user.ID, "subject", subject, "err", err)
	}
}
