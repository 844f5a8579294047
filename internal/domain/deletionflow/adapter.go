package deletionflow

import (
	"context"
	"errors"

	"mindwell/internal/domain/account"
)

// AccountBackend adapts the account service to the flow's Backend contract.
// This is the single place backend errors are translated into flow error
// kinds; nothing past this boundary looks at raw errors.
type AccountBackend struct {
	svc *account.Service
}

func NewAccountBackend(svc *account.Service) *AccountBackend {
	return &AccountBackend{svc: svc}
}

func (b *AccountBackend) DeletionStatus(ctx context.Context, userID string) (account.DeletionStatus, error) {
	status, err := b.svc.DeletionStatus(ctx, userID)
	if err != nil {
		return account.DeletionStatus{}, mapAccountError(err)
	}
	return status, nil
}

func (b *AccountBackend) DeletionEligibility(ctx context.Context, userID string) (account.DeletionEligibility, error) {
	eligibility, err := b.svc.Eligibility(ctx, userID)
	if err != nil {
		return account.DeletionEligibility{}, mapAccountError(err)
	}
	return eligibility, nil
}

func (b *AccountBackend) DeleteAccount(ctx context.Context, userID string, req account.DeletionRequest) (account.DeletionResult, error) {
	result, err := b.svc.RequestDeletion(ctx, userID, req)
	if err != nil {
		return account.DeletionResult{}, mapAccountError(err)
	}
	return result, nil
}

func (b *AccountBackend) CancelDeletion(ctx context.Context, userID string) error {
	if err := b.svc.CancelDeletion(ctx, userID); err != nil {
		return mapAccountError(err)
	}
	return nil
}

func mapAccountError(err error) *Error {
	switch {
	case errors.Is(err, account.ErrInvalidGracePeriod):
		return NewError(KindValidation, err.Error())
	case errors.Is(err, account.ErrAlreadyScheduled),
		errors.Is(err, account.ErrNotScheduled),
		errors.Is(err, account.ErrGraceWindowElapsed),
		errors.Is(err, account.ErrCancelNotAllowed):
		return NewError(KindConflict, err.Error())
	case errors.Is(err, account.ErrUserNotFound):
		return NewError(KindAuth, err.Error())
	default:
		return NewError(KindNetwork, err.Error())
	}
}
