package accounthandler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"mindwell/internal/domain/account"
	"mindwell/internal/transport/http/api"
	"mindwell/internal/transport/http/middleware"
	"mindwell/internal/transport/http/shared"
)

type Handler struct {
	Accounts    *account.Service
	Idempotency *middleware.IdempotencyStore
}

func NewHandler(accounts *account.Service, idempotency *middleware.IdempotencyStore) *Handler {
	return &Handler{Accounts: accounts, Idempotency: idempotency}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/account", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/deletion-status", h.handleDeletionStatus)
		r.Get("/deletion-eligibility", h.handleDeletionEligibility)
		r.Post("/delete", h.handleDelete)
		r.Post("/cancel-deletion", h.handleCancelDeletion)
	})
}

func (h *Handler) handleDeletionStatus(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	status, err := h.Accounts.DeletionStatus(r.Context(), user.UserID)
	if errors.Is(err, account.ErrUserNotFound) {
		api.Fail(w, http.StatusUnauthorized, "unknown_account", "account not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "status_failed", "failed to load deletion status", requestID)
		return
	}
	api.Success(w, status, requestID)
}

func (h *Handler) handleDeletionEligibility(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	eligibility, err := h.Accounts.Eligibility(r.Context(), user.UserID)
	if errors.Is(err, account.ErrUserNotFound) {
		api.Fail(w, http.StatusUnauthorized, "unknown_account", "account not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "eligibility_failed", "failed to compute deletion eligibility", requestID)
		return
	}
	api.Success(w, eligibility, requestID)
}

type deleteRequest struct {
	GracePeriodDays int    `json:"gracePeriodDays"`
	Reason          string `json:"reason"`
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	var req deleteRequest
	if len(body) > 0 {
		if err := json.NewDecoder(bytes.NewReader(body)).Decode(&req); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
			return
		}
	}

	v := shared.NewValidator()
	v.IntIn("gracePeriodDays", req.GracePeriodDays, account.ValidGracePeriodDays, "must be one of 0, 7, 14 or 30")
	v.MaxLength("reason", req.Reason, 500, "must be at most 500 characters")
	if v.Reject(w, requestID) {
		return
	}

	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	requestHash := middleware.RequestHash(body)
	if idemKey != "" {
		stored, found, err := h.Idempotency.Check(r.Context(), user.UserID, "account/delete", idemKey, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key was used with a different payload", requestID)
			return
		}
		if err == nil && found {
			var result account.DeletionResult
			if json.Unmarshal(stored, &result) == nil {
				api.Success(w, result, requestID)
				return
			}
		}
	}

	result, err := h.Accounts.RequestDeletion(r.Context(), user.UserID, account.DeletionRequest{
		GracePeriodDays: req.GracePeriodDays,
		Reason:          strings.TrimSpace(req.Reason),
	})
	if err != nil {
		failDeletion(w, err, requestID)
		return
	}

	if idemKey != "" {
		if response, marshalErr := json.Marshal(result); marshalErr == nil {
			_ = h.Idempotency.Save(r.Context(), user.UserID, "account/delete", idemKey, requestHash, response)
		}
	}

	api.Success(w, result, requestID)
}

func (h *Handler) handleCancelDeletion(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	if err := h.Accounts.CancelDeletion(r.Context(), user.UserID); err != nil {
		failDeletion(w, err, requestID)
		return
	}

	api.Success(w, map[string]string{"status": "cancelled"}, requestID)
}

func failDeletion(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, account.ErrInvalidGracePeriod):
		api.Fail(w, http.StatusBadRequest, "invalid_grace_period", "grace period must be one of 0, 7, 14 or 30 days", requestID)
	case errors.Is(err, account.ErrAlreadyScheduled):
		api.Fail(w, http.StatusConflict, "already_scheduled", "a deletion is already scheduled for this account", requestID)
	case errors.Is(err, account.ErrNotScheduled):
		api.Fail(w, http.StatusConflict, "not_scheduled", "no deletion is scheduled for this account", requestID)
	case errors.Is(err, account.ErrGraceWindowElapsed):
		api.Fail(w, http.StatusConflict, "grace_elapsed", "the cancellation window has elapsed", requestID)
	case errors.Is(err, account.ErrCancelNotAllowed):
		api.Fail(w, http.StatusConflict, "cancel_not_allowed", "this deletion cannot be cancelled", requestID)
	case errors.Is(err, account.ErrUserNotFound):
		api.Fail(w, http.StatusUnauthorized, "unknown_account", "account not found", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "deletion_failed", "failed to process deletion request", requestID)
	}
}
