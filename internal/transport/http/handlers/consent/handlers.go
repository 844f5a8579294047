package consenthandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mindwell/internal/domain/consent"
	"mindwell/internal/transport/http/api"
	"mindwell/internal/transport/http/middleware"
	"mindwell/internal/transport/http/shared"
)

type Handler struct {
	Consents *consent.Service
}

func NewHandler(consents *consent.Service) *Handler {
	return &Handler{Consents: consents}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/consents", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/", h.handleList)
		r.Post("/", h.handleSet)
		r.Get("/history", h.handleHistory)
		r.Post("/withdraw", h.handleWithdraw)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	current, err := h.Consents.Current(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "consents_failed", "failed to load consents", requestID)
		return
	}
	api.Success(w, current, requestID)
}

type setRequest struct {
	Type    string `json:"type"`
	Granted bool   `json:"granted"`
}

func (h *Handler) handleSet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	var req setRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("type", req.Type, "consent type is required")
	v.Enum("type", req.Type, consent.KnownTypes, "unknown consent type")
	if v.Reject(w, requestID) {
		return
	}

	record, err := h.Consents.Set(r.Context(), user.UserID, req.Type, req.Granted)
	if errors.Is(err, consent.ErrUnknownType) {
		api.Fail(w, http.StatusBadRequest, "unknown_consent_type", "unknown consent type", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "consent_set_failed", "failed to record consent", requestID)
		return
	}
	api.Created(w, record, requestID)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	history, err := h.Consents.History(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "consents_failed", "failed to load consent history", requestID)
		return
	}
	api.Success(w, history, requestID)
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	current, err := h.Consents.WithdrawAll(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "withdraw_failed", "failed to withdraw consent", requestID)
		return
	}
	api.Success(w, current, requestID)
}
