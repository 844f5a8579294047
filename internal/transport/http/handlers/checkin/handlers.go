package checkinhandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mindwell/internal/domain/checkin"
	"mindwell/internal/transport/http/api"
	"mindwell/internal/transport/http/middleware"
	"mindwell/internal/transport/http/shared"
)

type Handler struct {
	Checkins *checkin.Service
}

func NewHandler(checkins *checkin.Service) *Handler {
	return &Handler{Checkins: checkins}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/checkins", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/summary", h.handleSummary)
	})
}

type createRequest struct {
	Mood int    `json:"mood"`
	Note string `json:"note"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	entry, err := h.Checkins.Record(r.Context(), user.UserID, req.Mood, req.Note)
	switch {
	case errors.Is(err, checkin.ErrInvalidMood):
		api.Fail(w, http.StatusBadRequest, "invalid_mood", "mood must be between 1 and 5", requestID)
		return
	case errors.Is(err, checkin.ErrNoteTooLong):
		api.Fail(w, http.StatusBadRequest, "note_too_long", "note is too long", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "checkin_failed", "failed to record check-in", requestID)
		return
	}
	api.Created(w, entry, requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)

	entries, err := h.Checkins.History(r.Context(), user.UserID, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "checkins_failed", "failed to load check-ins", requestID)
		return
	}
	api.Success(w, entries, requestID)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	summary, err := h.Checkins.Summary(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "summary_failed", "failed to compute summary", requestID)
		return
	}
	api.Success(w, summary, requestID)
}
