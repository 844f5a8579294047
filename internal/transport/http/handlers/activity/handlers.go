package activityhandler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"mindwell/internal/domain/audit"
	"mindwell/internal/transport/http/api"
	"mindwell/internal/transport/http/middleware"
	"mindwell/internal/transport/http/shared"
)

type Handler struct {
	Audit *audit.Service
}

func NewHandler(auditSvc *audit.Service) *Handler {
	return &Handler{Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/activity", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/", h.handleList)
		r.Post("/", h.handleIngest)
	})
}

type ingestRequest struct {
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload"`
}

func (h *Handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("event", req.Event, "event name is required")
	v.MaxLength("event", req.Event, 100, "must be at most 100 characters")
	if v.Reject(w, requestID) {
		return
	}

	// Client-submitted names get a prefix so they cannot impersonate
	// server-side lifecycle events.
	h.Audit.Record(r.Context(), user.UserID, "client."+strings.TrimSpace(req.Event), req.Payload)
	api.Created(w, map[string]string{"status": "recorded"}, requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)

	events, total, err := h.Audit.List(r.Context(), user.UserID, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "activity_failed", "failed to load activity", requestID)
		return
	}
	api.Success(w, map[string]any{
		"events": events,
		"total":  total,
		"limit":  page.Limit,
		"offset": page.Offset,
	}, requestID)
}
