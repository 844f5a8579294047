package exporthandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mindwell/internal/domain/export"
	"mindwell/internal/platform/jobs"
	"mindwell/internal/transport/http/api"
	"mindwell/internal/transport/http/middleware"
	"mindwell/internal/transport/http/shared"
)

type Handler struct {
	Exports *export.Service
	Jobs    *jobs.Service
}

func NewHandler(exports *export.Service, jobsSvc *jobs.Service) *Handler {
	return &Handler{Exports: exports, Jobs: jobsSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/exports", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/", h.handleList)
		r.Post("/", h.handleRequest)
		r.Get("/{exportID}/download", h.handleDownload)
	})
}

type requestExport struct {
	Kind string `json:"kind"`
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	var req requestExport
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("kind", req.Kind, "export kind is required")
	v.Enum("kind", req.Kind, export.Kinds, "unknown export kind")
	if v.Reject(w, requestID) {
		return
	}

	created, err := h.Exports.Request(r.Context(), user.UserID, req.Kind)
	if errors.Is(err, export.ErrUnknownKind) {
		api.Fail(w, http.StatusBadRequest, "unknown_kind", "unknown export kind", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to request export", requestID)
		return
	}

	// Kick the builder right away so small exports are ready without waiting
	// for the next scheduler tick.
	h.Jobs.Enqueue(jobs.JobExportBuild, func(ctx context.Context) (any, error) {
		claimed, err := h.Exports.BuildNext(ctx)
		return map[string]any{"claimed": claimed}, err
	})

	api.Created(w, created, requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	exports, err := h.Exports.List(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "exports_failed", "failed to load exports", requestID)
		return
	}
	api.Success(w, exports, requestID)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	exportID := chi.URLParam(r, "exportID")

	record, archive, err := h.Exports.Download(r.Context(), user.UserID, exportID)
	switch {
	case errors.Is(err, export.ErrExportNotFound):
		api.Fail(w, http.StatusNotFound, "export_not_found", "export not found", requestID)
		return
	case errors.Is(err, export.ErrNotReady):
		api.Fail(w, http.StatusConflict, "export_not_ready", "export is not ready for download", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "download_failed", "failed to download export", requestID)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="mindwell-%s-%s.zip"`, record.Kind, record.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
