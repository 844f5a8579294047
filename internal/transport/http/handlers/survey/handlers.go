package surveyhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"mindwell/internal/domain/survey"
	"mindwell/internal/transport/http/api"
	"mindwell/internal/transport/http/middleware"
)

type Handler struct {
	Surveys *survey.Service
}

func NewHandler(surveys *survey.Service) *Handler {
	return &Handler{Surveys: surveys}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/surveys", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/", h.handleList)
		r.Get("/responses", h.handleMyResponses)
		r.Post("/{surveyID}/responses", h.handleSubmit)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	surveys, err := h.Surveys.ListActive(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "surveys_failed", "failed to load surveys", requestID)
		return
	}
	api.Success(w, surveys, requestID)
}

type submitRequest struct {
	Answers json.RawMessage `json:"answers"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	surveyID, err := strconv.ParseInt(chi.URLParam(r, "surveyID"), 10, 64)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_survey_id", "survey id must be numeric", requestID)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	response, err := h.Surveys.Submit(r.Context(), user.UserID, surveyID, req.Answers)
	switch {
	case errors.Is(err, survey.ErrConsentRequired):
		api.Fail(w, http.StatusForbidden, "consent_required", "grant the survey submission consent first", requestID)
		return
	case errors.Is(err, survey.ErrSurveyNotFound):
		api.Fail(w, http.StatusNotFound, "survey_not_found", "survey not found", requestID)
		return
	case errors.Is(err, survey.ErrSurveyInactive):
		api.Fail(w, http.StatusConflict, "survey_inactive", "this survey is no longer active", requestID)
		return
	case errors.Is(err, survey.ErrInvalidAnswers):
		api.Fail(w, http.StatusBadRequest, "invalid_answers", "answers must be a JSON object", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "submit_failed", "failed to submit response", requestID)
		return
	}
	api.Created(w, response, requestID)
}

func (h *Handler) handleMyResponses(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	responses, err := h.Surveys.Responses(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "responses_failed", "failed to load responses", requestID)
		return
	}
	api.Success(w, responses, requestID)
}
