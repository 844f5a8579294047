package deletionflowhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"mindwell/internal/domain/account"
	"mindwell/internal/domain/deletionflow"
	"mindwell/internal/transport/http/api"
	"mindwell/internal/transport/http/middleware"
)

// Handler drives one deletion workflow per authenticated user over REST. The
// response of every endpoint is the settled state after the transition.
type Handler struct {
	Flows *deletionflow.Manager
}

func NewHandler(flows *deletionflow.Manager) *Handler {
	return &Handler{Flows: flows}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/account/deletion-flow", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/", h.handleGet)
		r.Post("/start", h.handleStart)
		r.Post("/retry", h.handleRetry)
		r.Post("/mode", h.handleMode)
		r.Post("/grace-days", h.handleGraceDays)
		r.Post("/reason", h.handleReason)
		r.Post("/confirmation-text", h.handleConfirmationText)
		r.Post("/continue", h.handleContinue)
		r.Post("/confirm", h.handleConfirm)
		r.Post("/cancel-scheduled", h.handleCancelScheduled)
		r.Post("/close", h.handleClose)
	})
}

type errorView struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type outcomeView struct {
	Deleted      bool       `json:"deleted"`
	Scheduled    bool       `json:"scheduled"`
	ScheduledFor *time.Time `json:"scheduledFor,omitempty"`
	Cancelled    bool       `json:"cancelled"`
	Message      string     `json:"message,omitempty"`
}

type flowView struct {
	State          string                     `json:"state"`
	Error          *errorView                 `json:"error,omitempty"`
	Deletion       *account.ScheduledDeletion `json:"deletion,omitempty"`
	Blockers       []string                   `json:"blockers,omitempty"`
	Warnings       []string                   `json:"warnings,omitempty"`
	Mode           string                     `json:"mode,omitempty"`
	GraceDays      int                        `json:"graceDays,omitempty"`
	Reason         string                     `json:"reason,omitempty"`
	EffectiveDate  *time.Time                 `json:"effectiveDate,omitempty"`
	TypedText      string                     `json:"typedText,omitempty"`
	ConfirmEnabled *bool                      `json:"confirmEnabled,omitempty"`
	From           string                     `json:"from,omitempty"`
	Outcome        *outcomeView               `json:"outcome,omitempty"`
}

func viewOf(state deletionflow.State) flowView {
	view := flowView{State: string(state.Phase())}

	withErr := func(err *deletionflow.Error) {
		if err != nil {
			view.Error = &errorView{Kind: string(err.Kind), Message: err.Message}
		}
	}

	switch st := state.(type) {
	case deletionflow.Errored:
		withErr(st.Err)
	case deletionflow.Scheduled:
		deletion := st.Deletion
		view.Deletion = &deletion
		withErr(st.Err)
	case deletionflow.Blocked:
		view.Blockers = st.Blockers
	case deletionflow.Warning:
		view.Warnings = st.Warnings
		view.Mode = string(st.Mode)
		view.GraceDays = st.GraceDays
		view.Reason = st.Reason
	case deletionflow.GracePeriod:
		view.GraceDays = st.Days
		effective := st.EffectiveDate
		view.EffectiveDate = &effective
		view.Reason = st.Reason
		withErr(st.Err)
	case deletionflow.Confirmation:
		view.TypedText = st.Typed
		view.Reason = st.Reason
		enabled := st.ConfirmEnabled()
		view.ConfirmEnabled = &enabled
		withErr(st.Err)
	case deletionflow.Processing:
		view.From = string(st.From)
	case deletionflow.Closed:
		view.Outcome = &outcomeView{
			Deleted:      st.Outcome.Deleted,
			Scheduled:    st.Outcome.Scheduled,
			ScheduledFor: st.Outcome.ScheduledFor,
			Cancelled:    st.Outcome.Cancelled,
			Message:      st.Outcome.Message,
		}
	}
	return view
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, state deletionflow.State, err error) {
	requestID := middleware.GetRequestID(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, deletionflow.ErrNotConfirmed):
			api.Fail(w, http.StatusBadRequest, "not_confirmed", "type the exact confirmation phrase to proceed", requestID)
		case errors.Is(err, deletionflow.ErrCloseProcessing):
			api.Fail(w, http.StatusConflict, "processing", "a deletion request is in flight; wait for it to resolve", requestID)
		case errors.Is(err, deletionflow.ErrInvalidTransition):
			api.Fail(w, http.StatusConflict, "invalid_transition", err.Error(), requestID)
		default:
			api.Fail(w, http.StatusInternalServerError, "flow_error", "deletion workflow failed", requestID)
		}
		return
	}
	api.Success(w, viewOf(state), requestID)
}

func (h *Handler) flow(r *http.Request) *deletionflow.Flow {
	user, _ := middleware.GetUser(r.Context())
	return h.Flows.Get(user.UserID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.flow(r).State(), nil)
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	state, err := h.flow(r).Start(r.Context())
	h.respond(w, r, state, err)
}

func (h *Handler) handleRetry(w http.ResponseWriter, r *http.Request) {
	state, err := h.flow(r).Retry(r.Context())
	h.respond(w, r, state, err)
}

type modeRequest struct {
	Mode string `json:"mode"`
}

func (h *Handler) handleMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	state, err := h.flow(r).SetMode(deletionflow.Mode(req.Mode))
	h.respond(w, r, state, err)
}

type graceDaysRequest struct {
	Days int `json:"days"`
}

func (h *Handler) handleGraceDays(w http.ResponseWriter, r *http.Request) {
	var req graceDaysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	state, err := h.flow(r).SetGraceDays(req.Days)
	h.respond(w, r, state, err)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleReason(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	state, err := h.flow(r).SetReason(req.Reason)
	h.respond(w, r, state, err)
}

type confirmationTextRequest struct {
	Text string `json:"text"`
}

func (h *Handler) handleConfirmationText(w http.ResponseWriter, r *http.Request) {
	var req confirmationTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	state, err := h.flow(r).TypeConfirmation(req.Text)
	h.respond(w, r, state, err)
}

func (h *Handler) handleContinue(w http.ResponseWriter, r *http.Request) {
	state, err := h.flow(r).Continue(r.Context())
	h.respond(w, r, state, err)
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	state, err := h.flow(r).Confirm(r.Context())
	h.respond(w, r, state, err)
}

func (h *Handler) handleCancelScheduled(w http.ResponseWriter, r *http.Request) {
	state, err := h.flow(r).CancelScheduled(r.Context())
	h.respond(w, r, state, err)
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	state, err := h.flow(r).Close(r.Context())
	if err == nil {
		h.Flows.Release(user.UserID)
	}
	h.respond(w, r, state, err)
}
