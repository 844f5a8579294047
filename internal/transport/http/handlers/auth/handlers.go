package authhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"mindwell/internal/domain/account"
	"mindwell/internal/domain/auth"
	"mindwell/internal/requestctx"
	"mindwell/internal/transport/http/api"
	"mindwell/internal/transport/http/shared"
)

const tokenTTL = 24 * time.Hour

type Handler struct {
	Store     *auth.Store
	JWTSecret string
}

func NewHandler(store *auth.Store, jwtSecret string) *Handler {
	return &Handler{Store: store, JWTSecret: jwtSecret}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token       string `json:"token"`
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	v := shared.NewValidator()
	v.Required("email", req.Email, "email is required")
	if req.Email != "" && !strings.Contains(req.Email, "@") {
		v.Add("email", "must be a valid email address")
	}
	if len(req.Password) < 8 {
		v.Add("password", "must be at least 8 characters")
	}
	v.MaxLength("displayName", req.DisplayName, 100, "must be at most 100 characters")
	if v.Reject(w, requestID) {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "register_failed", "failed to register", requestID)
		return
	}

	userID, err := h.Store.CreateUser(r.Context(), req.Email, string(hash), strings.TrimSpace(req.DisplayName))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			api.Fail(w, http.StatusConflict, "email_taken", "an account with this email already exists", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "register_failed", "failed to register", requestID)
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, userID, req.Email, tokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestID)
		return
	}

	api.Created(w, tokenResponse{
		Token:       token,
		UserID:      userID,
		Email:       req.Email,
		DisplayName: strings.TrimSpace(req.DisplayName),
	}, requestID)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.Store.FindUserByEmail(r.Context(), req.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to log in", requestID)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}

	// A scheduled-for-deletion account may still log in to cancel; only a
	// suspension blocks access.
	if user.Status == account.StatusSuspended {
		api.Fail(w, http.StatusForbidden, "account_suspended", "this account is suspended", requestID)
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, user.ID, user.Email, tokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestID)
		return
	}
	if err := h.Store.UpdateLastLogin(r.Context(), user.ID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to log in", requestID)
		return
	}

	api.Success(w, tokenResponse{
		Token:       token,
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}, requestID)
}
