package handlers

import (
	"net/http"
	"time"

	"zeus-backend/internal/auth"
	"zeus-backend/pkg/api"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// AuthHandler exposes the session manager.
type AuthHandler struct {
	manager  *auth.Manager
	validate *validator.Validate
	logger   *zap.Logger
}

func NewAuthHandler(manager *auth.Manager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		manager:  manager,
		validate: newValidator(),
		logger:   logger.Named("auth_handler"),
	}
}

// SignIn handles POST /api/v1/auth/sign-in
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req api.CredentialsRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	session, err := h.manager.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, sessionResponse(auth.SignedIn, session))
}

// SignUp handles POST /api/v1/auth/sign-up
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req api.CredentialsRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	reg, err := h.manager.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusCreated, api.SignUpResponse{
		UserID:               reg.UserID,
		Email:                reg.Email,
		ConfirmationRequired: reg.ConfirmationRequired,
	})
}

// SignOut handles POST /api/v1/auth/sign-out. It always succeeds.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.manager.SignOut(r.Context())
	api.Success(w, http.StatusOK, api.SessionResponse{State: auth.SignedOut.String()})
}

// Session handles GET /api/v1/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	session, ok := h.manager.Session()
	if !ok {
		api.Success(w, http.StatusOK, api.SessionResponse{State: auth.SignedOut.String()})
		return
	}
	api.Success(w, http.StatusOK, sessionResponse(auth.SignedIn, session))
}

func sessionResponse(state auth.State, s auth.Session) api.SessionResponse {
	resp := api.SessionResponse{
		State:  state.String(),
		UserID: s.UserID,
		Email:  s.Email,
	}
	if !s.ExpiresAt.IsZero() {
		resp.ExpiresAt = s.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return resp
}
