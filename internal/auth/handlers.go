package auth

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/quiz-studio/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for accounts.
type HTTPHandlers struct {
	authSvc *Service
	logger  zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for auth endpoints.
func NewHTTPHandlers(authSvc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		authSvc: authSvc,
		logger:  logger,
	}
}

// Register handles POST /users/register
func (h *HTTPHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	session, err := h.authSvc.Register(r.Context(), req)
	if err != nil {
		httperrors.RespondDomainError(w, err, h.logger)
		return
	}

	httperrors.RespondJSON(w, http.StatusCreated, session)
}

// Login handles POST /users/login
func (h *HTTPHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	session, err := h.authSvc.Login(r.Context(), req)
	if err != nil {
		httperrors.RespondDomainError(w, err, h.logger)
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, session)
}

// Profile handles GET /users/profile
func (h *HTTPHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.authSvc.Profile(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		httperrors.RespondDomainError(w, err, h.logger)
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}
