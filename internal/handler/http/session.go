package http

import (
	"errors"
	"net/http"

	"github.com/Sahilbhanushali/GharGrocerProd/internal/domain"
	apperrors "github.com/Sahilbhanushali/GharGrocerProd/pkg/errors"
	"github.com/Sahilbhanushali/GharGrocerProd/pkg/httputil"
	"github.com/Sahilbhanushali/GharGrocerProd/pkg/validator"
)

// LoginRequest is the JSON request body for starting a session with a
// token issued by the commerce backend.
type LoginRequest struct {
	Token   string         `json:"token" validate:"required,max=4096"`
	Profile domain.Profile `json:"profile"`
}

// UpdateProfileRequest is the JSON request body for patching the profile.
type UpdateProfileRequest struct {
	Fields domain.Profile `json:"fields" validate:"required,min=1"`
}

// SessionResponse describes the current session. The token is never echoed.
type SessionResponse struct {
	Authenticated bool           `json:"authenticated"`
	Profile       domain.Profile `json:"profile,omitempty"`
}

// ValidateResponse is returned by POST /api/v1/session/validate.
type ValidateResponse struct {
	Valid bool `json:"valid"`
}

func (h *Handler) sessionResponse() SessionResponse {
	return SessionResponse{
		Authenticated: h.session.IsAuthenticated(),
		Profile:       h.session.Profile(),
	}
}

// GetSession handles GET /api/v1/session
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.sessionResponse())
}

// Login handles POST /api/v1/session
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.session.Login(r.Context(), req.Token, req.Profile); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, h.sessionResponse())
}

// Logout handles DELETE /api/v1/session
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.session.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// UpdateProfile handles PATCH /api/v1/session/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	profile, err := h.session.UpdateProfile(r.Context(), req.Fields)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, SessionResponse{Authenticated: true, Profile: profile})
}

// ValidateSession handles POST /api/v1/session/validate
func (h *Handler) ValidateSession(w http.ResponseWriter, r *http.Request) {
	valid, err := h.session.Validate(r.Context())
	if err != nil {
		if !errors.Is(err, apperrors.ErrServiceUnavail) {
			err = apperrors.Unavailable("session could not be validated")
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, ValidateResponse{Valid: valid})
}
