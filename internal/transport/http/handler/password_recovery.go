package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/myvoice974/account-api/internal/application/recovery"
	"github.com/myvoice974/account-api/internal/pkg/validate"
)

// User-facing messages of the recovery flow. The request-side ones are
// French, matching the rest of the product surface.
const (
	msgEmailRequired   = "Email is required"
	msgEmailInvalid    = "Adresse email invalide."
	msgAccountNotFound = "Aucun compte trouvé avec cette adresse email."
	msgMissingFields   = "Missing required fields"
	msgCodeInvalid     = "Invalid or expired OTP"
	msgCodeExpired     = "OTP has expired"
)

// PasswordRecoveryHandler handles password recovery flow endpoints.
type PasswordRecoveryHandler struct {
	svc recovery.Service
}

func NewPasswordRecoveryHandler(svc recovery.Service) *PasswordRecoveryHandler {
	return &PasswordRecoveryHandler{svc: svc}
}

func (h *PasswordRecoveryHandler) Action(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "request":
		h.request(w, r)
	case "reset":
		h.reset(w, r)
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}

func (h *PasswordRecoveryHandler) request(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Email == "" {
		writeError(w, http.StatusBadRequest, msgEmailRequired)
		return
	}
	if err := validate.Var(body.Email, "required,email"); err != nil {
		writeError(w, http.StatusBadRequest, msgEmailInvalid)
		return
	}

	res, err := h.svc.RequestOTP(r.Context(), body.Email)
	if err != nil {
		if errors.Is(err, recovery.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, msgAccountNotFound)
			return
		}
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessEnvelope{Success: true, Dev: res.Dev})
}

func (h *PasswordRecoveryHandler) reset(w http.ResponseWriter, r *http.Request) {
	var req recovery.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.OTP == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, msgMissingFields)
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, recovery.ErrCodeExpired):
			writeError(w, http.StatusUnauthorized, msgCodeExpired)
		case errors.Is(err, recovery.ErrCodeInvalid):
			writeError(w, http.StatusUnauthorized, msgCodeInvalid)
		case errors.Is(err, recovery.ErrAccountNotFound):
			writeError(w, http.StatusNotFound, msgAccountNotFound)
		default:
			httpError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, SuccessEnvelope{Success: true})
}
