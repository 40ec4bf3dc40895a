package handler

import (
	"encoding/json"
	"net/http"

	"github.com/myvoice974/account-api/internal/application/account"
	"github.com/myvoice974/account-api/internal/pkg/validate"
)

// SessionHandler handles login endpoints.
type SessionHandler struct {
	svc account.Service
}

func NewSessionHandler(svc account.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req account.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	bearer, user, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{Bearer: bearer, User: user})
}

// Google handles "Sign in with Google": the body carries the ID token minted
// by the Google SDK on the client.
func (h *SessionHandler) Google(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDToken string `json:"id_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.IDToken == "" {
		writeError(w, http.StatusBadRequest, "id_token is required")
		return
	}
	bearer, user, err := h.svc.LoginWithGoogle(r.Context(), body.IDToken)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{Bearer: bearer, User: user})
}
