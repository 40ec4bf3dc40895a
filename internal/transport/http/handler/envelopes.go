package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/myvoice974/account-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SuccessEnvelope acknowledges an operation. Dev is set when the outcome was
// only logged server-side (no mail gateway configured).
type SuccessEnvelope struct {
	Success bool `json:"success"`
	Dev     bool `json:"dev,omitempty"`
}

// AuthEnvelope wraps login/register responses.
type AuthEnvelope struct {
	Bearer string       `json:"Bearer,omitempty"`
	User   *domain.User `json:"user,omitempty"`
	Error  string       `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps a service error onto an HTTP status via the domain sentinels.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
