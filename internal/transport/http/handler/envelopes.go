package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hrm-gateway/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// ClickEnvelope answers a feed click with the resolved navigation target.
type ClickEnvelope struct {
	Route string `json:"route,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain and upstream errors onto HTTP responses. Upstream
// server errors pass their status through; transport failures become a
// 502 so clients can tell the gateway from the HR API.
func httpError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, ve.Detail)
		return
	}
	var se *domain.ServerError
	if errors.As(err, &se) {
		writeError(w, se.Status, se.Detail)
		return
	}
	var ne *domain.NetworkError
	if errors.As(err, &ne) {
		writeError(w, http.StatusBadGateway, "upstream unavailable")
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
