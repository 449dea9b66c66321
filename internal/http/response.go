package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"gastos/internal/core"
	"gastos/internal/log"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeFieldErrors(w http.ResponseWriter, fe core.FieldErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]core.FieldErrors{"errors": fe})
}

// writeError maps domain errors onto HTTP statuses. Unrecognized errors
// become an opaque 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fe core.FieldErrors
	switch {
	case errors.As(err, &fe):
		writeFieldErrors(w, fe)
	case errors.Is(err, core.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, core.ErrAccountDisabled):
		writeMessage(w, http.StatusForbidden, "account is disabled")
	case errors.Is(err, core.ErrMissingToken),
		errors.Is(err, core.ErrInvalidToken),
		errors.Is(err, core.ErrTokenRevoked):
		writeMessage(w, http.StatusUnauthorized, "invalid or expired token")
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "request failed", log.FieldError, err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON fills dst from the request body, rejecting malformed JSON
// with a field-free 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
