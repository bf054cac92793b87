package respond

import (
	"encoding/json"
	"net/http"

	"github.com/imdevedugame/backend-pwa/internal/domain"
	"github.com/imdevedugame/backend-pwa/internal/logging"
)

// Envelope is the body shape of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.FromContext(r.Context()).Error("failed to encode response", "error", err)
	}
}

func OK(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	JSON(w, r, status, Envelope{Success: true, Message: message, Data: data})
}

func Fail(w http.ResponseWriter, r *http.Request, status int, message string) {
	JSON(w, r, status, Envelope{Success: false, Message: message})
}

// StatusFor maps an error kind onto the HTTP status the API has always used
// for it. Duplicate reviews and stock shortfalls are client errors (400).
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindValidation, domain.KindConflict, domain.KindInsufficientStock:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error writes the failure envelope for err. Internal errors are logged and
// answered with a generic message.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := StatusFor(kind)

	if kind == domain.KindInternal {
		logging.FromContext(r.Context()).Error("request failed", "error", err, "path", r.URL.Path)
		Fail(w, r, status, "internal server error")
		return
	}

	Fail(w, r, status, domain.Message(err, kind.String()))
}
