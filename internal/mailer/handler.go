package mailer

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/imdevedugame/backend-pwa/internal/respond"
)

// Handler accepts outbound email requests. Delivery is recorded in the log;
// no SMTP relay is configured.
type Handler struct {
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

type sendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.To) == "" || strings.TrimSpace(req.Subject) == "" {
		respond.Fail(w, r, http.StatusBadRequest, "Recipient and subject are required")
		return
	}

	h.logger.InfoContext(r.Context(), "email sent", "to", req.To, "subject", req.Subject, "body_bytes", len(req.Body))

	respond.OK(w, r, http.StatusOK, "sent", nil)
}
