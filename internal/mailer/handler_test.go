package mailer

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandler_HandleSend(t *testing.T) {
	var logs bytes.Buffer
	h := NewHandler(slog.New(slog.NewJSONHandler(&logs, nil)))

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid", `{"to":"sari@example.com","subject":"New order #10","body":"hi"}`, http.StatusOK},
		{"missing recipient", `{"subject":"New order #10"}`, http.StatusBadRequest},
		{"blank subject", `{"to":"sari@example.com","subject":"  "}`, http.StatusBadRequest},
		{"invalid json", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.HandleSend(rec, httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}

	if !strings.Contains(logs.String(), `"to":"sari@example.com"`) {
		t.Errorf("expected delivery to be logged, got %s", logs.String())
	}
}
