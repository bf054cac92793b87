package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/imdevedugame/backend-pwa/internal/domain"
)

// ContactLookup resolves who to email for a user id.
type ContactLookup interface {
	Contact(ctx context.Context, id int64) (*domain.Contact, error)
}

// Handler turns marketplace events into emails sent through the mailer
// service.
type Handler struct {
	mailerURL  string
	contacts   ContactLookup
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHandler(mailerURL string, contacts ContactLookup, client *http.Client, logger *slog.Logger) *Handler {
	return &Handler{
		mailerURL:  mailerURL,
		contacts:   contacts,
		httpClient: client,
		logger:     logger,
	}
}

type email struct {
	userID  int64
	subject string
	body    string
}

// Handle is a messaging.HandlerFunc. Malformed and unknown events are logged
// and skipped. A mailer failure is returned so the message is not committed.
func (h *Handler) Handle(ctx context.Context, eventType string, payload []byte) error {
	emails, err := h.compose(eventType, payload)
	if err != nil {
		h.logger.ErrorContext(ctx, "skipping malformed event", "error", err, "event_type", eventType)
		return nil
	}
	if emails == nil {
		h.logger.WarnContext(ctx, "skipping unknown event type", "event_type", eventType)
		return nil
	}

	for _, e := range emails {
		contact, err := h.contacts.Contact(ctx, e.userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				h.logger.WarnContext(ctx, "recipient not found", "user_id", e.userID, "event_type", eventType)
				continue
			}
			return fmt.Errorf("look up contact %d: %w", e.userID, err)
		}

		if err := h.send(ctx, contact.Email, e.subject, fmt.Sprintf("Hi %s,\n\n%s", contact.Name, e.body)); err != nil {
			return fmt.Errorf("send %s email to user %d: %w", eventType, e.userID, err)
		}
	}

	h.logger.InfoContext(ctx, "event processed", "event_type", eventType, "emails", len(emails))
	return nil
}

func (h *Handler) compose(eventType string, payload []byte) ([]email, error) {
	switch eventType {
	case domain.EventOrderCreated:
		var ev domain.OrderCreatedEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, err
		}
		return []email{
			{
				userID:  ev.SellerID,
				subject: fmt.Sprintf("New order #%d", ev.OrderID),
				body:    fmt.Sprintf("You received an order for %d item(s) totalling %s.", ev.Quantity, ev.TotalPrice.StringFixed(2)),
			},
			{
				userID:  ev.BuyerID,
				subject: fmt.Sprintf("Order #%d placed", ev.OrderID),
				body:    fmt.Sprintf("Your order totalling %s is waiting for the seller to confirm.", ev.TotalPrice.StringFixed(2)),
			},
		}, nil

	case domain.EventOrderStatusChanged:
		var ev domain.OrderStatusChangedEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, err
		}
		recipient := ev.BuyerID
		if ev.ChangedBy == ev.BuyerID {
			recipient = ev.SellerID
		}
		return []email{{
			userID:  recipient,
			subject: fmt.Sprintf("Order #%d is now %s", ev.OrderID, ev.To),
			body:    fmt.Sprintf("Order #%d moved from %s to %s.", ev.OrderID, ev.From, ev.To),
		}}, nil

	case domain.EventReviewCreated:
		var ev domain.ReviewCreatedEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, err
		}
		return []email{{
			userID:  ev.SellerID,
			subject: fmt.Sprintf("New %d-star review", ev.Rating),
			body:    fmt.Sprintf("Your buyer rated order #%d with %d out of %d.", ev.OrderID, ev.Rating, domain.MaxRating),
		}}, nil
	}

	return nil, nil
}

func (h *Handler) send(ctx context.Context, to, subject, body string) error {
	data, err := json.Marshal(map[string]string{
		"to":      to,
		"subject": subject,
		"body":    body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.mailerURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mailer returned status %d", resp.StatusCode)
	}

	return nil
}
