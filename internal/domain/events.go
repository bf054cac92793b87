package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventReviewCreated      = "review.created"
)

type OrderCreatedEvent struct {
	EventID    string          `json:"event_id"`
	OrderID    int64           `json:"order_id"`
	BuyerID    int64           `json:"buyer_id"`
	SellerID   int64           `json:"seller_id"`
	ProductID  int64           `json:"product_id"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Timestamp  time.Time       `json:"timestamp"`
}

type OrderStatusChangedEvent struct {
	EventID   string      `json:"event_id"`
	OrderID   int64       `json:"order_id"`
	BuyerID   int64       `json:"buyer_id"`
	SellerID  int64       `json:"seller_id"`
	ChangedBy int64       `json:"changed_by"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	Timestamp time.Time   `json:"timestamp"`
}

type ReviewCreatedEvent struct {
	EventID   string    `json:"event_id"`
	ReviewID  int64     `json:"review_id"`
	OrderID   int64     `json:"order_id"`
	BuyerID   int64     `json:"buyer_id"`
	SellerID  int64     `json:"seller_id"`
	Rating    int       `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}
