package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// DefaultPaymentMethod is recorded when the buyer does not name one.
const DefaultPaymentMethod = "transfer"

// MaxQuantity is the largest quantity an order or cart line can hold.
const MaxQuantity = math.MaxInt32

// MaxTotalPrice is the largest total an order can record.
var MaxTotalPrice = decimal.RequireFromString("9999999999.99")

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered: nil,
	OrderStatusCancelled: nil,
}

// ParseOrderStatus accepts only the five known statuses.
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := orderTransitions[status]; !ok {
		return "", Errorf(ErrValidation, "Invalid status %q", s)
	}
	return status, nil
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Order struct {
	ID              int64           `json:"id"`
	BuyerID         int64           `json:"buyer_id"`
	SellerID        int64           `json:"seller_id"`
	ProductID       int64           `json:"product_id"`
	Quantity        int             `json:"quantity"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	PaymentMethod   string          `json:"payment_method"`
	ShippingAddress string          `json:"shipping_address"`
	Notes           string          `json:"notes"`
	Status          OrderStatus     `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// IsParty reports whether userID is the buyer or the seller of the order.
func (o *Order) IsParty(userID int64) bool {
	return o.BuyerID == userID || o.SellerID == userID
}

// OrderSummary is one row of an order listing, joined with product and counterpart data.
type OrderSummary struct {
	Order
	ProductName  string          `json:"product_name"`
	Images       []string        `json:"images"`
	SellerName   string          `json:"seller_name"`
	SellerAvatar string          `json:"seller_avatar"`
	BuyerName    string          `json:"buyer_name"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// OrderDetail is a single order as shown to one of its parties.
type OrderDetail struct {
	OrderSummary
	Description   string `json:"description"`
	SellerPhone   string `json:"seller_phone"`
	SellerAddress string `json:"seller_address"`
	BuyerPhone    string `json:"buyer_phone"`
}
