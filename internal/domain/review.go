package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	BuyerID   int64     `json:"buyer_id"`
	SellerID  int64     `json:"seller_id"`
	BuyerName string    `json:"buyer_name,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return Errorf(ErrValidation, "Rating must be between %d and %d", MinRating, MaxRating)
	}
	return nil
}

type SellerRating struct {
	SellerID     int64           `json:"seller_id"`
	Rating       decimal.Decimal `json:"rating"`
	TotalReviews int             `json:"total_reviews"`
}
