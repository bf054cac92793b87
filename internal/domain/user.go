package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultRating is a seller's rating before any review exists.
var DefaultRating = decimal.RequireFromString("5.00")

type User struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address"`
	City         string          `json:"city"`
	Avatar       string          `json:"avatar"`
	IsSeller     bool            `json:"is_seller"`
	Rating       decimal.Decimal `json:"rating"`
	TotalReviews int             `json:"total_reviews"`
	CreatedAt    time.Time       `json:"created_at"`
}

type Profile struct {
	User
	ActiveProducts int `json:"active_products"`
	SoldProducts   int `json:"sold_products"`
}

// Contact is the minimum needed to notify a user.
type Contact struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
