package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductCondition string

const (
	ConditionLikeNew ProductCondition = "like_new"
	ConditionGood    ProductCondition = "good"
	ConditionFair    ProductCondition = "fair"
	ConditionPoor    ProductCondition = "poor"
)

type Product struct {
	ID          int64            `json:"id"`
	OwnerID     int64            `json:"user_id"`
	CategoryID  int64            `json:"category_id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	Condition   ProductCondition `json:"condition"`
	Images      []string         `json:"images"`
	// Stock is nil when the product does not track inventory.
	Stock     *int      `json:"stock"`
	IsSold    bool      `json:"is_sold"`
	ViewCount int       `json:"view_count"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *Product) TracksStock() bool {
	return p.Stock != nil
}

// StockLevel is the inventory view of a product.
type StockLevel struct {
	ProductID int64 `json:"product_id"`
	Stock     *int  `json:"stock"`
	IsSold    bool  `json:"is_sold"`
}
