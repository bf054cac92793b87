package domain

import "github.com/shopspring/decimal"

type CartLine struct {
	ID         int64            `json:"id"`
	Quantity   int              `json:"quantity"`
	ProductID  int64            `json:"product_id"`
	Name       string           `json:"name"`
	Price      decimal.Decimal  `json:"price"`
	Images     []string         `json:"images"`
	Condition  ProductCondition `json:"condition"`
	SellerID   int64            `json:"seller_id"`
	SellerName string           `json:"seller_name"`
}

type Cart struct {
	Items []CartLine      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// NewCart totals price × quantity over lines.
func NewCart(lines []CartLine) Cart {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	if lines == nil {
		lines = []CartLine{}
	}
	return Cart{Items: lines, Total: total}
}
