package rating

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/imdevedugame/backend-pwa/internal/domain"
	"github.com/imdevedugame/backend-pwa/internal/store"
)

// Aggregator keeps users.rating and users.total_reviews in line with the
// reviews a seller has received.
type Aggregator struct{}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Recompute rewrites the seller's rating from scratch. The seller row is
// locked so concurrent recomputes for one seller run one at a time and the
// last writer sees every committed review. NO KEY UPDATE does not conflict
// with the KEY SHARE lock the reviews.seller_id foreign key already holds.
func (a *Aggregator) Recompute(ctx context.Context, q store.DBTX, sellerID int64) (*domain.SellerRating, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		SELECT id FROM users WHERE id = $1 FOR NO KEY UPDATE
	`, sellerID).Scan(&id)
	if err != nil {
		return nil, store.Translate(err, "Seller")
	}

	var count, sum int64
	err = q.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(rating), 0)
		FROM reviews
		WHERE seller_id = $1
	`, sellerID).Scan(&count, &sum)
	if err != nil {
		return nil, err
	}

	result := &domain.SellerRating{
		SellerID:     sellerID,
		Rating:       Average(sum, count),
		TotalReviews: int(count),
	}

	_, err = q.ExecContext(ctx, `
		UPDATE users SET rating = $2, total_reviews = $3
		WHERE id = $1
	`, sellerID, result.Rating, result.TotalReviews)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Average is the mean rating to two decimals, or the default rating when
// there are no reviews.
func Average(sum, count int64) decimal.Decimal {
	if count == 0 {
		return domain.DefaultRating
	}
	return decimal.NewFromInt(sum).DivRound(decimal.NewFromInt(count), 2)
}
