package rating

import (
	"context"
	"database/sql"

	"github.com/imdevedugame/backend-pwa/internal/domain"
	"github.com/imdevedugame/backend-pwa/internal/store"
)

type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) ExistsForOrder(ctx context.Context, q store.DBTX, orderID int64) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM reviews WHERE order_id = $1)
	`, orderID).Scan(&exists)
	return exists, err
}

// Create inserts review and fills in its id and created_at. A second review
// for the same order fails with ErrConflict.
func (r *ReviewRepository) Create(ctx context.Context, q store.DBTX, review *domain.Review) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO reviews (order_id, buyer_id, seller_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, review.OrderID, review.BuyerID, review.SellerID, review.Rating, review.Comment).
		Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		return store.Translate(err, "Review")
	}
	return nil
}

func (r *ReviewRepository) ListBySeller(ctx context.Context, sellerID int64) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.order_id, r.buyer_id, r.seller_id, u.name, r.rating, r.comment, r.created_at
		FROM reviews r
		JOIN users u ON u.id = r.buyer_id
		WHERE r.seller_id = $1
		ORDER BY r.created_at DESC
	`, sellerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	reviews := []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.OrderID, &rv.BuyerID, &rv.SellerID, &rv.BuyerName, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reviews, nil
}
