package cart

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/imdevedugame/backend-pwa/internal/domain"
	"github.com/imdevedugame/backend-pwa/internal/store"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Lines returns the user's cart rows for products still on sale, newest first.
func (r *Repository) Lines(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.quantity, p.id, p.name, p.price, p.images, p.condition, u.id, u.name
		FROM cart c
		JOIN products p ON p.id = c.product_id
		JOIN users u ON u.id = p.user_id
		WHERE c.user_id = $1 AND NOT p.is_sold
		ORDER BY c.added_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var lines []domain.CartLine
	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(&l.ID, &l.Quantity, &l.ProductID, &l.Name, &l.Price,
			pq.Array(&l.Images), &l.Condition, &l.SellerID, &l.SellerName); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

func (r *Repository) ProductSold(ctx context.Context, productID int64) (bool, error) {
	var sold bool
	err := r.db.QueryRowContext(ctx, `
		SELECT is_sold FROM products WHERE id = $1
	`, productID).Scan(&sold)
	if err != nil {
		return false, store.Translate(err, "Product")
	}
	return sold, nil
}

// Upsert adds quantity to the user's line for productID, creating it if needed.
func (r *Repository) Upsert(ctx context.Context, userID, productID int64, quantity int) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO cart (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart.quantity + EXCLUDED.quantity
		RETURNING id
	`, userID, productID, quantity).Scan(&id)
	if err != nil {
		return 0, store.Translate(err, "Cart item")
	}
	return id, nil
}

func (r *Repository) Owner(ctx context.Context, id int64) (int64, error) {
	var userID int64
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id FROM cart WHERE id = $1
	`, id).Scan(&userID)
	if err != nil {
		return 0, store.Translate(err, "Cart item")
	}
	return userID, nil
}

func (r *Repository) SetQuantity(ctx context.Context, id int64, quantity int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE cart SET quantity = $2 WHERE id = $1
	`, id, quantity)
	return err
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM cart WHERE id = $1
	`, id)
	return err
}
