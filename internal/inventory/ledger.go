package inventory

import (
	"context"
	"database/sql"

	"github.com/imdevedugame/backend-pwa/internal/domain"
	"github.com/imdevedugame/backend-pwa/internal/store"
)

// Ledger owns the stock and is_sold columns of products. Write methods take
// the caller's transaction.
type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) GetStock(ctx context.Context, productID int64) (*domain.StockLevel, error) {
	level := &domain.StockLevel{}
	var stock sql.NullInt64

	err := l.db.QueryRowContext(ctx, `
		SELECT id, stock, is_sold
		FROM products
		WHERE id = $1
	`, productID).Scan(&level.ProductID, &stock, &level.IsSold)
	if err != nil {
		return nil, store.Translate(err, "Product")
	}

	if stock.Valid {
		n := int(stock.Int64)
		level.Stock = &n
	}

	return level, nil
}

// ApplyDelta adds delta to a product's tracked stock. Untracked (NULL) stock
// is left alone. A decrement that would take stock below zero fails with
// ErrInsufficientStock and changes nothing. A decrement sets is_sold when
// stock runs out and never clears it. A restock (positive delta) relists the
// product: is_sold is cleared whenever stock ends above zero, including a
// flag set by a delivery.
func (l *Ledger) ApplyDelta(ctx context.Context, q store.DBTX, productID int64, delta int) error {
	var stock sql.NullInt64
	err := q.QueryRowContext(ctx, `
		SELECT stock
		FROM products
		WHERE id = $1
	`, productID).Scan(&stock)
	if err != nil {
		return store.Translate(err, "Product")
	}

	if !stock.Valid || delta == 0 {
		return nil
	}

	if delta > 0 {
		_, err := q.ExecContext(ctx, `
			UPDATE products
			SET stock = stock + $2, is_sold = stock + $2 <= 0
			WHERE id = $1 AND stock IS NOT NULL
		`, productID, delta)
		return err
	}

	result, err := q.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + $2, is_sold = is_sold OR stock + $2 <= 0
		WHERE id = $1 AND stock IS NOT NULL AND stock + $2 >= 0
	`, productID, delta)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.Errorf(domain.ErrInsufficientStock, "Insufficient stock")
	}

	return nil
}

// MarkSold flags the product as sold regardless of remaining stock.
func (l *Ledger) MarkSold(ctx context.Context, q store.DBTX, productID int64) error {
	result, err := q.ExecContext(ctx, `
		UPDATE products SET is_sold = TRUE
		WHERE id = $1
	`, productID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.Errorf(domain.ErrNotFound, "Product not found")
	}

	return nil
}
