package orders

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/lib/pq"

	"github.com/imdevedugame/backend-pwa/internal/domain"
	"github.com/imdevedugame/backend-pwa/internal/store"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// LockProduct reads the fields order creation needs and holds the row lock
// until q's transaction ends.
func (r *OrderRepository) LockProduct(ctx context.Context, q store.DBTX, productID int64) (*domain.Product, error) {
	product := &domain.Product{}
	var stock sql.NullInt64

	err := q.QueryRowContext(ctx, `
		SELECT id, user_id, price, stock, is_sold
		FROM products
		WHERE id = $1
		FOR UPDATE
	`, productID).Scan(&product.ID, &product.OwnerID, &product.Price, &stock, &product.IsSold)
	if err != nil {
		return nil, store.Translate(err, "Product")
	}

	if stock.Valid {
		n := int(stock.Int64)
		product.Stock = &n
	}

	return product, nil
}

func (r *OrderRepository) Insert(ctx context.Context, q store.DBTX, order *domain.Order) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO orders (buyer_id, seller_id, product_id, quantity, total_price, payment_method, shipping_address, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, order.BuyerID, order.SellerID, order.ProductID, order.Quantity, order.TotalPrice,
		order.PaymentMethod, order.ShippingAddress, order.Notes, order.Status).
		Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return store.Translate(err, "Order")
	}
	return nil
}

const selectOrder = `
	SELECT id, buyer_id, seller_id, product_id, quantity, total_price, payment_method, shipping_address, notes, status, created_at
	FROM orders
	WHERE id = $1
`

func (r *OrderRepository) Get(ctx context.Context, q store.DBTX, id int64) (*domain.Order, error) {
	return scanOrder(q.QueryRowContext(ctx, selectOrder, id))
}

// GetForUpdate is Get plus a row lock held until q's transaction ends.
func (r *OrderRepository) GetForUpdate(ctx context.Context, q store.DBTX, id int64) (*domain.Order, error) {
	return scanOrder(q.QueryRowContext(ctx, selectOrder+"FOR UPDATE", id))
}

func scanOrder(row *sql.Row) (*domain.Order, error) {
	o := &domain.Order{}
	err := row.Scan(&o.ID, &o.BuyerID, &o.SellerID, &o.ProductID, &o.Quantity, &o.TotalPrice,
		&o.PaymentMethod, &o.ShippingAddress, &o.Notes, &o.Status, &o.CreatedAt)
	if err != nil {
		return nil, store.Translate(err, "Order")
	}
	return o, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, q store.DBTX, id int64, status domain.OrderStatus) error {
	result, err := q.ExecContext(ctx, `
		UPDATE orders SET status = $2, updated_at = NOW()
		WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.Errorf(domain.ErrNotFound, "Order not found")
	}

	return nil
}

const selectSummary = `
	SELECT o.id, o.buyer_id, o.seller_id, o.product_id, o.quantity, o.total_price,
		o.payment_method, o.shipping_address, o.notes, o.status, o.created_at,
		p.name, p.images, s.name, s.avatar, b.name
	FROM orders o
	JOIN products p ON p.id = o.product_id
	JOIN users s ON s.id = o.seller_id
	JOIN users b ON b.id = o.buyer_id
`

// List returns the orders userID is a party to, newest first. An empty
// status matches every status.
func (r *OrderRepository) List(ctx context.Context, userID int64, status domain.OrderStatus) ([]domain.OrderSummary, error) {
	query := selectSummary + "WHERE (o.buyer_id = $1 OR o.seller_id = $1)"
	args := []any{userID}

	if status != "" {
		args = append(args, status)
		query += " AND o.status = $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY o.created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	summaries := []domain.OrderSummary{}
	for rows.Next() {
		var s domain.OrderSummary
		if err := rows.Scan(summaryFields(&s)...); err != nil {
			return nil, err
		}
		s.TotalAmount = s.TotalPrice
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

func (r *OrderRepository) GetDetail(ctx context.Context, id int64) (*domain.OrderDetail, error) {
	query := `
		SELECT o.id, o.buyer_id, o.seller_id, o.product_id, o.quantity, o.total_price,
			o.payment_method, o.shipping_address, o.notes, o.status, o.created_at,
			p.name, p.images, s.name, s.avatar, b.name,
			p.description, s.phone, s.address, b.phone
		FROM orders o
		JOIN products p ON p.id = o.product_id
		JOIN users s ON s.id = o.seller_id
		JOIN users b ON b.id = o.buyer_id
		WHERE o.id = $1
	`

	d := &domain.OrderDetail{}
	dest := append(summaryFields(&d.OrderSummary), &d.Description, &d.SellerPhone, &d.SellerAddress, &d.BuyerPhone)
	if err := r.db.QueryRowContext(ctx, query, id).Scan(dest...); err != nil {
		return nil, store.Translate(err, "Order")
	}
	d.TotalAmount = d.TotalPrice

	return d, nil
}

func summaryFields(s *domain.OrderSummary) []any {
	return []any{
		&s.ID, &s.BuyerID, &s.SellerID, &s.ProductID, &s.Quantity, &s.TotalPrice,
		&s.PaymentMethod, &s.ShippingAddress, &s.Notes, &s.Status, &s.CreatedAt,
		&s.ProductName, pq.Array(&s.Images), &s.SellerName, &s.SellerAvatar, &s.BuyerName,
	}
}
