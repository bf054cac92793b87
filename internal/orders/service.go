package orders

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/imdevedugame/backend-pwa/internal/domain"
	"github.com/imdevedugame/backend-pwa/internal/inventory"
	"github.com/imdevedugame/backend-pwa/internal/rating"
	"github.com/imdevedugame/backend-pwa/internal/store"
	"github.com/imdevedugame/backend-pwa/internal/telemetry"
)

// Publisher sends a domain event keyed by order id.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, event any) error
}

type Service struct {
	db         *sql.DB
	orders     *OrderRepository
	ledger     *inventory.Ledger
	reviews    *rating.ReviewRepository
	aggregator *rating.Aggregator
	publisher  Publisher
	metrics    *telemetry.Metrics
	logger     *slog.Logger
}

type ServiceOption func(*Service)

// WithPublisher enables event publishing after each committed write.
func WithPublisher(p Publisher) ServiceOption {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithMetrics(m *telemetry.Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

func NewService(db *sql.DB, ledger *inventory.Ledger, reviews *rating.ReviewRepository, aggregator *rating.Aggregator, logger *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		db:         db,
		orders:     NewOrderRepository(db),
		ledger:     ledger,
		reviews:    reviews,
		aggregator: aggregator,
		logger:     logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type CreateOrderInput struct {
	BuyerID         int64
	ProductID       int64
	SellerID        int64
	Quantity        int
	PaymentMethod   string
	ShippingAddress string
	Notes           string
}

func (in *CreateOrderInput) normalize() error {
	if in.ProductID <= 0 || in.SellerID <= 0 {
		return domain.Errorf(domain.ErrValidation, "Product ID and Seller ID are required")
	}
	if in.Quantity < 0 {
		return domain.Errorf(domain.ErrValidation, "Quantity must be at least 1")
	}
	if in.Quantity > domain.MaxQuantity {
		return domain.Errorf(domain.ErrValidation, "Quantity must be at most %d", domain.MaxQuantity)
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = domain.DefaultPaymentMethod
	}
	return nil
}

// List returns the orders userID bought or sold. status may be empty.
func (s *Service) List(ctx context.Context, userID int64, status string) ([]domain.OrderSummary, error) {
	var filter domain.OrderStatus
	if status != "" {
		parsed, err := domain.ParseOrderStatus(status)
		if err != nil {
			return nil, err
		}
		filter = parsed
	}

	return s.orders.List(ctx, userID, filter)
}

func (s *Service) Get(ctx context.Context, orderID, userID int64) (*domain.OrderDetail, error) {
	detail, err := s.orders.GetDetail(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !detail.IsParty(userID) {
		return nil, domain.Errorf(domain.ErrForbidden, "Access denied")
	}

	return detail, nil
}

// Create places an order and takes its quantity out of tracked stock in the
// same transaction. The product row stays locked from the stock check until
// commit.
func (s *Service) Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	order := &domain.Order{
		BuyerID:         in.BuyerID,
		SellerID:        in.SellerID,
		ProductID:       in.ProductID,
		Quantity:        in.Quantity,
		PaymentMethod:   in.PaymentMethod,
		ShippingAddress: in.ShippingAddress,
		Notes:           in.Notes,
		Status:          domain.OrderStatusPending,
	}

	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		product, err := s.orders.LockProduct(ctx, tx, in.ProductID)
		if err != nil {
			return err
		}

		if product.OwnerID != in.SellerID {
			return domain.Errorf(domain.ErrValidation, "Seller does not own this product")
		}

		if product.TracksStock() {
			if in.Quantity > *product.Stock {
				return domain.Errorf(domain.ErrInsufficientStock, "Insufficient stock")
			}
		} else if product.IsSold {
			return domain.Errorf(domain.ErrInsufficientStock, "Insufficient stock")
		}

		order.TotalPrice = product.Price.Mul(decimal.NewFromInt(int64(in.Quantity)))
		if order.TotalPrice.GreaterThan(domain.MaxTotalPrice) {
			return domain.Errorf(domain.ErrValidation, "Order total exceeds %s", domain.MaxTotalPrice.StringFixed(2))
		}

		if err := s.orders.Insert(ctx, tx, order); err != nil {
			return err
		}

		return s.ledger.ApplyDelta(ctx, tx, in.ProductID, -in.Quantity)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			s.metrics.StockRejected(ctx)
		}
		return nil, err
	}

	s.metrics.OrderCreated(ctx)
	s.logger.InfoContext(ctx, "order created", "order_id", order.ID, "buyer_id", order.BuyerID, "product_id", order.ProductID)

	s.publish(ctx, domain.EventOrderCreated, order.ID, domain.OrderCreatedEvent{
		EventID:    uuid.NewString(),
		OrderID:    order.ID,
		BuyerID:    order.BuyerID,
		SellerID:   order.SellerID,
		ProductID:  order.ProductID,
		Quantity:   order.Quantity,
		TotalPrice: order.TotalPrice,
		Timestamp:  order.CreatedAt,
	})

	return order, nil
}

// UpdateStatus moves an order one step along its lifecycle. Delivery marks
// the product sold.
func (s *Service) UpdateStatus(ctx context.Context, orderID, userID int64, status string) (*domain.Order, error) {
	next, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}

	var order *domain.Order
	var previous domain.OrderStatus

	err = store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		o, err := s.orders.GetForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}

		if !o.IsParty(userID) {
			return domain.Errorf(domain.ErrForbidden, "Access denied")
		}

		if !o.Status.CanTransitionTo(next) {
			return domain.Errorf(domain.ErrValidation, "Cannot change status from %s to %s", o.Status, next)
		}

		if err := s.orders.UpdateStatus(ctx, tx, orderID, next); err != nil {
			return err
		}

		if next == domain.OrderStatusDelivered {
			if err := s.ledger.MarkSold(ctx, tx, o.ProductID); err != nil {
				return err
			}
		}

		previous = o.Status
		o.Status = next
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.StatusChanged(ctx, string(next))
	s.logger.InfoContext(ctx, "order status updated", "order_id", orderID, "from", previous, "to", next, "user_id", userID)

	s.publish(ctx, domain.EventOrderStatusChanged, order.ID, domain.OrderStatusChangedEvent{
		EventID:   uuid.NewString(),
		OrderID:   order.ID,
		BuyerID:   order.BuyerID,
		SellerID:  order.SellerID,
		ChangedBy: userID,
		From:      previous,
		To:        next,
		Timestamp: time.Now().UTC(),
	})

	return order, nil
}

// CreateReview records the buyer's rating of the seller and refreshes the
// seller's aggregate in the same transaction. Each order takes one review.
func (s *Service) CreateReview(ctx context.Context, orderID, buyerID int64, score int, comment string) (*domain.Review, error) {
	if err := domain.ValidateRating(score); err != nil {
		return nil, err
	}

	review := &domain.Review{
		OrderID: orderID,
		BuyerID: buyerID,
		Rating:  score,
		Comment: comment,
	}

	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		o, err := s.orders.Get(ctx, tx, orderID)
		if err != nil {
			return err
		}

		if o.BuyerID != buyerID {
			return domain.Errorf(domain.ErrForbidden, "Only the buyer can review this order")
		}

		exists, err := s.reviews.ExistsForOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if exists {
			return domain.Errorf(domain.ErrConflict, "Order already reviewed")
		}

		review.SellerID = o.SellerID
		if err := s.reviews.Create(ctx, tx, review); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return domain.Errorf(domain.ErrConflict, "Order already reviewed")
			}
			return err
		}

		_, err = s.aggregator.Recompute(ctx, tx, o.SellerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ReviewCreated(ctx, score)
	s.logger.InfoContext(ctx, "review created", "review_id", review.ID, "order_id", orderID, "seller_id", review.SellerID)

	s.publish(ctx, domain.EventReviewCreated, orderID, domain.ReviewCreatedEvent{
		EventID:   uuid.NewString(),
		ReviewID:  review.ID,
		OrderID:   orderID,
		BuyerID:   buyerID,
		SellerID:  review.SellerID,
		Rating:    score,
		Timestamp: review.CreatedAt,
	})

	return review, nil
}

func (s *Service) publish(ctx context.Context, eventType string, orderID int64, event any) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, eventType, strconv.FormatInt(orderID, 10), event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish event", "error", err, "event_type", eventType, "order_id", orderID)
	}
}
