//go:build integration

package test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/imdevedugame/backend-pwa/internal/domain"
	"github.com/imdevedugame/backend-pwa/internal/identity"
	"github.com/imdevedugame/backend-pwa/internal/inventory"
	"github.com/imdevedugame/backend-pwa/internal/messaging"
	"github.com/imdevedugame/backend-pwa/internal/notifier"
	"github.com/imdevedugame/backend-pwa/internal/orders"
	"github.com/imdevedugame/backend-pwa/internal/rating"
	"github.com/imdevedugame/backend-pwa/internal/users"
)

func intPtr(n int) *int { return &n }

func newService(db *sql.DB, opts ...orders.ServiceOption) *orders.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return orders.NewService(db, inventory.NewLedger(db), rating.NewReviewRepository(db), rating.NewAggregator(), logger, opts...)
}

func stockOf(t *testing.T, db *sql.DB, productID int64) *domain.StockLevel {
	t.Helper()
	level, err := inventory.NewLedger(db).GetStock(context.Background(), productID)
	if err != nil {
		t.Fatalf("failed to read stock: %v", err)
	}
	return level
}

func TestLastUnitOrder(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := StartPostgres(ctx, t)

	buyer := SeedUser(t, db, "auth-buyer", "Budi")
	other := SeedUser(t, db, "auth-other", "Andi")
	seller := SeedUser(t, db, "auth-seller", "Sari")
	product := SeedProduct(t, db, seller, "100000", intPtr(1))

	svc := newService(db)

	order, err := svc.Create(ctx, orders.CreateOrderInput{BuyerID: buyer, ProductID: product, SellerID: seller, Quantity: 1})
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}
	if !order.TotalPrice.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("expected total 100000, got %s", order.TotalPrice)
	}

	level := stockOf(t, db, product)
	if level.Stock == nil || *level.Stock != 0 || !level.IsSold {
		t.Fatalf("expected stock 0 and sold, got %+v", level)
	}

	_, err = svc.Create(ctx, orders.CreateOrderInput{BuyerID: other, ProductID: product, SellerID: seller, Quantity: 1})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	if _, err := db.ExecContext(ctx, `UPDATE products SET price = 250000 WHERE id = $1`, product); err != nil {
		t.Fatalf("failed to change price: %v", err)
	}

	detail, err := svc.Get(ctx, order.ID, buyer)
	if err != nil {
		t.Fatalf("failed to get order: %v", err)
	}
	if !detail.TotalPrice.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("price edit changed order total to %s", detail.TotalPrice)
	}
}

func TestQuantityAboveStockLeavesStockUntouched(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := StartPostgres(ctx, t)

	buyer := SeedUser(t, db, "auth-buyer", "Budi")
	seller := SeedUser(t, db, "auth-seller", "Sari")
	product := SeedProduct(t, db, seller, "5000", intPtr(2))

	_, err := newService(db).Create(ctx, orders.CreateOrderInput{BuyerID: buyer, ProductID: product, SellerID: seller, Quantity: 3})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	level := stockOf(t, db, product)
	if *level.Stock != 2 || level.IsSold {
		t.Errorf("stock changed after rejected order: %+v", level)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count); err != nil {
		t.Fatalf("failed to count orders: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no orders, got %d", count)
	}
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := StartPostgres(ctx, t)

	const stock, buyers = 3, 12

	seller := SeedUser(t, db, "auth-seller", "Sari")
	product := SeedProduct(t, db, seller, "10000", intPtr(stock))

	buyerIDs := make([]int64, buyers)
	for i := range buyerIDs {
		buyerIDs[i] = SeedUser(t, db, fmt.Sprintf("auth-buyer-%d", i), fmt.Sprintf("Buyer %d", i))
	}

	svc := newService(db)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, rejected := 0, 0

	for _, buyer := range buyerIDs {
		wg.Add(1)
		go func(buyer int64) {
			defer wg.Done()
			_, err := svc.Create(ctx, orders.CreateOrderInput{BuyerID: buyer, ProductID: product, SellerID: seller, Quantity: 1})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(buyer)
	}
	wg.Wait()

	if succeeded != stock {
		t.Errorf("expected %d successful orders, got %d", stock, succeeded)
	}
	if rejected != buyers-stock {
		t.Errorf("expected %d rejections, got %d", buyers-stock, rejected)
	}

	level := stockOf(t, db, product)
	if *level.Stock != 0 || !level.IsSold {
		t.Errorf("expected sold out product, got %+v", level)
	}
}

func TestStatusLifecycle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := StartPostgres(ctx, t)

	buyer := SeedUser(t, db, "auth-buyer", "Budi")
	seller := SeedUser(t, db, "auth-seller", "Sari")
	stranger := SeedUser(t, db, "auth-stranger", "Andi")
	product := SeedProduct(t, db, seller, "75000", nil)

	svc := newService(db)

	order, err := svc.Create(ctx, orders.CreateOrderInput{BuyerID: buyer, ProductID: product, SellerID: seller})
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, order.ID, stranger, "confirmed"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for non party, got %v", err)
	}

	if level := stockOf(t, db, product); level.Stock != nil || level.IsSold {
		t.Fatalf("unlimited product changed: %+v", level)
	}

	for _, status := range []string{"confirmed", "shipped", "delivered"} {
		if _, err := svc.UpdateStatus(ctx, order.ID, seller, status); err != nil {
			t.Fatalf("failed to move order to %s: %v", status, err)
		}
	}

	if level := stockOf(t, db, product); !level.IsSold {
		t.Errorf("expected delivered order to mark product sold")
	}

	if _, err := svc.UpdateStatus(ctx, order.ID, buyer, "cancelled"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected delivered order to be terminal, got %v", err)
	}
}

func TestReviewOncePerOrder(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := StartPostgres(ctx, t)

	buyer := SeedUser(t, db, "auth-buyer", "Budi")
	seller := SeedUser(t, db, "auth-seller", "Sari")
	product := SeedProduct(t, db, seller, "20000", nil)

	svc := newService(db)

	order, err := svc.Create(ctx, orders.CreateOrderInput{BuyerID: buyer, ProductID: product, SellerID: seller})
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	if _, err := svc.CreateReview(ctx, order.ID, buyer, 5, "mantap"); err != nil {
		t.Fatalf("failed to create review: %v", err)
	}

	if _, err := svc.CreateReview(ctx, order.ID, buyer, 3, "berubah pikiran"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict for second review, got %v", err)
	}

	profile, err := users.NewUserRepository(db).Profile(ctx, seller)
	if err != nil {
		t.Fatalf("failed to load seller: %v", err)
	}
	if profile.Rating.StringFixed(2) != "5.00" || profile.TotalReviews != 1 {
		t.Errorf("expected rating 5.00 from one review, got %s from %d", profile.Rating.StringFixed(2), profile.TotalReviews)
	}

	second, err := svc.Create(ctx, orders.CreateOrderInput{BuyerID: buyer, ProductID: product, SellerID: seller})
	if err != nil {
		t.Fatalf("failed to create second order: %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	created, conflicts := 0, 0
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateReview(ctx, second.ID, buyer, 2, "")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, domain.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 || conflicts != 4 {
		t.Errorf("expected one review and four conflicts, got %d and %d", created, conflicts)
	}

	agg, err := rating.NewAggregator().Recompute(ctx, db, seller)
	if err != nil {
		t.Fatalf("failed to recompute: %v", err)
	}
	if agg.Rating.StringFixed(2) != "3.50" || agg.TotalReviews != 2 {
		t.Errorf("expected 3.50 over 2 reviews, got %s over %d", agg.Rating.StringFixed(2), agg.TotalReviews)
	}
}

func TestConcurrentReviewsForOneSeller(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := StartPostgres(ctx, t)

	const buyers = 8

	seller := SeedUser(t, db, "auth-seller", "Sari")
	product := SeedProduct(t, db, seller, "15000", nil)

	svc := newService(db)

	type purchase struct{ buyer, order int64 }
	purchases := make([]purchase, buyers)
	for i := range purchases {
		buyer := SeedUser(t, db, fmt.Sprintf("auth-buyer-%d", i), fmt.Sprintf("Buyer %d", i))
		order, err := svc.Create(ctx, orders.CreateOrderInput{BuyerID: buyer, ProductID: product, SellerID: seller})
		if err != nil {
			t.Fatalf("failed to create order: %v", err)
		}
		purchases[i] = purchase{buyer: buyer, order: order.ID}
	}

	var wg sync.WaitGroup
	errs := make(chan error, buyers)
	for i, p := range purchases {
		wg.Add(1)
		go func(score int, p purchase) {
			defer wg.Done()
			if _, err := svc.CreateReview(ctx, p.order, p.buyer, score, ""); err != nil {
				errs <- err
			}
		}(i%5+1, p)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("review failed: %v", err)
	}

	profile, err := users.NewUserRepository(db).Profile(ctx, seller)
	if err != nil {
		t.Fatalf("failed to load seller: %v", err)
	}
	if profile.TotalReviews != buyers {
		t.Errorf("expected %d reviews counted, got %d", buyers, profile.TotalReviews)
	}

	// scores 1,2,3,4,5,1,2,3
	if got := profile.Rating.StringFixed(2); got != "2.63" {
		t.Errorf("expected rating 2.63, got %s", got)
	}
}

func TestDeliveredProductWithStockLeftStaysOrderable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := StartPostgres(ctx, t)

	buyer := SeedUser(t, db, "auth-buyer", "Budi")
	seller := SeedUser(t, db, "auth-seller", "Sari")
	product := SeedProduct(t, db, seller, "30000", intPtr(5))

	svc := newService(db)

	order, err := svc.Create(ctx, orders.CreateOrderInput{BuyerID: buyer, ProductID: product, SellerID: seller})
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}
	for _, status := range []string{"confirmed", "shipped", "delivered"} {
		if _, err := svc.UpdateStatus(ctx, order.ID, seller, status); err != nil {
			t.Fatalf("failed to move order to %s: %v", status, err)
		}
	}

	if level := stockOf(t, db, product); *level.Stock != 4 || !level.IsSold {
		t.Fatalf("expected 4 left and sold flag set, got %+v", level)
	}

	if _, err := svc.Create(ctx, orders.CreateOrderInput{BuyerID: buyer, ProductID: product, SellerID: seller}); err != nil {
		t.Fatalf("expected order on remaining stock to succeed, got %v", err)
	}

	if level := stockOf(t, db, product); *level.Stock != 3 || !level.IsSold {
		t.Errorf("expected 3 left with sold flag kept, got %+v", level)
	}
}

func TestHTTPOrderFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := StartPostgres(ctx, t)

	SeedUser(t, db, "auth-buyer", "Budi")
	seller := SeedUser(t, db, "auth-seller", "Sari")
	product := SeedProduct(t, db, seller, "100000", intPtr(1))

	secret := []byte("integration-secret")
	resolver := identity.NewResolver(identity.NewVerifier(secret), users.NewUserRepository(db))
	handler := orders.NewHandler(newService(db))

	mux := http.NewServeMux()
	mux.Handle("POST /orders", identity.RequireUser(resolver, http.HandlerFunc(handler.HandleCreate)))
	mux.Handle("GET /orders/{id}", identity.RequireUser(resolver, http.HandlerFunc(handler.HandleGet)))
	server := httptest.NewServer(mux)
	defer server.Close()

	token := func(subject string) string {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString(secret)
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}
		return signed
	}

	do := func(method, path, subject, body string) *http.Response {
		req, err := http.NewRequestWithContext(ctx, method, server.URL+path, strings.NewReader(body))
		if err != nil {
			t.Fatalf("failed to build request: %v", err)
		}
		if subject != "" {
			req.Header.Set("Authorization", "Bearer "+token(subject))
		}
		resp, err := server.Client().Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	body := fmt.Sprintf(`{"product_id": %d, "seller_id": %d, "quantity": 1, "shipping_address": "Jl. Merdeka 1"}`, product, seller)

	if resp := do(http.MethodPost, "/orders", "", body); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp := do(http.MethodPost, "/orders", "auth-buyer", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var created struct {
		Data struct {
			OrderID int64 `json:"order_id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp := do(http.MethodPost, "/orders", "auth-buyer", body); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for sold out product, got %d", resp.StatusCode)
	}

	path := fmt.Sprintf("/orders/%d", created.Data.OrderID)
	if resp := do(http.MethodGet, path, "auth-seller", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("expected seller to read order, got %d", resp.StatusCode)
	}

	SeedUser(t, db, "auth-stranger", "Andi")
	if resp := do(http.MethodGet, path, "auth-stranger", ""); resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for stranger, got %d", resp.StatusCode)
	}
}

type emailCapture struct {
	mu     sync.Mutex
	emails []map[string]string
}

func (e *emailCapture) handler(w http.ResponseWriter, r *http.Request) {
	var email map[string]string
	if err := json.NewDecoder(r.Body).Decode(&email); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	e.mu.Lock()
	e.emails = append(e.emails, email)
	e.mu.Unlock()

	w.WriteHeader(http.StatusOK)
}

func (e *emailCapture) subjects() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, 0, len(e.emails))
	for _, m := range e.emails {
		out = append(out, m["subject"])
	}
	return out
}

func TestEventsReachNotifier(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	db := StartPostgres(ctx, t)

	brokers := StartKafka(ctx, t)

	const topic = "marketplace.events"

	buyer := SeedUser(t, db, "auth-buyer", "Budi")
	seller := SeedUser(t, db, "auth-seller", "Sari")
	product := SeedProduct(t, db, seller, "42000", intPtr(5))

	producer := messaging.NewProducer(brokers, topic)
	defer func() { _ = producer.Close() }()

	svc := newService(db, orders.WithPublisher(producer))

	order, err := svc.Create(ctx, orders.CreateOrderInput{BuyerID: buyer, ProductID: product, SellerID: seller, Quantity: 2})
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, order.ID, seller, "confirmed"); err != nil {
		t.Fatalf("failed to confirm order: %v", err)
	}

	capture := &emailCapture{}
	mailMux := http.NewServeMux()
	mailMux.HandleFunc("POST /send", capture.handler)
	mailServer := httptest.NewServer(mailMux)
	defer mailServer.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := notifier.NewHandler(mailServer.URL, users.NewUserRepository(db), mailServer.Client(), logger)

	consumer := messaging.NewConsumer(brokers, topic, "marketplace-notifier-test", messaging.WithStartOffset(kafka.FirstOffset))
	defer func() { _ = consumer.Close() }()

	consumeCtx, stopConsuming := context.WithCancel(ctx)
	defer stopConsuming()
	go func() { _ = consumer.Consume(consumeCtx, handler.Handle) }()

	want := map[string]bool{
		fmt.Sprintf("New order #%d", order.ID):              false,
		fmt.Sprintf("Order #%d placed", order.ID):           false,
		fmt.Sprintf("Order #%d is now confirmed", order.ID): false,
	}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		for _, s := range capture.subjects() {
			if _, ok := want[s]; ok {
				want[s] = true
			}
		}
		done := true
		for _, seen := range want {
			done = done && seen
		}
		if done {
			return
		}
		time.Sleep(500 * time.Millisecond)
	}

	t.Fatalf("timed out waiting for emails, got %v", capture.subjects())
}
