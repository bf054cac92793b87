package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/imdevedugame/backend-pwa/internal/domain"
	"github.com/imdevedugame/backend-pwa/internal/identity"
	"github.com/imdevedugame/backend-pwa/internal/respond"
)

type orderService interface {
	List(ctx context.Context, userID int64, status string) ([]domain.OrderSummary, error)
	Get(ctx context.Context, orderID, userID int64) (*domain.OrderDetail, error)
	Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID, userID int64, status string) (*domain.Order, error)
	CreateReview(ctx context.Context, orderID, buyerID int64, score int, comment string) (*domain.Review, error)
}

type Handler struct {
	service orderService
}

func NewHandler(service orderService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	orders, err := h.service.List(r.Context(), userID, r.URL.Query().Get("status"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, r, http.StatusOK, "", orders)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	order, err := h.service.Get(r.Context(), orderID, userID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, r, http.StatusOK, "", order)
}

type createOrderRequest struct {
	ProductID       int64  `json:"product_id"`
	SellerID        int64  `json:"seller_id"`
	Quantity        int    `json:"quantity"`
	PaymentMethod   string `json:"payment_method"`
	ShippingAddress string `json:"shipping_address"`
	Notes           string `json:"notes"`
}

type createOrderResponse struct {
	OrderID int64 `json:"order_id"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.service.Create(r.Context(), CreateOrderInput{
		BuyerID:         userID,
		ProductID:       req.ProductID,
		SellerID:        req.SellerID,
		Quantity:        req.Quantity,
		PaymentMethod:   req.PaymentMethod,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, r, http.StatusCreated, "Order created successfully", createOrderResponse{OrderID: order.ID})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, err := h.service.UpdateStatus(r.Context(), orderID, userID, req.Status); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, r, http.StatusOK, "Order status updated", nil)
}

type createReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type createReviewResponse struct {
	ReviewID int64 `json:"review_id"`
}

func (h *Handler) HandleCreateReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	review, err := h.service.CreateReview(r.Context(), orderID, userID, req.Rating, req.Comment)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, r, http.StatusCreated, "Review created successfully", createReviewResponse{ReviewID: review.ID})
}

func callerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		respond.Fail(w, r, http.StatusUnauthorized, "Unauthorized")
	}
	return userID, ok
}

func orderIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Fail(w, r, http.StatusBadRequest, "Invalid order id")
		return 0, false
	}
	return id, true
}
