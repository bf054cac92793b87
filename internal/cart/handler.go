package cart

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/imdevedugame/backend-pwa/internal/identity"
	"github.com/imdevedugame/backend-pwa/internal/respond"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		respond.Fail(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	cart, err := h.service.List(r.Context(), userID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, r, http.StatusOK, "", cart)
}

type addRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		respond.Fail(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, err := h.service.Add(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, r, http.StatusCreated, "Added to cart", map[string]int64{"cart_id": id})
}

type updateRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		respond.Fail(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Fail(w, r, http.StatusBadRequest, "Invalid cart item id")
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.UpdateQuantity(r.Context(), id, userID, req.Quantity); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, r, http.StatusOK, "Cart updated", nil)
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		respond.Fail(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Fail(w, r, http.StatusBadRequest, "Invalid cart item id")
		return
	}

	if err := h.service.Remove(r.Context(), id, userID); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, r, http.StatusOK, "Removed from cart", nil)
}
