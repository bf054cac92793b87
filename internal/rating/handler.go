package rating

import (
	"net/http"
	"strconv"

	"github.com/imdevedugame/backend-pwa/internal/respond"
)

type Handler struct {
	reviews *ReviewRepository
}

func NewHandler(reviews *ReviewRepository) *Handler {
	return &Handler{reviews: reviews}
}

func (h *Handler) HandleListSellerReviews(w http.ResponseWriter, r *http.Request) {
	sellerID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || sellerID <= 0 {
		respond.Fail(w, r, http.StatusBadRequest, "Invalid user id")
		return
	}

	reviews, err := h.reviews.ListBySeller(r.Context(), sellerID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, r, http.StatusOK, "", reviews)
}
