package inventory

import (
	"net/http"
	"strconv"

	"github.com/imdevedugame/backend-pwa/internal/respond"
)

type Handler struct {
	ledger *Ledger
}

func NewHandler(ledger *Ledger) *Handler {
	return &Handler{ledger: ledger}
}

func (h *Handler) HandleGetStock(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || productID <= 0 {
		respond.Fail(w, r, http.StatusBadRequest, "Invalid product id")
		return
	}

	stock, err := h.ledger.GetStock(r.Context(), productID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, r, http.StatusOK, "", stock)
}
