package users

import (
	"net/http"
	"strconv"

	"github.com/imdevedugame/backend-pwa/internal/identity"
	"github.com/imdevedugame/backend-pwa/internal/respond"
)

type Handler struct {
	users *UserRepository
}

func NewHandler(users *UserRepository) *Handler {
	return &Handler{users: users}
}

func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Fail(w, r, http.StatusBadRequest, "Invalid user id")
		return
	}
	h.writeProfile(w, r, id)
}

func (h *Handler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		respond.Fail(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}
	h.writeProfile(w, r, id)
}

func (h *Handler) writeProfile(w http.ResponseWriter, r *http.Request, id int64) {
	profile, err := h.users.Profile(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, r, http.StatusOK, "", profile)
}
