package store

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/imdevedugame/backend-pwa/internal/domain"
)

func TestTranslate(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Translate(nil, "Order"))
	})

	t.Run("no rows becomes not found", func(t *testing.T) {
		err := Translate(fmt.Errorf("scan: %w", sql.ErrNoRows), "Order")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, "Order not found", err.Error())
	})

	t.Run("unique violation becomes conflict", func(t *testing.T) {
		err := Translate(&pq.Error{Code: "23505", Constraint: "reviews_order_id_key"}, "Review")
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("foreign key violation becomes not found", func(t *testing.T) {
		err := Translate(&pq.Error{Code: "23503"}, "Cart item")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("check violation becomes validation", func(t *testing.T) {
		err := Translate(&pq.Error{Code: "23514", Constraint: "reviews_rating_check"}, "Review")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		cause := errors.New("connection refused")
		assert.Same(t, cause, Translate(cause, "Order"))
	})
}
