package users

import (
	"context"
	"database/sql"

	"github.com/imdevedugame/backend-pwa/internal/domain"
	"github.com/imdevedugame/backend-pwa/internal/store"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByAuthID maps the identity provider's subject to a user id.
func (r *UserRepository) GetByAuthID(ctx context.Context, authUserID string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM users WHERE auth_user_id = $1
	`, authUserID).Scan(&id)
	if err != nil {
		return 0, store.Translate(err, "User")
	}
	return id, nil
}

func (r *UserRepository) Profile(ctx context.Context, id int64) (*domain.Profile, error) {
	p := &domain.Profile{}

	err := r.db.QueryRowContext(ctx, `
		SELECT u.id, u.name, u.email, u.phone, u.address, u.city, u.avatar,
			u.is_seller, u.rating, u.total_reviews, u.created_at,
			COUNT(p.id) FILTER (WHERE NOT p.is_sold),
			COUNT(p.id) FILTER (WHERE p.is_sold)
		FROM users u
		LEFT JOIN products p ON p.user_id = u.id
		WHERE u.id = $1
		GROUP BY u.id
	`, id).Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.Address, &p.City, &p.Avatar,
		&p.IsSeller, &p.Rating, &p.TotalReviews, &p.CreatedAt,
		&p.ActiveProducts, &p.SoldProducts)
	if err != nil {
		return nil, store.Translate(err, "User")
	}

	return p, nil
}

func (r *UserRepository) Contact(ctx context.Context, id int64) (*domain.Contact, error) {
	c := &domain.Contact{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email FROM users WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Email)
	if err != nil {
		return nil, store.Translate(err, "User")
	}
	return c, nil
}
