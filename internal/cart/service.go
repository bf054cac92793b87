package cart

import (
	"context"

	"github.com/imdevedugame/backend-pwa/internal/domain"
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, userID int64) (domain.Cart, error) {
	lines, err := s.repo.Lines(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}
	return domain.NewCart(lines), nil
}

// Add puts quantity units of a product in the cart. Zero means one.
func (s *Service) Add(ctx context.Context, userID, productID int64, quantity int) (int64, error) {
	if productID <= 0 {
		return 0, domain.Errorf(domain.ErrValidation, "Product ID is required")
	}
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 || quantity > domain.MaxQuantity {
		return 0, domain.Errorf(domain.ErrValidation, "Quantity must be between 1 and %d", domain.MaxQuantity)
	}

	sold, err := s.repo.ProductSold(ctx, productID)
	if err != nil {
		return 0, err
	}
	if sold {
		return 0, domain.Errorf(domain.ErrValidation, "Product is already sold")
	}

	return s.repo.Upsert(ctx, userID, productID, quantity)
}

func (s *Service) UpdateQuantity(ctx context.Context, id, userID int64, quantity int) error {
	if quantity < 1 || quantity > domain.MaxQuantity {
		return domain.Errorf(domain.ErrValidation, "Quantity must be between 1 and %d", domain.MaxQuantity)
	}

	if err := s.authorize(ctx, id, userID); err != nil {
		return err
	}

	return s.repo.SetQuantity(ctx, id, quantity)
}

func (s *Service) Remove(ctx context.Context, id, userID int64) error {
	if err := s.authorize(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) authorize(ctx context.Context, id, userID int64) error {
	owner, err := s.repo.Owner(ctx, id)
	if err != nil {
		return err
	}
	if owner != userID {
		return domain.Errorf(domain.ErrForbidden, "Access denied")
	}
	return nil
}
