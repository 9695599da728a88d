package catalog

import (
	"context"

	"commerce-pricing/internal/domain"
)

// Repository reads the product catalog. Products are filtered to active ones
// with their active prices nested, ordered by metadata index and price amount.
type Repository interface {
	ListActive(ctx context.Context) ([]domain.Product, error)
	GetPrice(ctx context.Context, id string) (*domain.Price, error)
}
