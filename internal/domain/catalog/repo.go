package catalog

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, item *CatalogItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*CatalogItem, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*CatalogItem, error)
	Update(ctx context.Context, item *CatalogItem) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*CatalogItem, int, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*CatalogItem, int, error)
	InstanceCount(ctx context.Context, id uuid.UUID) (int, error)
}
