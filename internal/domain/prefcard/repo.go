package prefcard

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, card *PreferenceCard) error
	GetByID(ctx context.Context, id uuid.UUID) (*PreferenceCard, error)
	Update(ctx context.Context, card *PreferenceCard) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*PreferenceCard, int, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*PreferenceCard, int, error)

	GetItems(ctx context.Context, cardID uuid.UUID) ([]*CardItem, error)
	// ReplaceItems swaps the card's item set and bumps its version in
	// one transaction.
	ReplaceItems(ctx context.Context, cardID uuid.UUID, items []*CardItem) error
}
