package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

var validCategories = map[string]bool{
	CategoryImplant: true, CategoryInstrument: true, CategoryEquipment: true,
	CategoryMedication: true, CategoryConsumable: true, CategoryPPE: true,
}

var validCriticalities = map[string]bool{
	CriticalityCritical: true, CriticalityImportant: true, CriticalityRoutine: true,
}

func (s *Service) Create(ctx context.Context, item *CatalogItem) error {
	if item.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !validCategories[item.Category] {
		return fmt.Errorf("invalid category: %s", item.Category)
	}
	if item.Criticality == "" {
		item.Criticality = CriticalityRoutine
	}
	if !validCriticalities[item.Criticality] {
		return fmt.Errorf("invalid criticality: %s", item.Criticality)
	}
	if item.ExpirationWarningDays != nil && *item.ExpirationWarningDays <= 0 {
		return fmt.Errorf("expiration_warning_days must be positive")
	}
	item.IsActive = true
	return s.repo.Create(ctx, item)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*CatalogItem, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, item *CatalogItem) error {
	if item.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !validCategories[item.Category] {
		return fmt.Errorf("invalid category: %s", item.Category)
	}
	if !validCriticalities[item.Criticality] {
		return fmt.Errorf("invalid criticality: %s", item.Criticality)
	}
	if item.ExpirationWarningDays != nil && *item.ExpirationWarningDays <= 0 {
		return fmt.Errorf("expiration_warning_days must be positive")
	}
	return s.repo.Update(ctx, item)
}

// Deactivate soft-deactivates an item. Items are never hard-deleted:
// inventory instances and preference card rows keep referencing them.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return fmt.Errorf("catalog item not found: %w", err)
	}
	return s.repo.Deactivate(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*CatalogItem, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*CatalogItem, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}
