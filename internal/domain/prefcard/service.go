package prefcard

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/asc/asc/internal/domain/catalog"
)

type Service struct {
	repo    Repository
	catalog catalog.Repository
}

func NewService(repo Repository, catalogRepo catalog.Repository) *Service {
	return &Service{repo: repo, catalog: catalogRepo}
}

var validSections = map[string]bool{
	SectionInstrument: true, SectionImplant: true, SectionEquipment: true,
	SectionSupply: true, SectionMedication: true,
}

func (s *Service) Create(ctx context.Context, card *PreferenceCard) error {
	if card.SurgeonID == uuid.Nil {
		return fmt.Errorf("surgeon_id is required")
	}
	if card.ProcedureCode == "" {
		return fmt.Errorf("procedure_code is required")
	}
	if card.ProcedureDisplay == "" {
		return fmt.Errorf("procedure_display is required")
	}
	card.IsActive = true
	return s.repo.Create(ctx, card)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*PreferenceCard, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, card *PreferenceCard) error {
	if card.ProcedureCode == "" {
		return fmt.Errorf("procedure_code is required")
	}
	if _, err := s.repo.GetByID(ctx, card.ID); err != nil {
		return fmt.Errorf("preference card not found: %w", err)
	}
	return s.repo.Update(ctx, card)
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return fmt.Errorf("preference card not found: %w", err)
	}
	return s.repo.Deactivate(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*PreferenceCard, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*PreferenceCard, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}

func (s *Service) GetItems(ctx context.Context, cardID uuid.UUID) ([]*CardItem, error) {
	return s.repo.GetItems(ctx, cardID)
}

// SetItems replaces the card's item set and bumps the version. Every
// row is validated against the catalog before anything is written.
func (s *Service) SetItems(ctx context.Context, cardID uuid.UUID, items []*CardItem) (*PreferenceCard, error) {
	if _, err := s.repo.GetByID(ctx, cardID); err != nil {
		return nil, fmt.Errorf("preference card not found: %w", err)
	}
	for _, it := range items {
		if !validSections[it.Section] {
			return nil, fmt.Errorf("invalid section: %s", it.Section)
		}
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("quantity must be positive")
		}
		if _, err := s.catalog.GetByID(ctx, it.CatalogID); err != nil {
			return nil, fmt.Errorf("catalog item %s not found: %w", it.CatalogID, err)
		}
	}
	if err := s.repo.ReplaceItems(ctx, cardID, items); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, cardID)
}

// Resolve flattens a card's current item rows into the requirement
// shape readiness calculation consumes. Rows for catalog items marked
// readiness_required=false are still returned; the caller decides how
// to weigh them.
func (s *Service) Resolve(ctx context.Context, cardID uuid.UUID) ([]ResolvedRequirement, error) {
	if _, err := s.repo.GetByID(ctx, cardID); err != nil {
		return nil, fmt.Errorf("preference card not found: %w", err)
	}
	items, err := s.repo.GetItems(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []ResolvedRequirement{}, nil
	}

	catalogIDs := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]bool)
	for _, it := range items {
		if !seen[it.CatalogID] {
			seen[it.CatalogID] = true
			catalogIDs = append(catalogIDs, it.CatalogID)
		}
	}
	catalogItems, err := s.catalog.GetByIDs(ctx, catalogIDs)
	if err != nil {
		return nil, fmt.Errorf("load catalog items: %w", err)
	}

	// Rows referencing the same catalog item merge into one
	// requirement with the summed quantity.
	merged := make(map[uuid.UUID]*ResolvedRequirement)
	var order []uuid.UUID
	for _, it := range items {
		ci, ok := catalogItems[it.CatalogID]
		if !ok {
			return nil, fmt.Errorf("card references unknown catalog item %s", it.CatalogID)
		}
		if req, ok := merged[it.CatalogID]; ok {
			req.Quantity += it.Quantity
			continue
		}
		merged[it.CatalogID] = &ResolvedRequirement{
			CatalogID:              ci.ID,
			CatalogName:            ci.Name,
			Quantity:               it.Quantity,
			RequiresSterility:      ci.RequiresSterility,
			RequiresLotTracking:    ci.RequiresLotTracking,
			RequiresSerialTracking: ci.RequiresSerialTracking,
			Criticality:            ci.Criticality,
			ReadinessRequired:      ci.ReadinessRequired,
		}
		order = append(order, it.CatalogID)
	}

	reqs := make([]ResolvedRequirement, 0, len(order))
	for _, id := range order {
		reqs = append(reqs, *merged[id])
	}
	return reqs, nil
}
