package prefcard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/asc/asc/internal/domain/catalog"
)

// -- Mock Repositories --

type mockRepo struct {
	cards map[uuid.UUID]*PreferenceCard
	items map[uuid.UUID][]*CardItem
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		cards: make(map[uuid.UUID]*PreferenceCard),
		items: make(map[uuid.UUID][]*CardItem),
	}
}

func (m *mockRepo) Create(_ context.Context, card *PreferenceCard) error {
	card.ID = uuid.New()
	card.Version = 1
	card.CreatedAt = time.Now()
	card.UpdatedAt = time.Now()
	m.cards[card.ID] = card
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*PreferenceCard, error) {
	card, ok := m.cards[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return card, nil
}

func (m *mockRepo) Update(_ context.Context, card *PreferenceCard) error {
	m.cards[card.ID] = card
	return nil
}

func (m *mockRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	if card, ok := m.cards[id]; ok {
		card.IsActive = false
	}
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*PreferenceCard, int, error) {
	var result []*PreferenceCard
	for _, card := range m.cards {
		result = append(result, card)
	}
	return result, len(result), nil
}

func (m *mockRepo) Search(_ context.Context, _ map[string]string, limit, offset int) ([]*PreferenceCard, int, error) {
	return m.List(context.Background(), limit, offset)
}

func (m *mockRepo) GetItems(_ context.Context, cardID uuid.UUID) ([]*CardItem, error) {
	return m.items[cardID], nil
}

func (m *mockRepo) ReplaceItems(_ context.Context, cardID uuid.UUID, items []*CardItem) error {
	for _, it := range items {
		it.ID = uuid.New()
		it.CardID = cardID
	}
	m.items[cardID] = items
	m.cards[cardID].Version++
	return nil
}

type mockCatalogRepo struct {
	items map[uuid.UUID]*catalog.CatalogItem
}

func newMockCatalogRepo() *mockCatalogRepo {
	return &mockCatalogRepo{items: make(map[uuid.UUID]*catalog.CatalogItem)}
}

func (m *mockCatalogRepo) Create(_ context.Context, item *catalog.CatalogItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	m.items[item.ID] = item
	return nil
}

func (m *mockCatalogRepo) GetByID(_ context.Context, id uuid.UUID) (*catalog.CatalogItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return item, nil
}

func (m *mockCatalogRepo) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.CatalogItem, error) {
	result := make(map[uuid.UUID]*catalog.CatalogItem)
	for _, id := range ids {
		if item, ok := m.items[id]; ok {
			result[id] = item
		}
	}
	return result, nil
}

func (m *mockCatalogRepo) Update(_ context.Context, item *catalog.CatalogItem) error { return nil }
func (m *mockCatalogRepo) Deactivate(_ context.Context, id uuid.UUID) error          { return nil }
func (m *mockCatalogRepo) List(_ context.Context, limit, offset int) ([]*catalog.CatalogItem, int, error) {
	return nil, 0, nil
}
func (m *mockCatalogRepo) Search(_ context.Context, _ map[string]string, limit, offset int) ([]*catalog.CatalogItem, int, error) {
	return nil, 0, nil
}
func (m *mockCatalogRepo) InstanceCount(_ context.Context, _ uuid.UUID) (int, error) { return 0, nil }

func newTestService() (*Service, *mockRepo, *mockCatalogRepo) {
	repo := newMockRepo()
	catalogRepo := newMockCatalogRepo()
	return NewService(repo, catalogRepo), repo, catalogRepo
}

func seedCatalogItem(catalogRepo *mockCatalogRepo, name, criticality string, sterile bool) *catalog.CatalogItem {
	item := &catalog.CatalogItem{
		ID:                uuid.New(),
		Name:              name,
		Category:          catalog.CategoryImplant,
		Criticality:       criticality,
		RequiresSterility: sterile,
		ReadinessRequired: true,
		IsActive:          true,
	}
	_ = catalogRepo.Create(context.Background(), item)
	return item
}

func seedCard(svc *Service) *PreferenceCard {
	card := &PreferenceCard{
		SurgeonID:        uuid.New(),
		ProcedureCode:    "27130",
		ProcedureDisplay: "Total Hip Arthroplasty",
	}
	_ = svc.Create(context.Background(), card)
	return card
}

// -- Tests --

func TestCreate_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	if err := svc.Create(context.Background(), &PreferenceCard{ProcedureCode: "x", ProcedureDisplay: "y"}); err == nil {
		t.Error("expected error for missing surgeon_id")
	}
	if err := svc.Create(context.Background(), &PreferenceCard{SurgeonID: uuid.New(), ProcedureDisplay: "y"}); err == nil {
		t.Error("expected error for missing procedure_code")
	}
}

func TestCreate_StartsAtVersionOne(t *testing.T) {
	svc, _, _ := newTestService()
	card := seedCard(svc)
	if card.Version != 1 {
		t.Errorf("expected version 1, got %d", card.Version)
	}
}

func TestSetItems_BumpsVersion(t *testing.T) {
	svc, _, catalogRepo := newTestService()
	card := seedCard(svc)
	item := seedCatalogItem(catalogRepo, "Hip Screw Kit", catalog.CriticalityCritical, true)

	updated, err := svc.SetItems(context.Background(), card.ID, []*CardItem{
		{CatalogID: item.ID, Section: SectionImplant, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("expected version bump to 2, got %d", updated.Version)
	}
}

func TestSetItems_InvalidSection(t *testing.T) {
	svc, _, catalogRepo := newTestService()
	card := seedCard(svc)
	item := seedCatalogItem(catalogRepo, "Drill", catalog.CriticalityRoutine, false)

	_, err := svc.SetItems(context.Background(), card.ID, []*CardItem{
		{CatalogID: item.ID, Section: "MISC", Quantity: 1},
	})
	if err == nil {
		t.Error("expected error for invalid section")
	}
}

func TestSetItems_UnknownCatalogItem(t *testing.T) {
	svc, _, _ := newTestService()
	card := seedCard(svc)
	_, err := svc.SetItems(context.Background(), card.ID, []*CardItem{
		{CatalogID: uuid.New(), Section: SectionSupply, Quantity: 1},
	})
	if err == nil {
		t.Error("expected error for unknown catalog item")
	}
}

func TestSetItems_NonPositiveQuantity(t *testing.T) {
	svc, _, catalogRepo := newTestService()
	card := seedCard(svc)
	item := seedCatalogItem(catalogRepo, "Gauze", catalog.CriticalityRoutine, false)
	_, err := svc.SetItems(context.Background(), card.ID, []*CardItem{
		{CatalogID: item.ID, Section: SectionSupply, Quantity: 0},
	})
	if err == nil {
		t.Error("expected error for zero quantity")
	}
}

func TestResolve_FlattensWithCatalogFlags(t *testing.T) {
	svc, _, catalogRepo := newTestService()
	card := seedCard(svc)
	implant := seedCatalogItem(catalogRepo, "Hip Screw Kit", catalog.CriticalityCritical, true)
	supply := seedCatalogItem(catalogRepo, "Drape Pack", catalog.CriticalityRoutine, false)

	_, err := svc.SetItems(context.Background(), card.ID, []*CardItem{
		{CatalogID: implant.ID, Section: SectionImplant, Quantity: 2},
		{CatalogID: supply.ID, Section: SectionSupply, Quantity: 4},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reqs, err := svc.Resolve(context.Background(), card.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requirements, got %d", len(reqs))
	}
	if reqs[0].CatalogID != implant.ID || reqs[0].Quantity != 2 || !reqs[0].RequiresSterility {
		t.Errorf("unexpected first requirement: %+v", reqs[0])
	}
	if reqs[0].Criticality != catalog.CriticalityCritical {
		t.Errorf("expected CRITICAL flag carried through, got %s", reqs[0].Criticality)
	}
}

func TestResolve_MergesDuplicateCatalogRows(t *testing.T) {
	svc, _, catalogRepo := newTestService()
	card := seedCard(svc)
	item := seedCatalogItem(catalogRepo, "Suture 2-0", catalog.CriticalityRoutine, false)

	_, err := svc.SetItems(context.Background(), card.ID, []*CardItem{
		{CatalogID: item.ID, Section: SectionSupply, Quantity: 3},
		{CatalogID: item.ID, Section: SectionInstrument, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reqs, err := svc.Resolve(context.Background(), card.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reqs) != 1 || reqs[0].Quantity != 5 {
		t.Fatalf("expected one merged requirement of quantity 5, got %+v", reqs)
	}
}

func TestResolve_EmptyCard(t *testing.T) {
	svc, _, _ := newTestService()
	card := seedCard(svc)
	reqs, err := svc.Resolve(context.Background(), card.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reqs) != 0 {
		t.Errorf("expected empty requirement set, got %+v", reqs)
	}
}

func TestResolve_MissingCard(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.Resolve(context.Background(), uuid.New()); err == nil {
		t.Error("expected error for missing card")
	}
}
