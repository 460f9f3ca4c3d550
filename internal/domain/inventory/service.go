package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/asc/asc/internal/domain/catalog"
)

type Service struct {
	repo     Repository
	catalog  catalog.Repository
	defaults RiskDefaults
}

func NewService(repo Repository, catalogRepo catalog.Repository, defaults RiskDefaults) *Service {
	return &Service{repo: repo, catalog: catalogRepo, defaults: defaults}
}

var validStatuses = map[string]bool{
	StatusAvailable: true, StatusInUse: true, StatusMissing: true,
	StatusInTransit: true, StatusQuarantined: true,
	StatusDisposed: true, StatusExpiredDispose: true,
}

var validSterility = map[string]bool{
	SterilitySterile: true, SterilityNonSterile: true, SterilityUnknown: true,
}

// CheckIn creates an instance on receipt and writes the RECEIVED event.
func (s *Service) CheckIn(ctx context.Context, inst *InventoryInstance, userID uuid.UUID) error {
	if inst.CatalogID == uuid.Nil {
		return fmt.Errorf("catalog_id is required")
	}
	if inst.FacilityID == uuid.Nil {
		return fmt.Errorf("facility_id is required")
	}
	item, err := s.catalog.GetByID(ctx, inst.CatalogID)
	if err != nil {
		return fmt.Errorf("catalog item not found: %w", err)
	}
	if !item.IsActive {
		return fmt.Errorf("catalog item %s is deactivated", item.Name)
	}
	if inst.AvailabilityStatus == "" {
		inst.AvailabilityStatus = StatusAvailable
	}
	if !validStatuses[inst.AvailabilityStatus] {
		return fmt.Errorf("invalid availability_status: %s", inst.AvailabilityStatus)
	}
	if inst.SterilityStatus == "" {
		inst.SterilityStatus = SterilityUnknown
	}
	if !validSterility[inst.SterilityStatus] {
		return fmt.Errorf("invalid sterility_status: %s", inst.SterilityStatus)
	}
	if err := s.repo.Create(ctx, inst); err != nil {
		return err
	}
	to := inst.AvailabilityStatus
	return s.repo.AddEvent(ctx, &InventoryEvent{
		InstanceID: inst.ID,
		EventType:  EventReceived,
		ToStatus:   &to,
		RecordedBy: &userID,
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*InventoryInstance, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*InventoryInstance, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*InventoryInstance, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}

// ChangeStatus transitions availability and records the event. Terminal
// instances cannot transition further.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, status string, userID uuid.UUID, note *string) (*InventoryInstance, error) {
	if !validStatuses[status] {
		return nil, fmt.Errorf("invalid availability_status: %s", status)
	}
	inst, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("instance not found: %w", err)
	}
	if inst.Terminal() {
		return nil, fmt.Errorf("instance is disposed and cannot change status")
	}
	from := inst.AvailabilityStatus
	inst.AvailabilityStatus = status
	if err := s.repo.Update(ctx, inst); err != nil {
		return nil, err
	}
	eventType := EventStatusChanged
	if status == StatusDisposed || status == StatusExpiredDispose {
		eventType = EventDisposed
	}
	to := status
	if err := s.repo.AddEvent(ctx, &InventoryEvent{
		InstanceID: inst.ID,
		EventType:  eventType,
		FromStatus: &from,
		ToStatus:   &to,
		RecordedBy: &userID,
		Note:       note,
	}); err != nil {
		return nil, err
	}
	return inst, nil
}

// Move relocates an instance and records the MOVED event.
func (s *Service) Move(ctx context.Context, id uuid.UUID, locationID *uuid.UUID, userID uuid.UUID) (*InventoryInstance, error) {
	inst, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("instance not found: %w", err)
	}
	if inst.Terminal() {
		return nil, fmt.Errorf("instance is disposed and cannot be moved")
	}
	inst.LocationID = locationID
	if err := s.repo.Update(ctx, inst); err != nil {
		return nil, err
	}
	if err := s.repo.AddEvent(ctx, &InventoryEvent{
		InstanceID: inst.ID,
		EventType:  EventMoved,
		RecordedBy: &userID,
	}); err != nil {
		return nil, err
	}
	return inst, nil
}

// Scan records a barcode scan touch without changing state.
func (s *Service) Scan(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*InventoryInstance, error) {
	inst, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("instance not found: %w", err)
	}
	if err := s.repo.AddEvent(ctx, &InventoryEvent{
		InstanceID: inst.ID,
		EventType:  EventScanned,
		RecordedBy: &userID,
	}); err != nil {
		return nil, err
	}
	return inst, nil
}

func (s *Service) UpdateTracking(ctx context.Context, inst *InventoryInstance) (*InventoryInstance, error) {
	current, err := s.repo.GetByID(ctx, inst.ID)
	if err != nil {
		return nil, fmt.Errorf("instance not found: %w", err)
	}
	if current.Terminal() {
		return nil, fmt.Errorf("instance is disposed and cannot be edited")
	}
	current.LotNumber = inst.LotNumber
	current.SerialNumber = inst.SerialNumber
	current.Barcode = inst.Barcode
	current.SterilityStatus = inst.SterilityStatus
	current.SterilityExpiresAt = inst.SterilityExpiresAt
	current.Note = inst.Note
	if !validSterility[current.SterilityStatus] {
		return nil, fmt.Errorf("invalid sterility_status: %s", current.SterilityStatus)
	}
	if err := s.repo.Update(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

func (s *Service) GetEvents(ctx context.Context, instanceID uuid.UUID) ([]*InventoryEvent, error) {
	return s.repo.GetEvents(ctx, instanceID)
}

// RiskQueue sweeps a facility's live instances against their catalog
// items' tracking requirements. The queue is recomputed on every call.
func (s *Service) RiskQueue(ctx context.Context, facilityID uuid.UUID, now time.Time) ([]RiskEntry, error) {
	instances, err := s.repo.ListByFacility(ctx, facilityID, nil)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}

	catalogIDs := make([]uuid.UUID, 0, len(instances))
	seen := make(map[uuid.UUID]bool)
	for _, inst := range instances {
		if !seen[inst.CatalogID] {
			seen[inst.CatalogID] = true
			catalogIDs = append(catalogIDs, inst.CatalogID)
		}
	}
	items, err := s.catalog.GetByIDs(ctx, catalogIDs)
	if err != nil {
		return nil, fmt.Errorf("load catalog items: %w", err)
	}

	var entries []RiskEntry
	for _, inst := range instances {
		item, ok := items[inst.CatalogID]
		if !ok {
			log.Warn().Str("instance_id", inst.ID.String()).Str("catalog_id", inst.CatalogID.String()).
				Msg("instance references unknown catalog item, skipping risk evaluation")
			continue
		}
		entries = append(entries, EvaluateInstance(inst, item, now, s.defaults)...)
	}
	SortRiskEntries(entries)
	return entries, nil
}
