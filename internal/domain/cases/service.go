package cases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Service struct {
	repo     Repository
	releaser ReservationReleaser
}

func NewService(repo Repository, releaser ReservationReleaser) *Service {
	return &Service{repo: repo, releaser: releaser}
}

var validStatuses = map[string]bool{
	StatusScheduled: true, StatusInProgress: true, StatusCompleted: true,
	StatusCancelled: true, StatusPostponed: true,
}

func (s *Service) Create(ctx context.Context, sc *SurgicalCase) error {
	if sc.FacilityID == uuid.Nil {
		return fmt.Errorf("facility_id is required")
	}
	if sc.PatientRef == "" {
		return fmt.Errorf("patient_ref is required")
	}
	if sc.SurgeonID == uuid.Nil {
		return fmt.Errorf("surgeon_id is required")
	}
	if sc.ScheduledDate.IsZero() {
		return fmt.Errorf("scheduled_date is required")
	}
	if sc.Status == "" {
		sc.Status = StatusScheduled
	}
	if !validStatuses[sc.Status] {
		return fmt.Errorf("invalid status: %s", sc.Status)
	}
	return s.repo.Create(ctx, sc)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*SurgicalCase, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, sc *SurgicalCase) error {
	if sc.Status != "" && !validStatuses[sc.Status] {
		return fmt.Errorf("invalid status: %s", sc.Status)
	}
	current, err := s.repo.GetByID(ctx, sc.ID)
	if err != nil {
		return fmt.Errorf("case not found: %w", err)
	}
	if current.Status == StatusCancelled && sc.Status != StatusCancelled {
		return fmt.Errorf("cancelled cases cannot be reactivated")
	}
	return s.repo.Update(ctx, sc)
}

// Cancel sets the case to CANCELLED and releases every inventory
// reservation the case holds. The release is idempotent, so repeated
// cancellation is safe.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*SurgicalCase, error) {
	if reason == "" {
		return nil, fmt.Errorf("cancel reason is required")
	}
	sc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("case not found: %w", err)
	}
	sc.Status = StatusCancelled
	sc.CancelReason = &reason
	if err := s.repo.Update(ctx, sc); err != nil {
		return nil, err
	}
	released, err := s.releaser.ReleaseAllForCase(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("release reservations: %w", err)
	}
	if released > 0 {
		log.Info().Str("case_id", id.String()).Int("released", released).
			Msg("released inventory reservations on case cancellation")
	}
	return sc, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*SurgicalCase, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*SurgicalCase, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}

func (s *Service) ListScheduled(ctx context.Context, facilityID uuid.UUID, date time.Time) ([]*SurgicalCase, error) {
	return s.repo.ListScheduled(ctx, facilityID, date)
}

// -- Checklist --

func (s *Service) AddChecklistItem(ctx context.Context, item *ChecklistItem) error {
	if item.CaseID == uuid.Nil {
		return fmt.Errorf("case_id is required")
	}
	if item.Name == "" {
		return fmt.Errorf("name is required")
	}
	if _, err := s.repo.GetByID(ctx, item.CaseID); err != nil {
		return fmt.Errorf("case not found: %w", err)
	}
	return s.repo.AddChecklistItem(ctx, item)
}

func (s *Service) GetChecklist(ctx context.Context, caseID uuid.UUID) ([]*ChecklistItem, error) {
	return s.repo.GetChecklist(ctx, caseID)
}

// CompleteChecklistItem stamps completion; completing again just
// refreshes the stamp.
func (s *Service) CompleteChecklistItem(ctx context.Context, caseID, itemID, userID uuid.UUID) (*ChecklistItem, error) {
	items, err := s.repo.GetChecklist(ctx, caseID)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.ID == itemID {
			now := time.Now().UTC()
			item.Completed = true
			item.CompletedBy = &userID
			item.CompletedAt = &now
			if err := s.repo.UpdateChecklistItem(ctx, item); err != nil {
				return nil, err
			}
			return item, nil
		}
	}
	return nil, fmt.Errorf("checklist item not found")
}

func (s *Service) RemoveChecklistItem(ctx context.Context, id uuid.UUID) error {
	return s.repo.RemoveChecklistItem(ctx, id)
}
