package cases

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, sc *SurgicalCase) error
	GetByID(ctx context.Context, id uuid.UUID) (*SurgicalCase, error)
	Update(ctx context.Context, sc *SurgicalCase) error
	List(ctx context.Context, limit, offset int) ([]*SurgicalCase, int, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*SurgicalCase, int, error)
	// ListScheduled returns active, non-cancelled cases for one
	// facility and date.
	ListScheduled(ctx context.Context, facilityID uuid.UUID, date time.Time) ([]*SurgicalCase, error)
	// LastMutationAt returns the newest case update time for a
	// facility and date, for cache staleness checks.
	LastMutationAt(ctx context.Context, facilityID uuid.UUID, date time.Time) (*time.Time, error)

	// Checklist
	AddChecklistItem(ctx context.Context, item *ChecklistItem) error
	GetChecklist(ctx context.Context, caseID uuid.UUID) ([]*ChecklistItem, error)
	UpdateChecklistItem(ctx context.Context, item *ChecklistItem) error
	RemoveChecklistItem(ctx context.Context, id uuid.UUID) error
}

// ReservationReleaser releases the inventory reservations bound to a
// case. Implemented by the inventory store; consumed on cancellation.
type ReservationReleaser interface {
	ReleaseAllForCase(ctx context.Context, caseID uuid.UUID) (int, error)
}
