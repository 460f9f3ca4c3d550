package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, inst *InventoryInstance) error
	GetByID(ctx context.Context, id uuid.UUID) (*InventoryInstance, error)
	Update(ctx context.Context, inst *InventoryInstance) error
	List(ctx context.Context, limit, offset int) ([]*InventoryInstance, int, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*InventoryInstance, int, error)
	// ListByFacility returns all non-disposed instances at a facility,
	// optionally restricted to the given catalog ids.
	ListByFacility(ctx context.Context, facilityID uuid.UUID, catalogIDs []uuid.UUID) ([]*InventoryInstance, error)
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]*InventoryInstance, error)

	// Reserve atomically binds an instance to a case. It succeeds only
	// when the instance is unreserved or already reserved for the same
	// case; the bool reports whether a row matched.
	Reserve(ctx context.Context, instanceID, caseID, userID uuid.UUID, verifiedAt time.Time) (bool, error)
	// Release clears a reservation. Idempotent: releasing an
	// unreserved instance is a no-op.
	Release(ctx context.Context, instanceID, caseID uuid.UUID) (bool, error)
	ReleaseAllForCase(ctx context.Context, caseID uuid.UUID) (int, error)

	AddEvent(ctx context.Context, ev *InventoryEvent) error
	GetEvents(ctx context.Context, instanceID uuid.UUID) ([]*InventoryEvent, error)
	// LastMutationAt returns the newest inventory event time for a
	// facility, for cache staleness checks.
	LastMutationAt(ctx context.Context, facilityID uuid.UUID) (*time.Time, error)
}
