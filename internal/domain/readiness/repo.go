package readiness

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/asc/asc/internal/domain/inventory"
)

// AttestationRepository persists the append-only attestation trail.
type AttestationRepository interface {
	// CreateActive inserts a new active attestation. It fails with
	// ErrAlreadyAttested when the case already has an active record of
	// the same type; the check-then-write is atomic.
	CreateActive(ctx context.Context, a *Attestation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Attestation, error)
	GetActive(ctx context.Context, caseID uuid.UUID, attType string) (*Attestation, error)
	// Void stamps the void columns on an active attestation. Fails
	// with ErrAttestationNotFound or ErrAlreadyVoided.
	Void(ctx context.Context, id, userID uuid.UUID, reason string) error
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]*Attestation, error)
}

// RequirementResolver flattens a case's linked card into its current
// requirement set.
type RequirementResolver interface {
	ResolveRequirements(ctx context.Context, caseID uuid.UUID) ([]Requirement, error)
}

// InstanceSource reads the live instance pool for matching.
type InstanceSource interface {
	ListInstances(ctx context.Context, facilityID uuid.UUID, catalogIDs []uuid.UUID) ([]*inventory.InventoryInstance, error)
	GetInstance(ctx context.Context, id uuid.UUID) (*inventory.InventoryInstance, error)
	// LastMutationAt supports rollup staleness checks.
	LastMutationAt(ctx context.Context, facilityID uuid.UUID) (*time.Time, error)
}

// InstanceReserver binds physical units to cases. Reserve is
// compare-and-set: it returns false without error when another case
// holds the unit. Implementations also write the matching inventory
// audit events.
type InstanceReserver interface {
	Reserve(ctx context.Context, instanceID, caseID, userID uuid.UUID, verifiedAt time.Time) (bool, error)
	Release(ctx context.Context, instanceID, caseID uuid.UUID) (bool, error)
}

// CaseSource reads the case slice the engine needs.
type CaseSource interface {
	GetCase(ctx context.Context, id uuid.UUID) (*CaseInfo, error)
	ListScheduled(ctx context.Context, facilityID uuid.UUID, date time.Time) ([]*CaseInfo, error)
	LastMutationAt(ctx context.Context, facilityID uuid.UUID, date time.Time) (*time.Time, error)
}
