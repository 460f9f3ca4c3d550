package readiness

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service wires the engine components to their collaborators. All
// readiness math lives in the pure functions; the service supplies
// state access, policy, and the attestation/verification workflows.
type Service struct {
	attestations AttestationRepository
	resolver     RequirementResolver
	instances    InstanceSource
	reserver     InstanceReserver
	cases        CaseSource
	policy       VerifyPolicy
	cache        *rollupCache
	now          func() time.Time
}

type Config struct {
	Policy         VerifyPolicy
	RollupCacheTTL time.Duration
}

func NewService(attestations AttestationRepository, resolver RequirementResolver,
	instances InstanceSource, reserver InstanceReserver, cases CaseSource, cfg Config) *Service {
	return &Service{
		attestations: attestations,
		resolver:     resolver,
		instances:    instances,
		reserver:     reserver,
		cases:        cases,
		policy:       cfg.Policy,
		cache:        newRollupCache(cfg.RollupCacheTTL),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// CaseReadiness recomputes one case's snapshot against current state.
func (s *Service) CaseReadiness(ctx context.Context, caseID uuid.UUID) (*CaseReadinessSnapshot, error) {
	info, err := s.cases.GetCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("case not found: %w", err)
	}
	return s.snapshotFor(ctx, info, s.now())
}

func (s *Service) snapshotFor(ctx context.Context, info *CaseInfo, asOf time.Time) (*CaseReadinessSnapshot, error) {
	requirements, err := s.resolver.ResolveRequirements(ctx, info.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve requirements: %w", err)
	}

	catalogIDs := make([]uuid.UUID, 0, len(requirements))
	for _, req := range requirements {
		catalogIDs = append(catalogIDs, req.CatalogID)
	}
	pool, err := s.instances.ListInstances(ctx, info.FacilityID, catalogIDs)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}

	snapshot := Calculate(info.ID, requirements, pool, asOf, s.policy)
	return &snapshot, nil
}

var validTypes = map[string]bool{
	TypeCaseReadiness:         true,
	TypeSurgeonAcknowledgment: true,
}

// Attest records a sign-off, freezing the readiness state computed at
// this moment. Fails with ErrAlreadyAttested when an active record of
// the type exists; the caller must void first.
func (s *Service) Attest(ctx context.Context, caseID uuid.UUID, attType string, userID uuid.UUID, notes *string) (*Attestation, error) {
	if !validTypes[attType] {
		return nil, fmt.Errorf("invalid attestation type: %s", attType)
	}
	info, err := s.cases.GetCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("case not found: %w", err)
	}
	snapshot, err := s.snapshotFor(ctx, info, s.now())
	if err != nil {
		return nil, err
	}

	a := &Attestation{
		CaseID:               caseID,
		Type:                 attType,
		AttestedBy:           userID,
		ReadinessStateAtTime: snapshot.ReadinessState,
		Notes:                notes,
	}
	if err := s.attestations.CreateActive(ctx, a); err != nil {
		return nil, err
	}
	s.cache.invalidate(info.FacilityID)
	return a, nil
}

// VoidAttestation stamps the void columns. The original record is
// never mutated beyond that; re-attesting creates a new record.
func (s *Service) VoidAttestation(ctx context.Context, attestationID, userID uuid.UUID, reason string) (*Attestation, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrVoidReasonRequired
	}
	if err := s.attestations.Void(ctx, attestationID, userID, reason); err != nil {
		return nil, err
	}
	return s.attestations.GetByID(ctx, attestationID)
}

func (s *Service) ListAttestations(ctx context.Context, caseID uuid.UUID) ([]*Attestation, error) {
	return s.attestations.ListByCase(ctx, caseID)
}

// Verify binds one physical instance to one of the case's
// requirements. Eligibility is re-checked at verification time, and
// the reservation itself is compare-and-set.
func (s *Service) Verify(ctx context.Context, caseID, catalogID, instanceID, userID uuid.UUID) error {
	info, err := s.cases.GetCase(ctx, caseID)
	if err != nil {
		return fmt.Errorf("case not found: %w", err)
	}
	if !info.Active {
		return fmt.Errorf("case is not active")
	}

	requirements, err := s.resolver.ResolveRequirements(ctx, caseID)
	if err != nil {
		return fmt.Errorf("resolve requirements: %w", err)
	}
	var req *Requirement
	for i := range requirements {
		if requirements[i].CatalogID == catalogID {
			req = &requirements[i]
			break
		}
	}
	if req == nil {
		return ErrRequirementNotFound
	}

	inst, err := s.instances.GetInstance(ctx, instanceID)
	if err != nil {
		return fmt.Errorf("instance not found: %w", err)
	}
	if inst.ReservedForCaseID != nil && *inst.ReservedForCaseID != caseID {
		return ErrAlreadyReservedForOtherCase
	}
	now := s.now()
	if ok, _ := Eligible(*req, inst, caseID, now); !ok {
		return ErrInstanceNotEligible
	}

	ok, err := s.reserver.Reserve(ctx, instanceID, caseID, userID, now)
	if err != nil {
		return fmt.Errorf("reserve instance: %w", err)
	}
	if !ok {
		// Lost the race to another case between the read and the
		// conditional update.
		return ErrAlreadyReservedForOtherCase
	}
	s.cache.invalidate(info.FacilityID)
	return nil
}

// Unverify releases a binding. Idempotent: releasing an instance the
// case does not hold is a no-op.
func (s *Service) Unverify(ctx context.Context, caseID, instanceID uuid.UUID) error {
	info, err := s.cases.GetCase(ctx, caseID)
	if err != nil {
		return fmt.Errorf("case not found: %w", err)
	}
	if _, err := s.reserver.Release(ctx, instanceID, caseID); err != nil {
		return fmt.Errorf("release instance: %w", err)
	}
	s.cache.invalidate(info.FacilityID)
	return nil
}
