package readiness

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/asc/asc/internal/domain/inventory"
)

var asOf = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

var bindingPolicy = VerifyPolicy{Mode: PolicyBinding}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func uuidPtr(u uuid.UUID) *uuid.UUID { return &u }

func hipScrewRequirement(quantity int) Requirement {
	return Requirement{
		CatalogID:           uuid.New(),
		CatalogName:         "Hip Screw Kit",
		Quantity:            quantity,
		RequiresSterility:   true,
		RequiresLotTracking: true,
		Criticality:         "CRITICAL",
		ReadinessRequired:   true,
	}
}

func availableInstance(catalogID uuid.UUID, mutate func(*inventory.InventoryInstance)) *inventory.InventoryInstance {
	inst := &inventory.InventoryInstance{
		ID:                 uuid.New(),
		CatalogID:          catalogID,
		FacilityID:         uuid.New(),
		AvailabilityStatus: inventory.StatusAvailable,
		SterilityStatus:    inventory.SterilitySterile,
		LotNumber:          strPtr("LOT-1"),
	}
	if mutate != nil {
		mutate(inst)
	}
	return inst
}

// The classic pool: A eligible, B missing its lot, C non-sterile.
func hipScrewPool(req Requirement) (a, b, c *inventory.InventoryInstance) {
	a = availableInstance(req.CatalogID, nil)
	b = availableInstance(req.CatalogID, func(i *inventory.InventoryInstance) { i.LotNumber = nil })
	c = availableInstance(req.CatalogID, func(i *inventory.InventoryInstance) {
		i.SterilityStatus = inventory.SterilityNonSterile
	})
	return a, b, c
}

func TestMatchRequirement_HipScrewKit(t *testing.T) {
	req := hipScrewRequirement(2)
	a, b, c := hipScrewPool(req)
	pool := []*inventory.InventoryInstance{a, b, c}

	result := MatchRequirement(req, pool, uuid.New(), asOf, bindingPolicy)

	if result.AvailableCount != 1 {
		t.Errorf("expected availableCount 1 (A only), got %d", result.AvailableCount)
	}
	if len(result.SuitableIDs) != 1 || result.SuitableIDs[0] != a.ID {
		t.Errorf("expected only A suitable, got %v", result.SuitableIDs)
	}
	if result.Reason != ReasonInsufficientQuantity {
		t.Errorf("expected INSUFFICIENT_QUANTITY, got %s", result.Reason)
	}
}

func TestMatchRequirement_PartialShortfallIsQuantityReason(t *testing.T) {
	req := hipScrewRequirement(2)
	// One eligible unit plus one tracking reject: the shortfall is a
	// quantity problem, not a tracking diagnostic.
	a := availableInstance(req.CatalogID, nil)
	b := availableInstance(req.CatalogID, func(i *inventory.InventoryInstance) { i.LotNumber = nil })

	result := MatchRequirement(req, []*inventory.InventoryInstance{a, b}, uuid.New(), asOf, bindingPolicy)
	if result.AvailableCount != 1 {
		t.Fatalf("expected availableCount 1, got %d", result.AvailableCount)
	}
	if result.Reason != ReasonInsufficientQuantity {
		t.Errorf("expected INSUFFICIENT_QUANTITY, got %s", result.Reason)
	}
}

func TestMatchRequirement_SterilityReasonWins(t *testing.T) {
	req := hipScrewRequirement(1)
	// Only a non-sterile candidate: the sterility diagnostic outranks
	// the generic quantity reason.
	c := availableInstance(req.CatalogID, func(i *inventory.InventoryInstance) {
		i.SterilityStatus = inventory.SterilityNonSterile
	})
	result := MatchRequirement(req, []*inventory.InventoryInstance{c}, uuid.New(), asOf, bindingPolicy)

	if result.AvailableCount != 0 {
		t.Errorf("expected no eligible instances, got %d", result.AvailableCount)
	}
	if result.Reason != ReasonSterilityUnavailable {
		t.Errorf("expected STERILITY_UNAVAILABLE, got %s", result.Reason)
	}
}

func TestMatchRequirement_TrackingReason(t *testing.T) {
	req := hipScrewRequirement(1)
	b := availableInstance(req.CatalogID, func(i *inventory.InventoryInstance) { i.LotNumber = nil })
	result := MatchRequirement(req, []*inventory.InventoryInstance{b}, uuid.New(), asOf, bindingPolicy)

	if result.Reason != ReasonTrackingDataMissing {
		t.Errorf("expected TRACKING_DATA_MISSING, got %s", result.Reason)
	}
}

func TestMatchRequirement_ExpiredSterilityIneligible(t *testing.T) {
	req := hipScrewRequirement(1)
	expired := availableInstance(req.CatalogID, func(i *inventory.InventoryInstance) {
		i.SterilityExpiresAt = timePtr(asOf.AddDate(0, 0, -1))
	})
	result := MatchRequirement(req, []*inventory.InventoryInstance{expired}, uuid.New(), asOf, bindingPolicy)

	if result.AvailableCount != 0 {
		t.Error("expired sterility must make the instance ineligible")
	}
	if result.Reason != ReasonSterilityUnavailable {
		t.Errorf("expected STERILITY_UNAVAILABLE, got %s", result.Reason)
	}
}

func TestMatchRequirement_ReservedForOtherCaseExcluded(t *testing.T) {
	req := hipScrewRequirement(1)
	caseID := uuid.New()
	other := availableInstance(req.CatalogID, func(i *inventory.InventoryInstance) {
		i.ReservedForCaseID = uuidPtr(uuid.New())
	})
	mine := availableInstance(req.CatalogID, func(i *inventory.InventoryInstance) {
		i.ReservedForCaseID = uuidPtr(caseID)
	})

	result := MatchRequirement(req, []*inventory.InventoryInstance{other, mine}, caseID, asOf, bindingPolicy)
	if result.AvailableCount != 1 {
		t.Errorf("only the unit reserved for this case should count, got %d", result.AvailableCount)
	}
	if result.VerifiedCount != 1 {
		t.Errorf("bound unit should count as verified under binding policy, got %d", result.VerifiedCount)
	}
}

func TestMatchRequirement_MissingStatusExcluded(t *testing.T) {
	req := hipScrewRequirement(1)
	missing := availableInstance(req.CatalogID, func(i *inventory.InventoryInstance) {
		i.AvailabilityStatus = inventory.StatusMissing
	})
	result := MatchRequirement(req, []*inventory.InventoryInstance{missing}, uuid.New(), asOf, bindingPolicy)
	if result.AvailableCount != 0 {
		t.Error("MISSING instances must not be eligible")
	}
}

func TestMatchRequirement_WrongCatalogIgnored(t *testing.T) {
	req := hipScrewRequirement(1)
	stranger := availableInstance(uuid.New(), nil)
	result := MatchRequirement(req, []*inventory.InventoryInstance{stranger}, uuid.New(), asOf, bindingPolicy)
	if result.AvailableCount != 0 || result.Reason != ReasonInsufficientQuantity {
		t.Errorf("unexpected result for wrong-catalog pool: %+v", result)
	}
}

func TestMatchRequirement_FreshnessPolicy(t *testing.T) {
	req := Requirement{CatalogID: uuid.New(), CatalogName: "Drape Pack", Quantity: 1, ReadinessRequired: true}
	policy := VerifyPolicy{Mode: PolicyFreshness, FreshnessWindow: 24 * time.Hour}

	fresh := availableInstance(req.CatalogID, func(i *inventory.InventoryInstance) {
		i.LastVerifiedAt = timePtr(asOf.Add(-2 * time.Hour))
	})
	stale := availableInstance(req.CatalogID, func(i *inventory.InventoryInstance) {
		i.LastVerifiedAt = timePtr(asOf.Add(-48 * time.Hour))
	})

	result := MatchRequirement(req, []*inventory.InventoryInstance{fresh, stale}, uuid.New(), asOf, policy)
	if result.AvailableCount != 2 {
		t.Errorf("both should be available, got %d", result.AvailableCount)
	}
	if result.VerifiedCount != 1 {
		t.Errorf("only the fresh stamp should verify, got %d", result.VerifiedCount)
	}
}

func TestMatchRequirement_Deterministic(t *testing.T) {
	req := hipScrewRequirement(2)
	a, b, c := hipScrewPool(req)
	pool := []*inventory.InventoryInstance{a, b, c}
	caseID := uuid.New()

	first := MatchRequirement(req, pool, caseID, asOf, bindingPolicy)
	for i := 0; i < 10; i++ {
		again := MatchRequirement(req, pool, caseID, asOf, bindingPolicy)
		if again.AvailableCount != first.AvailableCount || again.Reason != first.Reason ||
			len(again.SuitableIDs) != len(first.SuitableIDs) {
			t.Fatalf("match result changed between runs: %+v vs %+v", first, again)
		}
	}
}
