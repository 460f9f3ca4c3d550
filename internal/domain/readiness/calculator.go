package readiness

import (
	"time"

	"github.com/google/uuid"

	"github.com/asc/asc/internal/domain/inventory"
)

// Calculate produces a case's readiness snapshot from its requirement
// set and the current instance pool. Always computed fresh; callers
// that cache the result must treat the copy as advisory.
//
// State derivation, first match wins:
//  1. RED: any requirement has zero suitable instances, or a CRITICAL
//     requirement is unsatisfied.
//  2. ORANGE: a non-critical requirement is unsatisfied, or any
//     requirement is not fully verified.
//  3. GREEN: everything satisfied and verified. Zero requirements is
//     vacuously GREEN.
func Calculate(caseID uuid.UUID, requirements []Requirement, pool []*inventory.InventoryInstance, asOf time.Time, policy VerifyPolicy) CaseReadinessSnapshot {
	snapshot := CaseReadinessSnapshot{
		CaseID:       caseID,
		MissingItems: []MissingItem{},
		CalculatedAt: asOf,
	}

	red := false
	orange := false
	for _, req := range requirements {
		if !req.ReadinessRequired {
			continue
		}

		match := MatchRequirement(req, pool, caseID, asOf, policy)
		snapshot.TotalRequiredItems += req.Quantity
		verified := match.VerifiedCount
		if verified > req.Quantity {
			verified = req.Quantity
		}
		snapshot.TotalVerifiedItems += verified

		if !match.Satisfied(req.Quantity) {
			snapshot.MissingItems = append(snapshot.MissingItems, MissingItem{
				CatalogID:         req.CatalogID,
				CatalogName:       req.CatalogName,
				RequiredQuantity:  req.Quantity,
				AvailableQuantity: match.AvailableCount,
				Reason:            match.Reason,
			})
			if match.AvailableCount == 0 || req.Critical() {
				red = true
			} else {
				orange = true
			}
			continue
		}
		if verified < req.Quantity {
			orange = true
		}
	}

	switch {
	case red:
		snapshot.ReadinessState = StateRed
	case orange:
		snapshot.ReadinessState = StateOrange
	default:
		snapshot.ReadinessState = StateGreen
	}
	return snapshot
}
