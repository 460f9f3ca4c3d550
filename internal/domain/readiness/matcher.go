package readiness

import (
	"time"

	"github.com/google/uuid"

	"github.com/asc/asc/internal/domain/inventory"
)

// rejection categories, checked in diagnostic priority order.
type rejection int

const (
	rejectedNone rejection = iota
	rejectedSterility
	rejectedTracking
)

// Eligible reports whether one instance can serve one requirement for
// one case at the given time. The second return value explains the
// first rejection category when ineligible.
func Eligible(req Requirement, inst *inventory.InventoryInstance, caseID uuid.UUID, asOf time.Time) (bool, rejection) {
	if inst.CatalogID != req.CatalogID {
		return false, rejectedNone
	}
	if inst.AvailabilityStatus != inventory.StatusAvailable {
		return false, rejectedNone
	}
	if inst.ReservedForCaseID != nil && *inst.ReservedForCaseID != caseID {
		return false, rejectedNone
	}
	if req.RequiresSterility {
		if inst.SterilityStatus != inventory.SterilitySterile {
			return false, rejectedSterility
		}
		if inst.SterilityExpiresAt != nil && inst.SterilityExpiresAt.Before(asOf) {
			return false, rejectedSterility
		}
	}
	// Missing required tracking data makes an instance ineligible
	// here; the risk queue flags it separately.
	if req.RequiresLotTracking && inst.LotNumber == nil {
		return false, rejectedTracking
	}
	if req.RequiresSerialTracking && inst.SerialNumber == nil {
		return false, rejectedTracking
	}
	return true, rejectedNone
}

// MatchRequirement counts the instances in the pool that can serve the
// requirement. Pure: same inputs always give the same result, and the
// pool is never mutated.
func MatchRequirement(req Requirement, pool []*inventory.InventoryInstance, caseID uuid.UUID, asOf time.Time, policy VerifyPolicy) MatchResult {
	var result MatchResult
	sawSterilityReject := false
	sawTrackingReject := false

	for _, inst := range pool {
		ok, why := Eligible(req, inst, caseID, asOf)
		if !ok {
			switch why {
			case rejectedSterility:
				sawSterilityReject = true
			case rejectedTracking:
				sawTrackingReject = true
			}
			continue
		}
		result.AvailableCount++
		result.SuitableIDs = append(result.SuitableIDs, inst.ID)
		if policy.Verified(inst, caseID, asOf) {
			result.VerifiedCount++
		}
	}

	// The specific diagnostics only apply when nothing in the pool is
	// eligible; a partial shortfall is a quantity problem even when
	// some candidates were rejected for sterility or tracking.
	if result.AvailableCount < req.Quantity {
		switch {
		case result.AvailableCount == 0 && sawSterilityReject:
			result.Reason = ReasonSterilityUnavailable
		case result.AvailableCount == 0 && sawTrackingReject:
			result.Reason = ReasonTrackingDataMissing
		default:
			result.Reason = ReasonInsufficientQuantity
		}
	}
	return result
}
