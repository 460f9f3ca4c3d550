package readiness

import (
	"time"

	"github.com/google/uuid"

	"github.com/asc/asc/internal/domain/inventory"
)

// Readiness states. These three values are the only states any
// downstream consumer may see.
const (
	StateGreen  = "GREEN"
	StateOrange = "ORANGE"
	StateRed    = "RED"
)

// Attestation types.
const (
	TypeCaseReadiness         = "CASE_READINESS"
	TypeSurgeonAcknowledgment = "SURGEON_ACKNOWLEDGMENT"
)

// Missing-item reasons, in diagnostic priority order.
const (
	ReasonSterilityUnavailable = "STERILITY_UNAVAILABLE"
	ReasonTrackingDataMissing  = "TRACKING_DATA_MISSING"
	ReasonInsufficientQuantity = "INSUFFICIENT_QUANTITY"
)

// Verify policy modes.
const (
	PolicyBinding   = "binding"
	PolicyFreshness = "freshness"
)

// Requirement is one flattened line of a case's requirement set,
// resolved from the linked preference card's current version. Derived,
// never stored.
type Requirement struct {
	CatalogID              uuid.UUID `json:"catalog_id"`
	CatalogName            string    `json:"catalog_name"`
	Quantity               int       `json:"quantity"`
	RequiresSterility      bool      `json:"requires_sterility"`
	RequiresLotTracking    bool      `json:"requires_lot_tracking"`
	RequiresSerialTracking bool      `json:"requires_serial_tracking"`
	Criticality            string    `json:"criticality"`
	ReadinessRequired      bool      `json:"readiness_required"`
}

// Critical reports whether an unsatisfied requirement forces RED.
func (r Requirement) Critical() bool { return r.Criticality == "CRITICAL" }

// VerifyPolicy decides what counts as a verified instance. Binding
// mode only counts units explicitly bound to the case; freshness mode
// also accepts a last_verified_at stamp inside the window.
type VerifyPolicy struct {
	Mode            string
	FreshnessWindow time.Duration
}

// Verified applies the policy to one instance for one case.
func (p VerifyPolicy) Verified(inst *inventory.InventoryInstance, caseID uuid.UUID, asOf time.Time) bool {
	bound := inst.ReservedForCaseID != nil && *inst.ReservedForCaseID == caseID
	if p.Mode == PolicyFreshness {
		if bound {
			return true
		}
		return inst.LastVerifiedAt != nil && asOf.Sub(*inst.LastVerifiedAt) <= p.FreshnessWindow
	}
	return bound
}

// MatchResult is the Matcher's output for one requirement.
type MatchResult struct {
	AvailableCount int         `json:"available_count"`
	SuitableIDs    []uuid.UUID `json:"suitable_ids"`
	VerifiedCount  int         `json:"verified_count"`
	// Reason is the first applicable rejection diagnostic when the
	// requirement is unsatisfied, empty otherwise.
	Reason string `json:"reason,omitempty"`
}

// Satisfied reports whether the requirement's quantity is covered.
func (m MatchResult) Satisfied(quantity int) bool { return m.AvailableCount >= quantity }

// MissingItem is one unsatisfied requirement in a snapshot.
type MissingItem struct {
	CatalogID         uuid.UUID `json:"catalog_id"`
	CatalogName       string    `json:"catalog_name"`
	RequiredQuantity  int       `json:"required_quantity"`
	AvailableQuantity int       `json:"available_quantity"`
	Reason            string    `json:"reason"`
}

// CaseReadinessSnapshot is the Calculator's output for one case. It is
// recomputed on demand and never authoritative when cached.
type CaseReadinessSnapshot struct {
	CaseID             uuid.UUID     `json:"case_id"`
	ReadinessState     string        `json:"readiness_state"`
	MissingItems       []MissingItem `json:"missing_items"`
	TotalRequiredItems int           `json:"total_required_items"`
	TotalVerifiedItems int           `json:"total_verified_items"`
	CalculatedAt       time.Time     `json:"calculated_at"`
}

// Attestation maps to the attestation table. Rows are append-only.
type Attestation struct {
	ID                   uuid.UUID  `db:"id" json:"id"`
	CaseID               uuid.UUID  `db:"case_id" json:"case_id"`
	Type                 string     `db:"type" json:"type"`
	AttestedBy           uuid.UUID  `db:"attested_by" json:"attested_by"`
	ReadinessStateAtTime string     `db:"readiness_state_at_time" json:"readiness_state_at_time"`
	Notes                *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	VoidedAt             *time.Time `db:"voided_at" json:"voided_at,omitempty"`
	VoidedBy             *uuid.UUID `db:"voided_by" json:"voided_by,omitempty"`
	VoidReason           *string    `db:"void_reason" json:"void_reason,omitempty"`
}

// Active reports whether the attestation still stands.
func (a *Attestation) Active() bool { return a.VoidedAt == nil }

// CaseInfo is the slice of a surgical case the engine needs.
type CaseInfo struct {
	ID            uuid.UUID `json:"id"`
	FacilityID    uuid.UUID `json:"facility_id"`
	Status        string    `json:"status"`
	ScheduledDate time.Time `json:"scheduled_date"`
	Active        bool      `json:"active"`
}

// CaseResult is one case's entry in a day-before rollup: either a
// snapshot or an error marker, never both.
type CaseResult struct {
	CaseID   uuid.UUID              `json:"case_id"`
	Snapshot *CaseReadinessSnapshot `json:"snapshot,omitempty"`
	Attested bool                   `json:"attested"`
	Error    string                 `json:"error,omitempty"`
}

// DayBeforeSummary counts only successfully calculated cases.
type DayBeforeSummary struct {
	Green    int `json:"green"`
	Orange   int `json:"orange"`
	Red      int `json:"red"`
	Attested int `json:"attested"`
	Failed   int `json:"failed"`
}

// DayBeforeResult is the aggregator's rollup for one facility/date.
type DayBeforeResult struct {
	FacilityID uuid.UUID        `json:"facility_id"`
	Date       time.Time        `json:"date"`
	Cases      []CaseResult     `json:"cases"`
	Summary    DayBeforeSummary `json:"summary"`
	FromCache  bool             `json:"from_cache"`
	BuiltAt    time.Time        `json:"built_at"`
}
