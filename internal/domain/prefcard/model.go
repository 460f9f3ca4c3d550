package prefcard

import (
	"time"

	"github.com/google/uuid"
)

// Sections a card row can belong to. Rows are typed, not free-form
// JSON blobs, so requirement resolution never does stringly lookups.
const (
	SectionInstrument = "INSTRUMENT"
	SectionImplant    = "IMPLANT"
	SectionEquipment  = "EQUIPMENT"
	SectionSupply     = "SUPPLY"
	SectionMedication = "MEDICATION"
)

// PreferenceCard maps to the preference_card table. Version increments
// whenever the item set changes; cases resolve against the current
// version at calculation time.
type PreferenceCard struct {
	ID               uuid.UUID `db:"id" json:"id"`
	SurgeonID        uuid.UUID `db:"surgeon_id" json:"surgeon_id"`
	ProcedureCode    string    `db:"procedure_code" json:"procedure_code"`
	ProcedureDisplay string    `db:"procedure_display" json:"procedure_display"`
	Version          int       `db:"version" json:"version"`
	Note             *string   `db:"note" json:"note,omitempty"`
	IsActive         bool      `db:"is_active" json:"is_active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// CardItem maps to the preference_card_item table.
type CardItem struct {
	ID        uuid.UUID `db:"id" json:"id"`
	CardID    uuid.UUID `db:"card_id" json:"card_id"`
	CatalogID uuid.UUID `db:"catalog_id" json:"catalog_id"`
	Section   string    `db:"section" json:"section"`
	Quantity  int       `db:"quantity" json:"quantity"`
	Note      *string   `db:"note" json:"note,omitempty"`
}

// ResolvedRequirement is the flattened projection of one card row
// joined with its catalog item, the shape readiness calculation
// consumes.
type ResolvedRequirement struct {
	CatalogID              uuid.UUID `json:"catalog_id"`
	CatalogName            string    `json:"catalog_name"`
	Quantity               int       `json:"quantity"`
	RequiresSterility      bool      `json:"requires_sterility"`
	RequiresLotTracking    bool      `json:"requires_lot_tracking"`
	RequiresSerialTracking bool      `json:"requires_serial_tracking"`
	Criticality            string    `json:"criticality"`
	ReadinessRequired      bool      `json:"readiness_required"`
}
