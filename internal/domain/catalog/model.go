package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Category values for CatalogItem.
const (
	CategoryImplant    = "IMPLANT"
	CategoryInstrument = "INSTRUMENT"
	CategoryEquipment  = "EQUIPMENT"
	CategoryMedication = "MEDICATION"
	CategoryConsumable = "CONSUMABLE"
	CategoryPPE        = "PPE"
)

// Criticality values for CatalogItem.
const (
	CriticalityCritical  = "CRITICAL"
	CriticalityImportant = "IMPORTANT"
	CriticalityRoutine   = "ROUTINE"
)

// CatalogItem maps to the catalog_item table. It describes a type of
// supply, instrument, or implant; physical units live in inventory.
type CatalogItem struct {
	ID                         uuid.UUID `db:"id" json:"id"`
	Name                       string    `db:"name" json:"name"`
	Category                   string    `db:"category" json:"category"`
	Criticality                string    `db:"criticality" json:"criticality"`
	Manufacturer               *string   `db:"manufacturer" json:"manufacturer,omitempty"`
	ModelNumber                *string   `db:"model_number" json:"model_number,omitempty"`
	RequiresSterility          bool      `db:"requires_sterility" json:"requires_sterility"`
	RequiresLotTracking        bool      `db:"requires_lot_tracking" json:"requires_lot_tracking"`
	RequiresSerialTracking     bool      `db:"requires_serial_tracking" json:"requires_serial_tracking"`
	RequiresExpirationTracking bool      `db:"requires_expiration_tracking" json:"requires_expiration_tracking"`
	ExpirationWarningDays      *int      `db:"expiration_warning_days" json:"expiration_warning_days,omitempty"`
	ReadinessRequired          bool      `db:"readiness_required" json:"readiness_required"`
	Substitutable              bool      `db:"substitutable" json:"substitutable"`
	Note                       *string   `db:"note" json:"note,omitempty"`
	IsActive                   bool      `db:"is_active" json:"is_active"`
	CreatedAt                  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt                  time.Time `db:"updated_at" json:"updated_at"`
}
