package inventory

import (
	"time"

	"github.com/google/uuid"
)

// Availability statuses for InventoryInstance. Disposed statuses are
// terminal: instances are never deleted, only transitioned out.
const (
	StatusAvailable      = "AVAILABLE"
	StatusInUse          = "IN_USE"
	StatusMissing        = "MISSING"
	StatusInTransit      = "IN_TRANSIT"
	StatusQuarantined    = "QUARANTINED"
	StatusDisposed       = "DISPOSED"
	StatusExpiredDispose = "EXPIRED_DISPOSED"
)

// Sterility statuses.
const (
	SterilitySterile    = "STERILE"
	SterilityNonSterile = "NON_STERILE"
	SterilityUnknown    = "UNKNOWN"
)

// Event types for the append-only inventory_event audit trail.
const (
	EventReceived      = "RECEIVED"
	EventScanned       = "SCANNED"
	EventMoved         = "MOVED"
	EventStatusChanged = "STATUS_CHANGED"
	EventReserved      = "RESERVED"
	EventReleased      = "RELEASED"
	EventVerified      = "VERIFIED"
	EventDisposed      = "DISPOSED"
)

// InventoryInstance maps to the inventory_instance table: one physical
// unit of a catalog item, owned by a facility.
type InventoryInstance struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	CatalogID          uuid.UUID  `db:"catalog_id" json:"catalog_id"`
	FacilityID         uuid.UUID  `db:"facility_id" json:"facility_id"`
	LocationID         *uuid.UUID `db:"location_id" json:"location_id,omitempty"`
	AvailabilityStatus string     `db:"availability_status" json:"availability_status"`
	SterilityStatus    string     `db:"sterility_status" json:"sterility_status"`
	SterilityExpiresAt *time.Time `db:"sterility_expires_at" json:"sterility_expires_at,omitempty"`
	LotNumber          *string    `db:"lot_number" json:"lot_number,omitempty"`
	SerialNumber       *string    `db:"serial_number" json:"serial_number,omitempty"`
	Barcode            *string    `db:"barcode" json:"barcode,omitempty"`
	ReservedForCaseID  *uuid.UUID `db:"reserved_for_case_id" json:"reserved_for_case_id,omitempty"`
	LastVerifiedAt     *time.Time `db:"last_verified_at" json:"last_verified_at,omitempty"`
	LastVerifiedBy     *uuid.UUID `db:"last_verified_by" json:"last_verified_by,omitempty"`
	Note               *string    `db:"note" json:"note,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// Terminal reports whether the instance has been disposed.
func (i *InventoryInstance) Terminal() bool {
	return i.AvailabilityStatus == StatusDisposed || i.AvailabilityStatus == StatusExpiredDispose
}

// InventoryEvent maps to the inventory_event table. Events are
// append-only; instance state transitions always write one.
type InventoryEvent struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	InstanceID uuid.UUID  `db:"instance_id" json:"instance_id"`
	EventType  string     `db:"event_type" json:"event_type"`
	FromStatus *string    `db:"from_status" json:"from_status,omitempty"`
	ToStatus   *string    `db:"to_status" json:"to_status,omitempty"`
	CaseID     *uuid.UUID `db:"case_id" json:"case_id,omitempty"`
	RecordedBy *uuid.UUID `db:"recorded_by" json:"recorded_by,omitempty"`
	Note       *string    `db:"note" json:"note,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}
