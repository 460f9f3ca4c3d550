package cases

import (
	"time"

	"github.com/google/uuid"
)

// Case statuses.
const (
	StatusScheduled  = "SCHEDULED"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusCancelled  = "CANCELLED"
	StatusPostponed  = "POSTPONED"
)

// SurgicalCase maps to the surgical_case table.
type SurgicalCase struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	FacilityID       uuid.UUID  `db:"facility_id" json:"facility_id"`
	PatientRef       string     `db:"patient_ref" json:"patient_ref"`
	SurgeonID        uuid.UUID  `db:"surgeon_id" json:"surgeon_id"`
	ProcedureDisplay *string    `db:"procedure_display" json:"procedure_display,omitempty"`
	Status           string     `db:"status" json:"status"`
	ScheduledDate    time.Time  `db:"scheduled_date" json:"scheduled_date"`
	ScheduledStart   *time.Time `db:"scheduled_start" json:"scheduled_start,omitempty"`
	ORRoom           *string    `db:"or_room" json:"or_room,omitempty"`
	PreferenceCardID *uuid.UUID `db:"preference_card_id" json:"preference_card_id,omitempty"`
	CancelReason     *string    `db:"cancel_reason" json:"cancel_reason,omitempty"`
	Note             *string    `db:"note" json:"note,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// Active reports whether the case still counts for readiness work.
func (c *SurgicalCase) Active() bool {
	return c.Status != StatusCancelled && c.Status != StatusCompleted
}

// ChecklistItem maps to the case_checklist_item table.
type ChecklistItem struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	CaseID      uuid.UUID  `db:"case_id" json:"case_id"`
	Name        string     `db:"name" json:"name"`
	Completed   bool       `db:"completed" json:"completed"`
	CompletedBy *uuid.UUID `db:"completed_by" json:"completed_by,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	Sequence    int        `db:"sequence" json:"sequence"`
}
