package cases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asc/asc/internal/platform/db"
	"github.com/asc/asc/internal/platform/query"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const caseCols = `id, facility_id, patient_ref, surgeon_id, procedure_display, status,
	scheduled_date, scheduled_start, or_room, preference_card_id, cancel_reason, note, created_at, updated_at`

func scanCase(row pgx.Row) (*SurgicalCase, error) {
	var sc SurgicalCase
	err := row.Scan(&sc.ID, &sc.FacilityID, &sc.PatientRef, &sc.SurgeonID, &sc.ProcedureDisplay, &sc.Status,
		&sc.ScheduledDate, &sc.ScheduledStart, &sc.ORRoom, &sc.PreferenceCardID, &sc.CancelReason, &sc.Note,
		&sc.CreatedAt, &sc.UpdatedAt)
	return &sc, err
}

func (r *repoPG) Create(ctx context.Context, sc *SurgicalCase) error {
	sc.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO surgical_case (id, facility_id, patient_ref, surgeon_id, procedure_display, status,
			scheduled_date, scheduled_start, or_room, preference_card_id, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		sc.ID, sc.FacilityID, sc.PatientRef, sc.SurgeonID, sc.ProcedureDisplay, sc.Status,
		sc.ScheduledDate, sc.ScheduledStart, sc.ORRoom, sc.PreferenceCardID, sc.Note)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*SurgicalCase, error) {
	return scanCase(r.conn(ctx).QueryRow(ctx, `SELECT `+caseCols+` FROM surgical_case WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, sc *SurgicalCase) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE surgical_case SET patient_ref=$2, surgeon_id=$3, procedure_display=$4, status=$5,
			scheduled_date=$6, scheduled_start=$7, or_room=$8, preference_card_id=$9,
			cancel_reason=$10, note=$11, updated_at=NOW()
		WHERE id = $1`,
		sc.ID, sc.PatientRef, sc.SurgeonID, sc.ProcedureDisplay, sc.Status,
		sc.ScheduledDate, sc.ScheduledStart, sc.ORRoom, sc.PreferenceCardID,
		sc.CancelReason, sc.Note)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*SurgicalCase, int, error) {
	return r.Search(ctx, nil, limit, offset)
}

var caseFilters = map[string]query.FilterConfig{
	"facility_id":    {Type: query.FilterExact, Column: "facility_id"},
	"surgeon_id":     {Type: query.FilterExact, Column: "surgeon_id"},
	"status":         {Type: query.FilterExact, Column: "status"},
	"patient_ref":    {Type: query.FilterExact, Column: "patient_ref"},
	"scheduled_date": {Type: query.FilterDate, Column: "scheduled_date"},
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*SurgicalCase, int, error) {
	qb := query.NewListQuery("surgical_case", caseCols)
	qb.ApplyParams(params, caseFilters)
	qb.OrderBy("scheduled_date, scheduled_start")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, qb.CountSQL(), qb.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, qb.DataSQL(), qb.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*SurgicalCase
	for rows.Next() {
		sc, err := scanCase(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, sc)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListScheduled(ctx context.Context, facilityID uuid.UUID, date time.Time) ([]*SurgicalCase, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+caseCols+` FROM surgical_case
		WHERE facility_id = $1 AND scheduled_date = $2 AND status NOT IN ('CANCELLED','COMPLETED')
		ORDER BY scheduled_start NULLS LAST, created_at`,
		facilityID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*SurgicalCase
	for rows.Next() {
		sc, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, sc)
	}
	return items, rows.Err()
}

func (r *repoPG) LastMutationAt(ctx context.Context, facilityID uuid.UUID, date time.Time) (*time.Time, error) {
	var ts *time.Time
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT MAX(updated_at) FROM surgical_case WHERE facility_id = $1 AND scheduled_date = $2`,
		facilityID, date).Scan(&ts)
	return ts, err
}

// -- Checklist --

func (r *repoPG) AddChecklistItem(ctx context.Context, item *ChecklistItem) error {
	item.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO case_checklist_item (id, case_id, name, completed, completed_by, completed_at, sequence)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		item.ID, item.CaseID, item.Name, item.Completed, item.CompletedBy, item.CompletedAt, item.Sequence)
	return err
}

func (r *repoPG) GetChecklist(ctx context.Context, caseID uuid.UUID) ([]*ChecklistItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, case_id, name, completed, completed_by, completed_at, sequence
		FROM case_checklist_item WHERE case_id = $1 ORDER BY sequence, name`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ChecklistItem
	for rows.Next() {
		var it ChecklistItem
		if err := rows.Scan(&it.ID, &it.CaseID, &it.Name, &it.Completed, &it.CompletedBy, &it.CompletedAt, &it.Sequence); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *repoPG) UpdateChecklistItem(ctx context.Context, item *ChecklistItem) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE case_checklist_item SET name=$2, completed=$3, completed_by=$4, completed_at=$5, sequence=$6
		WHERE id = $1`,
		item.ID, item.Name, item.Completed, item.CompletedBy, item.CompletedAt, item.Sequence)
	return err
}

func (r *repoPG) RemoveChecklistItem(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM case_checklist_item WHERE id = $1`, id)
	return err
}
