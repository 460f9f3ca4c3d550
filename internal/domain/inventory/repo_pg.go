package inventory

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

const instanceCols = `id, catalog_id, facility_id, location_id, availability_status,
	sterility_status, sterility_expires_at, lot_number, serial_number, barcode,
	reserved_for_case_id, last_verified_at, last_verified_by, note, created_at, updated_at`

func scanInstance(row pgx.Row) (*InventoryInstance, error) {
	var i InventoryInstance
	err := row.Scan(&i.ID, &i.CatalogID, &i.FacilityID, &i.LocationID, &i.AvailabilityStatus,
		&i.SterilityStatus, &i.SterilityExpiresAt, &i.LotNumber, &i.SerialNumber, &i.Barcode,
		&i.ReservedForCaseID, &i.LastVerifiedAt, &i.LastVerifiedBy, &i.Note, &i.CreatedAt, &i.UpdatedAt)
	return &i, err
}

func (r *repoPG) Create(ctx context.Context, inst *InventoryInstance) error {
	inst.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO inventory_instance (id, catalog_id, facility_id, location_id, availability_status,
			sterility_status, sterility_expires_at, lot_number, serial_number, barcode, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		inst.ID, inst.CatalogID, inst.FacilityID, inst.LocationID, inst.AvailabilityStatus,
		inst.SterilityStatus, inst.SterilityExpiresAt, inst.LotNumber, inst.SerialNumber, inst.Barcode, inst.Note)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*InventoryInstance, error) {
	return scanInstance(r.conn(ctx).QueryRow(ctx, `SELECT `+instanceCols+` FROM inventory_instance WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, inst *InventoryInstance) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE inventory_instance SET location_id=$2, availability_status=$3, sterility_status=$4,
			sterility_expires_at=$5, lot_number=$6, serial_number=$7, barcode=$8, note=$9, updated_at=NOW()
		WHERE id = $1`,
		inst.ID, inst.LocationID, inst.AvailabilityStatus, inst.SterilityStatus,
		inst.SterilityExpiresAt, inst.LotNumber, inst.SerialNumber, inst.Barcode, inst.Note)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*InventoryInstance, int, error) {
	return r.Search(ctx, nil, limit, offset)
}

var instanceFilters = map[string]query.FilterConfig{
	"catalog_id":  {Type: query.FilterExact, Column: "catalog_id"},
	"facility_id": {Type: query.FilterExact, Column: "facility_id"},
	"status":      {Type: query.FilterExact, Column: "availability_status"},
	"sterility":   {Type: query.FilterExact, Column: "sterility_status"},
	"lot":         {Type: query.FilterExact, Column: "lot_number"},
	"serial":      {Type: query.FilterExact, Column: "serial_number"},
	"barcode":     {Type: query.FilterExact, Column: "barcode"},
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*InventoryInstance, int, error) {
	qb := query.NewListQuery("inventory_instance", instanceCols)
	qb.ApplyParams(params, instanceFilters)
	qb.OrderBy("created_at DESC")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, qb.CountSQL(), qb.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, qb.DataSQL(), qb.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*InventoryInstance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, inst)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListByFacility(ctx context.Context, facilityID uuid.UUID, catalogIDs []uuid.UUID) ([]*InventoryInstance, error) {
	sql := `SELECT ` + instanceCols + ` FROM inventory_instance
		WHERE facility_id = $1 AND availability_status NOT IN ('DISPOSED','EXPIRED_DISPOSED')`
	args := []interface{}{facilityID}
	if len(catalogIDs) > 0 {
		sql += ` AND catalog_id = ANY($2)`
		args = append(args, catalogIDs)
	}
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*InventoryInstance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, inst)
	}
	return items, rows.Err()
}

func (r *repoPG) ListByCase(ctx context.Context, caseID uuid.UUID) ([]*InventoryInstance, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+instanceCols+` FROM inventory_instance WHERE reserved_for_case_id = $1`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*InventoryInstance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, inst)
	}
	return items, rows.Err()
}

// Reserve is a single conditional update so two callers cannot
// double-book the same unit: the WHERE clause only matches when the
// instance is unreserved or already held by this case.
func (r *repoPG) Reserve(ctx context.Context, instanceID, caseID, userID uuid.UUID, verifiedAt time.Time) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE inventory_instance
		SET reserved_for_case_id = $2, last_verified_at = $3, last_verified_by = $4, updated_at = NOW()
		WHERE id = $1 AND (reserved_for_case_id IS NULL OR reserved_for_case_id = $2)`,
		instanceID, caseID, verifiedAt, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) Release(ctx context.Context, instanceID, caseID uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE inventory_instance SET reserved_for_case_id = NULL, updated_at = NOW()
		WHERE id = $1 AND reserved_for_case_id = $2`,
		instanceID, caseID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) ReleaseAllForCase(ctx context.Context, caseID uuid.UUID) (int, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE inventory_instance SET reserved_for_case_id = NULL, updated_at = NOW()
		WHERE reserved_for_case_id = $1`, caseID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *repoPG) AddEvent(ctx context.Context, ev *InventoryEvent) error {
	ev.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO inventory_event (id, instance_id, event_type, from_status, to_status, case_id, recorded_by, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		ev.ID, ev.InstanceID, ev.EventType, ev.FromStatus, ev.ToStatus, ev.CaseID, ev.RecordedBy, ev.Note)
	return err
}

func (r *repoPG) GetEvents(ctx context.Context, instanceID uuid.UUID) ([]*InventoryEvent, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, instance_id, event_type, from_status, to_status, case_id, recorded_by, note, created_at
		FROM inventory_event WHERE instance_id = $1 ORDER BY created_at`, instanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []*InventoryEvent
	for rows.Next() {
		var ev InventoryEvent
		if err := rows.Scan(&ev.ID, &ev.InstanceID, &ev.EventType, &ev.FromStatus, &ev.ToStatus,
			&ev.CaseID, &ev.RecordedBy, &ev.Note, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, &ev)
	}
	return events, rows.Err()
}

func (r *repoPG) LastMutationAt(ctx context.Context, facilityID uuid.UUID) (*time.Time, error) {
	var ts *time.Time
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT MAX(e.created_at)
		FROM inventory_event e
		JOIN inventory_instance i ON i.id = e.instance_id
		WHERE i.facility_id = $1`, facilityID).Scan(&ts)
	return ts, err
}
