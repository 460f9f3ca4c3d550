package catalog

import (
	"context"

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

const itemCols = `id, name, category, criticality, manufacturer, model_number,
	requires_sterility, requires_lot_tracking, requires_serial_tracking, requires_expiration_tracking,
	expiration_warning_days, readiness_required, substitutable, note, is_active, created_at, updated_at`

func scanItem(row pgx.Row) (*CatalogItem, error) {
	var ci CatalogItem
	err := row.Scan(&ci.ID, &ci.Name, &ci.Category, &ci.Criticality, &ci.Manufacturer, &ci.ModelNumber,
		&ci.RequiresSterility, &ci.RequiresLotTracking, &ci.RequiresSerialTracking, &ci.RequiresExpirationTracking,
		&ci.ExpirationWarningDays, &ci.ReadinessRequired, &ci.Substitutable, &ci.Note, &ci.IsActive,
		&ci.CreatedAt, &ci.UpdatedAt)
	return &ci, err
}

func (r *repoPG) Create(ctx context.Context, item *CatalogItem) error {
	item.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO catalog_item (id, name, category, criticality, manufacturer, model_number,
			requires_sterility, requires_lot_tracking, requires_serial_tracking, requires_expiration_tracking,
			expiration_warning_days, readiness_required, substitutable, note, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		item.ID, item.Name, item.Category, item.Criticality, item.Manufacturer, item.ModelNumber,
		item.RequiresSterility, item.RequiresLotTracking, item.RequiresSerialTracking, item.RequiresExpirationTracking,
		item.ExpirationWarningDays, item.ReadinessRequired, item.Substitutable, item.Note, item.IsActive)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*CatalogItem, error) {
	return scanItem(r.conn(ctx).QueryRow(ctx, `SELECT `+itemCols+` FROM catalog_item WHERE id = $1`, id))
}

func (r *repoPG) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*CatalogItem, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]*CatalogItem{}, nil
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+itemCols+` FROM catalog_item WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make(map[uuid.UUID]*CatalogItem, len(ids))
	for rows.Next() {
		ci, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items[ci.ID] = ci
	}
	return items, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, item *CatalogItem) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE catalog_item SET name=$2, category=$3, criticality=$4, manufacturer=$5, model_number=$6,
			requires_sterility=$7, requires_lot_tracking=$8, requires_serial_tracking=$9,
			requires_expiration_tracking=$10, expiration_warning_days=$11, readiness_required=$12,
			substitutable=$13, note=$14, is_active=$15, updated_at=NOW()
		WHERE id = $1`,
		item.ID, item.Name, item.Category, item.Criticality, item.Manufacturer, item.ModelNumber,
		item.RequiresSterility, item.RequiresLotTracking, item.RequiresSerialTracking, item.RequiresExpirationTracking,
		item.ExpirationWarningDays, item.ReadinessRequired, item.Substitutable, item.Note, item.IsActive)
	return err
}

func (r *repoPG) Deactivate(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE catalog_item SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*CatalogItem, int, error) {
	return r.Search(ctx, nil, limit, offset)
}

var itemFilters = map[string]query.FilterConfig{
	"category":    {Type: query.FilterExact, Column: "category"},
	"criticality": {Type: query.FilterExact, Column: "criticality"},
	"name":        {Type: query.FilterString, Column: "name"},
	"active":      {Type: query.FilterBool, Column: "is_active"},
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*CatalogItem, int, error) {
	qb := query.NewListQuery("catalog_item", itemCols)
	qb.ApplyParams(params, itemFilters)
	qb.OrderBy("name")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, qb.CountSQL(), qb.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, qb.DataSQL(), qb.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*CatalogItem
	for rows.Next() {
		ci, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, ci)
	}
	return items, total, rows.Err()
}

func (r *repoPG) InstanceCount(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM inventory_instance WHERE catalog_id = $1`, id).Scan(&n)
	return n, err
}
