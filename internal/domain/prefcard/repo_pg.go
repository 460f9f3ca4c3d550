package prefcard

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

const cardCols = `id, surgeon_id, procedure_code, procedure_display, version, note, is_active, created_at, updated_at`

func scanCard(row pgx.Row) (*PreferenceCard, error) {
	var pc PreferenceCard
	err := row.Scan(&pc.ID, &pc.SurgeonID, &pc.ProcedureCode, &pc.ProcedureDisplay, &pc.Version,
		&pc.Note, &pc.IsActive, &pc.CreatedAt, &pc.UpdatedAt)
	return &pc, err
}

func (r *repoPG) Create(ctx context.Context, card *PreferenceCard) error {
	card.ID = uuid.New()
	card.Version = 1
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO preference_card (id, surgeon_id, procedure_code, procedure_display, version, note, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		card.ID, card.SurgeonID, card.ProcedureCode, card.ProcedureDisplay, card.Version, card.Note, card.IsActive)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*PreferenceCard, error) {
	return scanCard(r.conn(ctx).QueryRow(ctx, `SELECT `+cardCols+` FROM preference_card WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, card *PreferenceCard) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE preference_card SET procedure_code=$2, procedure_display=$3, note=$4, is_active=$5, updated_at=NOW()
		WHERE id = $1`,
		card.ID, card.ProcedureCode, card.ProcedureDisplay, card.Note, card.IsActive)
	return err
}

func (r *repoPG) Deactivate(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE preference_card SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*PreferenceCard, int, error) {
	return r.Search(ctx, nil, limit, offset)
}

var cardFilters = map[string]query.FilterConfig{
	"surgeon_id":     {Type: query.FilterExact, Column: "surgeon_id"},
	"procedure_code": {Type: query.FilterExact, Column: "procedure_code"},
	"procedure":      {Type: query.FilterString, Column: "procedure_display"},
	"active":         {Type: query.FilterBool, Column: "is_active"},
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*PreferenceCard, int, error) {
	qb := query.NewListQuery("preference_card", cardCols)
	qb.ApplyParams(params, cardFilters)
	qb.OrderBy("procedure_display")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, qb.CountSQL(), qb.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, qb.DataSQL(), qb.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var cards []*PreferenceCard
	for rows.Next() {
		pc, err := scanCard(rows)
		if err != nil {
			return nil, 0, err
		}
		cards = append(cards, pc)
	}
	return cards, total, rows.Err()
}

func (r *repoPG) GetItems(ctx context.Context, cardID uuid.UUID) ([]*CardItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, card_id, catalog_id, section, quantity, note
		FROM preference_card_item WHERE card_id = $1 ORDER BY section, id`, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*CardItem
	for rows.Next() {
		var it CardItem
		if err := rows.Scan(&it.ID, &it.CardID, &it.CatalogID, &it.Section, &it.Quantity, &it.Note); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *repoPG) ReplaceItems(ctx context.Context, cardID uuid.UUID, items []*CardItem) error {
	c := r.conn(ctx)
	if _, err := c.Exec(ctx, `DELETE FROM preference_card_item WHERE card_id = $1`, cardID); err != nil {
		return err
	}
	for _, it := range items {
		it.ID = uuid.New()
		it.CardID = cardID
		if _, err := c.Exec(ctx, `
			INSERT INTO preference_card_item (id, card_id, catalog_id, section, quantity, note)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			it.ID, it.CardID, it.CatalogID, it.Section, it.Quantity, it.Note); err != nil {
			return err
		}
	}
	_, err := c.Exec(ctx, `UPDATE preference_card SET version = version + 1, updated_at = NOW() WHERE id = $1`, cardID)
	return err
}
