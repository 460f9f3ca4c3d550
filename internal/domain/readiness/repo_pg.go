package readiness

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asc/asc/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type attestationRepoPG struct{ pool *pgxpool.Pool }

func NewAttestationRepoPG(pool *pgxpool.Pool) AttestationRepository {
	return &attestationRepoPG{pool: pool}
}

func (r *attestationRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const attestationCols = `id, case_id, type, attested_by, readiness_state_at_time, notes,
	created_at, voided_at, voided_by, void_reason`

func scanAttestation(row pgx.Row) (*Attestation, error) {
	var a Attestation
	err := row.Scan(&a.ID, &a.CaseID, &a.Type, &a.AttestedBy, &a.ReadinessStateAtTime, &a.Notes,
		&a.CreatedAt, &a.VoidedAt, &a.VoidedBy, &a.VoidReason)
	return &a, err
}

// CreateActive relies on the partial unique index over
// (case_id, type) WHERE voided_at IS NULL: the conditional insert and
// the exclusivity check are one atomic statement.
func (r *attestationRepoPG) CreateActive(ctx context.Context, a *Attestation) error {
	a.ID = uuid.New()
	tag, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO attestation (id, case_id, type, attested_by, readiness_state_at_time, notes)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (case_id, type) WHERE voided_at IS NULL DO NOTHING`,
		a.ID, a.CaseID, a.Type, a.AttestedBy, a.ReadinessStateAtTime, a.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyAttested
	}
	return nil
}

func (r *attestationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Attestation, error) {
	a, err := scanAttestation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+attestationCols+` FROM attestation WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAttestationNotFound
	}
	return a, err
}

func (r *attestationRepoPG) GetActive(ctx context.Context, caseID uuid.UUID, attType string) (*Attestation, error) {
	a, err := scanAttestation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+attestationCols+` FROM attestation WHERE case_id = $1 AND type = $2 AND voided_at IS NULL`,
		caseID, attType))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// Void's WHERE clause only matches the still-active row, so the
// check-then-write cannot race another void.
func (r *attestationRepoPG) Void(ctx context.Context, id, userID uuid.UUID, reason string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE attestation SET voided_at = NOW(), voided_by = $2, void_reason = $3
		WHERE id = $1 AND voided_at IS NULL`,
		id, userID, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyVoided
	}
	return nil
}

func (r *attestationRepoPG) ListByCase(ctx context.Context, caseID uuid.UUID) ([]*Attestation, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+attestationCols+` FROM attestation WHERE case_id = $1 ORDER BY created_at`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []*Attestation
	for rows.Next() {
		a, err := scanAttestation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
