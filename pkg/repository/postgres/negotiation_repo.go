package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/haggleops/haggle/pkg/negotiation"
)

// NegotiationRepository persists negotiation records and funnel events.
// Records are append-only; a single-statement insert keeps each save atomic.
type NegotiationRepository struct {
	pool *pgxpool.Pool
}

func NewNegotiationRepository(pool *pgxpool.Pool) (*NegotiationRepository, error) {
	r := &NegotiationRepository{pool: pool}
	if err := r.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *NegotiationRepository) ensureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS negotiations (
	id UUID PRIMARY KEY,
	owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	context JSONB NOT NULL,
	proposal JSONB NOT NULL,
	simulation JSONB,
	strategy TEXT NOT NULL,
	service_type TEXT NOT NULL,
	final_price DOUBLE PRECISION NOT NULL,
	savings DOUBLE PRECISION NOT NULL,
	annual_savings DOUBLE PRECISION NOT NULL,
	success BOOLEAN NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS negotiations_owner_idx ON negotiations (owner_id, created_at DESC);

CREATE TABLE IF NOT EXISTS negotiation_events (
	id UUID PRIMARY KEY,
	owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	stage TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`)
	return err
}

func (r *NegotiationRepository) Create(ctx context.Context, rec negotiation.Record) error {
	ctxJSON, err := json.Marshal(rec.Context)
	if err != nil {
		return err
	}
	propJSON, err := json.Marshal(rec.Proposal)
	if err != nil {
		return err
	}
	var simJSON []byte
	if rec.Simulation != nil {
		simJSON, err = json.Marshal(rec.Simulation)
		if err != nil {
			return err
		}
	}
	_, err = r.pool.Exec(ctx, `
INSERT INTO negotiations (id, owner_id, context, proposal, simulation, strategy, service_type,
	final_price, savings, annual_savings, success, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`, rec.ID, rec.OwnerID, ctxJSON, propJSON, simJSON, string(rec.Proposal.Strategy), rec.Context.ServiceType,
		rec.FinalPrice, rec.Savings, rec.AnnualSavings, rec.Success, rec.CreatedAt)
	if err != nil {
		// locked, disk full, permission, connection loss: the caller
		// must see the save failed, never a silent drop
		return fmt.Errorf("%w: %v", negotiation.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *NegotiationRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]negotiation.Record, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, owner_id, context, proposal, simulation, final_price, savings, annual_savings, success, created_at
FROM negotiations WHERE owner_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// AllByOwner is the full scan backing aggregation and export.
func (r *NegotiationRepository) AllByOwner(ctx context.Context, ownerID uuid.UUID) ([]negotiation.Record, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, owner_id, context, proposal, simulation, final_price, savings, annual_savings, success, created_at
FROM negotiations WHERE owner_id = $1
ORDER BY created_at DESC
`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]negotiation.Record, error) {
	out := []negotiation.Record{}
	for rows.Next() {
		var rec negotiation.Record
		var ctxJSON, propJSON, simJSON []byte
		var created time.Time
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &ctxJSON, &propJSON, &simJSON,
			&rec.FinalPrice, &rec.Savings, &rec.AnnualSavings, &rec.Success, &created); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(ctxJSON, &rec.Context)
		_ = json.Unmarshal(propJSON, &rec.Proposal)
		if len(simJSON) > 0 {
			var sim negotiation.VendorSimulation
			if json.Unmarshal(simJSON, &sim) == nil {
				rec.Simulation = &sim
			}
		}
		rec.CreatedAt = created.UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *NegotiationRepository) LogEvent(ctx context.Context, e negotiation.Event) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO negotiation_events (id, owner_id, stage, created_at)
VALUES ($1, $2, $3, $4)
`, e.ID, e.OwnerID, e.Stage, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: %v", negotiation.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *NegotiationRepository) Funnel(ctx context.Context, ownerID uuid.UUID) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
SELECT stage, COUNT(*) FROM negotiation_events
WHERE owner_id = $1
GROUP BY stage
`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var stage string
		var count int
		if err := rows.Scan(&stage, &count); err != nil {
			return nil, err
		}
		out[stage] = count
	}
	return out, rows.Err()
}

var _ negotiation.Repository = (*NegotiationRepository)(nil)
