package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGDealStore stores deals in Postgres; deal terms live in a JSONB column.
type PGDealStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ DealStore = (*PGDealStore)(nil)

func NewPGDealStore(pool *pgxpool.Pool) *PGDealStore {
	return &PGDealStore{pool: pool, now: time.Now}
}

const dealColumns = `id, ticker, name, inputs, created_at, updated_at`

// Save upserts by ID. The original created_at survives updates.
func (r *PGDealStore) Save(ctx context.Context, d *Deal) error {
	if d == nil {
		return fmt.Errorf("deal must not be nil")
	}
	next := *d
	if err := prepare(&next, r.now().UTC()); err != nil {
		return err
	}

	inputs, err := json.Marshal(next.Inputs)
	if err != nil {
		return fmt.Errorf("failed to marshal deal inputs: %w", err)
	}

	query := `
		INSERT INTO spac_deals (` + dealColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id)
		DO UPDATE SET
			ticker = EXCLUDED.ticker,
			name = EXCLUDED.name,
			inputs = EXCLUDED.inputs,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at`

	err = r.pool.QueryRow(ctx, query, next.ID, next.Ticker, next.Name, inputs, next.CreatedAt, next.UpdatedAt).Scan(&next.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to save deal %s: %w", next.Ticker, err)
	}
	*d = next
	return nil
}

func (r *PGDealStore) Get(ctx context.Context, id uuid.UUID) (*Deal, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+dealColumns+` FROM spac_deals WHERE id = $1`, id)
	return scanDeal(row)
}

func (r *PGDealStore) GetByTicker(ctx context.Context, ticker string) (*Deal, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+dealColumns+` FROM spac_deals WHERE ticker = $1`, NormalizeTicker(ticker))
	return scanDeal(row)
}

func (r *PGDealStore) List(ctx context.Context) ([]*Deal, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+dealColumns+` FROM spac_deals ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}
	defer rows.Close()

	deals := make([]*Deal, 0)
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}
	return deals, nil
}

func (r *PGDealStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM spac_deals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete deal %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDeal(row pgx.Row) (*Deal, error) {
	var d Deal
	var inputs []byte
	err := row.Scan(&d.ID, &d.Ticker, &d.Name, &inputs, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load deal: %w", err)
	}
	if err := json.Unmarshal(inputs, &d.Inputs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deal inputs: %w", err)
	}
	return &d, nil
}
