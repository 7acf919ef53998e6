package closures

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

var _ Store = (*Repo)(nil)

func (r *Repo) Exists(ctx context.Context, batchID, startDate string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM completed_today WHERE kuerzel = $1 AND start_bft = $2
		)
	`, batchID, startDate).Scan(&ok)
	return ok, err
}

func (r *Repo) Insert(ctx context.Context, c Closure) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO completed_today (kuerzel, start_bft, typ, menge, zielort, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (kuerzel, start_bft) DO NOTHING
	`, c.BatchID, c.StartDate, string(c.Kind), c.TotalQuantity, c.DeliveryTarget, c.CreatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repo) List(ctx context.Context) ([]Closure, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, kuerzel, start_bft, typ, menge, zielort, created_at
		FROM completed_today
		ORDER BY kuerzel, start_bft, created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Closure
	for rows.Next() {
		var c Closure
		if err := rows.Scan(&c.ID, &c.BatchID, &c.StartDate, &c.Kind, &c.TotalQuantity, &c.DeliveryTarget, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) Clear(ctx context.Context) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM completed_today`)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
