package items

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

var _ Store = (*Repo)(nil)

const itemColumns = `merge_key, kuerzel, start_bft, start_bew, beschaffung, referenz,
	artikel_clean, artikel_nr, prod_id, durchmesser, laenge, biegung,
	bedarfs_menge_pos, menge, fertig, kommissioniert, ausgeliefert, ausgebucht,
	ziel_lagerort, ausgeliefert_am, ausgebucht_am`

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(
		&it.MergeKey, &it.BatchID, &it.StartDate, &it.StartBew, &it.Procurement, &it.Reference,
		&it.ArticleCode, &it.ArticleID, &it.ProdID, &it.Diameter, &it.Length, &it.BendType,
		&it.Quantity, &it.Amount, &it.Produced, &it.Picked, &it.Delivered, &it.WrittenOff,
		&it.DeliveryTarget, &it.DeliveredAt, &it.WrittenOffAt,
	)
	return it, err
}

// where renders f as a WHERE clause with positional args.
func where(f Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.BatchID != nil {
		add("kuerzel = $%d", *f.BatchID)
	}
	if f.StartDate != nil {
		add("start_bft = $%d", *f.StartDate)
	}
	if f.Produced != nil {
		add("fertig = $%d", *f.Produced)
	}
	if f.Picked != nil {
		add("kommissioniert = $%d", *f.Picked)
	}
	if f.Delivered != nil {
		add("ausgeliefert = $%d", *f.Delivered)
	}
	if f.WrittenOff != nil {
		add("ausgebucht = $%d", *f.WrittenOff)
	}
	if f.MergeKeys != nil {
		add("merge_key = ANY($%d)", f.MergeKeys)
	}
	if f.ProducedOrDelivered {
		conds = append(conds, "(fertig OR ausgeliefert)")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *Repo) Query(ctx context.Context, f Filter) ([]Item, error) {
	w, args := where(f)
	rows, err := r.pool.Query(ctx,
		`SELECT `+itemColumns+` FROM items`+w+` ORDER BY kuerzel, start_bft, merge_key`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repo) Insert(ctx context.Context, it Item) (string, error) {
	if it.MergeKey == "" {
		it.MergeKey = NewKey()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
	`,
		it.MergeKey, it.BatchID, it.StartDate, it.StartBew, it.Procurement, it.Reference,
		it.ArticleCode, it.ArticleID, it.ProdID, it.Diameter, it.Length, it.BendType,
		it.Quantity, it.Amount, it.Produced, it.Picked, it.Delivered, it.WrittenOff,
		it.DeliveryTarget, it.DeliveredAt, it.WrittenOffAt,
	)
	if err != nil {
		return "", err
	}
	return it.MergeKey, nil
}

func (r *Repo) Update(ctx context.Context, mergeKey string, p Patch) error {
	var (
		sets []string
		args = []any{mergeKey}
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.Produced != nil {
		set("fertig", *p.Produced)
	}
	if p.Picked != nil {
		set("kommissioniert", *p.Picked)
	}
	if p.Delivered != nil {
		set("ausgeliefert", *p.Delivered)
	}
	if p.WrittenOff != nil {
		set("ausgebucht", *p.WrittenOff)
	}
	if p.Reference != nil {
		set("referenz", *p.Reference)
	}
	if p.DeliveryTarget != nil {
		set("ziel_lagerort", *p.DeliveryTarget)
	}
	if p.DeliveredAt != nil {
		set("ausgeliefert_am", *p.DeliveredAt)
	}
	if p.WrittenOffAt != nil {
		set("ausgebucht_am", *p.WrittenOffAt)
	}
	if len(sets) == 0 {
		return nil
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE items SET `+strings.Join(sets, ", ")+` WHERE merge_key = $1`, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, f Filter) (int, error) {
	w, args := where(f)
	tag, err := r.pool.Exec(ctx, `DELETE FROM items`+w, args...)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
