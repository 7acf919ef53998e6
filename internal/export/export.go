package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prodlog/voe-tracker/internal/domain/closures"
	"github.com/prodlog/voe-tracker/internal/domain/items"
	"github.com/prodlog/voe-tracker/internal/tracking"
)

var (
	ErrNothingToExport = errors.New("export: nothing to export")
	ErrNotDelivered    = errors.New("export: delivery failed")
)

const (
	SheetDelivered = "Ausgelieferte_Items"
	SheetClosures  = "Tagesabschluss"
	SheetCompleted = "Items"
	SheetShortages = "Fehlteile"
)

// File is a rendered workbook ready to download or send.
type File struct {
	Name string
	Rows int
	Data []byte
}

// DeliverFunc hands a finished workbook to its recipients.
type DeliverFunc func(ctx context.Context, f File) error

// Result describes a completed-items export.
type Result struct {
	File      File
	Delivered bool
	Deleted   int
}

type Assembler struct {
	items    items.Store
	closures closures.Store
	log      *slog.Logger
	now      func() time.Time
}

func NewAssembler(itemStore items.Store, closureStore closures.Store, log *slog.Logger, now func() time.Time) *Assembler {
	if now == nil {
		now = time.Now
	}
	return &Assembler{items: itemStore, closures: closureStore, log: log, now: now}
}

func (a *Assembler) today() string { return a.now().Format("2006-01-02") }

var itemHeader = []interface{}{
	"merge_key", "kuerzel", "start_bft", "start_bew", "beschaffung", "referenz",
	"artikel_clean", "artikel_nr", "prod_id", "durchmesser", "laenge", "biegung",
	"bedarfs_menge_pos", "menge", "fertig", "kommissioniert", "ausgeliefert", "ausgebucht",
	"ziel_lagerort", "ausgeliefert_am", "ausgebucht_am",
}

func itemRow(it items.Item) []interface{} {
	return []interface{}{
		it.MergeKey, it.BatchID, it.StartDate, it.StartBew, it.Procurement, it.Reference,
		it.ArticleCode, it.ArticleID, it.ProdID, it.Diameter, it.Length, it.BendType,
		it.Quantity, it.Amount, it.Produced, it.Picked, it.Delivered, it.WrittenOff,
		it.DeliveryTarget, it.DeliveredAt, it.WrittenOffAt,
	}
}

func itemRows(its []items.Item) [][]interface{} {
	rows := make([][]interface{}, 0, len(its))
	for _, it := range its {
		rows = append(rows, itemRow(it))
	}
	return rows
}

// Delivered exports every delivered item without touching the store.
func (a *Assembler) Delivered(ctx context.Context) (File, error) {
	its, err := a.items.Query(ctx, items.Filter{Delivered: items.Flag(true)})
	if err != nil {
		return File{}, fmt.Errorf("load delivered: %w", err)
	}
	if len(its) == 0 {
		return File{}, ErrNothingToExport
	}
	data, err := writeSheet(SheetDelivered, itemHeader, itemRows(its))
	if err != nil {
		return File{}, err
	}
	return File{
		Name: fmt.Sprintf("VOE_Ausgelieferte_Items_%s.xlsx", a.today()),
		Rows: len(its),
		Data: data,
	}, nil
}

// Closures exports the closure table. With reset the table is cleared once the
// workbook is built.
func (a *Assembler) Closures(ctx context.Context, reset bool) (File, error) {
	list, err := a.closures.List(ctx)
	if err != nil {
		return File{}, fmt.Errorf("load closures: %w", err)
	}

	header := []interface{}{"kuerzel", "start_bft", "typ", "menge", "zielort", "erstellt_am"}
	rows := make([][]interface{}, 0, len(list))
	for _, c := range list {
		rows = append(rows, []interface{}{
			c.BatchID, c.StartDate, string(c.Kind), c.TotalQuantity, c.DeliveryTarget,
			c.CreatedAt.Format(items.TimeLayout),
		})
	}
	data, err := writeSheet(SheetClosures, header, rows)
	if err != nil {
		return File{}, err
	}

	if reset {
		n, err := a.closures.Clear(ctx)
		if err != nil {
			return File{}, fmt.Errorf("clear closures: %w", err)
		}
		a.log.Info("closures exported and cleared", "count", n)
	}
	return File{
		Name: fmt.Sprintf("tagesabschluss_%s.xlsx", a.today()),
		Rows: len(list),
		Data: data,
	}, nil
}

// Completed exports every produced or delivered item and removes exactly those
// items afterwards. When deliver is set it runs first, and a failure leaves the
// store untouched. An empty selection yields a header-only file and skips
// deliver.
func (a *Assembler) Completed(ctx context.Context, deliver DeliverFunc) (Result, error) {
	its, err := a.items.Query(ctx, items.Filter{ProducedOrDelivered: true})
	if err != nil {
		return Result{}, fmt.Errorf("load completed: %w", err)
	}
	data, err := writeSheet(SheetCompleted, itemHeader, itemRows(its))
	if err != nil {
		return Result{}, err
	}
	res := Result{File: File{
		Name: fmt.Sprintf("VOE_Abschluss_%s.xlsx", a.today()),
		Rows: len(its),
		Data: data,
	}}
	if len(its) == 0 {
		return res, nil
	}

	if deliver != nil {
		if err := deliver(ctx, res.File); err != nil {
			return res, fmt.Errorf("%w: %s: %w", ErrNotDelivered, res.File.Name, err)
		}
		res.Delivered = true
	}

	keys := make([]string, 0, len(its))
	for _, it := range its {
		keys = append(keys, it.MergeKey)
	}
	n, err := a.items.Delete(ctx, items.ByKeys(keys...))
	if err != nil {
		return res, fmt.Errorf("delete exported: %w", err)
	}
	res.Deleted = n
	return res, nil
}

// Shortages exports written-off items, one row per item.
func (a *Assembler) Shortages(ctx context.Context) (File, error) {
	its, err := a.items.Query(ctx, items.Filter{WrittenOff: items.Flag(true)})
	if err != nil {
		return File{}, fmt.Errorf("load shortages: %w", err)
	}
	list := tracking.BuildShortages(its)
	if len(list) == 0 {
		return File{}, ErrNothingToExport
	}

	header := []interface{}{
		"kuerzel", "artikel_nr", "artikel_clean", "durchmesser", "laenge", "biegung",
		"merge_key", "bedarfs_menge_pos", "prod_id", "ausgebucht_am", "start_bft",
	}
	rows := make([][]interface{}, 0, len(list))
	for _, s := range list {
		rows = append(rows, []interface{}{
			s.BatchID, s.ArticleID, s.ArticleCode, s.Diameter, s.Length, s.BendType,
			s.MergeKey, s.Quantity, s.ProdID, s.WrittenOffAt, s.StartDate,
		})
	}
	data, err := writeSheet(SheetShortages, header, rows)
	if err != nil {
		return File{}, err
	}
	return File{
		Name: fmt.Sprintf("fehlteile_%s.xlsx", a.today()),
		Rows: len(list),
		Data: data,
	}, nil
}
