package items

import (
	"context"
	"errors"
)

// Reference and procurement values as they appear in the upload sheets.
const (
	KindProduction = "Produktion"
	RefInStock     = "Am Lager"
	RefBackorder   = "Bestellung"
	RefNotFound    = "Nicht gefunden"
)

// TimeLayout is used for delivered_at / written_off_at.
const TimeLayout = "2006-01-02 15:04:05"

var ErrNotFound = errors.New("items: not found")

type Item struct {
	MergeKey  string
	BatchID   string // Kürzel
	StartDate string // Start-BFT, YYYY-MM-DD
	StartBew  string

	Procurement string // Beschaffung
	Reference   string // Referenz

	ArticleCode string // Bew.-Artikel
	ArticleID   string // Artikel-Nr.
	ProdID      string
	Diameter    float64
	Length      float64
	BendType    string
	Quantity    float64 // Bedarfs-Menge, signed
	Amount      float64

	Produced   bool
	Picked     bool
	Delivered  bool
	WrittenOff bool

	DeliveryTarget string
	DeliveredAt    string
	WrittenOffAt   string
}

// Filter selects items. Set fields are ANDed; nil fields match everything.
type Filter struct {
	BatchID    *string
	StartDate  *string
	Produced   *bool
	Picked     *bool
	Delivered  *bool
	WrittenOff *bool
	// MergeKeys restricts to the given keys. A non-nil empty slice matches nothing.
	MergeKeys []string
	// ProducedOrDelivered matches items that are produced or delivered.
	ProducedOrDelivered bool
}

func ByBatch(batchID string) Filter { return Filter{BatchID: &batchID} }

func ByBatchDate(batchID, startDate string) Filter {
	return Filter{BatchID: &batchID, StartDate: &startDate}
}

func ByKeys(keys ...string) Filter {
	if keys == nil {
		keys = []string{}
	}
	return Filter{MergeKeys: keys}
}

func Flag(v bool) *bool { return &v }

// Match reports whether it satisfies f.
func (f Filter) Match(it Item) bool {
	if f.BatchID != nil && it.BatchID != *f.BatchID {
		return false
	}
	if f.StartDate != nil && it.StartDate != *f.StartDate {
		return false
	}
	if f.Produced != nil && it.Produced != *f.Produced {
		return false
	}
	if f.Picked != nil && it.Picked != *f.Picked {
		return false
	}
	if f.Delivered != nil && it.Delivered != *f.Delivered {
		return false
	}
	if f.WrittenOff != nil && it.WrittenOff != *f.WrittenOff {
		return false
	}
	if f.ProducedOrDelivered && !it.Produced && !it.Delivered {
		return false
	}
	if f.MergeKeys != nil {
		found := false
		for _, k := range f.MergeKeys {
			if k == it.MergeKey {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Patch lists the fields an update touches; nil fields stay unchanged.
type Patch struct {
	Produced       *bool
	Picked         *bool
	Delivered      *bool
	WrittenOff     *bool
	Reference      *string
	DeliveryTarget *string
	DeliveredAt    *string
	WrittenOffAt   *string
}

func (p Patch) apply(it *Item) {
	if p.Produced != nil {
		it.Produced = *p.Produced
	}
	if p.Picked != nil {
		it.Picked = *p.Picked
	}
	if p.Delivered != nil {
		it.Delivered = *p.Delivered
	}
	if p.WrittenOff != nil {
		it.WrittenOff = *p.WrittenOff
	}
	if p.Reference != nil {
		it.Reference = *p.Reference
	}
	if p.DeliveryTarget != nil {
		it.DeliveryTarget = *p.DeliveryTarget
	}
	if p.DeliveredAt != nil {
		it.DeliveredAt = *p.DeliveredAt
	}
	if p.WrittenOffAt != nil {
		it.WrittenOffAt = *p.WrittenOffAt
	}
}

// Store is the persistence boundary for items. Query results are ordered by
// batch, start date and merge key.
type Store interface {
	Query(ctx context.Context, f Filter) ([]Item, error)
	// Insert stores it and returns its merge key. An empty key is assigned
	// before the item becomes visible to other callers.
	Insert(ctx context.Context, it Item) (string, error)
	Update(ctx context.Context, mergeKey string, p Patch) error
	Delete(ctx context.Context, f Filter) (int, error)
}
