package tracking

import (
	"strings"

	"github.com/prodlog/voe-tracker/internal/domain/items"
	"github.com/shopspring/decimal"
)

// IsProduction reports whether it has to be manufactured in-house. Everything
// else (in stock, on order, not found) belongs to logistics.
func IsProduction(it items.Item) bool {
	return strings.TrimSpace(it.Procurement) == items.KindProduction &&
		strings.TrimSpace(it.Reference) == items.KindProduction
}

type Subsets struct {
	Production []items.Item
	Logistics  []items.Item
}

func (s Subsets) Empty() bool { return len(s.Production) == 0 && len(s.Logistics) == 0 }

// Active drops written-off items; they no longer take part in completion tracking.
func Active(its []items.Item) []items.Item {
	out := make([]items.Item, 0, len(its))
	for _, it := range its {
		if !it.WrittenOff {
			out = append(out, it)
		}
	}
	return out
}

// Split partitions the active items of its.
func Split(its []items.Item) Subsets {
	var s Subsets
	for _, it := range its {
		if it.WrittenOff {
			continue
		}
		if IsProduction(it) {
			s.Production = append(s.Production, it)
		} else {
			s.Logistics = append(s.Logistics, it)
		}
	}
	return s
}

// demand is the usable quantity of a single item: |q| truncated to whole units.
func demand(q float64) decimal.Decimal {
	return decimal.NewFromFloat(q).Abs().Truncate(0)
}

// TotalQuantity sums the per-item demand of its.
func TotalQuantity(its []items.Item) int64 {
	sum := decimal.Zero
	for _, it := range its {
		sum = sum.Add(demand(it.Quantity))
	}
	return sum.IntPart()
}
