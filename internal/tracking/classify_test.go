package tracking

import (
	"testing"

	"github.com/prodlog/voe-tracker/internal/domain/items"
	"github.com/stretchr/testify/assert"
)

func TestIsProduction(t *testing.T) {
	tests := []struct {
		name        string
		procurement string
		reference   string
		want        bool
	}{
		{"production", "Produktion", "Produktion", true},
		{"padded", " Produktion ", "Produktion\t", true},
		{"in stock", "Produktion", "Am Lager", false},
		{"backorder", "Einkauf", "Bestellung", false},
		{"not found", "Produktion", "Nicht gefunden", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := items.Item{Procurement: tt.procurement, Reference: tt.reference}
			assert.Equal(t, tt.want, IsProduction(it))
		})
	}
}

func TestSplit_LogisticsIsComplement(t *testing.T) {
	its := []items.Item{
		prodItem("p", "A", "d"),
		logItem("l1", "A", "d", items.RefInStock),
		logItem("l2", "A", "d", items.RefBackorder),
		logItem("l3", "A", "d", items.RefNotFound),
		logItem("l4", "A", "d", "Sonstiges"),
	}

	s := Split(its)

	assert.Len(t, s.Production, 1)
	assert.Len(t, s.Logistics, 4)
	assert.False(t, s.Empty())
}

func TestSplit_SkipsWrittenOff(t *testing.T) {
	p := prodItem("p", "A", "d")
	p.WrittenOff = true

	s := Split([]items.Item{p})

	assert.True(t, s.Empty())
	assert.Empty(t, Active([]items.Item{p}))
}

func TestTotalQuantity(t *testing.T) {
	its := []items.Item{{Quantity: -2.0}, {Quantity: 3.0}, {Quantity: -1.0}}
	assert.Equal(t, int64(6), TotalQuantity(its))

	// truncated per item before summing
	its = []items.Item{{Quantity: 1.7}, {Quantity: -1.7}}
	assert.Equal(t, int64(2), TotalQuantity(its))
}
