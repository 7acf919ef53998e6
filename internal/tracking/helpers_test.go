package tracking

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prodlog/voe-tracker/internal/domain/closures"
	"github.com/prodlog/voe-tracker/internal/domain/items"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 16, 30, 0, 0, time.UTC)

func prodItem(key, batch, date string) items.Item {
	return items.Item{
		MergeKey: key, BatchID: batch, StartDate: date,
		Procurement: items.KindProduction, Reference: items.KindProduction,
		ArticleCode: "BEW-1", Diameter: 12, Length: 3000, BendType: "B1", Quantity: 1,
	}
}

func logItem(key, batch, date, ref string) items.Item {
	return items.Item{
		MergeKey: key, BatchID: batch, StartDate: date,
		Procurement: "Lager", Reference: ref,
		ArticleCode: "BEW-2", Diameter: 8, Length: 1000, BendType: "B2", Quantity: 1,
	}
}

func newTestService(t *testing.T, seed ...items.Item) (*Service, *items.MemoryStore, *closures.MemoryStore) {
	t.Helper()
	is := items.NewMemoryStore()
	cs := closures.NewMemoryStore()
	for _, it := range seed {
		_, err := is.Insert(context.Background(), it)
		require.NoError(t, err)
	}
	svc := NewService(is, cs, slog.New(slog.DiscardHandler), WithClock(func() time.Time { return fixedNow }))
	return svc, is, cs
}
