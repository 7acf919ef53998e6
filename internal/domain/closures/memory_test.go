package closures

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_InsertOncePerPair(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	ok, err := s.Insert(ctx, Closure{BatchID: "WAOI", StartDate: "2025-03-01", Kind: KindBoth})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Insert(ctx, Closure{BatchID: "WAOI", StartDate: "2025-03-01", Kind: KindLogistics})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Insert(ctx, Closure{BatchID: "WAOI", StartDate: "2025-03-02"})
	require.NoError(t, err)
	assert.True(t, ok)

	exists, err := s.Exists(ctx, "WAOI", "2025-03-01")
	require.NoError(t, err)
	assert.True(t, exists)

	list, _ := s.List(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, KindBoth, list[0].Kind)
}

func TestMemoryStore_ListOrderAndClear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	_, _ = s.Insert(ctx, Closure{BatchID: "ZZ", StartDate: "2025-03-01", CreatedAt: t0})
	_, _ = s.Insert(ctx, Closure{BatchID: "AA", StartDate: "2025-03-02", CreatedAt: t0})
	_, _ = s.Insert(ctx, Closure{BatchID: "AA", StartDate: "2025-03-01", CreatedAt: t0.Add(time.Hour)})

	list, err := s.List(ctx)
	require.NoError(t, err)
	var got []string
	for _, c := range list {
		got = append(got, c.BatchID+"/"+c.StartDate)
	}
	assert.Equal(t, []string{"AA/2025-03-01", "AA/2025-03-02", "ZZ/2025-03-01"}, got)

	n, err := s.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	list, _ = s.List(ctx)
	assert.Empty(t, list)
}
