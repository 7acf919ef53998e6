package tracking

import (
	"math"
	"testing"

	"github.com/prodlog/voe-tracker/internal/domain/items"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupBundles_OrderByDiameter(t *testing.T) {
	base := prodItem("", "A", "2025-03-01")
	a, b, c := base, base, base
	a.MergeKey, a.Diameter = "k1", 5.0
	b.MergeKey, b.Diameter = "k2", 3.0
	c.MergeKey, c.Diameter = "k3", 3.0

	bs := GroupBundles([]items.Item{a, b, c}, isProduced)

	require.Len(t, bs, 2)
	assert.Equal(t, 3.0, bs[0].Diameter)
	assert.Equal(t, []string{"k2", "k3"}, bs[0].RowKeys)
	assert.Equal(t, 5.0, bs[1].Diameter)
	assert.Equal(t, []string{"k1"}, bs[1].RowKeys)
}

func TestGroupBundles_QuantityIsSumOfAbsolutes(t *testing.T) {
	base := prodItem("", "A", "2025-03-01")
	var its []items.Item
	for i, q := range []float64{-2.0, 3.0, -1.0} {
		it := base
		it.MergeKey = string(rune('a' + i))
		it.Quantity = q
		its = append(its, it)
	}

	bs := GroupBundles(its, isProduced)

	require.Len(t, bs, 1)
	assert.Equal(t, int64(6), bs[0].Quantity)
	assert.Equal(t, 3, bs[0].Items)
}

func TestGroupBundles_MissingFieldsUseSentinels(t *testing.T) {
	its := []items.Item{
		{MergeKey: "1", ArticleCode: "X", BendType: "", Diameter: math.NaN()},
		{MergeKey: "2", ArticleCode: "X", BendType: "  ", Length: 0},
		{MergeKey: "3", ArticleCode: "X", BendType: "nan"},
	}

	bs := GroupBundles(its, isPicked)

	require.Len(t, bs, 1)
	assert.Equal(t, UnknownBend, bs[0].BendType)
	assert.Equal(t, 0.0, bs[0].Diameter)
	assert.Equal(t, 0.0, bs[0].Length)
	assert.Equal(t, []string{"1", "2", "3"}, bs[0].RowKeys)
}

func TestGroupBundles_ProdIDsSortedDistinct(t *testing.T) {
	base := prodItem("", "A", "d")
	x, y, z := base, base, base
	x.MergeKey, x.ProdID = "1", "P2"
	y.MergeKey, y.ProdID = "2", "P1"
	z.MergeKey, z.ProdID = "3", "P2"

	bs := GroupBundles([]items.Item{x, y, z}, isProduced)

	require.Len(t, bs, 1)
	assert.Equal(t, []string{"P1", "P2"}, bs[0].ProdIDs)
}

func TestGroupBundles_DoneAndFacets(t *testing.T) {
	a := logItem("1", "A", "d", items.RefInStock)
	b := logItem("2", "A", "d", items.RefBackorder)
	a.Picked = true

	bs := GroupBundles([]items.Item{a, b}, isPicked)

	require.Len(t, bs, 1)
	assert.False(t, bs[0].Done)
	assert.Equal(t, 1, bs[0].DoneCount)
	assert.False(t, bs[0].Picked)
	assert.False(t, bs[0].InStock)
	assert.True(t, bs[0].Backorder)
}

func TestBundleStatus(t *testing.T) {
	tests := []struct {
		name string
		done []bool
		want Progress
	}{
		{"none", []bool{false, false}, ProgressOpen},
		{"some", []bool{true, false}, ProgressPartial},
		{"all", []bool{true, true}, ProgressDone},
		{"empty", nil, ProgressOpen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var bs []Bundle
			for _, d := range tt.done {
				bs = append(bs, Bundle{Done: d})
			}
			assert.Equal(t, tt.want, BundleStatus(bs))
		})
	}
}
