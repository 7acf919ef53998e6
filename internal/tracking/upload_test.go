package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/prodlog/voe-tracker/internal/domain/closures"
	"github.com/prodlog/voe-tracker/internal/domain/items"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpload_Reconciles(t *testing.T) {
	delivered := logItem("old-done", "A", "d", items.RefInStock)
	delivered.Picked, delivered.Delivered = true, true
	open := prodItem("old-open", "B", "d")
	open.Produced = true

	svc, is, cs := newTestService(t, delivered, open)
	ctx := context.Background()
	_, err := cs.Insert(ctx, closures.Closure{BatchID: "A", StartDate: "d", Kind: closures.KindLogistics, CreatedAt: time.Now()})
	require.NoError(t, err)

	row := prodItem("ignored", "C", "d2")
	row.Produced, row.DeliveryTarget = true, "stale"

	res, err := svc.Upload(ctx, []items.Item{row})
	require.NoError(t, err)
	assert.Equal(t, UploadResult{ClearedClosures: 1, DeletedDelivered: 1, Inserted: 1}, res)

	all, err := is.Query(ctx, items.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.Equal(t, "old-open", all[0].MergeKey)
	assert.True(t, all[0].Produced, "open items keep their progress")

	assert.Equal(t, "C", all[1].BatchID)
	assert.NotEqual(t, "ignored", all[1].MergeKey)
	assert.False(t, all[1].Produced)
	assert.Empty(t, all[1].DeliveryTarget)

	list, _ := cs.List(ctx)
	assert.Empty(t, list)
}

func TestUpload_AppendsDuplicates(t *testing.T) {
	svc, is, _ := newTestService(t, prodItem("k", "A", "d"))
	ctx := context.Background()

	_, err := svc.Upload(ctx, []items.Item{prodItem("", "A", "d")})
	require.NoError(t, err)

	all, _ := is.Query(ctx, items.ByBatchDate("A", "d"))
	assert.Len(t, all, 2)
}

func TestUpload_Empty(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Upload(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoRows)
}
