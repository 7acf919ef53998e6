package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prodlog/voe-tracker/internal/domain/closures"
	"github.com/prodlog/voe-tracker/internal/domain/items"
	"github.com/prodlog/voe-tracker/internal/infra/metrics"
)

// Recorder writes the one-time daily closure of a finished batch/start date.
type Recorder struct {
	items    items.Store
	closures closures.Store
	log      *slog.Logger
	now      func() time.Time
}

func NewRecorder(itemStore items.Store, closureStore closures.Store, log *slog.Logger, now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{items: itemStore, closures: closureStore, log: log, now: now}
}

// RecordIfDone stores a closure for (batchID, startDate) when the pair is
// finished and none exists yet. It reports whether a closure was written.
func (r *Recorder) RecordIfDone(ctx context.Context, batchID, startDate string) (bool, error) {
	exists, err := r.closures.Exists(ctx, batchID, startDate)
	if err != nil {
		return false, fmt.Errorf("check closure: %w", err)
	}
	if exists {
		return false, nil
	}

	its, err := r.items.Query(ctx, items.ByBatchDate(batchID, startDate))
	if err != nil {
		return false, fmt.Errorf("load items: %w", err)
	}
	if !Evaluate(its).BatchDone {
		return false, nil
	}

	c := summarize(batchID, startDate, its)
	c.CreatedAt = r.now()

	ok, err := r.closures.Insert(ctx, c)
	if err != nil {
		return false, fmt.Errorf("insert closure: %w", err)
	}
	if ok {
		metrics.ClosuresRecorded.Inc()
		r.log.Info("batch closed",
			"batch", batchID,
			"start_bft", startDate,
			"kind", c.Kind,
			"qty", c.TotalQuantity,
		)
	}
	return ok, nil
}

func summarize(batchID, startDate string, its []items.Item) closures.Closure {
	active := Active(its)
	s := Split(active)

	c := closures.Closure{
		BatchID:       batchID,
		StartDate:     startDate,
		TotalQuantity: TotalQuantity(active),
	}
	for _, it := range active {
		if it.DeliveryTarget != "" {
			c.DeliveryTarget = it.DeliveryTarget
			break
		}
	}
	switch {
	case len(s.Production) > 0 && len(s.Logistics) > 0:
		c.Kind = closures.KindBoth
	case len(s.Production) > 0:
		c.Kind = closures.KindProduction
	default:
		c.Kind = closures.KindLogistics
	}
	return c
}
