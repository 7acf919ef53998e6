package tracking

import (
	"context"
	"errors"
	"fmt"

	"github.com/prodlog/voe-tracker/internal/domain/items"
	"github.com/prodlog/voe-tracker/internal/infra/metrics"
)

var ErrNoRows = errors.New("tracking: upload contains no rows")

type UploadResult struct {
	ClearedClosures  int `json:"cleared_closures"`
	DeletedDelivered int `json:"deleted_delivered"`
	Inserted         int `json:"inserted"`
}

// Upload starts a new day from freshly parsed rows: closures are cleared,
// delivered items removed, and every row is appended with reset progress and
// a new merge key. Open items from earlier uploads are kept untouched; rows are
// never merged into them.
func (s *Service) Upload(ctx context.Context, rows []items.Item) (UploadResult, error) {
	var res UploadResult
	if len(rows) == 0 {
		return res, ErrNoRows
	}

	n, err := s.closures.Clear(ctx)
	if err != nil {
		return res, fmt.Errorf("clear closures: %w", err)
	}
	res.ClearedClosures = n

	n, err = s.items.Delete(ctx, items.Filter{Delivered: items.Flag(true)})
	if err != nil {
		return res, fmt.Errorf("delete delivered: %w", err)
	}
	res.DeletedDelivered = n

	for _, row := range rows {
		it := row
		it.MergeKey = items.NewKey()
		it.Produced, it.Picked, it.Delivered, it.WrittenOff = false, false, false, false
		it.DeliveryTarget, it.DeliveredAt, it.WrittenOffAt = "", "", ""
		if _, err := s.items.Insert(ctx, it); err != nil {
			return res, fmt.Errorf("insert row %d: %w", res.Inserted+1, err)
		}
		res.Inserted++
	}
	metrics.ItemsUploaded.Add(float64(res.Inserted))

	s.log.Info("upload reconciled",
		"cleared_closures", res.ClearedClosures,
		"deleted_delivered", res.DeletedDelivered,
		"inserted", res.Inserted,
	)
	return res, nil
}
