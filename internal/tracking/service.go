package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prodlog/voe-tracker/internal/domain/closures"
	"github.com/prodlog/voe-tracker/internal/domain/items"
	"github.com/prodlog/voe-tracker/internal/infra/metrics"
)

var ErrNoKeys = errors.New("tracking: no row keys given")

type Service struct {
	items    items.Store
	closures closures.Store
	rec      *Recorder
	log      *slog.Logger
	now      func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now for timestamps and closures.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(itemStore items.Store, closureStore closures.Store, log *slog.Logger, opts ...Option) *Service {
	s := &Service{items: itemStore, closures: closureStore, log: log, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	s.rec = NewRecorder(itemStore, closureStore, log, s.now)
	return s
}

func (s *Service) Recorder() *Recorder { return s.rec }

// ActionResult tells the caller how many rows changed and whether the action
// closed at least one (batch, start date) pair.
type ActionResult struct {
	Updated int  `json:"updated"`
	Closed  bool `json:"closed"`
}

func (s *Service) MarkProduced(ctx context.Context, batchID, startDate string, keys []string) (ActionResult, error) {
	return s.mark(ctx, "produced", batchID, startDate, keys, items.Patch{Produced: items.Flag(true)})
}

func (s *Service) MarkPicked(ctx context.Context, batchID, startDate string, keys []string) (ActionResult, error) {
	return s.mark(ctx, "picked", batchID, startDate, keys, items.Patch{Picked: items.Flag(true)})
}

func (s *Service) MarkDelivered(ctx context.Context, batchID, startDate string, keys []string, target string) (ActionResult, error) {
	ts := s.now().Format(items.TimeLayout)
	return s.mark(ctx, "delivered", batchID, startDate, keys, items.Patch{
		Delivered:      items.Flag(true),
		DeliveryTarget: &target,
		DeliveredAt:    &ts,
	})
}

// MarkNotFound flags items that could not be located in the warehouse. They
// stay in logistics and still have to be resolved.
func (s *Service) MarkNotFound(ctx context.Context, batchID, startDate string, keys []string) (ActionResult, error) {
	ref := items.RefNotFound
	return s.mark(ctx, "not_found", batchID, startDate, keys, items.Patch{Reference: &ref})
}

// WriteOff books items out as shortages; they leave completion tracking.
func (s *Service) WriteOff(ctx context.Context, batchID, startDate string, keys []string) (ActionResult, error) {
	ts := s.now().Format(items.TimeLayout)
	return s.mark(ctx, "written_off", batchID, startDate, keys, items.Patch{
		WrittenOff:   items.Flag(true),
		WrittenOffAt: &ts,
	})
}

func (s *Service) mark(ctx context.Context, action, batchID, startDate string, keys []string, p items.Patch) (ActionResult, error) {
	var res ActionResult
	keys = dedupe(keys)
	if len(keys) == 0 {
		return res, ErrNoKeys
	}

	found, err := s.items.Query(ctx, items.ByKeys(keys...))
	if err != nil {
		return res, fmt.Errorf("%s: load keys: %w", action, err)
	}
	if len(found) < len(keys) {
		s.log.Warn("unknown row keys", "action", action, "given", len(keys), "found", len(found))
	}

	var touched []items.Item
	for _, it := range found {
		err := s.items.Update(ctx, it.MergeKey, p)
		if errors.Is(err, items.ErrNotFound) {
			s.log.Warn("row vanished before update", "action", action, "key", it.MergeKey)
			continue
		}
		if err != nil {
			return res, fmt.Errorf("%s %s: %w", action, it.MergeKey, err)
		}
		touched = append(touched, it)
	}
	res.Updated = len(touched)
	metrics.ItemsMarked.WithLabelValues(action).Add(float64(res.Updated))
	s.log.Debug("items marked", "action", action, "batch", batchID, "start_bft", startDate, "updated", res.Updated)

	// Keys may span several pairs or a different pair than the request named;
	// every pair an update touched gets its completion check.
	pairs, _ := groupPairs(touched)
	for _, pr := range pairs {
		closed, err := s.rec.RecordIfDone(ctx, pr.BatchID, pr.StartDate)
		if err != nil {
			return res, err
		}
		res.Closed = res.Closed || closed
	}
	return res, nil
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// loadAll reads every item and records closures for pairs found finished.
func (s *Service) loadAll(ctx context.Context) ([]items.Item, error) {
	its, err := s.items.Query(ctx, items.Filter{})
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	for _, p := range DonePairs(its) {
		if _, err := s.rec.RecordIfDone(ctx, p.BatchID, p.StartDate); err != nil {
			return nil, err
		}
	}
	return its, nil
}

func (s *Service) ProductionTiles(ctx context.Context) ([]ProductionTile, error) {
	its, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return BuildProductionTiles(its), nil
}

func (s *Service) LogisticsTiles(ctx context.Context) ([]LogisticsTile, error) {
	its, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return BuildLogisticsTiles(its), nil
}

func (s *Service) CombinedTiles(ctx context.Context) ([]CombinedTile, error) {
	its, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return BuildCombinedTiles(its), nil
}

// pairItems loads one batch, narrowed to a start date when one is given.
func (s *Service) pairItems(ctx context.Context, batchID, startDate string) ([]items.Item, error) {
	f := items.ByBatch(batchID)
	if startDate != "" {
		f = items.ByBatchDate(batchID, startDate)
	}
	its, err := s.items.Query(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("load batch %s: %w", batchID, err)
	}
	return its, nil
}

func (s *Service) ProductionDetail(ctx context.Context, batchID, startDate string) (ProductionDetail, error) {
	its, err := s.pairItems(ctx, batchID, startDate)
	if err != nil {
		return ProductionDetail{}, err
	}
	return BuildProductionDetail(Pair{BatchID: batchID, StartDate: startDate}, its), nil
}

func (s *Service) LogisticsDetail(ctx context.Context, batchID, startDate string) (LogisticsDetail, error) {
	its, err := s.pairItems(ctx, batchID, startDate)
	if err != nil {
		return LogisticsDetail{}, err
	}
	return BuildLogisticsDetail(Pair{BatchID: batchID, StartDate: startDate}, its), nil
}

func (s *Service) Shortages(ctx context.Context) ([]Shortage, error) {
	its, err := s.items.Query(ctx, items.Filter{WrittenOff: items.Flag(true)})
	if err != nil {
		return nil, fmt.Errorf("load shortages: %w", err)
	}
	return BuildShortages(its), nil
}

func (s *Service) Closures(ctx context.Context) ([]closures.Closure, error) {
	return s.closures.List(ctx)
}

func (s *Service) ResetClosures(ctx context.Context) (int, error) {
	n, err := s.closures.Clear(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear closures: %w", err)
	}
	s.log.Info("closures cleared", "count", n)
	return n, nil
}
