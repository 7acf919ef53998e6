package tracking

import (
	"sort"

	"github.com/prodlog/voe-tracker/internal/domain/items"
)

// Pair identifies one batch on one production start date.
type Pair struct {
	BatchID   string `json:"batch"`
	StartDate string `json:"start_bft"`
}

// groupPairs buckets its by pair, sorted by batch then start date. Items with
// an empty batch id are ignored.
func groupPairs(its []items.Item) ([]Pair, map[Pair][]items.Item) {
	byPair := map[Pair][]items.Item{}
	for _, it := range its {
		if it.BatchID == "" {
			continue
		}
		p := Pair{BatchID: it.BatchID, StartDate: it.StartDate}
		byPair[p] = append(byPair[p], it)
	}
	pairs := make([]Pair, 0, len(byPair))
	for p := range byPair {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].BatchID != pairs[j].BatchID {
			return pairs[i].BatchID < pairs[j].BatchID
		}
		return pairs[i].StartDate < pairs[j].StartDate
	})
	return pairs, byPair
}

// DonePairs lists every pair whose batch is fully finished.
func DonePairs(its []items.Item) []Pair {
	pairs, byPair := groupPairs(its)
	var out []Pair
	for _, p := range pairs {
		if Evaluate(byPair[p]).BatchDone {
			out = append(out, p)
		}
	}
	return out
}

type ProductionTile struct {
	Pair
	Status Progress `json:"status"`
	Icon   string   `json:"icon"`
	Total  int      `json:"total"`
	Done   int      `json:"done"`
}

// BuildProductionTiles lists open pairs that contain production items.
func BuildProductionTiles(its []items.Item) []ProductionTile {
	pairs, byPair := groupPairs(its)
	var out []ProductionTile
	for _, p := range pairs {
		group := byPair[p]
		if Evaluate(group).BatchDone {
			continue
		}
		s := Split(group)
		if len(s.Production) == 0 {
			continue
		}
		bs := GroupBundles(s.Production, isProduced)
		status := BundleStatus(bs)
		out = append(out, ProductionTile{
			Pair:   p,
			Status: status,
			Icon:   status.Icon(),
			Total:  len(bs),
			Done:   countDone(bs),
		})
	}
	return out
}

type LogisticsTile struct {
	Pair
	Status         LogisticsStatus `json:"status"`
	Icon           string          `json:"icon"`
	Total          int             `json:"total"`
	Done           int             `json:"done"`
	ProductionDone bool            `json:"production_done"`
	// Backorder is a hint only; it never blocks completion.
	Backorder bool `json:"backorder"`
}

// BuildLogisticsTiles lists open pairs that contain logistics items.
func BuildLogisticsTiles(its []items.Item) []LogisticsTile {
	pairs, byPair := groupPairs(its)
	var out []LogisticsTile
	for _, p := range pairs {
		group := byPair[p]
		e := Evaluate(group)
		if e.BatchDone {
			continue
		}
		s := Split(group)
		if len(s.Logistics) == 0 {
			continue
		}
		bs := GroupBundles(s.Logistics, isPicked)
		backorder := false
		for _, b := range bs {
			backorder = backorder || b.Backorder
		}
		status := e.LogisticsStatus()
		out = append(out, LogisticsTile{
			Pair:           p,
			Status:         status,
			Icon:           status.Icon(),
			Total:          len(bs),
			Done:           countDone(bs),
			ProductionDone: e.ProductionDone,
			Backorder:      backorder,
		})
	}
	return out
}

type CombinedTile struct {
	Pair
	Status     CombinedStatus  `json:"status"`
	Icon       string          `json:"icon"`
	Production Progress        `json:"production"`
	Logistics  LogisticsStatus `json:"logistics"`
	Items      int             `json:"items"`
}

// BuildCombinedTiles covers every pair with at least one active item,
// finished pairs included so the complete state stays visible.
func BuildCombinedTiles(its []items.Item) []CombinedTile {
	pairs, byPair := groupPairs(its)
	var out []CombinedTile
	for _, p := range pairs {
		group := byPair[p]
		s := Split(group)
		if s.Empty() {
			continue
		}
		e := Evaluate(group)
		status := e.CombinedStatus()
		out = append(out, CombinedTile{
			Pair:       p,
			Status:     status,
			Icon:       status.Icon(),
			Production: BundleStatus(GroupBundles(s.Production, isProduced)),
			Logistics:  e.LogisticsStatus(),
			Items:      len(s.Production) + len(s.Logistics),
		})
	}
	return out
}
