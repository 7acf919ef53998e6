package tracking

import (
	"math"
	"sort"
	"strings"

	"github.com/prodlog/voe-tracker/internal/domain/items"
)

// UnknownBend replaces a missing bend type in bundle keys.
const UnknownBend = "unknown"

// Bundle is a group of items sharing article, dimensions, bend type and start
// date. It is derived on every read and never stored.
type Bundle struct {
	ArticleCode string   `json:"article_code"`
	ArticleID   string   `json:"article_id"`
	Diameter    float64  `json:"diameter"`
	Length      float64  `json:"length"`
	BendType    string   `json:"bend_type"`
	StartDate   string   `json:"start_bft"`
	Quantity    int64    `json:"quantity"`
	ProdIDs     []string `json:"prod_ids"`
	RowKeys     []string `json:"row_keys"`
	Items       int      `json:"items"`

	// Done is the AND of the grouping predicate over all members.
	Done      bool `json:"done"`
	DoneCount int  `json:"done_count"`

	Picked    bool `json:"picked"`
	Delivered bool `json:"delivered"`
	InStock   bool `json:"in_stock"`
	Backorder bool `json:"backorder"`
}

type bundleKey struct {
	article  string
	diameter float64
	length   float64
	bend     string
	date     string
}

func normFloat(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func normBend(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return UnknownBend
	}
	return s
}

func keyOf(it items.Item) bundleKey {
	return bundleKey{
		article:  strings.TrimSpace(it.ArticleCode),
		diameter: normFloat(it.Diameter),
		length:   normFloat(it.Length),
		bend:     normBend(it.BendType),
		date:     strings.TrimSpace(it.StartDate),
	}
}

// GroupBundles groups its into bundles, ordered by diameter then length.
// done decides per item whether it counts as completed for the bundle.
func GroupBundles(its []items.Item, done func(items.Item) bool) []Bundle {
	type acc struct {
		b       Bundle
		prodIDs map[string]struct{}
		keys    map[string]struct{}
	}
	groups := map[bundleKey]*acc{}
	var order []bundleKey

	for _, it := range its {
		k := keyOf(it)
		g, ok := groups[k]
		if !ok {
			g = &acc{
				b: Bundle{
					ArticleCode: k.article,
					ArticleID:   it.ArticleID,
					Diameter:    k.diameter,
					Length:      k.length,
					BendType:    k.bend,
					StartDate:   k.date,
					Done:        true,
					Picked:      true,
					Delivered:   true,
					InStock:     true,
				},
				prodIDs: map[string]struct{}{},
				keys:    map[string]struct{}{},
			}
			groups[k] = g
			order = append(order, k)
		}

		g.b.Items++
		g.b.Quantity += demand(it.Quantity).IntPart()
		if it.ProdID != "" {
			g.prodIDs[it.ProdID] = struct{}{}
		}
		g.keys[it.MergeKey] = struct{}{}

		if done(it) {
			g.b.DoneCount++
		} else {
			g.b.Done = false
		}
		g.b.Picked = g.b.Picked && it.Picked
		g.b.Delivered = g.b.Delivered && it.Delivered
		ref := strings.TrimSpace(it.Reference)
		g.b.InStock = g.b.InStock && ref == items.RefInStock
		g.b.Backorder = g.b.Backorder || ref == items.RefBackorder
	}

	out := make([]Bundle, 0, len(order))
	for _, k := range order {
		g := groups[k]
		g.b.ProdIDs = sortedSet(g.prodIDs)
		g.b.RowKeys = sortedSet(g.keys)
		out = append(out, g.b)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Diameter != b.Diameter {
			return a.Diameter < b.Diameter
		}
		if a.Length != b.Length {
			return a.Length < b.Length
		}
		if a.ArticleCode != b.ArticleCode {
			return a.ArticleCode < b.ArticleCode
		}
		if a.BendType != b.BendType {
			return a.BendType < b.BendType
		}
		return a.StartDate < b.StartDate
	})
	return out
}

func sortedSet(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Progress is the three-valued completion state of a set of bundles.
type Progress string

const (
	ProgressOpen    Progress = "open"
	ProgressPartial Progress = "partial"
	ProgressDone    Progress = "done"
)

func progressOf(done, total int) Progress {
	switch {
	case done == 0:
		return ProgressOpen
	case done == total:
		return ProgressDone
	default:
		return ProgressPartial
	}
}

// BundleStatus counts completed bundles: none → open, all → done, else partial.
func BundleStatus(bs []Bundle) Progress {
	return progressOf(countDone(bs), len(bs))
}

func countDone(bs []Bundle) int {
	n := 0
	for _, b := range bs {
		if b.Done {
			n++
		}
	}
	return n
}

func (p Progress) Icon() string {
	switch p {
	case ProgressDone:
		return "✔"
	case ProgressPartial:
		return "🛠"
	default:
		return "⏳"
	}
}

func isProduced(it items.Item) bool { return it.Produced }
func isPicked(it items.Item) bool   { return it.Picked }
