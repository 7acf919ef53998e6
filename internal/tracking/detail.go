package tracking

import (
	"sort"
	"strings"

	"github.com/prodlog/voe-tracker/internal/domain/items"
)

// Carrier aggregates a set of bundles that leave together.
type Carrier struct {
	Quantity       int64    `json:"quantity"`
	RowKeys        []string `json:"row_keys"`
	ProdIDs        []string `json:"prod_ids"`
	DeliveryTarget string   `json:"delivery_target,omitempty"`
	Delivered      bool     `json:"delivered"`
	DeliveredAt    string   `json:"delivered_at,omitempty"`
}

type ProductionDetail struct {
	Pair
	Status  Progress `json:"status"`
	Bundles []Bundle `json:"bundles"`
}

func BuildProductionDetail(p Pair, its []items.Item) ProductionDetail {
	bs := GroupBundles(Split(its).Production, isProduced)
	return ProductionDetail{Pair: p, Status: BundleStatus(bs), Bundles: bs}
}

type LogisticsDetail struct {
	Pair
	Status            LogisticsStatus `json:"status"`
	ProductionDone    bool            `json:"production_done"`
	Bundles           []Bundle        `json:"bundles"`
	ProductionCarrier *Carrier        `json:"production_carrier,omitempty"`
	LogisticsCarrier  *Carrier        `json:"logistics_carrier,omitempty"`
}

func BuildLogisticsDetail(p Pair, its []items.Item) LogisticsDetail {
	s := Split(its)
	e := Evaluate(its)
	d := LogisticsDetail{
		Pair:           p,
		Status:         e.LogisticsStatus(),
		ProductionDone: e.ProductionDone,
		Bundles:        GroupBundles(s.Logistics, isPicked),
	}

	if len(s.Production) > 0 {
		c := &Carrier{
			Quantity:  TotalQuantity(s.Production),
			RowKeys:   mergeKeys(s.Production),
			ProdIDs:   prodIDs(s.Production),
			Delivered: allOf(s.Production, isDelivered),
		}
		for _, it := range s.Production {
			if c.DeliveryTarget == "" {
				c.DeliveryTarget = it.DeliveryTarget
			}
			if c.DeliveredAt == "" {
				c.DeliveredAt = it.DeliveredAt
			}
		}
		d.ProductionCarrier = c
	}

	if len(d.Bundles) > 0 {
		allPicked, allDelivered := true, true
		for _, b := range d.Bundles {
			allPicked = allPicked && (b.Picked || b.Delivered)
			allDelivered = allDelivered && b.Delivered
		}
		if allPicked && !allDelivered {
			d.LogisticsCarrier = &Carrier{
				Quantity: TotalQuantity(s.Logistics),
				RowKeys:  mergeKeys(s.Logistics),
				ProdIDs:  prodIDs(s.Logistics),
			}
		}
	}
	return d
}

// Shortage is one written-off item.
type Shortage struct {
	BatchID      string  `json:"batch"`
	StartDate    string  `json:"start_bft"`
	ArticleID    string  `json:"article_id"`
	ArticleCode  string  `json:"article_code"`
	Diameter     float64 `json:"diameter"`
	Length       float64 `json:"length"`
	BendType     string  `json:"bend_type"`
	MergeKey     string  `json:"merge_key"`
	Quantity     int64   `json:"quantity"`
	ProdID       string  `json:"prod_id"`
	WrittenOffAt string  `json:"written_off_at"`
}

func BuildShortages(its []items.Item) []Shortage {
	var out []Shortage
	for _, it := range its {
		if !it.WrittenOff {
			continue
		}
		out = append(out, Shortage{
			BatchID:      it.BatchID,
			StartDate:    it.StartDate,
			ArticleID:    it.ArticleID,
			ArticleCode:  strings.TrimSpace(it.ArticleCode),
			Diameter:     normFloat(it.Diameter),
			Length:       normFloat(it.Length),
			BendType:     normBend(it.BendType),
			MergeKey:     it.MergeKey,
			Quantity:     demand(it.Quantity).IntPart(),
			ProdID:       it.ProdID,
			WrittenOffAt: it.WrittenOffAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.BatchID != b.BatchID {
			return a.BatchID < b.BatchID
		}
		if a.StartDate != b.StartDate {
			return a.StartDate < b.StartDate
		}
		return a.MergeKey < b.MergeKey
	})
	return out
}

func mergeKeys(its []items.Item) []string {
	set := map[string]struct{}{}
	for _, it := range its {
		set[it.MergeKey] = struct{}{}
	}
	return sortedSet(set)
}

func prodIDs(its []items.Item) []string {
	set := map[string]struct{}{}
	for _, it := range its {
		if it.ProdID != "" {
			set[it.ProdID] = struct{}{}
		}
	}
	return sortedSet(set)
}
