package tracking

import "github.com/prodlog/voe-tracker/internal/domain/items"

// Evaluation holds the completion predicates of one (batch, start date).
// Universal predicates over an empty subset are true.
type Evaluation struct {
	HasProduction bool `json:"has_production"`
	HasLogistics  bool `json:"has_logistics"`

	ProductionDone     bool `json:"production_done"`
	ProductionSomeDone bool `json:"production_some_done"`

	LogisticsAllPicked  bool `json:"logistics_all_picked"`
	LogisticsSomePicked bool `json:"logistics_some_picked"`
	// LogisticsHandled counts a delivered item as picked.
	LogisticsHandled bool `json:"logistics_handled"`

	ProductionDelivered bool `json:"production_delivered"`
	LogisticsDelivered  bool `json:"logistics_delivered"`

	// BatchDone requires at least one active item, production done and every
	// active item delivered.
	BatchDone bool `json:"batch_done"`
}

func Evaluate(its []items.Item) Evaluation {
	s := Split(its)
	e := Evaluation{
		HasProduction:       len(s.Production) > 0,
		HasLogistics:        len(s.Logistics) > 0,
		ProductionDone:      allOf(s.Production, isProduced),
		ProductionSomeDone:  anyOf(s.Production, isProduced),
		LogisticsAllPicked:  allOf(s.Logistics, isPicked),
		LogisticsSomePicked: anyOf(s.Logistics, isPicked),
		LogisticsHandled:    allOf(s.Logistics, isPickedOrDelivered),
		ProductionDelivered: allOf(s.Production, isDelivered),
		LogisticsDelivered:  allOf(s.Logistics, isDelivered),
	}
	e.BatchDone = !s.Empty() && e.ProductionDone && e.ProductionDelivered && e.LogisticsDelivered
	return e
}

func isDelivered(it items.Item) bool { return it.Delivered }

func isPickedOrDelivered(it items.Item) bool { return it.Picked || it.Delivered }

func allOf(its []items.Item, pred func(items.Item) bool) bool {
	for _, it := range its {
		if !pred(it) {
			return false
		}
	}
	return true
}

func anyOf(its []items.Item, pred func(items.Item) bool) bool {
	for _, it := range its {
		if pred(it) {
			return true
		}
	}
	return false
}

// LogisticsStatus classifies a logistics tile.
type LogisticsStatus string

const (
	LogisticsPending            LogisticsStatus = "pending"
	LogisticsInProgress         LogisticsStatus = "in_progress"
	LogisticsAwaitingProduction LogisticsStatus = "awaiting_production"
	LogisticsReady              LogisticsStatus = "ready"
)

// LogisticsStatus evaluates in priority order; the first match wins.
func (e Evaluation) LogisticsStatus() LogisticsStatus {
	switch {
	case !e.LogisticsSomePicked:
		return LogisticsPending
	case !e.LogisticsAllPicked:
		return LogisticsInProgress
	case !e.ProductionDone:
		return LogisticsAwaitingProduction
	default:
		return LogisticsReady
	}
}

func (s LogisticsStatus) Icon() string {
	switch s {
	case LogisticsInProgress:
		return "🛠"
	case LogisticsAwaitingProduction:
		return "📦"
	case LogisticsReady:
		return "✅"
	default:
		return "⏳"
	}
}

// CombinedStatus classifies a tile on the dashboard spanning both workflows.
type CombinedStatus string

const (
	CombinedComplete           CombinedStatus = "complete"
	CombinedAwaitingDelivery   CombinedStatus = "awaiting_delivery"
	CombinedLogisticsMustWork  CombinedStatus = "logistics_must_work"
	CombinedAwaitingProduction CombinedStatus = "awaiting_production"
	CombinedOpen               CombinedStatus = "open"
)

func (e Evaluation) CombinedStatus() CombinedStatus {
	switch {
	case e.BatchDone:
		return CombinedComplete
	case e.ProductionDone && e.LogisticsHandled:
		return CombinedAwaitingDelivery
	case e.ProductionDone:
		return CombinedLogisticsMustWork
	case e.LogisticsHandled:
		return CombinedAwaitingProduction
	default:
		return CombinedOpen
	}
}

func (s CombinedStatus) Icon() string {
	switch s {
	case CombinedComplete:
		return "✅"
	case CombinedAwaitingDelivery:
		return "🚚"
	case CombinedLogisticsMustWork:
		return "🛠"
	case CombinedAwaitingProduction:
		return "📦"
	default:
		return "⏳"
	}
}
