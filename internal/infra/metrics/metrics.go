package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ClosuresRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracker_closures_recorded_total",
		Help: "Daily closures written for finished batch/start-date pairs.",
	})

	ItemsMarked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_items_marked_total",
		Help: "Item flag updates by action.",
	}, []string{"action"})

	ItemsUploaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracker_items_uploaded_total",
		Help: "Items inserted from spreadsheet uploads.",
	})

	ExportRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_export_runs_total",
		Help: "Export runs by mode and result.",
	}, []string{"mode", "result"})

	ExportedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_exported_rows_total",
		Help: "Rows written to export workbooks by mode.",
	}, []string{"mode"})
)
