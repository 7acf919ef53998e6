package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prodlog/voe-tracker/internal/infra/metrics"
	"github.com/prodlog/voe-tracker/internal/infra/notify"
)

const modeDaily = "daily"

// RunResult is reported back to whoever triggered the daily export.
type RunResult struct {
	Status   string `json:"status"`
	Rows     int    `json:"rows"`
	Notified bool   `json:"notified"`
	Deleted  int    `json:"deleted"`
}

const (
	StatusEmpty      = "nothing_to_export"
	StatusSent       = "sent"
	StatusNotifyFail = "notify_failed"
	StatusDisabled   = "notify_disabled"
)

// DailyJob sends the completed-items workbook and clears what was sent.
type DailyJob struct {
	asm      *Assembler
	notifier notify.Notifier
	log      *slog.Logger
}

func NewDailyJob(asm *Assembler, n notify.Notifier, log *slog.Logger) *DailyJob {
	return &DailyJob{asm: asm, notifier: n, log: log}
}

// Run exports and notifies. A notification failure, or a disabled channel, is
// logged and reported in the result but never returned; the items stay for the
// next run.
func (j *DailyJob) Run(ctx context.Context) (RunResult, error) {
	day := j.asm.today()
	deliver := func(ctx context.Context, f File) error {
		return j.notifier.Notify(ctx, notify.Message{
			Subject:  fmt.Sprintf("VOE Tagesabschluss %s", day),
			Body:     "Anbei der Tagesabschluss der VOE-Kommissionierung.",
			FileName: f.Name,
			Data:     f.Data,
		})
	}

	res, err := j.asm.Completed(ctx, deliver)
	switch {
	case errors.Is(err, notify.ErrDisabled):
		metrics.ExportRuns.WithLabelValues(modeDaily, "disabled").Inc()
		j.log.Warn("daily export skipped, no notification channel, items kept", "rows", res.File.Rows)
		return RunResult{Status: StatusDisabled, Rows: res.File.Rows}, nil
	case errors.Is(err, ErrNotDelivered):
		metrics.ExportRuns.WithLabelValues(modeDaily, "notify_failed").Inc()
		j.log.Error("daily export not delivered, items kept", "rows", res.File.Rows, "err", err)
		return RunResult{Status: StatusNotifyFail, Rows: res.File.Rows}, nil
	case err != nil:
		metrics.ExportRuns.WithLabelValues(modeDaily, "error").Inc()
		return RunResult{}, err
	case res.File.Rows == 0:
		metrics.ExportRuns.WithLabelValues(modeDaily, "empty").Inc()
		j.log.Info("daily export: nothing to export")
		return RunResult{Status: StatusEmpty}, nil
	}

	metrics.ExportRuns.WithLabelValues(modeDaily, "ok").Inc()
	metrics.ExportedRows.WithLabelValues(modeDaily).Add(float64(res.File.Rows))
	j.log.Info("daily export sent", "file", res.File.Name, "rows", res.File.Rows, "deleted", res.Deleted)
	return RunResult{Status: StatusSent, Rows: res.File.Rows, Notified: true, Deleted: res.Deleted}, nil
}

// Tick adapts Run to the scheduler's job signature.
func (j *DailyJob) Tick(ctx context.Context) error {
	_, err := j.Run(ctx)
	return err
}
