// Package scheduler fires a job once a day at a fixed wall-clock time.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type Job func(ctx context.Context) error

type Daily struct {
	hour, minute int
	loc          *time.Location
	job          Job
	log          *slog.Logger

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// NewDaily parses at as "HH:MM" in loc (UTC when nil).
func NewDaily(at string, loc *time.Location, job Job, log *slog.Logger) (*Daily, error) {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return nil, fmt.Errorf("daily time %q: %w", at, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Daily{
		hour:   t.Hour(),
		minute: t.Minute(),
		loc:    loc,
		job:    job,
		log:    log,
		now:    time.Now,
		after:  time.After,
	}, nil
}

// Next returns the first trigger time strictly after now.
func (d *Daily) Next(now time.Time) time.Time {
	local := now.In(d.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), d.hour, d.minute, 0, 0, d.loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, d.hour, d.minute, 0, 0, d.loc)
	}
	return next
}

// Run blocks until ctx is done, running the job at every trigger time. Job
// errors are logged and do not stop the loop.
func (d *Daily) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		now := d.now()
		next := d.Next(now)
		d.log.Debug("next daily run", "at", next.Format(time.RFC3339))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.after(next.Sub(now)):
		}

		if err := d.job(ctx); err != nil {
			d.log.Error("daily job failed", "err", err)
			continue
		}
		d.log.Info("daily job done")
	}
}
