// Package scheduler runs the periodic background work: writing the
// iCalendar export and refreshing the preview screenshot.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"custodycal/internal/atomicfile"
	"custodycal/internal/capture"
	"custodycal/internal/config"
	"custodycal/internal/custody"
	"custodycal/internal/ics"
	appLog "custodycal/internal/log"
	"custodycal/internal/model"
)

// Scheduler owns the refresh job.
type Scheduler struct {
	cfg    *config.Config
	family model.Family
	loc    *time.Location

	now     func() time.Time
	capture func(context.Context, capture.Options) error
}

func New(cfg *config.Config, family model.Family) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		family:  family,
		loc:     cfg.Location(),
		now:     time.Now,
		capture: capture.PNG,
	}
}

// RunOnce performs one refresh. Both steps are attempted; their errors are
// joined.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	var errs []error
	if s.cfg.Export.Path != "" {
		if err := s.writeExport(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.cfg.Capture.URL != "" {
		start := time.Now()
		if err := s.capture(ctx, capture.OptionsFrom(s.cfg.Capture)); err != nil {
			errs = append(errs, err)
		} else {
			appLog.Info("preview captured", "output", s.cfg.Capture.Output, "duration_ms", time.Since(start).Milliseconds())
		}
	}
	return errors.Join(errs...)
}

// Run refreshes once immediately, then on every tick of the refresh cron
// spec until ctx is cancelled. Job errors are logged, never returned.
func (s *Scheduler) Run(ctx context.Context) error {
	spec := s.cfg.RefreshCron
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("scheduler: invalid refresh spec %q: %w", spec, err)
	}

	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	job := func() {
		if err := s.RunOnce(ctx); err != nil {
			appLog.Error("refresh failed", err)
		}
	}
	if _, err := c.AddFunc(spec, job); err != nil {
		return fmt.Errorf("scheduler: add job: %w", err)
	}

	job()
	c.Start()
	appLog.Info("scheduler started", "refresh", spec, "timezone", s.loc.String())

	<-ctx.Done()
	// Wait for a running job to finish.
	<-c.Stop().Done()
	appLog.Info("scheduler stopped")
	return nil
}

// writeExport renders export.months months starting with the current one.
func (s *Scheduler) writeExport() error {
	now := s.now().In(s.loc)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	months := s.cfg.Export.Months
	if months <= 0 {
		months = 1
	}
	from := model.StartOfDay(first, s.loc)
	until := model.StartOfDay(first.AddDate(0, months, -1), s.loc)

	events := custody.Generate(from, until, s.family)
	out := ics.ExportEvents(events, ics.ExportOptions{Name: "Custody calendar", Stamp: now})
	if err := atomicfile.WriteFile(s.cfg.Export.Path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("scheduler: write export: %w", err)
	}
	appLog.Info("calendar exported",
		"path", s.cfg.Export.Path,
		"from", from.Format(time.DateOnly),
		"until", until.Format(time.DateOnly),
		"events", len(events),
	)
	return nil
}

// cronLogger adapts cron's logr-style interface to the app logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	appLog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	appLog.Error("cron: "+msg, err, keysAndValues...)
}
