package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"TickerLens/internal/dashboard"
	"TickerLens/internal/logger"
	"TickerLens/internal/notifier"
)

// Sweeper drops expired cache entries and reports how many were removed.
type Sweeper interface {
	Sweep() int
}

// Notifier delivers a message to the configured chat.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// ReportBuilder builds one dashboard report.
type ReportBuilder interface {
	Build(ctx context.Context, req dashboard.Request) (*dashboard.Report, error)
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Cache     Sweeper
	Reports   ReportBuilder
	Notifier  Notifier
	Watchlist []string
	Days      int
	Ctx       context.Context

	logger zerolog.Logger
}

// NewScheduler creates a new Scheduler. cache and tn may be nil; the jobs that
// need them are then not registered.
func NewScheduler(ctx context.Context, reports ReportBuilder, cache Sweeper, tn Notifier, watchlist []string, days int) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Cache:     cache,
		Reports:   reports,
		Notifier:  tn,
		Watchlist: watchlist,
		Days:      days,
		Ctx:       ctx,
		logger:    logger.Component("scheduler"),
	}
}

// RegisterAll registers the cache sweep and watchlist digest tasks. An empty
// expression disables the task.
func (s *Scheduler) RegisterAll(sweepCron, digestCron string) error {
	if sweepCron != "" && s.Cache != nil {
		if _, err := s.Cron.AddFunc(sweepCron, s.sweepTask); err != nil {
			return fmt.Errorf("register cache sweep task: %w", err)
		}
	}
	if digestCron != "" && s.Notifier != nil && len(s.Watchlist) > 0 {
		if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
			return fmt.Errorf("register digest task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// RunDigestNow executes the digest task immediately.
func (s *Scheduler) RunDigestNow() {
	s.digestTask()
}

func (s *Scheduler) sweepTask() {
	n := s.Cache.Sweep()
	s.logger.Debug().Int("removed", n).Msg("cache swept")
}

// digestTask sends one report per watchlist symbol. A failing symbol is
// reported in its own message and does not stop the rest.
func (s *Scheduler) digestTask() {
	s.logger.Info().Strs("symbols", s.Watchlist).Msg("running watchlist digest")
	for _, symbol := range s.Watchlist {
		if s.Ctx.Err() != nil {
			return
		}
		ctx, cancel := context.WithTimeout(s.Ctx, time.Minute)
		report, err := s.Reports.Build(ctx, dashboard.Request{Symbol: symbol, Days: s.Days})
		var text string
		if err != nil {
			s.logger.Error().Str("symbol", symbol).Err(err).Msg("digest build failed")
			text = notifier.FormatError(symbol, err)
		} else {
			text = notifier.FormatAnalysisReport(report)
		}
		s.trySend(ctx, text)
		cancel()
	}
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if err := s.Notifier.Notify(ctx, text); err != nil {
		s.logger.Error().Err(err).Msg("telegram send failed")
	}
}
