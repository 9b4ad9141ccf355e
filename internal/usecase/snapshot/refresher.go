// Package snapshot keeps the portfolio cache warm so reads have something
// recent to fall back on when the ledger goes away.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type Refresher interface {
	Refresh(ctx context.Context, party string) error
}

type PartySource interface {
	Parties(ctx context.Context) ([]string, error)
}

type Scheduler struct {
	refresher Refresher
	parties   PartySource
	log       *logrus.Entry
	timeout   time.Duration
	cron      *cron.Cron
}

func NewScheduler(r Refresher, p PartySource, log *logrus.Entry) *Scheduler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Scheduler{refresher: r, parties: p, log: log.WithField("component", "snapshot"), timeout: 30 * time.Second}
}

// RunOnce refreshes every tracked party. A failing party does not stop the
// others; the joined errors are returned.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	parties, err := s.parties.Parties(ctx)
	if err != nil {
		return 0, fmt.Errorf("list parties: %w", err)
	}
	var (
		ok   int
		errs []error
	)
	for _, p := range parties {
		if err := s.refresher.Refresh(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		ok++
	}
	return ok, errors.Join(errs...)
}

// Start schedules RunOnce on spec (standard cron syntax or descriptors such
// as "@every 1m"). Overlapping runs are skipped.
func (s *Scheduler) Start(spec string) error {
	logger := cron.PrintfLogger(s.log)
	c := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	if _, err := c.AddFunc(spec, s.tick); err != nil {
		return fmt.Errorf("snapshot schedule %q: %w", spec, err)
	}
	s.cron = c
	c.Start()
	s.log.WithField("spec", spec).Info("snapshot refresher started")
	return nil
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	n, err := s.RunOnce(ctx)
	entry := s.log.WithField("refreshed", n)
	if err != nil {
		entry.WithError(err).Warn("snapshot refresh incomplete")
		return
	}
	entry.Debug("snapshot refresh done")
}

// Stop halts the schedule and returns a context done when a running refresh
// has finished.
func (s *Scheduler) Stop() context.Context {
	if s.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return s.cron.Stop()
}
