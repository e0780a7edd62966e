// Package report runs the daily progress-report fan-out.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nhle/taskbot/internal/model"
	"github.com/nhle/taskbot/internal/stats"
	"github.com/nhle/taskbot/internal/store"
)

// runTimeout bounds one full fan-out pass.
const runTimeout = 5 * time.Minute

// Dispatcher delivers a finished report to a single recipient.
type Dispatcher interface {
	SendReport(ctx context.Context, userID int64, r model.Report) error
}

// Scheduler fires once a day at the configured wall-clock time and
// sends every known user their report. A failure for one recipient is
// logged and skipped; it never aborts the rest of the fan-out.
type Scheduler struct {
	store      store.Store
	agg        *stats.Aggregator
	dispatcher Dispatcher
	log        *slog.Logger

	hour   int
	minute int
	loc    *time.Location

	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        sync.Mutex
	running   bool
}

// New creates a Scheduler firing daily at hour:minute in loc. The same
// location is used by the aggregator's windows, so the trigger and the
// report agree on what "today" means.
func New(s store.Store, agg *stats.Aggregator, d Dispatcher, hour, minute int, loc *time.Location, log *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		store:      s,
		agg:        agg,
		dispatcher: d,
		log:        log,
		hour:       hour,
		minute:     minute,
		loc:        loc,
		triggerCh:  make(chan struct{}, 1),
		stopCh:     make(chan struct{}),
	}
}

// Start launches the scheduling loop in a goroutine. Starting twice is
// a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	go s.loop()
}

// Stop halts the scheduling loop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
}

// Trigger forces an immediate fan-out without waiting for the next
// scheduled time.
func (s *Scheduler) Trigger() {
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

// loop sleeps until the next firing time, runs the fan-out, and
// repeats. RunOnce errors are logged; the loop survives them.
func (s *Scheduler) loop() {
	for {
		timer := time.NewTimer(time.Until(s.nextRun(time.Now())))

		select {
		case <-s.stopCh:
			timer.Stop()
			return
		case <-s.triggerCh:
			timer.Stop()
		case <-timer.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		if err := s.RunOnce(ctx); err != nil {
			s.log.Error("daily report run failed", "error", err)
		}
		cancel()
	}
}

// nextRun returns the next occurrence of the configured wall-clock time
// strictly after now, evaluated in the scheduler's location.
func (s *Scheduler) nextRun(now time.Time) time.Time {
	now = now.In(s.loc)
	target := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, s.loc)
	if !target.After(now) {
		target = target.AddDate(0, 0, 1)
	}
	return target
}

// RunOnce builds and dispatches a report for every known user. Each
// recipient is isolated: a build or send failure is logged and the
// fan-out continues.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	userIDs, err := s.store.DistinctUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("enumerating report recipients: %w", err)
	}

	now := time.Now()
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return err
		}

		r, err := s.agg.BuildReport(ctx, userID, now)
		if err != nil {
			s.log.Warn("skipping recipient, report build failed",
				"user_id", userID, "error", err)
			continue
		}

		if err := s.dispatcher.SendReport(ctx, userID, r); err != nil {
			s.log.Warn("skipping recipient, dispatch failed",
				"user_id", userID, "error", err)
			continue
		}

		// Advisory audit trail only; a save failure is not a delivery
		// failure.
		state, err := s.store.LoadSessionState(ctx, userID)
		if err == nil {
			state[model.StateKeyLastAction] = "daily_report"
			err = s.store.SaveSessionState(ctx, userID, state)
		}
		if err != nil {
			s.log.Warn("session state update failed after report",
				"user_id", userID, "error", err)
		}
	}

	return nil
}
