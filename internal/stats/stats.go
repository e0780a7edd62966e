// Package stats computes completion statistics over a user's full task
// history.
package stats

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/nhle/taskbot/internal/model"
	"github.com/nhle/taskbot/internal/store"
)

// timestampLayouts are the accepted stored timestamp forms. The first
// covers everything this store and the pre-Go deployment ever wrote
// (the fractional part is optional); RFC3339 tolerates imports from
// zone-suffixed sources.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999",
	time.RFC3339,
}

// Build computes a report over tasks as of now.
//
// Window starts are midnights in loc: today's, and Monday's on or
// before it (ISO week). A done task falls in a window when its
// completion timestamp is at or after the window start; rows without a
// completed_at fall back to created_date, and rows whose timestamp
// cannot be parsed are excluded from window counts while still counting
// toward the totals.
//
// Build is pure: it reads nothing but its arguments.
func Build(tasks []model.Task, now time.Time, loc *time.Location) model.Report {
	nowLocal := now.In(loc)
	todayStart := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, loc)
	weekStart := todayStart.AddDate(0, 0, -mondayOffset(todayStart.Weekday()))

	r := model.Report{
		Total:      len(tasks),
		TodayStart: todayStart,
		WeekStart:  weekStart,
	}

	for _, t := range tasks {
		if !t.Done() {
			continue
		}
		r.DoneTotal++

		ts, ok := completionTime(t, loc)
		if !ok {
			continue
		}
		if !ts.Before(todayStart) {
			r.DoneToday++
		}
		if !ts.Before(weekStart) {
			r.DoneWeek++
		}
	}

	r.ActiveTotal = r.Total - r.DoneTotal

	// All three share the total denominator: the windowed percentages
	// measure the share of all-time work completed recently.
	if r.Total > 0 {
		r.PercentTotal = percent(r.DoneTotal, r.Total)
		r.PercentToday = percent(r.DoneToday, r.Total)
		r.PercentWeek = percent(r.DoneWeek, r.Total)
	}

	return r
}

// completionTime resolves when a done task was completed, preferring
// the dedicated completed_at column over the legacy created_date.
func completionTime(t model.Task, loc *time.Location) (time.Time, bool) {
	if t.CompletedAt != nil && *t.CompletedAt != "" {
		return parseTimestamp(*t.CompletedAt, loc)
	}
	if t.CreatedDate != "" {
		return parseTimestamp(t.CreatedDate, loc)
	}
	return time.Time{}, false
}

// parseTimestamp parses a stored timestamp. Forms without a zone suffix
// are taken as UTC, matching how they were written.
func parseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.In(loc), true
		}
	}
	return time.Time{}, false
}

// mondayOffset returns how many days back the ISO week started.
func mondayOffset(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// percent returns part/whole as a percentage rounded to one decimal.
func percent(part, whole int) float64 {
	return math.Round(float64(part)/float64(whole)*1000) / 10
}

// Aggregator builds reports by reading a user's tasks from the store.
type Aggregator struct {
	store store.Store
	loc   *time.Location
}

// NewAggregator creates an Aggregator that evaluates windows in loc.
func NewAggregator(s store.Store, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{store: s, loc: loc}
}

// BuildReport reads the user's task history and aggregates it as of
// now. It has no side effects of its own; callers persist any audit
// trail.
func (a *Aggregator) BuildReport(ctx context.Context, userID int64, now time.Time) (model.Report, error) {
	tasks, err := a.store.ListTasks(ctx, userID)
	if err != nil {
		return model.Report{}, fmt.Errorf("building report for user %d: %w", userID, err)
	}
	return Build(tasks, now, a.loc), nil
}
