package model

import "time"

// Report is the result of aggregating one user's full task history at a
// point in time.
//
// All three percentages use Total as the denominator: PercentToday and
// PercentWeek measure the fraction of all-time work completed within
// the window, not the completion rate of the window itself.
type Report struct {
	Total       int `json:"total"`
	DoneTotal   int `json:"done_total"`
	ActiveTotal int `json:"active_total"`
	DoneToday   int `json:"done_today"`
	DoneWeek    int `json:"done_week"`

	PercentTotal float64 `json:"percent_total"`
	PercentToday float64 `json:"percent_today"`
	PercentWeek  float64 `json:"percent_week"`

	TodayStart time.Time `json:"today_start"`
	WeekStart  time.Time `json:"week_start"`
}
