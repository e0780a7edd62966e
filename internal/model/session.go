package model

// SessionState is the per-user advisory state bag persisted after every
// interaction. It has no enforced schema; consumers must tolerate
// missing keys, and its loss must never fail the operation it
// accompanies.
type SessionState map[string]any

// Well-known session state keys. Writers are free to add others.
const (
	StateKeyLastAction       = "last_action"
	StateKeyLastAdded        = "last_added"
	StateKeyLastDoneIndex    = "last_done_index"
	StateKeyLastSkippedIndex = "last_skipped_index"
	StateKeyLastTaskID       = "last_task_id"
)
