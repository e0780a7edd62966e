package store

import (
	"context"
	"errors"

	"github.com/nhle/taskbot/internal/model"
)

// Sentinel errors returned by Store implementations. Callers classify
// them with errors.Is; anything else is a storage failure and should
// abort the in-flight interaction.
var (
	// ErrEmptyTaskName is returned when a task name is empty after
	// trimming whitespace.
	ErrEmptyTaskName = errors.New("task name must not be empty")

	// ErrNotFound is returned by id-addressed operations when no row
	// matches. Ordinal-addressed operations report misses through
	// their boolean result instead.
	ErrNotFound = errors.New("not found")
)

// Store defines the persistence interface for tasks and per-user
// session state.
//
// A task's ordinal is its 1-based position in the owner's tasks ordered
// by id ascending. Ordinals are never stored; every ordinal-addressed
// operation re-resolves against a fresh ordered read inside a single
// transaction, so callers must not cache ordinals across mutations.
type Store interface {
	// === Tasks ===

	// AddTask inserts a pending task and returns its assigned id.
	// The name is stored with surrounding whitespace trimmed;
	// an empty result yields ErrEmptyTaskName.
	AddTask(ctx context.Context, userID int64, name string) (int64, error)

	// ListTasks returns the user's tasks ordered by id ascending.
	// An empty slice is a valid result.
	ListTasks(ctx context.Context, userID int64) ([]model.Task, error)

	// MarkDoneByOrdinal marks the task at the given ordinal done and
	// stamps its completion time. It reports false, without error,
	// when the ordinal is out of range.
	MarkDoneByOrdinal(ctx context.Context, userID int64, ordinal int) (bool, error)

	// MarkDoneByID marks a task done by surrogate key and stamps its
	// completion time.
	MarkDoneByID(ctx context.Context, taskID int64) error

	// DeleteByOrdinal hard-deletes the task at the given ordinal. It
	// reports false, without error, when the ordinal is out of range.
	DeleteByOrdinal(ctx context.Context, userID int64, ordinal int) (bool, error)

	// DeleteByID hard-deletes a task by surrogate key.
	DeleteByID(ctx context.Context, taskID int64) error

	// GetTaskByID retrieves a single task, or ErrNotFound.
	GetTaskByID(ctx context.Context, taskID int64) (*model.Task, error)

	// DistinctUserIDs enumerates every user who has ever created a
	// task, in no particular order.
	DistinctUserIDs(ctx context.Context) ([]int64, error)

	// === Session state ===

	// LoadSessionState returns the user's state bag. A missing row or
	// an unparsable stored value yields an empty map and no error:
	// session state is advisory and must never fail the operation it
	// accompanies.
	LoadSessionState(ctx context.Context, userID int64) (model.SessionState, error)

	// SaveSessionState serializes and upserts the state bag,
	// replacing any previous value entirely.
	SaveSessionState(ctx context.Context, userID int64, state model.SessionState) error
}
