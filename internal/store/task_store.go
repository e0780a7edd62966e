package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/taskbot/internal/model"
)

// timestampLayout is the ISO-8601 form written to created_date and
// completed_at. It matches the persisted layout of the original
// deployment, which wrote naive UTC timestamps.
const timestampLayout = "2006-01-02T15:04:05.999999"

// FormatTimestamp renders t in the stored timestamp form (UTC, no zone
// suffix).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// AddTask inserts a pending task and returns its assigned id.
func (s *SQLiteStore) AddTask(ctx context.Context, userID int64, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrEmptyTaskName
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (user_id, name, status, created_date)
		VALUES (?, ?, ?, ?)`,
		userID, name, model.TaskStatusPending, FormatTimestamp(time.Now()),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting task for user %d: %w", userID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new task id: %w", err)
	}
	return id, nil
}

// ListTasks returns the user's tasks ordered by id ascending. The
// ordinal of a task is its position in this slice plus one.
func (s *SQLiteStore) ListTasks(ctx context.Context, userID int64) ([]model.Task, error) {
	var tasks []model.Task
	err := s.db.SelectContext(ctx, &tasks, `
		SELECT id, user_id, name, status, created_date, completed_at
		FROM tasks WHERE user_id = ? ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing tasks for user %d: %w", userID, err)
	}
	return tasks, nil
}

// MarkDoneByOrdinal re-resolves the ordinal against a fresh ordered
// read and marks the matching task done. The read and the update run in
// one transaction so two concurrent ordinal operations cannot observe
// different orderings.
func (s *SQLiteStore) MarkDoneByOrdinal(ctx context.Context, userID int64, ordinal int) (bool, error) {
	var found bool
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		taskID, ok, err := resolveOrdinal(ctx, tx, userID, ordinal)
		if err != nil || !ok {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE tasks SET status = ?, completed_at = ? WHERE id = ?",
			model.TaskStatusDone, FormatTimestamp(time.Now()), taskID,
		)
		if err != nil {
			return fmt.Errorf("marking task %d done: %w", taskID, err)
		}
		found = true
		return nil
	})
	return found, err
}

// MarkDoneByID marks a task done by surrogate key.
func (s *SQLiteStore) MarkDoneByID(ctx context.Context, taskID int64) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET status = ?, completed_at = ? WHERE id = ?",
		model.TaskStatusDone, FormatTimestamp(time.Now()), taskID,
	)
	if err != nil {
		return fmt.Errorf("marking task %d done: %w", taskID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %d: %w", taskID, ErrNotFound)
	}
	return nil
}

// DeleteByOrdinal re-resolves the ordinal and hard-deletes the matching
// task in the same transaction. Later ordinals shift down by one on the
// next read.
func (s *SQLiteStore) DeleteByOrdinal(ctx context.Context, userID int64, ordinal int) (bool, error) {
	var found bool
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		taskID, ok, err := resolveOrdinal(ctx, tx, userID, ordinal)
		if err != nil || !ok {
			return err
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", taskID)
		if err != nil {
			return fmt.Errorf("deleting task %d: %w", taskID, err)
		}
		found = true
		return nil
	})
	return found, err
}

// DeleteByID hard-deletes a task by surrogate key.
func (s *SQLiteStore) DeleteByID(ctx context.Context, taskID int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", taskID)
	if err != nil {
		return fmt.Errorf("deleting task %d: %w", taskID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %d: %w", taskID, ErrNotFound)
	}
	return nil
}

// GetTaskByID retrieves a single task by its id.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, taskID int64) (*model.Task, error) {
	var task model.Task
	err := s.db.GetContext(ctx, &task, `
		SELECT id, user_id, name, status, created_date, completed_at
		FROM tasks WHERE id = ?`,
		taskID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %d: %w", taskID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %d: %w", taskID, err)
	}
	return &task, nil
}

// DistinctUserIDs enumerates every user who has ever created a task.
func (s *SQLiteStore) DistinctUserIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids, "SELECT DISTINCT user_id FROM tasks")
	if err != nil {
		return nil, fmt.Errorf("listing user ids: %w", err)
	}
	return ids, nil
}

// resolveOrdinal maps a 1-based ordinal to the task id it currently
// addresses within one user's ordered task list. ok is false when the
// ordinal is out of range.
func resolveOrdinal(ctx context.Context, tx *sqlx.Tx, userID int64, ordinal int) (taskID int64, ok bool, err error) {
	if ordinal < 1 {
		return 0, false, nil
	}

	var ids []int64
	err = tx.SelectContext(ctx, &ids,
		"SELECT id FROM tasks WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		return 0, false, fmt.Errorf("resolving ordinal %d for user %d: %w", ordinal, userID, err)
	}
	if ordinal > len(ids) {
		return 0, false, nil
	}
	return ids[ordinal-1], true, nil
}

// withTx runs fn inside a transaction, committing on success and
// rolling back on error.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
