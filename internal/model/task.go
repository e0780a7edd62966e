package model

// Task status constants.
const (
	TaskStatusPending = "pending"
	TaskStatusDone    = "done"
)

// Task is a single tracked item owned by one user.
//
// CreatedDate is ISO-8601 text to stay column-compatible with earlier
// deployments of the tasks table. CompletedAt is nil until the task is
// marked done; rows written before the column existed keep NULL even
// when done.
type Task struct {
	ID          int64   `json:"id" db:"id"`
	UserID      int64   `json:"user_id" db:"user_id"`
	Name        string  `json:"name" db:"name"`
	Status      string  `json:"status" db:"status"`
	CreatedDate string  `json:"created_date" db:"created_date"`
	CompletedAt *string `json:"completed_at,omitempty" db:"completed_at"`
}

// Done reports whether the task has been completed.
func (t Task) Done() bool {
	return t.Status == TaskStatusDone
}
