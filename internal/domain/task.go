package domain

import (
	"context"
	"time"
)

// Task is a single to-do item. UserID is the owning user; every read and
// mutation is scoped to the owner, so a task belonging to someone else is
// indistinguishable from one that does not exist.
type Task struct {
	ID          int64
	UserID      int64
	Description string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskFilter narrows and orders a task listing. A nil Completed means no
// completion filter. SortField must be one of the repository's sortable
// columns. Limit <= 0 means no limit; Skip <= 0 means no offset.
type TaskFilter struct {
	Completed *bool
	SortField string
	SortDesc  bool
	Limit     int
	Skip      int
}

// TaskRepository defines persistence operations for tasks. The ByOwner
// variants key every query on (id, owner) so that ownership scoping happens
// in the store, not in caller code.
type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	GetByOwner(ctx context.Context, ownerID, taskID int64) (*Task, error)
	ListByOwner(ctx context.Context, ownerID int64, filter TaskFilter) ([]Task, error)
	Update(ctx context.Context, task *Task) error
	DeleteByOwner(ctx context.Context, ownerID, taskID int64) error
}
