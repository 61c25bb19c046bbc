package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dverhoef/taskhive/internal/domain"
)

// sortColumns maps exposed sort field names to their columns. Anything not in
// this map is rejected before it can reach the query string.
var sortColumns = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"description": "description",
	"completed":   "completed",
}

// TaskRepository implements domain.TaskRepository using SQLite.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new SQLite-backed TaskRepository.
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db.SqlDB}
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (user_id, description, completed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		task.UserID, task.Description, task.Completed, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	task.ID = id
	task.CreatedAt = now
	task.UpdatedAt = now
	return nil
}

// GetByOwner returns the task only if it belongs to ownerID. A task owned by
// another user yields ErrNotFound, same as a missing one.
func (r *TaskRepository) GetByOwner(ctx context.Context, ownerID, taskID int64) (*domain.Task, error) {
	task := &domain.Task{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, description, completed, created_at, updated_at
		 FROM tasks WHERE id = ? AND user_id = ?`, taskID, ownerID,
	).Scan(&task.ID, &task.UserID, &task.Description, &task.Completed, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query task: %w", err)
	}
	return task, nil
}

func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID int64, filter domain.TaskFilter) ([]domain.Task, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, user_id, description, completed, created_at, updated_at
		 FROM tasks WHERE user_id = ?`)
	args := []any{ownerID}

	if filter.Completed != nil {
		sb.WriteString(" AND completed = ?")
		args = append(args, *filter.Completed)
	}

	orderBy := "id"
	if filter.SortField != "" {
		col, ok := sortColumns[filter.SortField]
		if !ok {
			return nil, fmt.Errorf("%w: unknown sort field %q", domain.ErrInvalidInput, filter.SortField)
		}
		orderBy = col
	}
	sb.WriteString(" ORDER BY " + orderBy)
	if filter.SortDesc {
		sb.WriteString(" DESC")
	}

	if filter.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
		if filter.Skip > 0 {
			sb.WriteString(" OFFSET ?")
			args = append(args, filter.Skip)
		}
	} else if filter.Skip > 0 {
		// SQLite requires a LIMIT clause before OFFSET.
		sb.WriteString(" LIMIT -1 OFFSET ?")
		args = append(args, filter.Skip)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var task domain.Task
		if err := rows.Scan(&task.ID, &task.UserID, &task.Description, &task.Completed, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET description = ?, completed = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		task.Description, task.Completed, now, task.ID, task.UserID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	task.UpdatedAt = now
	return nil
}

// DeleteByOwner removes the task only if it belongs to ownerID.
func (r *TaskRepository) DeleteByOwner(ctx context.Context, ownerID, taskID int64) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM tasks WHERE id = ? AND user_id = ?", taskID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
