package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/dverhoef/taskhive/internal/domain"
)

// TaskUpdate carries the updatable task fields. Nil means "leave as is".
type TaskUpdate struct {
	Description *string
	Completed   *bool
}

// TaskService handles task CRUD. Every operation is scoped to the owning
// user: the owner is always the authenticated caller, never request input,
// and lookups of another user's task report ErrNotFound rather than
// revealing that the task exists.
type TaskService struct {
	tasks domain.TaskRepository
}

// NewTaskService creates a new TaskService.
func NewTaskService(tasks domain.TaskRepository) *TaskService {
	return &TaskService{tasks: tasks}
}

// Create creates a task owned by ownerID.
func (s *TaskService) Create(ctx context.Context, ownerID int64, description string, completed bool) (*domain.Task, error) {
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", domain.ErrInvalidInput)
	}

	task := &domain.Task{
		UserID:      ownerID,
		Description: description,
		Completed:   completed,
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// List returns the owner's tasks. sortBy is "field" or "field:direction"
// with direction asc or desc; unknown fields and directions are rejected.
func (s *TaskService) List(ctx context.Context, ownerID int64, completed *bool, sortBy string, limit, skip int) ([]domain.Task, error) {
	filter := domain.TaskFilter{
		Completed: completed,
		Limit:     limit,
		Skip:      skip,
	}

	if sortBy != "" {
		field, desc, err := parseSortBy(sortBy)
		if err != nil {
			return nil, err
		}
		filter.SortField = field
		filter.SortDesc = desc
	}

	return s.tasks.ListByOwner(ctx, ownerID, filter)
}

// Get returns the task if it belongs to ownerID.
func (s *TaskService) Get(ctx context.Context, ownerID, taskID int64) (*domain.Task, error) {
	return s.tasks.GetByOwner(ctx, ownerID, taskID)
}

// Update applies a partial update to the owner's task. Validation runs
// before any write, so a bad field applies nothing.
func (s *TaskService) Update(ctx context.Context, ownerID, taskID int64, upd TaskUpdate) (*domain.Task, error) {
	if upd.Description != nil && *upd.Description == "" {
		return nil, fmt.Errorf("%w: description is required", domain.ErrInvalidInput)
	}

	task, err := s.tasks.GetByOwner(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	if upd.Description != nil {
		task.Description = *upd.Description
	}
	if upd.Completed != nil {
		task.Completed = *upd.Completed
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return task, nil
}

// Delete removes the owner's task and returns it.
func (s *TaskService) Delete(ctx context.Context, ownerID, taskID int64) (*domain.Task, error) {
	task, err := s.tasks.GetByOwner(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.tasks.DeleteByOwner(ctx, ownerID, taskID); err != nil {
		return nil, err
	}
	return task, nil
}

func parseSortBy(sortBy string) (field string, desc bool, err error) {
	field, direction, found := strings.Cut(sortBy, ":")
	if field == "" {
		return "", false, fmt.Errorf("%w: sort field is required", domain.ErrInvalidInput)
	}
	if found {
		switch direction {
		case "asc":
		case "desc":
			desc = true
		default:
			return "", false, fmt.Errorf("%w: sort direction must be asc or desc", domain.ErrInvalidInput)
		}
	}
	return field, desc, nil
}
