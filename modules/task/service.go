package task

import (
	"context"
	"fmt"
	"strconv"

	domain "github.com/example/task-tracker/domain/task"
)

// Service implements the task use cases on top of a Store.
// Expected conditions come back as outcomes; only store failures are errors.
type Service struct {
	store     Store
	validator *Validator
}

// NewService creates a new task service.
func NewService(store Store, validator *Validator) *Service {
	return &Service{store: store, validator: validator}
}

// ParseID accepts a positive base-10 integer id.
func ParseID(raw string) (int64, bool) {
	// ParseInt tolerates a leading sign; ids are digits only.
	if raw == "" || raw[0] < '0' || raw[0] > '9' {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func badRequest(raw string) TaskResult {
	return TaskResult{
		Outcome: OutcomeBadRequest,
		Message: fmt.Sprintf("invalid task id %q: must be a positive integer", raw),
	}
}

func notFound(id int64) TaskResult {
	return TaskResult{
		Outcome: OutcomeNotFound,
		Message: fmt.Sprintf("task %d not found", id),
	}
}

func withTask(outcome Outcome, t domain.Task) TaskResult {
	resp := toTaskResponse(t)
	return TaskResult{Outcome: outcome, Task: &resp}
}

// ListTasks returns every task in ascending id order.
func (s *Service) ListTasks(ctx context.Context) (ListTasksResponse, error) {
	tasks, err := s.store.List(ctx)
	if err != nil {
		return ListTasksResponse{}, err
	}

	results := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		results = append(results, toTaskResponse(t))
	}
	return ListTasksResponse{Results: results, Total: len(results)}, nil
}

// CreateTask validates edit and stores a new task.
func (s *Service) CreateTask(ctx context.Context, edit domain.Edit) (TaskResult, error) {
	if v := s.validator.Validate(edit); !v.IsValid {
		return validationFailed(v), nil
	}

	t, err := s.store.Create(ctx, edit.Text, edit.Completed)
	if err != nil {
		return TaskResult{}, err
	}
	return withTask(OutcomeCreated, t), nil
}

// GetTask looks a task up by its raw id.
func (s *Service) GetTask(ctx context.Context, rawID string) (TaskResult, error) {
	id, ok := ParseID(rawID)
	if !ok {
		return badRequest(rawID), nil
	}

	t, found, err := s.store.Find(ctx, id)
	if err != nil {
		return TaskResult{}, err
	}
	if !found {
		return notFound(id), nil
	}
	return withTask(OutcomeFound, t), nil
}

// UpdateTask validates edit, then replaces the task's text and completion.
// Validation runs before the id is parsed.
func (s *Service) UpdateTask(ctx context.Context, rawID string, edit domain.Edit) (TaskResult, error) {
	if v := s.validator.Validate(edit); !v.IsValid {
		return validationFailed(v), nil
	}

	id, ok := ParseID(rawID)
	if !ok {
		return badRequest(rawID), nil
	}

	t, found, err := s.store.Update(ctx, id, edit.Text, edit.Completed)
	if err != nil {
		return TaskResult{}, err
	}
	if !found {
		return notFound(id), nil
	}
	return withTask(OutcomeUpdated, t), nil
}

// DeleteTask removes a task. Deleting an absent task still succeeds.
func (s *Service) DeleteTask(ctx context.Context, rawID string) (TaskResult, error) {
	id, ok := ParseID(rawID)
	if !ok {
		return badRequest(rawID), nil
	}

	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return TaskResult{}, err
	}
	return TaskResult{Outcome: OutcomeDeleted, TaskID: id, Removed: removed}, nil
}

func validationFailed(v ValidationResult) TaskResult {
	return TaskResult{
		Outcome: OutcomeValidationFailed,
		Errors:  v.Errors,
		Message: "task validation failed",
	}
}
