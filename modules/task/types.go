package task

import (
	"context"

	domain "github.com/example/task-tracker/domain/task"
)

// Outcome names the result of a task use case.
type Outcome string

const (
	OutcomeFound            Outcome = "found"
	OutcomeCreated          Outcome = "created"
	OutcomeUpdated          Outcome = "updated"
	OutcomeDeleted          Outcome = "deleted"
	OutcomeValidationFailed Outcome = "validation_failed"
	OutcomeNotFound         Outcome = "not_found"
	OutcomeBadRequest       Outcome = "bad_request"
)

// TaskResponse is the external representation of a task.
type TaskResponse struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	Link      string `json:"link"`
}

func toTaskResponse(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:        t.ID,
		Text:      t.Text,
		Completed: t.Completed,
		Link:      t.Link(),
	}
}

// TaskResult carries the outcome of a single-task use case.
// Task is set for found, created and updated; Errors for validation_failed;
// TaskID and Removed for deleted.
type TaskResult struct {
	Outcome Outcome       `json:"outcome"`
	Task    *TaskResponse `json:"task,omitempty"`
	Errors  []FieldError  `json:"errors,omitempty"`
	Message string        `json:"message,omitempty"`
	TaskID  int64         `json:"task_id,omitempty"`
	Removed bool          `json:"removed,omitempty"`
}

// ListTasksRequest is the request for listing tasks.
type ListTasksRequest struct{}

// ListTasksResponse is the response for listing tasks.
type ListTasksResponse struct {
	Results []TaskResponse `json:"results"`
	Total   int            `json:"total"`
}

// CreateTaskRequest is the request for creating a task.
type CreateTaskRequest struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// GetTaskRequest is the request for getting a task.
type GetTaskRequest struct {
	TaskID string `json:"task_id"`
}

// UpdateTaskRequest is the request for replacing a task's text and completion.
type UpdateTaskRequest struct {
	TaskID    string `json:"task_id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// DeleteTaskRequest is the request for deleting a task.
type DeleteTaskRequest struct {
	TaskID string `json:"task_id"`
}

// TaskPort defines the interface for task operations (hexagonal port).
// Driving adapters such as the HTTP API use it to reach the core domain.
type TaskPort interface {
	ListTasks(ctx context.Context) (*ListTasksResponse, error)
	CreateTask(ctx context.Context, req *CreateTaskRequest) (*TaskResult, error)
	GetTask(ctx context.Context, taskID string) (*TaskResult, error)
	UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*TaskResult, error)
	DeleteTask(ctx context.Context, taskID string) (*TaskResult, error)
}
