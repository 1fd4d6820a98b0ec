package api

import (
	"time"

	"github.com/example/task-tracker/modules/task"
)

// TaskEditRequest is the HTTP body for creating or replacing a task.
type TaskEditRequest struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// HealthResponse is the HTTP response for health check.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse is the HTTP response for errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ValidationErrorResponse is the HTTP response for rejected task input.
type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Errors  []task.FieldError `json:"errors"`
}

// StreamMessage is pushed to WebSocket clients for every task change.
type StreamMessage struct {
	Type      string    `json:"type"`
	TaskID    int64     `json:"task_id"`
	Text      string    `json:"text,omitempty"`
	Completed bool      `json:"completed"`
	Link      string    `json:"link"`
	Timestamp time.Time `json:"timestamp"`
}
