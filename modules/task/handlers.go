package task

import (
	"context"
	"time"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/events"
	"github.com/go-monolith/mono"
)

// listTasks handles the list-tasks service request.
func (m *TaskModule) listTasks(ctx context.Context, _ ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	resp, err := m.service.ListTasks(ctx)
	if err != nil {
		m.logStoreFailure("list-tasks", err)
		return ListTasksResponse{}, err
	}
	return resp, nil
}

// createTask handles the create-task service request.
func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResult, error) {
	result, err := m.service.CreateTask(ctx, domain.Edit{Text: req.Text, Completed: req.Completed})
	if err != nil {
		m.logStoreFailure("create-task", err)
		return TaskResult{}, err
	}

	if result.Outcome == OutcomeCreated && m.eventBus != nil {
		event := events.TaskCreatedEvent{
			TaskID:    result.Task.ID,
			Text:      result.Task.Text,
			Completed: result.Task.Completed,
			CreatedAt: time.Now(),
		}
		// Event publishing is best-effort.
		if err := events.TaskCreatedV1.Publish(m.eventBus, event, nil); err != nil {
			m.logger.Warn("Failed to publish TaskCreated event", "task_id", event.TaskID, "error", err)
		}
	}
	return result, nil
}

// getTask handles the get-task service request.
func (m *TaskModule) getTask(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (TaskResult, error) {
	result, err := m.service.GetTask(ctx, req.TaskID)
	if err != nil {
		m.logStoreFailure("get-task", err)
		return TaskResult{}, err
	}
	return result, nil
}

// updateTask handles the update-task service request.
func (m *TaskModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResult, error) {
	result, err := m.service.UpdateTask(ctx, req.TaskID, domain.Edit{Text: req.Text, Completed: req.Completed})
	if err != nil {
		m.logStoreFailure("update-task", err)
		return TaskResult{}, err
	}

	if result.Outcome == OutcomeUpdated && m.eventBus != nil {
		event := events.TaskUpdatedEvent{
			TaskID:    result.Task.ID,
			Text:      result.Task.Text,
			Completed: result.Task.Completed,
			UpdatedAt: time.Now(),
		}
		if err := events.TaskUpdatedV1.Publish(m.eventBus, event, nil); err != nil {
			m.logger.Warn("Failed to publish TaskUpdated event", "task_id", event.TaskID, "error", err)
		}
	}
	return result, nil
}

// deleteTask handles the delete-task service request.
func (m *TaskModule) deleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (TaskResult, error) {
	result, err := m.service.DeleteTask(ctx, req.TaskID)
	if err != nil {
		m.logStoreFailure("delete-task", err)
		return TaskResult{}, err
	}

	if result.Removed && m.eventBus != nil {
		event := events.TaskDeletedEvent{
			TaskID:    result.TaskID,
			DeletedAt: time.Now(),
		}
		if err := events.TaskDeletedV1.Publish(m.eventBus, event, nil); err != nil {
			m.logger.Warn("Failed to publish TaskDeleted event", "task_id", event.TaskID, "error", err)
		}
	}
	return result, nil
}

func (m *TaskModule) logStoreFailure(op string, err error) {
	if IsSerializationFailure(err) {
		m.logger.Warn("Serialization conflict", "operation", op, "error", err)
		return
	}
	m.logger.Error("Task store failure", "operation", op, "error", err)
}
