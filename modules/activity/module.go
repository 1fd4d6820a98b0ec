package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/task-tracker/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	nanoid "github.com/jaevor/go-nanoid"
)

// DefaultCapacity is the feed size used when none is configured.
const DefaultCapacity = 100

// ActivityModule is a driven adapter that records task events into a feed.
type ActivityModule struct {
	feed   *Feed
	newID  func() string
	logger types.Logger
}

var (
	_ mono.Module                = (*ActivityModule)(nil)
	_ mono.EventConsumerModule   = (*ActivityModule)(nil)
	_ mono.ServiceProviderModule = (*ActivityModule)(nil)
)

// NewModule creates an activity module keeping at most capacity entries.
func NewModule(capacity int, logger types.Logger) (*ActivityModule, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	newID, err := nanoid.Standard(21)
	if err != nil {
		return nil, fmt.Errorf("failed to create id generator: %w", err)
	}

	return &ActivityModule{
		feed:   NewFeed(capacity),
		newID:  newID,
		logger: logger.WithModule("activity"),
	}, nil
}

func (m *ActivityModule) Name() string {
	return "activity"
}

func (m *ActivityModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskUpdatedV1, m.handleTaskUpdated, m); err != nil {
		return fmt.Errorf("failed to register TaskUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	m.logger.Info("Registered event consumers", "events", []string{"TaskCreated.v1", "TaskUpdated.v1", "TaskDeleted.v1"})
	return nil
}

func (m *ActivityModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "recent-activity", json.Unmarshal, json.Marshal, m.recentActivity,
	); err != nil {
		return fmt.Errorf("failed to register recent-activity service: %w", err)
	}
	return nil
}

func (m *ActivityModule) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	m.record(TypeTaskCreated, event.TaskID, event.CreatedAt, fmt.Sprintf("Task %d created: %q", event.TaskID, event.Text))
	return nil
}

func (m *ActivityModule) handleTaskUpdated(_ context.Context, event events.TaskUpdatedEvent, _ *mono.Msg) error {
	state := "open"
	if event.Completed {
		state = "completed"
	}
	m.record(TypeTaskUpdated, event.TaskID, event.UpdatedAt, fmt.Sprintf("Task %d updated (%s): %q", event.TaskID, state, event.Text))
	return nil
}

func (m *ActivityModule) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	m.record(TypeTaskDeleted, event.TaskID, event.DeletedAt, fmt.Sprintf("Task %d deleted", event.TaskID))
	return nil
}

func (m *ActivityModule) record(entryType string, taskID int64, at time.Time, message string) {
	if at.IsZero() {
		at = time.Now()
	}
	m.feed.Append(Entry{
		ID:        m.newID(),
		Type:      entryType,
		TaskID:    taskID,
		Message:   message,
		Timestamp: at,
	})
	m.logger.Debug("Recorded activity", "type", entryType, "task_id", taskID)
}

// recentActivity handles the recent-activity service request.
func (m *ActivityModule) recentActivity(_ context.Context, req RecentActivityRequest, _ *mono.Msg) (RecentActivityResponse, error) {
	limit := req.Limit
	if limit <= 0 || limit > m.feed.Capacity() {
		limit = m.feed.Capacity()
	}
	entries := m.feed.Recent(limit)
	return RecentActivityResponse{Entries: entries, Total: len(entries)}, nil
}

func (m *ActivityModule) Start(_ context.Context) error {
	m.logger.Info("Module started, listening for task events", "capacity", m.feed.Capacity())
	return nil
}

func (m *ActivityModule) Stop(_ context.Context) error {
	m.logger.Info("Module stopped")
	return nil
}
