package api

import (
	"context"
	"fmt"
	"time"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// setupStreamRoutes mounts the task change stream.
func (m *APIModule) setupStreamRoutes(app *fiber.App) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/tasks", websocket.New(m.handleStream))
}

// handleStream relays hub messages to one WebSocket connection. Incoming
// frames are read only to detect disconnects.
func (m *APIModule) handleStream(c *websocket.Conn) {
	client := newStreamClient(uuid.NewString())
	if !m.hub.Register(client) {
		return
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for data := range client.send {
			if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
				m.logger.Debug("Stream write failed", "client_id", client.id, "error", err)
				return
			}
		}
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.logger.Warn("Stream connection error", "client_id", client.id, "error", err)
			}
			break
		}
	}

	// The connection is recycled once this handler returns.
	m.hub.Unregister(client)
	<-writerDone
}

// RegisterEventConsumers subscribes the stream to task events.
func (m *APIModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.streamTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskUpdatedV1, m.streamTaskUpdated, m); err != nil {
		return fmt.Errorf("failed to register TaskUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.streamTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}
	return nil
}

func (m *APIModule) streamTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	m.hub.Broadcast(StreamMessage{
		Type:      "task_created",
		TaskID:    event.TaskID,
		Text:      event.Text,
		Completed: event.Completed,
		Link:      domain.LinkFor(event.TaskID),
		Timestamp: event.CreatedAt,
	})
	return nil
}

func (m *APIModule) streamTaskUpdated(_ context.Context, event events.TaskUpdatedEvent, _ *mono.Msg) error {
	m.hub.Broadcast(StreamMessage{
		Type:      "task_updated",
		TaskID:    event.TaskID,
		Text:      event.Text,
		Completed: event.Completed,
		Link:      domain.LinkFor(event.TaskID),
		Timestamp: event.UpdatedAt,
	})
	return nil
}

func (m *APIModule) streamTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	ts := event.DeletedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	m.hub.Broadcast(StreamMessage{
		Type:      "task_deleted",
		TaskID:    event.TaskID,
		Link:      domain.LinkFor(event.TaskID),
		Timestamp: ts,
	})
	return nil
}
