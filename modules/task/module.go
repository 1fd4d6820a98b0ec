package task

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/example/task-tracker/events"
	"github.com/example/task-tracker/modules/cache"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
)

// TaskModule provides task management services (core domain).
type TaskModule struct {
	storeCfg StoreConfig
	store    Store
	cache    Cache
	service  *Service
	eventBus mono.EventBus
	logger   types.Logger
}

var (
	_ mono.Module                = (*TaskModule)(nil)
	_ mono.ServiceProviderModule = (*TaskModule)(nil)
	_ mono.EventEmitterModule    = (*TaskModule)(nil)
	_ mono.HealthCheckableModule = (*TaskModule)(nil)
)

// Option customizes a TaskModule.
type Option func(*TaskModule)

// WithStore injects a ready store instead of opening one from StoreConfig.
func WithStore(store Store) Option {
	return func(m *TaskModule) {
		m.store = store
	}
}

// WithCache enables cache-aside lookups by id. The module closes the cache on Stop.
func WithCache(c Cache) Option {
	return func(m *TaskModule) {
		m.cache = c
	}
}

// NewModule creates a new TaskModule.
func NewModule(cfg StoreConfig, logger types.Logger, opts ...Option) *TaskModule {
	m := &TaskModule{
		storeCfg: cfg,
		logger:   logger.WithModule("task"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *TaskModule) Name() string {
	return "task"
}

func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskUpdatedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "list-tasks", json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register list-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "create-task", json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register create-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-task", json.Unmarshal, json.Marshal, m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register get-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-task", json.Unmarshal, json.Marshal, m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register update-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-task", json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register delete-task service: %w", err)
	}

	m.logger.Info("Registered services", "services", []string{
		"list-tasks", "create-task", "get-task", "update-task", "delete-task",
	})
	return nil
}

// Start opens the configured store unless one was injected.
func (m *TaskModule) Start(ctx context.Context) error {
	if m.store == nil {
		store, err := OpenStore(ctx, m.storeCfg)
		if err != nil {
			return fmt.Errorf("failed to open task store: %w", err)
		}
		m.store = store
		m.logger.Info("Task store opened", "driver", m.driver())
	}

	if m.cache != nil {
		namespace := cacheNamespace(m.store)
		m.store = NewCachedStore(m.store, m.cache, namespace, m.logger)
		m.logger.Info("Cache-aside enabled for task lookups", "namespace", namespace)
	}

	m.service = NewService(m.store, NewValidator())

	if m.eventBus == nil {
		m.logger.Warn("EventBus not set, events will not be published")
	}
	m.logger.Info("Module started")
	return nil
}

// Stop releases the store and cache.
func (m *TaskModule) Stop(_ context.Context) error {
	var firstErr error
	if m.store != nil {
		if err := m.store.Close(); err != nil {
			firstErr = fmt.Errorf("failed to close task store: %w", err)
		}
	}
	if closer, ok := m.cache.(io.Closer); ok {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close cache: %w", err)
		}
	}
	m.logger.Info("Module stopped")
	return firstErr
}

// Health reports store connectivity and, when enabled, cache statistics.
func (m *TaskModule) Health(ctx context.Context) mono.HealthStatus {
	if m.store == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "task store not initialized",
		}
	}

	details := map[string]any{
		"driver": m.driver(),
		"cache":  m.cache != nil,
	}

	if p, ok := m.underlyingStore().(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(ctx); err != nil {
			return mono.HealthStatus{
				Healthy: false,
				Message: fmt.Sprintf("database ping failed: %v", err),
				Details: details,
			}
		}
	}

	if s, ok := m.cache.(interface{ Stats() cache.StatsSnapshot }); ok {
		details["cache_stats"] = s.Stats()
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: details,
	}
}

// cacheNamespace names the data set behind store. Durable stores share a
// fixed namespace across restarts and instances; stores whose ids restart
// with the process get a fresh one every time.
func cacheNamespace(store Store) string {
	switch s := store.(type) {
	case *PostgresStore:
		return DriverPostgres
	case *GormStore:
		if s.Durable() {
			return DriverSQLite + ":" + s.path
		}
	}
	return "run:" + uuid.NewString()
}

func (m *TaskModule) driver() string {
	switch m.underlyingStore().(type) {
	case *GormStore:
		return DriverSQLite
	case *PostgresStore:
		return DriverPostgres
	case *MemoryStore:
		return DriverMemory
	default:
		return "custom"
	}
}

func (m *TaskModule) underlyingStore() Store {
	if cs, ok := m.store.(*CachedStore); ok {
		return cs.Store
	}
	return m.store
}
