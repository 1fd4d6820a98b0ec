package task

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/example/task-tracker/domain/task"
)

// Store drivers selectable through configuration.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrUnknownDriver is returned when the configured store driver is not supported.
var ErrUnknownDriver = errors.New("unknown store driver")

// Store is the persistence port for tasks.
//
// Absence is reported through the found/removed flags; a non-nil error always
// means the backend itself failed. List returns tasks in ascending id order.
type Store interface {
	List(ctx context.Context) ([]domain.Task, error)
	Create(ctx context.Context, text string, completed bool) (domain.Task, error)
	Find(ctx context.Context, id int64) (domain.Task, bool, error)
	Update(ctx context.Context, id int64, text string, completed bool) (domain.Task, bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Close() error
}

// StoreConfig selects and configures the store backing the task module.
type StoreConfig struct {
	Driver        string
	DBPath        string
	DatabaseURL   string
	DBDebug       bool
	SeedDemoTasks bool
}

// OpenStore creates the store described by cfg and prepares its schema.
func OpenStore(ctx context.Context, cfg StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		if cfg.SeedDemoTasks {
			return NewMemoryStore(domain.DemoTasks()...)
		}
		return NewMemoryStore()
	case DriverSQLite:
		return OpenGormStore(cfg.DBPath, cfg.DBDebug)
	case DriverPostgres:
		return OpenPostgresStore(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
