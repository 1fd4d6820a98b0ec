package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/example/task-tracker/domain/task"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// taskRecord is the GORM persistence model for a task.
type taskRecord struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Text      string `gorm:"size:255;not null"`
	Completed bool   `gorm:"not null;default:false"`
}

// TableName pins the table name.
func (taskRecord) TableName() string {
	return "tasks"
}

func (r taskRecord) toDomain() domain.Task {
	return domain.Task{ID: r.ID, Text: r.Text, Completed: r.Completed}
}

// GormStore persists tasks in SQLite through GORM.
// Every operation runs in its own transaction.
type GormStore struct {
	db *gorm.DB
	// path is empty when the handle was supplied by the caller.
	path string
}

var _ Store = (*GormStore)(nil)

// OpenGormStore opens the SQLite database at path and migrates the schema.
func OpenGormStore(path string, debug bool) (*GormStore, error) {
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	// SQLite allows one writer; a single connection serializes transactions
	// and keeps ":memory:" databases from splitting across connections.
	sqlDB.SetMaxOpenConns(1)

	store, err := NewGormStore(db)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	store.path = path
	return store, nil
}

// Durable reports whether the data outlives the process, which holds for a
// database file opened by path but not for in-memory databases.
func (s *GormStore) Durable() bool {
	return s.path != "" &&
		!strings.Contains(s.path, ":memory:") &&
		!strings.Contains(s.path, "mode=memory")
}

// NewGormStore wraps an open GORM handle and migrates the schema.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&taskRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &GormStore{db: db}, nil
}

// List returns all tasks ordered by id.
func (s *GormStore) List(ctx context.Context) ([]domain.Task, error) {
	var records []taskRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Order("id ASC").Find(&records).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]domain.Task, 0, len(records))
	for _, r := range records {
		tasks = append(tasks, r.toDomain())
	}
	return tasks, nil
}

// Create inserts a task and returns it with its assigned id.
func (s *GormStore) Create(ctx context.Context, text string, completed bool) (domain.Task, error) {
	record := taskRecord{Text: text, Completed: completed}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&record).Error
	})
	if err != nil {
		return domain.Task{}, fmt.Errorf("failed to create task: %w", err)
	}
	return record.toDomain(), nil
}

// Find retrieves a task by id.
func (s *GormStore) Find(ctx context.Context, id int64) (domain.Task, bool, error) {
	var record taskRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.First(&record, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Task{}, false, nil
	}
	if err != nil {
		return domain.Task{}, false, fmt.Errorf("failed to find task: %w", err)
	}
	return record.toDomain(), true, nil
}

// Update replaces text and completion of an existing task.
func (s *GormStore) Update(ctx context.Context, id int64, text string, completed bool) (domain.Task, bool, error) {
	var record taskRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&record, id).Error; err != nil {
			return err
		}
		// A map keeps GORM from skipping completed=false as a zero value.
		if err := tx.Model(&record).Updates(map[string]any{
			"text":      text,
			"completed": completed,
		}).Error; err != nil {
			return err
		}
		record.Text = text
		record.Completed = completed
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Task{}, false, nil
	}
	if err != nil {
		return domain.Task{}, false, fmt.Errorf("failed to update task: %w", err)
	}
	return record.toDomain(), true, nil
}

// Delete removes a task if present.
func (s *GormStore) Delete(ctx context.Context, id int64) (bool, error) {
	var removed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&taskRecord{}, id)
		if result.Error != nil {
			return result.Error
		}
		removed = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	return removed, nil
}

// Ping checks the database connection.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
