package task

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

const (
	queryListTasks  = `SELECT id, text, completed FROM tasks ORDER BY id ASC`
	queryCreateTask = `INSERT INTO tasks (text, completed) VALUES ($1, $2) RETURNING id, text, completed`
	queryFindTask   = `SELECT id, text, completed FROM tasks WHERE id = $1`
	queryUpdateTask = `UPDATE tasks SET text = $2, completed = $3 WHERE id = $1 RETURNING id, text, completed`
	queryDeleteTask = `DELETE FROM tasks WHERE id = $1`
)

// serializable is applied to every transaction the store opens.
var serializable = pgx.TxOptions{IsoLevel: pgx.Serializable}

// PostgresStore persists tasks in PostgreSQL through a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// OpenPostgresStore connects to databaseURL and applies the schema.
func OpenPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, errors.New("database URL is required for the postgres driver")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store, err := NewPostgresStore(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStore wraps an existing pool and applies the schema.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// List returns all tasks ordered by id.
func (s *PostgresStore) List(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	err := pgx.BeginTxFunc(ctx, s.pool, serializable, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, queryListTasks)
		if err != nil {
			return err
		}
		tasks, err = pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Task])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

// Create inserts a task and returns it with its assigned id.
func (s *PostgresStore) Create(ctx context.Context, text string, completed bool) (domain.Task, error) {
	var t domain.Task
	err := pgx.BeginTxFunc(ctx, s.pool, serializable, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, queryCreateTask, text, completed).Scan(&t.ID, &t.Text, &t.Completed)
	})
	if err != nil {
		return domain.Task{}, fmt.Errorf("failed to create task: %w", err)
	}
	return t, nil
}

// Find retrieves a task by id.
func (s *PostgresStore) Find(ctx context.Context, id int64) (domain.Task, bool, error) {
	var t domain.Task
	err := pgx.BeginTxFunc(ctx, s.pool, serializable, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, queryFindTask, id).Scan(&t.ID, &t.Text, &t.Completed)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Task{}, false, nil
	}
	if err != nil {
		return domain.Task{}, false, fmt.Errorf("failed to find task: %w", err)
	}
	return t, true, nil
}

// Update replaces text and completion of an existing task.
func (s *PostgresStore) Update(ctx context.Context, id int64, text string, completed bool) (domain.Task, bool, error) {
	var t domain.Task
	err := pgx.BeginTxFunc(ctx, s.pool, serializable, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, queryUpdateTask, id, text, completed).Scan(&t.ID, &t.Text, &t.Completed)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Task{}, false, nil
	}
	if err != nil {
		return domain.Task{}, false, fmt.Errorf("failed to update task: %w", err)
	}
	return t, true, nil
}

// Delete removes a task if present.
func (s *PostgresStore) Delete(ctx context.Context, id int64) (bool, error) {
	var tag pgconn.CommandTag
	err := pgx.BeginTxFunc(ctx, s.pool, serializable, func(tx pgx.Tx) error {
		var err error
		tag, err = tx.Exec(ctx, queryDeleteTask, id)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// IsSerializationFailure reports whether err is a PostgreSQL serialization
// conflict (SQLSTATE 40001). Callers may retry such operations.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001"
	}
	return false
}
