package task

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	domain "github.com/example/task-tracker/domain/task"
)

// MemoryStore keeps tasks in process memory, ordered by id.
type MemoryStore struct {
	tasks  []domain.Task
	lastID int64
	mu     sync.RWMutex
}

var _ Store = (*MemoryStore)(nil)

// ErrInvalidSeed is returned when seed tasks carry a non-positive or repeated id.
var ErrInvalidSeed = errors.New("invalid seed task")

// NewMemoryStore creates a store holding the given tasks.
// Ids handed out later continue after the highest seeded id.
func NewMemoryStore(seed ...domain.Task) (*MemoryStore, error) {
	tasks := slices.Clone(seed)
	slices.SortFunc(tasks, func(a, b domain.Task) int {
		return cmp.Compare(a.ID, b.ID)
	})

	for i, t := range tasks {
		if t.ID <= 0 {
			return nil, fmt.Errorf("%w: id %d is not positive", ErrInvalidSeed, t.ID)
		}
		if i > 0 && tasks[i-1].ID == t.ID {
			return nil, fmt.Errorf("%w: id %d appears more than once", ErrInvalidSeed, t.ID)
		}
	}

	s := &MemoryStore{tasks: tasks}
	if n := len(tasks); n > 0 {
		s.lastID = tasks[n-1].ID
	}
	return s, nil
}

// List returns a snapshot of all tasks.
func (s *MemoryStore) List(_ context.Context) ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Task, len(s.tasks))
	copy(result, s.tasks)
	return result, nil
}

// Create assigns the next id and appends the task.
func (s *MemoryStore) Create(_ context.Context, text string, completed bool) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	t := domain.Task{ID: s.lastID, Text: text, Completed: completed}
	s.tasks = append(s.tasks, t)
	return t, nil
}

// Find looks a task up by id.
func (s *MemoryStore) Find(_ context.Context, id int64) (domain.Task, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.indexOf(id)
	if !ok {
		return domain.Task{}, false, nil
	}
	return s.tasks[i], true, nil
}

// Update replaces text and completion of an existing task.
func (s *MemoryStore) Update(_ context.Context, id int64, text string, completed bool) (domain.Task, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.indexOf(id)
	if !ok {
		return domain.Task{}, false, nil
	}
	s.tasks[i].Text = text
	s.tasks[i].Completed = completed
	return s.tasks[i], true, nil
}

// Delete removes a task if present.
func (s *MemoryStore) Delete(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.indexOf(id)
	if !ok {
		return false, nil
	}
	s.tasks = slices.Delete(s.tasks, i, i+1)
	return true, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

// indexOf must be called with the lock held.
func (s *MemoryStore) indexOf(id int64) (int, bool) {
	return slices.BinarySearchFunc(s.tasks, id, func(t domain.Task, target int64) int {
		return cmp.Compare(t.ID, target)
	})
}
