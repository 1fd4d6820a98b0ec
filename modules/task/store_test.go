package task

import (
	"context"
	"sync"
	"testing"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Info(_ string, _ ...any)  {}
func (m *mockLogger) Warn(_ string, _ ...any)  {}
func (m *mockLogger) Error(_ string, _ ...any) {}
func (m *mockLogger) With(_ ...any) types.Logger {
	return m
}
func (m *mockLogger) WithModule(_ string) types.Logger {
	return m
}
func (m *mockLogger) WithError(_ error) types.Logger {
	return m
}

func newMockLogger() types.Logger {
	return &mockLogger{}
}

// newMemoryStore builds a MemoryStore from seeds known to be valid.
func newMemoryStore(seed ...domain.Task) *MemoryStore {
	s, err := NewMemoryStore(seed...)
	if err != nil {
		panic(err)
	}
	return s
}

// runStoreContract exercises the behavior every Store implementation shares.
// newStore must return an empty, never-used store.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("empty list", func(t *testing.T) {
		s := newStore(t)
		tasks, err := s.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("create assigns sequential ids from one", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		first, err := s.Create(ctx, "buy milk", false)
		require.NoError(t, err)
		second, err := s.Create(ctx, "call mom", true)
		require.NoError(t, err)

		assert.Equal(t, int64(1), first.ID)
		assert.Equal(t, "buy milk", first.Text)
		assert.False(t, first.Completed)
		assert.Equal(t, int64(2), second.ID)
		assert.True(t, second.Completed)
	})

	t.Run("find", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		created, err := s.Create(ctx, "walk the dog", false)
		require.NoError(t, err)

		got, found, err := s.Find(ctx, created.ID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, created, got)

		_, found, err = s.Find(ctx, created.ID+100)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("update replaces text and completion", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		created, err := s.Create(ctx, "draft", false)
		require.NoError(t, err)

		updated, found, err := s.Update(ctx, created.ID, "final", true)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "final", updated.Text)
		assert.True(t, updated.Completed)

		// Back to false must persist too.
		_, found, err = s.Update(ctx, created.ID, "final", false)
		require.NoError(t, err)
		require.True(t, found)

		got, _, err := s.Find(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, got.Completed)
		assert.Equal(t, "final", got.Text)
	})

	t.Run("update missing", func(t *testing.T) {
		s := newStore(t)
		_, found, err := s.Update(context.Background(), 99, "nope", false)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		created, err := s.Create(ctx, "temporary", false)
		require.NoError(t, err)

		removed, err := s.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = s.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, removed)

		_, found, err := s.Find(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("ids are not reused after delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, text := range []string{"a", "b", "c"} {
			_, err := s.Create(ctx, text, false)
			require.NoError(t, err)
		}
		_, err := s.Delete(ctx, 3)
		require.NoError(t, err)

		next, err := s.Create(ctx, "d", false)
		require.NoError(t, err)
		assert.Equal(t, int64(4), next.ID)
	})

	t.Run("list is ordered by id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, text := range []string{"a", "b", "c", "d"} {
			_, err := s.Create(ctx, text, false)
			require.NoError(t, err)
		}
		_, err := s.Delete(ctx, 2)
		require.NoError(t, err)
		_, _, err = s.Update(ctx, 1, "a2", true)
		require.NoError(t, err)

		tasks, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 3)
		assert.Equal(t, []int64{1, 3, 4}, []int64{tasks[0].ID, tasks[1].ID, tasks[2].ID})
		assert.Equal(t, "a2", tasks[0].Text)
	})

	t.Run("concurrent creates get distinct ids", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		const n = 25
		ids := make(chan int64, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				created, err := s.Create(ctx, "parallel", false)
				if assert.NoError(t, err) {
					ids <- created.ID
				}
			}()
		}
		wg.Wait()
		close(ids)

		seen := make(map[int64]bool)
		for id := range ids {
			assert.False(t, seen[id], "duplicate id %d", id)
			seen[id] = true
		}
		assert.Len(t, seen, n)

		tasks, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, tasks, n)
	})
}
