package activity

import (
	"sync"
	"time"
)

// Entry types recorded in the feed.
const (
	TypeTaskCreated = "task_created"
	TypeTaskUpdated = "task_updated"
	TypeTaskDeleted = "task_deleted"
)

// Entry is one recorded task change.
type Entry struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	TaskID    int64     `json:"task_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Feed is a fixed-capacity ring of the most recent entries.
type Feed struct {
	entries []Entry
	next    int
	full    bool
	mu      sync.RWMutex
}

// NewFeed creates a feed holding at most capacity entries.
func NewFeed(capacity int) *Feed {
	if capacity < 1 {
		capacity = 1
	}
	return &Feed{entries: make([]Entry, capacity)}
}

// Capacity returns the maximum number of entries kept.
func (f *Feed) Capacity() int {
	return len(f.entries)
}

// Append records e, overwriting the oldest entry when full.
func (f *Feed) Append(e Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries[f.next] = e
	f.next = (f.next + 1) % len(f.entries)
	if f.next == 0 {
		f.full = true
	}
}

// Len returns the number of entries currently held.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.lenLocked()
}

func (f *Feed) lenLocked() int {
	if f.full {
		return len(f.entries)
	}
	return f.next
}

// Recent returns up to limit entries, newest first.
func (f *Feed) Recent(limit int) []Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()

	n := f.lenLocked()
	if limit <= 0 || limit > n {
		limit = n
	}

	result := make([]Entry, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (f.next - i + len(f.entries)) % len(f.entries)
		result = append(result, f.entries[idx])
	}
	return result
}
