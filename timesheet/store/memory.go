// Package store provides an in-memory Store implementation.
package store

import (
	"context"
	"sync"

	"github.com/warp/timesheet/timesheet"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps the collection in a slice. Saves counts every successful
// Save and Overwrite so tests can assert on write traffic.
type Memory struct {
	mu      sync.RWMutex
	entries timesheet.Entries
	saves   int

	// FailSave, when set, is returned by Save and Overwrite instead of writing.
	FailSave error
}

func NewMemory(entries ...timesheet.Entry) *Memory {
	return &Memory{entries: timesheet.Entries(entries).Clone()}
}

func (m *Memory) Load(_ context.Context) (timesheet.Entries, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries.Clone(), nil
}

// Save replaces the collection. All or nothing.
func (m *Memory) Save(_ context.Context, entries timesheet.Entries) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaceLocked(entries)
}

func (m *Memory) Overwrite(_ context.Context, entries timesheet.Entries) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaceLocked(entries)
}

func (m *Memory) replaceLocked(entries timesheet.Entries) error {
	if m.FailSave != nil {
		return m.FailSave
	}
	m.entries = entries.Clone()
	if m.entries == nil {
		m.entries = timesheet.Entries{}
	}
	m.saves++
	return nil
}

// Saves returns how many writes succeeded.
func (m *Memory) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
