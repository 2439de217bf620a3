/*
Package storage
File: slot.go
Description:
    The persistence layer for save games.
    The engine treats a save as an opaque blob in a single named slot;
    this package decides where that blob lives.
*/

package storage

import (
	"context"
	"sync"
)

// Slot is a single named save slot.
type Slot interface {
	// Save overwrites the slot with the serialized game.
	Save(ctx context.Context, data []byte) error

	// Load returns the slot contents. ok is false when nothing was saved yet.
	Load(ctx context.Context) (data []byte, ok bool, err error)
}

// MemorySlot keeps the save in memory. Used by tests.
type MemorySlot struct {
	mu   sync.Mutex
	data []byte
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

func (m *MemorySlot) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *MemorySlot) Load(_ context.Context) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, false, nil
	}
	return append([]byte(nil), m.data...), true, nil
}
