package history

import (
	"context"
	"strings"
	"sync"
	"time"
)

// State is what the host remembers about an agent between invocations.
type State struct {
	LastEventAt time.Time `json:"last_event_at"`
	LastErrorAt time.Time `json:"last_error_at"`
	LastError   string    `json:"last_error,omitempty"`
}

// Store records agent activity.
type Store interface {
	// RecordEvent notes that the agent emitted an event at the given time.
	RecordEvent(ctx context.Context, at time.Time) error
	// RecordError notes a failed invocation.
	RecordError(ctx context.Context, at time.Time, message string) error
	// Load returns the current state; a store with no history returns a zero State.
	Load(ctx context.Context) (State, error)
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu    sync.Mutex
	state State
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) RecordEvent(_ context.Context, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.LastEventAt = at.UTC()
	return nil
}

func (m *MemoryStore) RecordError(_ context.Context, at time.Time, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.LastErrorAt = at.UTC()
	m.state.LastError = message
	return nil
}

func (m *MemoryStore) Load(_ context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, nil
}

// Open builds a Store from a location string:
//
//	"" or "memory"            in-process
//	"file:<dir>" or "<dir>"   JSON file in dir
//	"redis://host:port/db"    Redis hash; ?ttl=24h&prefix=app: set WithTTL and WithPrefix
//
// name identifies the agent inside the store.
func Open(location, name string) (Store, error) {
	switch {
	case location == "" || location == "memory":
		return NewMemoryStore(), nil
	case strings.HasPrefix(location, "redis://") || strings.HasPrefix(location, "rediss://"):
		return openRedis(location, name)
	default:
		return NewFileStore(strings.TrimPrefix(location, "file:"), name)
	}
}
