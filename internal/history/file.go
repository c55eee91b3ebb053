package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultDataDir is where FileStore keeps history when no directory is given.
const DefaultDataDir = "~/.local/share/telegrambis"

// FileStore handles persistence of agent history as JSON files
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore for the named agent under dataDir.
func NewFileStore(dataDir, name string) (*FileStore, error) {
	if dataDir == "" {
		dataDir = DefaultDataDir
	}

	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &FileStore{
		path: filepath.Join(dataDir, historyFileName(name)),
	}, nil
}

// historyFileName returns the file name for an agent
func historyFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "history.json"
	}
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	return fmt.Sprintf("history_%s.json", safe)
}

// Path returns the file backing the store.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the history from disk
func (s *FileStore) Load(_ context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) load() (State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			// No previous history
			return State{}, nil
		}
		return State{}, fmt.Errorf("reading history: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("parsing history: %w", err)
	}
	return state, nil
}

func (s *FileStore) save(state State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}

	// Replace atomically via rename.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	return nil
}

func (s *FileStore) update(fn func(*State)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return err
	}
	fn(&state)
	return s.save(state)
}

// RecordEvent saves the last event time
func (s *FileStore) RecordEvent(_ context.Context, at time.Time) error {
	return s.update(func(st *State) {
		st.LastEventAt = at.UTC()
	})
}

// RecordError saves the last error time and message
func (s *FileStore) RecordError(_ context.Context, at time.Time, message string) error {
	return s.update(func(st *State) {
		st.LastErrorAt = at.UTC()
		st.LastError = message
	})
}
