package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/theirongolddev/sitebudget/internal/model"
)

// FileName is the session file inside the config directory.
const FileName = "session.toml"

// fileData is the on-disk layout. The user profile is kept as a JSON string.
type fileData struct {
	Token string `toml:"token"`
	User  string `toml:"user"`
}

// FileStore keeps session state in a TOML file readable only by the owner.
type FileStore struct {
	path string
}

// NewFileStore stores state at dir/session.toml.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, FileName)}
}

// Path returns the session file location.
func (f *FileStore) Path() string { return f.path }

// Load reads the file. A missing file is an empty state.
func (f *FileStore) Load() (State, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("reading %s: %w", f.path, err)
	}

	var fd fileData
	if err := toml.Unmarshal(data, &fd); err != nil {
		return State{}, fmt.Errorf("parsing %s: %w", f.path, err)
	}

	st := State{Token: fd.Token}
	if fd.User != "" {
		var u model.User
		if err := json.Unmarshal([]byte(fd.User), &u); err != nil {
			return State{}, fmt.Errorf("parsing stored user: %w", err)
		}
		st.User = &u
	}
	return st, nil
}

// Save writes st with mode 0600.
func (f *FileStore) Save(st State) error {
	fd := fileData{Token: st.Token}
	if st.User != nil {
		b, err := json.Marshal(st.User)
		if err != nil {
			return fmt.Errorf("encoding user: %w", err)
		}
		fd.User = string(b)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}
	file, err := os.OpenFile(f.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating session file: %w", err)
	}
	defer file.Close()

	return toml.NewEncoder(file).Encode(fd)
}

// Clear removes the file.
func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}

// MemoryStore keeps state in memory only.
type MemoryStore struct {
	mu sync.Mutex
	st State
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

// Load implements Store.
func (m *MemoryStore) Load() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st, nil
}

// Save implements Store.
func (m *MemoryStore) Save(st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st = st
	return nil
}

// Clear implements Store.
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st = State{}
	return nil
}
