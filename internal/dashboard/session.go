package dashboard

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Keys the dashboards persist between mounts.
const (
	KeyUser               = "user"
	KeyPharmaActiveTab    = "pharmaActiveTab"
	KeyLabActiveTab       = "labActiveTab"
	KeyRadiologyActiveTab = "radiologyActiveTab"
)

// SessionUser is the signed-in identity.
type SessionUser struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// PersistenceAdapter is where the session store keeps its keys. The
// mechanism is injected so the store's logic tests without touching disk.
type PersistenceAdapter interface {
	Load() (map[string]string, error)
	Save(map[string]string) error
}

// MemoryAdapter keeps everything in process. The zero value is usable.
type MemoryAdapter struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *MemoryAdapter) Load() (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryAdapter) Save(data map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]string, len(data))
	for k, v := range data {
		m.data[k] = v
	}
	return nil
}

// FileAdapter persists the keys as one JSON object on disk.
type FileAdapter struct {
	Path string
}

func (f *FileAdapter) Load() (map[string]string, error) {
	buf, err := os.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	var data map[string]string
	if err := json.Unmarshal(buf, &data); err != nil {
		return nil, fmt.Errorf("corrupt session file %s: %w", f.Path, err)
	}
	return data, nil
}

func (f *FileAdapter) Save(data map[string]string) error {
	buf, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, buf, 0o600)
}

// Store holds the session and per-dashboard UI keys behind an injected
// persistence adapter.
type Store struct {
	adapter PersistenceAdapter

	mu   sync.Mutex
	data map[string]string
}

func NewStore(adapter PersistenceAdapter) (*Store, error) {
	data, err := adapter.Load()
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]string{}
	}
	return &Store{adapter: adapter, data: data}, nil
}

func (s *Store) flushLocked() error {
	return s.adapter.Save(s.data)
}

// SetUser stores the signed-in identity.
func (s *Store) SetUser(u SessionUser) error {
	buf, err := json.Marshal(u)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[KeyUser] = string(buf)
	return s.flushLocked()
}

// User returns the signed-in identity, or false when nobody is.
func (s *Store) User() (SessionUser, bool) {
	s.mu.Lock()
	raw, ok := s.data[KeyUser]
	s.mu.Unlock()
	if !ok {
		return SessionUser{}, false
	}
	var u SessionUser
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return SessionUser{}, false
	}
	return u, true
}

// SetActiveTab remembers the open tab of one dashboard.
func (s *Store) SetActiveTab(key, tab string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = tab
	return s.flushLocked()
}

func (s *Store) ActiveTab(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tab, ok := s.data[key]
	return tab, ok
}

// Clear wipes every key. Logout calls this.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = map[string]string{}
	return s.flushLocked()
}
