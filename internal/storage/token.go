package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// TokenKey is the fixed key the bearer token is persisted under.
const TokenKey = "token"

// TokenStore is durable client-side storage for the bearer token.
// Load returns "" when nothing is stored.
type TokenStore interface {
	LoadToken() (string, error)
	SaveToken(token string) error
	ClearToken() error
}

// JSONStorage keeps the token in a small JSON document on disk. It is the
// only state the client persists.
type JSONStorage struct {
	FilePath string
	mu       sync.RWMutex
	data     map[string]string
}

func NewJSONStorage(filePath string) (*JSONStorage, error) {
	s := &JSONStorage{FilePath: filePath, data: make(map[string]string)}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	if err := s.loadFromFile(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return s, nil
}

var _ TokenStore = (*JSONStorage)(nil)

func (s *JSONStorage) loadFromFile() error {
	b, err := os.ReadFile(s.FilePath)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, &s.data); err != nil {
		return fmt.Errorf("decode %s: %w", s.FilePath, err)
	}
	if s.data == nil {
		s.data = make(map[string]string)
	}
	return nil
}

// saveToFile writes through a temp file so a crash never leaves a torn
// document behind.
func (s *JSONStorage) saveToFile() error {
	b, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.FilePath + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.FilePath)
}

func (s *JSONStorage) LoadToken() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[TokenKey], nil
}

func (s *JSONStorage) SaveToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[TokenKey] = token
	return s.saveToFile()
}

func (s *JSONStorage) ClearToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, TokenKey)
	return s.saveToFile()
}

// MemoryStorage is a TokenStore that lives only as long as the process.
type MemoryStorage struct {
	mu    sync.RWMutex
	token string
}

var _ TokenStore = (*MemoryStorage)(nil)

func (m *MemoryStorage) LoadToken() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *MemoryStorage) SaveToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStorage) ClearToken() error {
	return m.SaveToken("")
}
