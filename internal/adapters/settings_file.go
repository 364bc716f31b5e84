package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/pelletier/go-toml/v2"

	"leanup/internal/ports"
	"leanup/internal/types"
)

// SettingsFileStore persists settings as TOML, caching the parsed value
// for the lifetime of the process. Concurrent writers from independent
// processes follow last-write-wins; only the in-process cache is
// guarded.
type SettingsFileStore struct {
	path  string
	mu    sync.Mutex
	cache *types.Settings
}

func NewSettingsFileStore(path string) *SettingsFileStore {
	return &SettingsFileStore{path: path}
}

func (s *SettingsFileStore) With(fn func(settings *types.Settings) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	return fn(s.cache)
}

func (s *SettingsFileStore) WithMut(fn func(settings *types.Settings) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	if err := fn(s.cache); err != nil {
		return err
	}
	return s.write()
}

func (s *SettingsFileStore) load() error {
	if s.cache != nil {
		return nil
	}
	content, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		fresh := types.NewSettings()
		s.cache = &fresh
		return s.write()
	}
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to read settings '%s'", s.path)).
			WithCause(err)
	}
	var settings types.Settings
	if err := toml.Unmarshal(content, &settings); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("failed to parse settings '%s'", s.path)).
			WithCause(err)
	}
	if settings.Overrides == nil {
		settings.Overrides = map[string]string{}
	}
	s.cache = &settings
	return nil
}

func (s *SettingsFileStore) write() error {
	content, err := toml.Marshal(s.cache)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(s.path, content, 0o644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to write settings '%s'", s.path)).
			WithCause(err)
	}
	return nil
}

var _ ports.SettingsStorePort = (*SettingsFileStore)(nil)
