package types

// SettingsVersion is written into fresh settings files so a future
// format change can be detected on read.
const SettingsVersion = "12"

// Settings is the persisted process-wide configuration: the global
// default toolchain and the override database mapping canonicalized
// directory paths to resolved descriptor strings. Serialized as TOML.
type Settings struct {
	Version          string            `toml:"version"`
	DefaultToolchain string            `toml:"default_toolchain,omitempty"`
	Overrides        map[string]string `toml:"overrides"`
}

// NewSettings returns an empty settings value at the current version.
func NewSettings() Settings {
	return Settings{
		Version:   SettingsVersion,
		Overrides: map[string]string{},
	}
}

// DirOverride returns the override database entry for a canonicalized
// directory path, if any.
func (s Settings) DirOverride(dir string) (string, bool) {
	value, ok := s.Overrides[dir]
	return value, ok
}

// AddOverride records an override for a canonicalized directory path.
func (s *Settings) AddOverride(dir string, toolchain string) {
	if s.Overrides == nil {
		s.Overrides = map[string]string{}
	}
	s.Overrides[dir] = toolchain
}

// RemoveOverride deletes the override for a directory path, reporting
// whether one was present.
func (s *Settings) RemoveOverride(dir string) bool {
	if _, ok := s.Overrides[dir]; !ok {
		return false
	}
	delete(s.Overrides, dir)
	return true
}
