package ports

import "leanup/internal/types"

// SettingsStorePort gives scoped access to the persisted settings. With
// runs a read-only closure against the current settings; WithMut runs a
// mutating closure and persists the result.
type SettingsStorePort interface {
	With(fn func(s *types.Settings) error) error
	WithMut(fn func(s *types.Settings) error) error
}

// RootRegistryPort persists the append-only list of project roots ever
// seen with a toolchain pin file. Read only by the GC analyzer.
type RootRegistryPort interface {
	// AddRoot records a project root, suppressing duplicates.
	AddRoot(path string) error

	// Roots returns every recorded project root.
	Roots() ([]string, error)
}

// ObserverPort receives typed events from the core. The presentation
// layer (terminal logger, JSON dumper) decides how to render them.
type ObserverPort interface {
	OnEvent(event types.Event)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) OnEvent(types.Event) {}
