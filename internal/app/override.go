package app

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"leanup/internal/types"
)

// FindOverride determines which toolchain governs a directory. The
// process-wide environment override wins outright; otherwise the
// directory walk decides. Returns nils when no override applies and
// the global default should be used.
func (s *Service) FindOverride(ctx context.Context, dir string) (*types.UnresolvedDescriptor, *types.OverrideReason, error) {
	if s.EnvOverride != "" {
		desc, err := s.Lookup(s.EnvOverride)
		if err != nil {
			return nil, nil, err
		}
		return &desc, &types.OverrideReason{Kind: types.OverrideReasonEnvironment}, nil
	}
	return s.locator().FindOverride(dir)
}

// GoverningToolchain resolves the toolchain governing a directory,
// falling back to the global default. The reason is nil for the
// default case.
func (s *Service) GoverningToolchain(ctx context.Context, dir string) (types.ToolchainDescriptor, *types.OverrideReason, error) {
	unresolved, reason, err := s.FindOverride(ctx, dir)
	if err != nil {
		return types.ToolchainDescriptor{}, nil, err
	}
	if unresolved != nil {
		desc, err := s.Resolve(ctx, *unresolved, true, true)
		if err != nil {
			return types.ToolchainDescriptor{}, nil, err
		}
		return desc, reason, nil
	}
	desc, err := s.ResolveDefault(ctx)
	if err != nil {
		return types.ToolchainDescriptor{}, nil, err
	}
	if desc == nil {
		return types.ToolchainDescriptor{}, nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("no override and no default toolchain configured")
	}
	return *desc, nil, nil
}

// WhichBinary returns the path of a binary inside the toolchain
// governing a directory, installing the toolchain on demand.
func (s *Service) WhichBinary(ctx context.Context, dir string, binary string) (string, error) {
	desc, _, err := s.GoverningToolchain(ctx, dir)
	if err != nil {
		return "", err
	}
	if err := s.EnsureInstalled(ctx, desc); err != nil {
		return "", err
	}
	return s.Toolchain(desc).BinaryPath(binary), nil
}

// SetOverride resolves a name and records it as the override for a
// directory in the override database.
func (s *Service) SetOverride(ctx context.Context, dir string, name string) (types.ToolchainDescriptor, error) {
	desc, err := s.ResolveName(ctx, name, false)
	if err != nil {
		return types.ToolchainDescriptor{}, err
	}
	key := canonicalOverrideKey(dir)
	if err := s.Settings.WithMut(func(settings *types.Settings) error {
		settings.AddOverride(key, desc.String())
		return nil
	}); err != nil {
		return types.ToolchainDescriptor{}, err
	}
	s.Observer.OnEvent(types.Event{Kind: types.EventSetOverride, Toolchain: desc.String(), Path: key})
	return desc, nil
}

// UnsetOverride removes the override for a directory, reporting
// whether one was present.
func (s *Service) UnsetOverride(dir string) (bool, error) {
	key := canonicalOverrideKey(dir)
	removed := false
	err := s.Settings.WithMut(func(settings *types.Settings) error {
		removed = settings.RemoveOverride(key)
		return nil
	})
	return removed, err
}

// Overrides returns the override database as sorted (path, toolchain)
// pairs.
func (s *Service) Overrides() ([][2]string, error) {
	var entries [][2]string
	if err := s.Settings.With(func(settings *types.Settings) error {
		for dir, toolchain := range settings.Overrides {
			entries = append(entries, [2]string{dir, toolchain})
		}
		return nil
	}); err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i][0] < entries[j][0] })
	return entries, nil
}

// canonicalOverrideKey matches the walk's canonicalization so an
// override set for a directory is found when walking it.
func canonicalOverrideKey(dir string) string {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return filepath.Clean(dir)
}
