package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/pelletier/go-toml/v2"

	"leanup/internal/ports"
	"leanup/internal/types"
)

// PinFileName is the per-directory toolchain pin file. Its first line
// is the entire toolchain name; no comments, no multi-line syntax.
const PinFileName = "lean-toolchain"

// ManifestFileName is the legacy package manifest whose
// `package.lean_version` field may pin a toolchain.
const ManifestFileName = "leanpkg.toml"

// OverrideLocator walks a directory and its ancestors to find the
// toolchain governing command execution there. It performs no remote
// resolution and no installation; it only answers "which toolchain
// does this directory want".
type OverrideLocator struct {
	toolchainsDir string
	settings      ports.SettingsStorePort
	roots         ports.RootRegistryPort
	lookup        func(name string) (types.UnresolvedDescriptor, error)
}

func NewOverrideLocator(toolchainsDir string, settings ports.SettingsStorePort, roots ports.RootRegistryPort, lookup func(name string) (types.UnresolvedDescriptor, error)) OverrideLocator {
	return OverrideLocator{
		toolchainsDir: toolchainsDir,
		settings:      settings,
		roots:         roots,
		lookup:        lookup,
	}
}

// FindOverride walks startDir and its ancestors checking, per
// directory, the override database, then the pin file, then the legacy
// manifest. A nearer ancestor always beats a farther one regardless of
// source. Returns nil when no override applies.
func (l OverrideLocator) FindOverride(startDir string) (*types.UnresolvedDescriptor, *types.OverrideReason, error) {
	var settings types.Settings
	if err := l.settings.With(func(s *types.Settings) error {
		settings = *s
		return nil
	}); err != nil {
		return nil, nil, err
	}

	dir := canonicalizePath(startDir)
	toolchainsDir := canonicalizePath(l.toolchainsDir)

	for {
		if name, ok := settings.DirOverride(dir); ok {
			desc, err := l.lookup(name)
			if err != nil {
				return nil, nil, err
			}
			return &desc, &types.OverrideReason{Kind: types.OverrideReasonOverrideDB, Path: dir}, nil
		}

		pinPath := filepath.Join(dir, PinFileName)
		desc, found, err := l.readPinFile(pinPath)
		if err != nil {
			return nil, nil, err
		}
		if found {
			if err := l.roots.AddRoot(dir); err != nil {
				return nil, nil, err
			}
			return &desc, &types.OverrideReason{Kind: types.OverrideReasonPinFile, Path: pinPath}, nil
		}

		manifestPath := filepath.Join(dir, ManifestFileName)
		desc, found, err = l.readManifestPin(manifestPath)
		if err != nil {
			return nil, nil, err
		}
		if found {
			return &desc, &types.OverrideReason{Kind: types.OverrideReasonManifestFile, Path: manifestPath}, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil, nil
		}
		if parent == toolchainsDir {
			// Operating inside a toolchain's own install directory
			// makes that toolchain govern itself.
			decoded, err := types.ParseDirName(filepath.Base(dir))
			if err != nil {
				return nil, nil, err
			}
			return &types.UnresolvedDescriptor{Desc: decoded},
				&types.OverrideReason{Kind: types.OverrideReasonToolchainDir, Path: dir}, nil
		}
		dir = parent
	}
}

// readPinFile reads a toolchain pin file, returning found=false when
// the file does not exist. A present but malformed pin is a hard
// error.
func (l OverrideLocator) readPinFile(path string) (types.UnresolvedDescriptor, bool, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return types.UnresolvedDescriptor{}, false, nil
	}
	if err != nil {
		return types.UnresolvedDescriptor{}, false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to read toolchain file '%s'", path)).
			WithCause(err)
	}
	name := firstLine(string(content))
	desc, err := l.lookup(name)
	if err != nil {
		return types.UnresolvedDescriptor{}, false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid toolchain name in '%s'", path)).
			WithCause(err)
	}
	return desc, true, nil
}

// manifestDoc mirrors the slice of the legacy manifest this walk cares
// about. The lean_version value is typed loosely so a non-string can
// be reported instead of silently skipped.
type manifestDoc struct {
	Package map[string]any `toml:"package"`
}

// readManifestPin extracts `package.lean_version` from a legacy
// manifest. Missing file or missing field is not an error; malformed
// TOML or a non-string value is.
func (l OverrideLocator) readManifestPin(path string) (types.UnresolvedDescriptor, bool, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return types.UnresolvedDescriptor{}, false, nil
	}
	if err != nil {
		return types.UnresolvedDescriptor{}, false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to read manifest '%s'", path)).
			WithCause(err)
	}
	var doc manifestDoc
	if err := toml.Unmarshal(content, &doc); err != nil {
		return types.UnresolvedDescriptor{}, false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("failed to parse '%s'", path)).
			WithCause(err)
	}
	raw, ok := doc.Package["lean_version"]
	if !ok {
		return types.UnresolvedDescriptor{}, false, nil
	}
	name, ok := raw.(string)
	if !ok {
		return types.UnresolvedDescriptor{}, false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("lean_version in '%s' is not a string", path))
	}
	desc, err := l.lookup(strings.TrimSpace(name))
	if err != nil {
		return types.UnresolvedDescriptor{}, false, err
	}
	return desc, true, nil
}

// canonicalizePath resolves symlinks and makes the path absolute,
// falling back to a cleaned absolute path when the target does not
// exist yet.
func canonicalizePath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
