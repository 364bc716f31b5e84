package app

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"leanup/internal/core"
	"leanup/internal/types"
)

// Toolchain is a handle on a descriptor's installation directory,
// which may or may not exist. Existence is checked by filesystem probe
// at each use; directory presence is the only installed flag.
type Toolchain struct {
	svc  *Service
	Desc types.ToolchainDescriptor
	Path string
}

// Toolchain builds the handle for a descriptor.
func (s *Service) Toolchain(desc types.ToolchainDescriptor) Toolchain {
	return Toolchain{
		svc:  s,
		Desc: desc,
		Path: filepath.Join(s.ToolchainsDir, desc.DirName()),
	}
}

// Exists reports whether the toolchain directory is present. Linked
// toolchains are symlinks, so the symlink itself counts.
func (t Toolchain) Exists() bool {
	if info, err := os.Stat(t.Path); err == nil && info.IsDir() {
		return true
	}
	return t.isSymlink()
}

// IsCustom reports whether the toolchain is a symlinked custom
// install. Custom toolchains are never resolved remotely and never
// garbage collected.
func (t Toolchain) IsCustom() bool {
	return t.isSymlink()
}

func (t Toolchain) isSymlink() bool {
	info, err := os.Lstat(t.Path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// BinaryPath returns the path of a binary inside the toolchain.
func (t Toolchain) BinaryPath(binary string) string {
	if runtime.GOOS == "windows" && filepath.Ext(binary) == "" {
		binary += ".exe"
	}
	return filepath.Join(t.Path, "bin", binary)
}

// Remove deletes the toolchain directory if present. Absence is not an
// error here; explicit uninstall of a missing toolchain is rejected at
// the service level instead.
func (t Toolchain) Remove() error {
	if !t.Exists() {
		t.svc.Observer.OnEvent(types.Event{Kind: types.EventNotInstalled, Toolchain: t.Desc.String()})
		return nil
	}
	t.svc.Observer.OnEvent(types.Event{Kind: types.EventUninstalling, Toolchain: t.Desc.String()})
	if err := removeInstall(t.Path); err != nil {
		return err
	}
	t.svc.Observer.OnEvent(types.Event{Kind: types.EventUninstalled, Toolchain: t.Desc.String()})
	return nil
}

// removeInstall removes a toolchain path, unlinking symlinked installs
// instead of descending into their targets.
func removeInstall(path string) error {
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return os.Remove(path)
	}
	return os.RemoveAll(path)
}

// ListToolchains decodes every toolchain directory name under the
// installation root, sorted for listing.
func (s *Service) ListToolchains() ([]types.ToolchainDescriptor, error) {
	entries, err := os.ReadDir(s.ToolchainsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read toolchains directory").
			WithCause(err)
	}
	var descs []types.ToolchainDescriptor
	for _, entry := range entries {
		name := entry.Name()
		if filepath.Ext(name) == lockFileExt || filepath.Ext(name) == stagingDirExt {
			continue
		}
		if entry.Type().IsRegular() {
			continue
		}
		desc, err := types.ParseDirName(name)
		if err != nil {
			continue
		}
		descs = append(descs, desc)
	}
	core.SortToolchains(descs)
	return descs, nil
}

// installedReleases lists the installed release tags for an origin,
// for the resolver's stale-cache fallback.
func (s *Service) installedReleases(origin string) ([]string, error) {
	descs, err := s.ListToolchains()
	if err != nil {
		return nil, err
	}
	var releases []string
	for _, desc := range descs {
		if desc.Kind == types.DescriptorRemote && desc.Origin == origin {
			releases = append(releases, desc.Release)
		}
	}
	return releases, nil
}

// isCustomLocal reports whether a custom (symlinked) local toolchain
// of the given name is installed.
func (s *Service) isCustomLocal(name string) bool {
	tc := s.Toolchain(types.LocalDescriptor(name))
	return tc.Exists() && tc.IsCustom()
}

// Link installs a local toolchain as a symlink to an existing build
// directory. The source must carry a bin/lean binary.
func (s *Service) Link(name string, src string) error {
	return s.installFromDir(name, src, true)
}

// CopyInstall installs a local toolchain by copying a build directory.
func (s *Service) CopyInstall(name string, src string) error {
	return s.installFromDir(name, src, false)
}

func (s *Service) installFromDir(name string, src string, link bool) error {
	desc := types.LocalDescriptor(name)
	tc := s.Toolchain(desc)
	if tc.Exists() {
		return alreadyInstalledErr(desc)
	}
	binary := filepath.Join(src, "bin", "lean")
	if runtime.GOOS == "windows" {
		binary += ".exe"
	}
	if _, err := os.Stat(binary); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("'%s' does not contain a lean toolchain (missing bin/lean)", src)).
			WithCause(err)
	}
	if err := os.MkdirAll(s.ToolchainsDir, 0o755); err != nil {
		return err
	}
	abs, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	s.Observer.OnEvent(types.Event{Kind: types.EventInstalling, Toolchain: desc.String()})
	if link {
		if err := os.Symlink(abs, tc.Path); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to link toolchain '%s'", name)).
				WithCause(err)
		}
	} else {
		if err := copyDir(abs, tc.Path); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to copy toolchain '%s'", name)).
				WithCause(err)
		}
	}
	s.Observer.OnEvent(types.Event{Kind: types.EventInstalled, Toolchain: desc.String()})
	return nil
}

func copyDir(src string, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		switch {
		case info.IsDir():
			return os.MkdirAll(target, info.Mode()&0o777)
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		default:
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			return os.WriteFile(target, content, info.Mode()&0o777)
		}
	})
}
