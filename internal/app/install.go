package app

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"

	"leanup/internal/types"
)

const (
	lockFileExt   = ".lock"
	stagingDirExt = ".tmp"
)

// platformAssetSubstring is the substring a release asset name must
// contain to match the current platform. The architecture suffix is
// appended only for non-x86_64 hosts.
func platformAssetSubstring(goos string, goarch string) string {
	if goarch == "amd64" {
		return goos
	}
	archName := goarch
	if goarch == "arm64" {
		archName = "aarch64"
	}
	return goos + "_" + archName
}

// InstallFromDist installs a resolved remote toolchain, failing when
// it is already installed.
func (s *Service) InstallFromDist(ctx context.Context, desc types.ToolchainDescriptor) error {
	tc := s.Toolchain(desc)
	if tc.Exists() {
		return alreadyInstalledErr(desc)
	}
	s.Observer.OnEvent(types.Event{Kind: types.EventInstalling, Toolchain: desc.String()})
	return s.manifest(ctx, tc)
}

// EnsureInstalled installs a resolved toolchain unless it is already
// present; the already-installed case is a silent success.
func (s *Service) EnsureInstalled(ctx context.Context, desc types.ToolchainDescriptor) error {
	tc := s.Toolchain(desc)
	if tc.Exists() {
		s.Observer.OnEvent(types.Event{Kind: types.EventUsingExisting, Toolchain: desc.String()})
		return nil
	}
	s.Observer.OnEvent(types.Event{Kind: types.EventInstalling, Toolchain: desc.String()})
	return s.manifest(ctx, tc)
}

// manifest materializes the toolchain directory: under the install
// lock it locates the platform asset, downloads it, extracts into a
// staging directory and atomically promotes it. A crash before the
// final rename leaves no install root behind.
func (s *Service) manifest(ctx context.Context, tc Toolchain) error {
	desc := tc.Desc
	if desc.Kind != types.DescriptorRemote {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("local toolchain '%s' is not installed and cannot be fetched", desc))
	}
	assert.NotEmpty(ctx, desc.Origin, "remote descriptor must carry an origin")
	assert.NotEmpty(ctx, desc.Release, "remote descriptor must carry a release")

	if err := os.MkdirAll(s.ToolchainsDir, 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create toolchains directory").
			WithCause(err)
	}

	lock, err := acquireInstallLock(ctx, tc.Path+lockFileExt, s.Observer)
	if err != nil {
		return err
	}
	defer lock.release()

	// A concurrent installer may have finished while we waited.
	if tc.Exists() {
		s.Observer.OnEvent(types.Event{Kind: types.EventUsingExisting, Toolchain: desc.String()})
		return nil
	}

	platform := platformAssetSubstring(runtime.GOOS, runtime.GOARCH)
	assetURL, err := s.Host.FindAssetURL(ctx, desc.Origin, desc.Release, platform)
	if err != nil {
		return err
	}
	archivePath, err := s.archivePath(assetURL)
	if err != nil {
		return err
	}
	if err := s.Downloader.Download(ctx, assetURL, archivePath, s.Observer); err != nil {
		return err
	}
	defer os.Remove(archivePath)

	staging := tc.Path + stagingDirExt
	if err := prepareStaging(staging); err != nil {
		return err
	}
	s.Observer.OnEvent(types.Event{Kind: types.EventExtracting, Path: staging, Toolchain: desc.String()})
	if err := s.Unpacker.Unpack(archivePath, staging); err != nil {
		os.RemoveAll(staging)
		return err
	}
	if err := os.Rename(staging, tc.Path); err != nil {
		os.RemoveAll(staging)
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to promote toolchain into '%s'", tc.Path)).
			WithCause(err)
	}
	s.Observer.OnEvent(types.Event{Kind: types.EventInstalled, Toolchain: desc.String()})
	return nil
}

// Uninstall removes an installed toolchain. Explicitly uninstalling a
// toolchain that is not installed is an error.
func (s *Service) Uninstall(ctx context.Context, desc types.ToolchainDescriptor) error {
	tc := s.Toolchain(desc)
	if !tc.Exists() {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("toolchain '%s' is not installed", desc))
	}
	return tc.Remove()
}

// prepareStaging resets the staging directory for a fresh extraction.
// A stale staging directory from an aborted attempt must not block the
// retry.
func prepareStaging(staging string) error {
	if err := os.RemoveAll(staging); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to clear staging directory '%s'", staging)).
			WithCause(err)
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to create staging directory '%s'", staging)).
			WithCause(err)
	}
	return nil
}

// archivePath places a downloaded asset under the downloads directory
// keeping its original filename, which carries the format suffix the
// unpacker dispatches on.
func (s *Service) archivePath(assetURL string) (string, error) {
	parsed, err := url.Parse(assetURL)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to parse asset url '%s'", assetURL)).
			WithCause(err)
	}
	base := path.Base(parsed.Path)
	if base == "." || base == "/" || base == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to derive archive name from '%s'", assetURL))
	}
	return filepath.Join(s.DownloadsDir, base), nil
}

func alreadyInstalledErr(desc types.ToolchainDescriptor) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeAlreadyExists).
		WithMsg(fmt.Sprintf("toolchain '%s' is already installed", desc))
}
