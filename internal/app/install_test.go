package app

import (
	"archive/tar"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leanup/internal/adapters"
	"leanup/internal/ports"
	"leanup/internal/types"
)

// ---------- Test doubles ----------

type collectObserver struct {
	mu     sync.Mutex
	events []types.Event
}

func (o *collectObserver) OnEvent(event types.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func (o *collectObserver) kinds() []types.EventKind {
	o.mu.Lock()
	defer o.mu.Unlock()
	kinds := make([]types.EventKind, 0, len(o.events))
	for _, event := range o.events {
		kinds = append(kinds, event.Kind)
	}
	return kinds
}

type fakeReleaseHost struct {
	assetURL string
	assetErr error
}

func (h *fakeReleaseHost) FetchToolchainPin(context.Context, string) (string, error) {
	return "", errbuilder.New().WithCode(errbuilder.CodeUnavailable).WithMsg("no pin in test")
}

func (h *fakeReleaseHost) LatestRelease(context.Context, string, types.Channel) (string, error) {
	return "", errbuilder.New().WithCode(errbuilder.CodeUnavailable).WithMsg("no feed in test")
}

func (h *fakeReleaseHost) FindAssetURL(context.Context, string, string, string) (string, error) {
	if h.assetErr != nil {
		return "", h.assetErr
	}
	return h.assetURL, nil
}

type fakeDownloader struct {
	mu      sync.Mutex
	payload []byte
	delay   time.Duration
	calls   int
}

func (d *fakeDownloader) Download(_ context.Context, _ string, dest string, _ ports.ObserverPort) error {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, d.payload, 0o644)
}

func (d *fakeDownloader) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type failingUnpacker struct{}

func (failingUnpacker) Unpack(string, string) error {
	return errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("corrupt archive")
}

// makeToolchainArchive builds a gzipped tarball with the single
// top-level directory layout release archives use.
func makeToolchainArchive(t *testing.T, root string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     root + "/bin/",
		Typeflag: tar.TypeDir,
		Mode:     0o755,
	}))
	content := []byte("#!/bin/sh\necho lean\n")
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     root + "/bin/lean",
		Typeflag: tar.TypeReg,
		Mode:     0o755,
		Size:     int64(len(content)),
	}))
	_, err := tw.Write(content)
	require.NoError(t, err)

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func testService(t *testing.T, observer ports.ObserverPort) (*Service, *fakeReleaseHost, *fakeDownloader) {
	t.Helper()
	home := t.TempDir()
	if observer == nil {
		observer = ports.NopObserver{}
	}
	host := &fakeReleaseHost{
		assetURL: "https://example.com/releases/download/v4.9.0/lean-4.9.0-linux.tar.gz",
	}
	downloader := &fakeDownloader{payload: makeToolchainArchive(t, "lean-4.9.0-linux")}
	return &Service{
		Home:          home,
		ToolchainsDir: filepath.Join(home, "toolchains"),
		DownloadsDir:  filepath.Join(home, "downloads"),
		Settings:      adapters.NewSettingsFileStore(filepath.Join(home, "settings.toml")),
		Roots:         adapters.NewRootRegistryFile(filepath.Join(home, "known-projects")),
		Host:          host,
		Downloader:    downloader,
		Unpacker:      adapters.NewArchiveUnpacker(),
		Observer:      observer,
	}, host, downloader
}

// ---------- Install tests ----------

func TestInstallFromDistMaterializesToolchain(t *testing.T) {
	observer := &collectObserver{}
	service, _, _ := testService(t, observer)
	desc := types.RemoteDescriptor("leanprover/lean4", "v4.9.0")

	require.NoError(t, service.InstallFromDist(t.Context(), desc))

	tc := service.Toolchain(desc)
	assert.True(t, tc.Exists())
	_, err := os.Stat(filepath.Join(tc.Path, "bin", "lean"))
	require.NoError(t, err)

	_, err = os.Stat(tc.Path + ".tmp")
	assert.True(t, os.IsNotExist(err), "staging directory must not survive the install")

	listed, err := service.ListToolchains()
	require.NoError(t, err)
	assert.Len(t, listed, 1, "lock and staging residue must not list as toolchains")

	kinds := observer.kinds()
	assert.Contains(t, kinds, types.EventInstalling)
	assert.Contains(t, kinds, types.EventInstalled)
}

func TestInstallFromDistAlreadyInstalled(t *testing.T) {
	service, _, _ := testService(t, nil)
	desc := types.RemoteDescriptor("leanprover/lean4", "v4.9.0")
	require.NoError(t, os.MkdirAll(service.Toolchain(desc).Path, 0o755))

	err := service.InstallFromDist(t.Context(), desc)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeAlreadyExists, errbuilder.CodeOf(err))
}

func TestEnsureInstalledIsIdempotent(t *testing.T) {
	observer := &collectObserver{}
	service, _, downloader := testService(t, observer)
	desc := types.RemoteDescriptor("leanprover/lean4", "v4.9.0")

	require.NoError(t, service.EnsureInstalled(t.Context(), desc))
	require.NoError(t, service.EnsureInstalled(t.Context(), desc))

	assert.Equal(t, 1, downloader.callCount())
	assert.Contains(t, observer.kinds(), types.EventUsingExisting)
}

func TestInstallClearsStaleStaging(t *testing.T) {
	service, _, _ := testService(t, nil)
	desc := types.RemoteDescriptor("leanprover/lean4", "v4.9.0")
	tc := service.Toolchain(desc)

	staging := tc.Path + ".tmp"
	require.NoError(t, os.MkdirAll(filepath.Join(staging, "leftover"), 0o755))

	require.NoError(t, service.InstallFromDist(t.Context(), desc))
	assert.True(t, tc.Exists())
	_, err := os.Stat(filepath.Join(tc.Path, "leftover"))
	assert.True(t, os.IsNotExist(err), "stale staging content must not leak into the install")
}

func TestPrepareStagingReportsInternalFault(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("directory permissions do not restrict creation on windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not bind as root")
	}
	parent := t.TempDir()
	require.NoError(t, os.Chmod(parent, 0o500))
	t.Cleanup(func() { os.Chmod(parent, 0o755) })

	err := prepareStaging(filepath.Join(parent, "toolchain.tmp"))
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInternal, errbuilder.CodeOf(err))
}

func TestFailedExtractionLeavesNoInstallRoot(t *testing.T) {
	service, _, _ := testService(t, nil)
	service.Unpacker = failingUnpacker{}
	desc := types.RemoteDescriptor("leanprover/lean4", "v4.9.0")
	tc := service.Toolchain(desc)

	err := service.InstallFromDist(t.Context(), desc)
	require.Error(t, err)
	assert.False(t, tc.Exists())
	_, statErr := os.Stat(tc.Path + ".tmp")
	assert.True(t, os.IsNotExist(statErr))
}

func TestConcurrentInstallRunsOnce(t *testing.T) {
	service, _, downloader := testService(t, nil)
	downloader.delay = 100 * time.Millisecond
	desc := types.RemoteDescriptor("leanprover/lean4", "v4.9.0")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = service.EnsureInstalled(t.Context(), desc)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 1, downloader.callCount())
	assert.True(t, service.Toolchain(desc).Exists())
}

func TestStaleLockFileDoesNotBlockInstall(t *testing.T) {
	service, _, _ := testService(t, nil)
	desc := types.RemoteDescriptor("leanprover/lean4", "v4.9.0")
	tc := service.Toolchain(desc)

	// A lock file left by a dead installer carries no OS lock anymore
	// and must not delay acquisition.
	require.NoError(t, os.MkdirAll(service.ToolchainsDir, 0o755))
	require.NoError(t, os.WriteFile(tc.Path+".lock", []byte("999999"), 0o644))

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	require.NoError(t, service.InstallFromDist(ctx, desc))
	assert.True(t, tc.Exists())
}

func TestInstallLocalToolchainFails(t *testing.T) {
	service, _, _ := testService(t, nil)
	desc := types.LocalDescriptor("my-build")

	err := service.InstallFromDist(t.Context(), desc)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

func TestInstallPropagatesAssetLookupFailure(t *testing.T) {
	service, host, downloader := testService(t, nil)
	host.assetErr = errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg("binary package was not provided for 'linux'")
	desc := types.RemoteDescriptor("leanprover/lean4", "v4.9.0")

	err := service.InstallFromDist(t.Context(), desc)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
	assert.Equal(t, 0, downloader.callCount())
}

// ---------- Uninstall tests ----------

func TestUninstallRemovesToolchain(t *testing.T) {
	service, _, _ := testService(t, nil)
	desc := types.RemoteDescriptor("leanprover/lean4", "v4.9.0")
	require.NoError(t, service.InstallFromDist(t.Context(), desc))

	require.NoError(t, service.Uninstall(t.Context(), desc))
	assert.False(t, service.Toolchain(desc).Exists())
}

func TestUninstallMissingToolchainErrors(t *testing.T) {
	service, _, _ := testService(t, nil)
	desc := types.RemoteDescriptor("leanprover/lean4", "v4.9.0")

	err := service.Uninstall(t.Context(), desc)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

// ---------- Platform tests ----------

func TestPlatformAssetSubstring(t *testing.T) {
	assert.Equal(t, "linux", platformAssetSubstring("linux", "amd64"))
	assert.Equal(t, "darwin", platformAssetSubstring("darwin", "amd64"))
	assert.Equal(t, "windows", platformAssetSubstring("windows", "amd64"))
	assert.Equal(t, "linux_aarch64", platformAssetSubstring("linux", "arm64"))
	assert.Equal(t, "darwin_aarch64", platformAssetSubstring("darwin", "arm64"))
}

// ---------- Link tests ----------

func TestLinkInstallsSymlinkedCustomToolchain(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated rights on windows")
	}
	service, _, _ := testService(t, nil)

	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "bin", "lean"), []byte("lean"), 0o755))

	require.NoError(t, service.Link("my-build", src))

	desc := types.LocalDescriptor("my-build")
	tc := service.Toolchain(desc)
	assert.True(t, tc.Exists())
	assert.True(t, tc.IsCustom())
	assert.True(t, service.isCustomLocal("my-build"))
}

func TestLinkRejectsDirWithoutLean(t *testing.T) {
	service, _, _ := testService(t, nil)

	err := service.Link("my-build", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}
