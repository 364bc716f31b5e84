package app

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leanup/internal/types"
)

func installDir(t *testing.T, service *Service, desc types.ToolchainDescriptor) {
	t.Helper()
	require.NoError(t, os.MkdirAll(service.Toolchain(desc).Path, 0o755))
}

func usedLabels(report types.GCReport) map[string]string {
	labels := make(map[string]string, len(report.Used))
	for _, entry := range report.Used {
		labels[entry.Name] = entry.Label
	}
	return labels
}

func TestAnalyzeToolchainsClassifiesLiveness(t *testing.T) {
	service, _, _ := testService(t, nil)

	installDir(t, service, types.RemoteDescriptor("leanprover/lean4", "v4.6.0"))
	installDir(t, service, types.RemoteDescriptor("leanprover/lean4", "v4.7.0"))
	installDir(t, service, types.RemoteDescriptor("leanprover/lean4", "v4.9.0"))
	installDir(t, service, types.RemoteDescriptor("leanprover/lean4", "v4.10.0"))

	require.NoError(t, service.Settings.WithMut(func(s *types.Settings) error {
		s.DefaultToolchain = "leanprover/lean4:v4.9.0"
		s.AddOverride("/proj", "leanprover/lean4:v4.7.0")
		return nil
	}))

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "lean-toolchain"), []byte("leanprover/lean4:v4.6.0\n"), 0o644))
	require.NoError(t, service.Roots.AddRoot(root))

	report, err := service.AnalyzeToolchains(t.Context())
	require.NoError(t, err)

	labels := usedLabels(report)
	assert.Equal(t, "default toolchain", labels["leanprover/lean4:v4.9.0"])
	assert.Equal(t, "/proj (override)", labels["leanprover/lean4:v4.7.0"])
	assert.Equal(t, root, labels["leanprover/lean4:v4.6.0"])

	assert.Equal(t, []string{"leanprover/lean4:v4.10.0"}, report.Unused)
	assert.Empty(t, report.Deleted)
}

func TestAnalyzeToolchainsEnvOverride(t *testing.T) {
	service, _, _ := testService(t, nil)
	service.EnvOverride = "leanprover/lean4:v4.8.0"
	installDir(t, service, types.RemoteDescriptor("leanprover/lean4", "v4.8.0"))

	report, err := service.AnalyzeToolchains(t.Context())
	require.NoError(t, err)

	labels := usedLabels(report)
	assert.Equal(t, EnvToolchain, labels["leanprover/lean4:v4.8.0"])
	assert.Empty(t, report.Unused)
}

func TestAnalyzeToolchainsSkipsCustomToolchains(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated rights on windows")
	}
	service, _, _ := testService(t, nil)

	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "bin", "lean"), []byte("lean"), 0o755))
	require.NoError(t, service.Link("my-build", src))

	report, err := service.AnalyzeToolchains(t.Context())
	require.NoError(t, err)
	assert.Empty(t, report.Unused, "custom toolchains are never collectable")
}

func TestAnalyzeToolchainsDropsStaleRoots(t *testing.T) {
	service, _, _ := testService(t, nil)
	installDir(t, service, types.RemoteDescriptor("leanprover/lean4", "v4.9.0"))

	// Root recorded but deleted since; its pin no longer counts.
	require.NoError(t, service.Roots.AddRoot(filepath.Join(t.TempDir(), "gone")))

	report, err := service.AnalyzeToolchains(t.Context())
	require.NoError(t, err)
	assert.Empty(t, report.Used)
	assert.Equal(t, []string{"leanprover/lean4:v4.9.0"}, report.Unused)
}

func TestCollectGarbageDeletesUnused(t *testing.T) {
	service, _, _ := testService(t, nil)
	keep := types.RemoteDescriptor("leanprover/lean4", "v4.9.0")
	drop := types.RemoteDescriptor("leanprover/lean4", "v4.8.0")
	installDir(t, service, keep)
	installDir(t, service, drop)

	require.NoError(t, service.Settings.WithMut(func(s *types.Settings) error {
		s.DefaultToolchain = keep.String()
		return nil
	}))

	report, err := service.CollectGarbage(t.Context(), true)
	require.NoError(t, err)

	assert.Equal(t, []string{drop.String()}, report.Deleted)
	assert.False(t, service.Toolchain(drop).Exists())
	assert.True(t, service.Toolchain(keep).Exists())
}

func TestCollectGarbageWithoutDeleteOnlyReports(t *testing.T) {
	service, _, _ := testService(t, nil)
	drop := types.RemoteDescriptor("leanprover/lean4", "v4.8.0")
	installDir(t, service, drop)

	report, err := service.CollectGarbage(t.Context(), false)
	require.NoError(t, err)

	assert.Equal(t, []string{drop.String()}, report.Unused)
	assert.Empty(t, report.Deleted)
	assert.True(t, service.Toolchain(drop).Exists())
}
