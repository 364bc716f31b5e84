package policies

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"leanup/internal/types"
)

func TestSelectUnusedExcludesReferencedToolchains(t *testing.T) {
	installed := []types.ToolchainDescriptor{
		types.RemoteDescriptor("leanprover/lean4", "v4.8.0"),
		types.RemoteDescriptor("leanprover/lean4", "v4.9.0"),
	}
	used := []types.ToolchainDescriptor{
		types.RemoteDescriptor("leanprover/lean4", "v4.9.0"),
	}

	unused := LivenessPolicy{}.SelectUnused(installed, used, nil)

	want := []types.ToolchainDescriptor{
		types.RemoteDescriptor("leanprover/lean4", "v4.8.0"),
	}
	if diff := cmp.Diff(want, unused); diff != "" {
		t.Errorf("unused mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectUnusedNeverCollectsLocalToolchains(t *testing.T) {
	installed := []types.ToolchainDescriptor{
		types.LocalDescriptor("my-build"),
	}

	unused := LivenessPolicy{}.SelectUnused(installed, nil, nil)
	assert.Empty(t, unused)
}

func TestSelectUnusedNeverCollectsCustomToolchains(t *testing.T) {
	custom := types.RemoteDescriptor("leanprover/lean4", "v4.9.0")
	installed := []types.ToolchainDescriptor{custom}

	unused := LivenessPolicy{}.SelectUnused(installed, nil, func(desc types.ToolchainDescriptor) bool {
		return desc.Same(custom)
	})
	assert.Empty(t, unused)
}
