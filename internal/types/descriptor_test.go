package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseNameDefaultsOrigin(t *testing.T) {
	origin, release, err := ParseName("stable")
	require.NoError(t, err)
	require.Equal(t, DefaultOrigin, origin)
	require.Equal(t, "stable", release)
}

func TestParseNameExplicitOrigin(t *testing.T) {
	origin, release, err := ParseName("my-fork/lean4:v4.9.0")
	require.NoError(t, err)
	require.Equal(t, "my-fork/lean4", origin)
	require.Equal(t, "v4.9.0", release)
}

func TestParseNameNightlySuffixesOrigin(t *testing.T) {
	origin, release, err := ParseName("nightly-2023-09-06")
	require.NoError(t, err)
	require.Equal(t, DefaultOrigin+"-nightly", origin)
	require.Equal(t, "nightly-2023-09-06", release)

	origin, release, err = ParseName("my-fork/lean4-nightly:nightly")
	require.NoError(t, err)
	require.Equal(t, "my-fork/lean4-nightly", origin)
	require.Equal(t, "nightly", release)
}

func TestParseNameRejectsMalformed(t *testing.T) {
	for _, name := range []string{"", "a/b/c:tag", "a:b:c", "with space", "org/:tag"} {
		_, _, err := ParseName(name)
		require.Error(t, err, "name %q", name)
	}
}

func TestDirNameRoundTrip(t *testing.T) {
	cases := []ToolchainDescriptor{
		RemoteDescriptor("leanprover/lean4", "v4.9.0"),
		RemoteDescriptor("my-fork/lean4", "nightly-2023-09-06"),
		LocalDescriptor("my-build"),
		LocalDescriptor("stable-local"),
	}
	for _, desc := range cases {
		decoded, err := ParseDirName(desc.DirName())
		require.NoError(t, err)
		if diff := cmp.Diff(desc, decoded); diff != "" {
			t.Fatalf("round trip mismatch for %s (-want +got):\n%s", desc, diff)
		}
	}
}

func TestDirNameEncoding(t *testing.T) {
	desc := RemoteDescriptor("my-fork/lean4", "nightly-2023-09-06")
	require.Equal(t, "my-fork--lean4---nightly-2023-09-06", desc.DirName())

	decoded, err := ParseDirName("my-fork--lean4---nightly-2023-09-06")
	require.NoError(t, err)
	require.Equal(t, "my-fork/lean4:nightly-2023-09-06", decoded.String())
}

func TestSameIgnoresFromChannel(t *testing.T) {
	pinned := RemoteDescriptor("leanprover/lean4", "v4.9.0")
	fromStable := pinned
	fromStable.FromChannel = ChannelStable
	require.True(t, pinned.Same(fromStable))
	require.False(t, pinned.Same(RemoteDescriptor("leanprover/lean4", "v4.8.0")))
}

func TestNeedsResolution(t *testing.T) {
	require.True(t, UnresolvedDescriptor{Desc: RemoteDescriptor(DefaultOrigin, "stable")}.NeedsResolution())
	require.True(t, UnresolvedDescriptor{Desc: RemoteDescriptor(DefaultOrigin, PinSentinel)}.NeedsResolution())
	require.False(t, UnresolvedDescriptor{Desc: RemoteDescriptor(DefaultOrigin, "v4.9.0")}.NeedsResolution())
	require.False(t, UnresolvedDescriptor{Desc: LocalDescriptor("nightly")}.NeedsResolution())
}
