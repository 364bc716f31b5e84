package types

// Channel is a floating version reference that resolves to a different
// concrete release tag over time.
type Channel string

const (
	ChannelNone    Channel = ""
	ChannelStable  Channel = "stable"
	ChannelBeta    Channel = "beta"
	ChannelNightly Channel = "nightly"
)

// IsChannelName reports whether value names a floating channel.
func IsChannelName(value string) bool {
	switch Channel(value) {
	case ChannelStable, ChannelBeta, ChannelNightly:
		return true
	default:
		return false
	}
}

type DescriptorKind string

const (
	DescriptorLocal  DescriptorKind = "local"
	DescriptorRemote DescriptorKind = "remote"
)

type OverrideReasonKind string

const (
	OverrideReasonEnvironment  OverrideReasonKind = "environment"
	OverrideReasonOverrideDB   OverrideReasonKind = "override-db"
	OverrideReasonPinFile      OverrideReasonKind = "pin-file"
	OverrideReasonManifestFile OverrideReasonKind = "manifest-file"
	OverrideReasonToolchainDir OverrideReasonKind = "toolchain-dir"
)
