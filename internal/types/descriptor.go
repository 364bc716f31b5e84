package types

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// DefaultOrigin is the repository releases are resolved against when a
// toolchain name carries no explicit origin.
const DefaultOrigin = "leanprover/lean4"

// NightlyOriginSuffix is appended to an origin when resolving nightly
// releases, which live in a sibling repository.
const NightlyOriginSuffix = "-nightly"

// PinSentinel is the release name that means "read the toolchain pin
// from the origin repository's default branch".
const PinSentinel = "lean-toolchain"

// nameRe captures the `origin:release` grammar. The origin part is
// optional and defaults to DefaultOrigin.
var nameRe = regexp.MustCompile(`^(?:([a-zA-Z0-9-]+/[a-zA-Z0-9-]+):)?([a-zA-Z0-9-.]+)$`)

// ToolchainDescriptor is the canonical identity of a toolchain. A local
// descriptor carries only Name; a remote descriptor carries Origin and
// Release, plus the channel it was resolved from when it was derived
// from a floating reference.
//
// Two remote descriptors identify the same installed toolchain iff
// Origin and Release are equal; FromChannel never affects identity.
type ToolchainDescriptor struct {
	Kind DescriptorKind

	// Name is set for local (linked or copied) toolchains only.
	Name string

	// Origin and Release are set for remote toolchains only.
	Origin  string
	Release string

	// FromChannel records the floating channel this descriptor was
	// resolved from, or ChannelNone for pinned release tags.
	FromChannel Channel
}

// LocalDescriptor builds a descriptor for a user-named local toolchain.
func LocalDescriptor(name string) ToolchainDescriptor {
	return ToolchainDescriptor{Kind: DescriptorLocal, Name: name}
}

// RemoteDescriptor builds a descriptor for a pinned remote release.
func RemoteDescriptor(origin string, release string) ToolchainDescriptor {
	return ToolchainDescriptor{Kind: DescriptorRemote, Origin: origin, Release: release}
}

// String renders the canonical display form: `origin:release` for
// remote descriptors, the bare name for local ones.
func (d ToolchainDescriptor) String() string {
	if d.Kind == DescriptorLocal {
		return d.Name
	}
	return d.Origin + ":" + d.Release
}

// Same reports whether two descriptors identify the same installed
// toolchain, ignoring FromChannel.
func (d ToolchainDescriptor) Same(other ToolchainDescriptor) bool {
	return d.String() == other.String()
}

// DirName encodes the display form into a filesystem-safe directory
// name. The substitution is reversible via ParseDirName.
func (d ToolchainDescriptor) DirName() string {
	name := d.String()
	name = strings.ReplaceAll(name, "/", "--")
	name = strings.ReplaceAll(name, ":", "---")
	return name
}

// ParseDirName decodes a toolchain directory name back into a
// descriptor. The longer `---` substitution must be undone first so the
// embedded `--` of an encoded `/` is not mistaken for it.
func ParseDirName(dir string) (ToolchainDescriptor, error) {
	name := strings.ReplaceAll(dir, "---", ":")
	name = strings.ReplaceAll(name, "--", "/")
	return ParseResolved(name)
}

// ParseResolved parses a display-form string into a descriptor without
// consulting any remote state. Strings containing `origin:release` are
// remote, everything else is local.
func ParseResolved(name string) (ToolchainDescriptor, error) {
	if origin, release, ok := splitRemoteName(name); ok {
		return RemoteDescriptor(origin, release), nil
	}
	if nameRe.MatchString(name) {
		return LocalDescriptor(name), nil
	}
	return ToolchainDescriptor{}, errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("invalid toolchain name '%s'", name))
}

// ParseName splits a raw user-supplied name into origin and release per
// the `[origin:]release` grammar, applying the default origin and the
// nightly origin suffix.
func ParseName(name string) (origin string, release string, err error) {
	captures := nameRe.FindStringSubmatch(name)
	if captures == nil {
		return "", "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid toolchain name '%s'", name))
	}
	origin = captures[1]
	release = captures[2]
	if origin == "" {
		origin = DefaultOrigin
	}
	if strings.HasPrefix(release, "nightly") && !strings.HasSuffix(origin, NightlyOriginSuffix) {
		origin += NightlyOriginSuffix
	}
	return origin, release, nil
}

func splitRemoteName(name string) (string, string, bool) {
	captures := nameRe.FindStringSubmatch(name)
	if captures == nil || captures[1] == "" {
		return "", "", false
	}
	return captures[1], captures[2], true
}

// UnresolvedDescriptor wraps a descriptor whose release may still be a
// floating channel name or the pin-file sentinel. It is produced by
// name lookup and consumed only by the resolver.
type UnresolvedDescriptor struct {
	Desc ToolchainDescriptor
}

// String renders the wrapped descriptor's display form.
func (u UnresolvedDescriptor) String() string {
	return u.Desc.String()
}

// NeedsResolution reports whether the wrapped release is floating.
func (u UnresolvedDescriptor) NeedsResolution() bool {
	if u.Desc.Kind == DescriptorLocal {
		return false
	}
	return IsChannelName(u.Desc.Release) || u.Desc.Release == PinSentinel
}

// OverrideReason records which configuration source selected the
// toolchain governing a directory. It carries enough context to render
// a human diagnostic and has no behavior beyond that.
type OverrideReason struct {
	Kind OverrideReasonKind
	Path string
}

// String renders the reason for diagnostics.
func (r OverrideReason) String() string {
	switch r.Kind {
	case OverrideReasonEnvironment:
		return "environment override by LEANUP_TOOLCHAIN"
	case OverrideReasonOverrideDB:
		return fmt.Sprintf("directory override for '%s'", r.Path)
	case OverrideReasonPinFile:
		return fmt.Sprintf("overridden by '%s'", r.Path)
	case OverrideReasonManifestFile:
		return fmt.Sprintf("overridden by '%s'", r.Path)
	case OverrideReasonToolchainDir:
		return fmt.Sprintf("override because inside toolchain directory '%s'", r.Path)
	default:
		return string(r.Kind)
	}
}
