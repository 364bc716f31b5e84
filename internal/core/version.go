package core

import (
	"sort"
	"strings"
	"unicode"

	debversion "github.com/knqyf263/go-deb-version"
	"golang.org/x/mod/semver"

	"leanup/internal/types"
)

// tagCache memoizes parsed version objects to avoid repeated parsing
// during candidate comparison and sorting.
type tagCache struct {
	deb map[string]*debversion.Version
}

func newTagCache() *tagCache {
	return &tagCache{deb: map[string]*debversion.Version{}}
}

// debVersion returns a parsed Debian-style version, caching the result.
// Returns nil when the tag cannot be parsed at all.
func (c *tagCache) debVersion(value string) *debversion.Version {
	if parsed, ok := c.deb[value]; ok {
		return parsed
	}
	parsed, err := debversion.NewVersion(strings.TrimPrefix(value, "v"))
	if err != nil {
		c.deb[value] = nil
		return nil
	}
	c.deb[value] = &parsed
	return &parsed
}

// compare orders two release tags. Tags that both parse as semantic
// versions use semver ordering; otherwise Debian version ordering is
// the fallback, and plain string comparison the last resort.
func (c *tagCache) compare(a string, b string) int {
	va, vb := NormalizeTag(a), NormalizeTag(b)
	if semver.IsValid(va) && semver.IsValid(vb) {
		return semver.Compare(va, vb)
	}
	da, db := c.debVersion(a), c.debVersion(b)
	if da != nil && db != nil {
		return da.Compare(*db)
	}
	return strings.Compare(a, b)
}

// NormalizeTag prefixes a bare numeric version with `v` so that
// `4.9.0` and `v4.9.0` name the same release.
func NormalizeTag(release string) string {
	if release != "" && unicode.IsDigit(rune(release[0])) {
		return "v" + release
	}
	return release
}

// matchesChannel reports whether an installed release tag belongs to
// the given channel's candidate set. Nightly matches by tag prefix;
// stable takes proper releases only and every other channel takes
// pre-releases, mirroring how the release host partitions them.
func matchesChannel(channel types.Channel, release string) bool {
	if channel == types.ChannelNightly {
		return strings.HasPrefix(release, "nightly")
	}
	tag := NormalizeTag(release)
	if !semver.IsValid(tag) {
		return false
	}
	if channel == types.ChannelStable {
		return semver.Prerelease(tag) == ""
	}
	return semver.Prerelease(tag) != ""
}

// BestLocalCandidate picks the highest-sorted installed release that
// matches the channel, for substituting a stale local toolchain when
// the release host is unreachable. Returns false when no installed
// release matches.
func BestLocalCandidate(channel types.Channel, releases []string) (string, bool) {
	cache := newTagCache()
	best := ""
	for _, release := range releases {
		if !matchesChannel(channel, release) {
			continue
		}
		if best == "" || cache.compare(release, best) > 0 {
			best = release
		}
	}
	return best, best != ""
}

// SortToolchains orders descriptors for listing: local toolchains
// first by name, then remote toolchains grouped by origin with their
// releases in ascending version order.
func SortToolchains(descs []types.ToolchainDescriptor) {
	cache := newTagCache()
	sort.SliceStable(descs, func(i, j int) bool {
		a, b := descs[i], descs[j]
		if a.Kind != b.Kind {
			return a.Kind == types.DescriptorLocal
		}
		if a.Kind == types.DescriptorLocal {
			return a.Name < b.Name
		}
		if a.Origin != b.Origin {
			return a.Origin < b.Origin
		}
		return cache.compare(a.Release, b.Release) < 0
	})
}
