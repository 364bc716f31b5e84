package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"leanup/internal/ports"
	"leanup/internal/types"
)

// maxPinRecursion bounds pin-file indirection: a toolchain pin may name
// another repository whose pin is consulted in turn.
const maxPinRecursion = 8

// InstalledReleases lists the release tags of installed remote
// toolchains sharing an origin, for the stale-cache fallback.
type InstalledReleases func(origin string) ([]string, error)

// CustomLocalProbe reports whether a local toolchain of the given name
// exists on disk as a custom (symlinked) install.
type CustomLocalProbe func(name string) bool

// Resolver turns raw toolchain names into fully resolved descriptors,
// consulting the release host and falling back to the newest matching
// installed toolchain when the network is unavailable.
type Resolver struct {
	host      ports.ReleaseHostPort
	installed InstalledReleases
	isCustom  CustomLocalProbe
	observer  ports.ObserverPort
}

func NewResolver(host ports.ReleaseHostPort, installed InstalledReleases, isCustom CustomLocalProbe, observer ports.ObserverPort) Resolver {
	if observer == nil {
		observer = ports.NopObserver{}
	}
	return Resolver{host: host, installed: installed, isCustom: isCustom, observer: observer}
}

// Lookup parses a raw name into an unresolved descriptor. A custom
// local toolchain of the same literal name takes precedence over any
// remote interpretation, so a linked name that looks like a channel
// stays local.
func (r Resolver) Lookup(name string) (types.UnresolvedDescriptor, error) {
	origin, release, err := types.ParseName(name)
	if err != nil {
		return types.UnresolvedDescriptor{}, err
	}
	if r.isCustom != nil && r.isCustom(release) {
		return types.UnresolvedDescriptor{Desc: types.LocalDescriptor(release)}, nil
	}
	return types.UnresolvedDescriptor{Desc: types.RemoteDescriptor(origin, release)}, nil
}

// Resolve turns an unresolved descriptor into a concrete one. Pinned
// tags resolve without network access; floating channels query the
// release host, substituting the best installed release on query
// failure when allowCacheFallback is set.
func (r Resolver) Resolve(ctx context.Context, unresolved types.UnresolvedDescriptor, allowNetwork bool, allowCacheFallback bool) (types.ToolchainDescriptor, error) {
	return r.resolve(ctx, unresolved, allowNetwork, allowCacheFallback, 0)
}

func (r Resolver) resolve(ctx context.Context, unresolved types.UnresolvedDescriptor, allowNetwork bool, allowCacheFallback bool, depth int) (types.ToolchainDescriptor, error) {
	desc := unresolved.Desc
	if desc.Kind == types.DescriptorLocal {
		return desc, nil
	}

	if desc.Release == types.PinSentinel {
		return r.resolvePin(ctx, desc.Origin, allowNetwork, allowCacheFallback, depth)
	}

	channel := types.Channel(desc.Release)
	if !types.IsChannelName(desc.Release) {
		desc.Release = NormalizeTag(desc.Release)
		desc.FromChannel = types.ChannelNone
		return desc, nil
	}

	r.observer.OnEvent(types.Event{Kind: types.EventResolvingChannel, Toolchain: desc.Origin, Channel: channel})
	release, err := r.latestRelease(ctx, desc.Origin, channel, allowNetwork)
	if err != nil {
		// An unsupported channel is a usage error, not a transient
		// fetch failure, and never falls back to the cache.
		if allowCacheFallback && errbuilder.CodeOf(err) != errbuilder.CodeFailedPrecondition {
			if cached, ok := r.cachedRelease(desc.Origin, channel); ok {
				r.observer.OnEvent(types.Event{
					Kind:      types.EventUsingCachedRelease,
					Toolchain: desc.Origin + ":" + cached,
					Channel:   channel,
				})
				return types.ToolchainDescriptor{
					Kind:        types.DescriptorRemote,
					Origin:      desc.Origin,
					Release:     cached,
					FromChannel: channel,
				}, nil
			}
		}
		return types.ToolchainDescriptor{}, err
	}
	r.observer.OnEvent(types.Event{Kind: types.EventResolvedRelease, Toolchain: desc.Origin + ":" + release, Channel: channel})
	return types.ToolchainDescriptor{
		Kind:        types.DescriptorRemote,
		Origin:      desc.Origin,
		Release:     release,
		FromChannel: channel,
	}, nil
}

// resolvePin fetches the plaintext pin from the origin's default
// branch and resolves its single line as a new raw name.
func (r Resolver) resolvePin(ctx context.Context, origin string, allowNetwork bool, allowCacheFallback bool, depth int) (types.ToolchainDescriptor, error) {
	if depth >= maxPinRecursion {
		return types.ToolchainDescriptor{}, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("toolchain pin of '%s' recurses more than %d levels deep", origin, maxPinRecursion))
	}
	if !allowNetwork {
		return types.ToolchainDescriptor{}, offlineErr(origin)
	}
	content, err := r.host.FetchToolchainPin(ctx, origin)
	if err != nil {
		return types.ToolchainDescriptor{}, errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg(fmt.Sprintf("failed to fetch toolchain pin of '%s'", origin)).
			WithCause(err)
	}
	name := firstLine(content)
	log.Ctx(ctx).Debug().Str("origin", origin).Str("pin", name).Msg("toolchain pin fetched")
	next, err := r.Lookup(name)
	if err != nil {
		return types.ToolchainDescriptor{}, err
	}
	return r.resolve(ctx, next, allowNetwork, allowCacheFallback, depth+1)
}

func (r Resolver) latestRelease(ctx context.Context, origin string, channel types.Channel, allowNetwork bool) (string, error) {
	if !allowNetwork {
		return "", offlineErr(origin)
	}
	release, err := r.host.LatestRelease(ctx, origin, channel)
	if err != nil {
		if errbuilder.CodeOf(err) == errbuilder.CodeFailedPrecondition {
			// Unsupported channel for this origin; not a network fault.
			return "", err
		}
		return "", errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg(fmt.Sprintf("failed to resolve latest %s release of '%s'", channel, origin)).
			WithCause(err)
	}
	return release, nil
}

func (r Resolver) cachedRelease(origin string, channel types.Channel) (string, bool) {
	if r.installed == nil {
		return "", false
	}
	releases, err := r.installed(origin)
	if err != nil {
		return "", false
	}
	return BestLocalCandidate(channel, releases)
}

func offlineErr(origin string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg(fmt.Sprintf("network access to '%s' disabled", origin))
}

func firstLine(content string) string {
	if idx := strings.IndexByte(content, '\n'); idx >= 0 {
		content = content[:idx]
	}
	return strings.TrimSpace(content)
}
