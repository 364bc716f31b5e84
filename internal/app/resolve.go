package app

import (
	"context"

	"leanup/internal/types"
)

// Lookup parses a raw toolchain name into an unresolved descriptor,
// preferring an installed custom local toolchain of the same literal
// name over any remote interpretation.
func (s *Service) Lookup(name string) (types.UnresolvedDescriptor, error) {
	return s.resolver().Lookup(name)
}

// Resolve turns an unresolved descriptor into a concrete one.
func (s *Service) Resolve(ctx context.Context, unresolved types.UnresolvedDescriptor, allowNetwork bool, allowCacheFallback bool) (types.ToolchainDescriptor, error) {
	return s.resolver().Resolve(ctx, unresolved, allowNetwork, allowCacheFallback)
}

// ResolveName composes Lookup and Resolve for a raw name.
func (s *Service) ResolveName(ctx context.Context, name string, allowCacheFallback bool) (types.ToolchainDescriptor, error) {
	unresolved, err := s.Lookup(name)
	if err != nil {
		return types.ToolchainDescriptor{}, err
	}
	return s.Resolve(ctx, unresolved, true, allowCacheFallback)
}

// DefaultToolchain returns the configured default toolchain name, or
// empty when none is set.
func (s *Service) DefaultToolchain() (string, error) {
	var name string
	err := s.Settings.With(func(settings *types.Settings) error {
		name = settings.DefaultToolchain
		return nil
	})
	return name, err
}

// SetDefault resolves a name and persists it as the global default.
func (s *Service) SetDefault(ctx context.Context, name string) (types.ToolchainDescriptor, error) {
	desc, err := s.ResolveName(ctx, name, false)
	if err != nil {
		return types.ToolchainDescriptor{}, err
	}
	if err := s.Settings.WithMut(func(settings *types.Settings) error {
		settings.DefaultToolchain = desc.String()
		return nil
	}); err != nil {
		return types.ToolchainDescriptor{}, err
	}
	s.Observer.OnEvent(types.Event{Kind: types.EventSetDefault, Toolchain: desc.String()})
	return desc, nil
}

// ResolveDefault resolves the configured default toolchain, or nil
// when none is configured. Cache fallback is enabled so an offline run
// still finds its default.
func (s *Service) ResolveDefault(ctx context.Context) (*types.ToolchainDescriptor, error) {
	name, err := s.DefaultToolchain()
	if err != nil || name == "" {
		return nil, err
	}
	desc, err := s.ResolveName(ctx, name, true)
	if err != nil {
		return nil, err
	}
	return &desc, nil
}
