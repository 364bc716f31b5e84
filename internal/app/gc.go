package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"leanup/internal/core"
	"leanup/internal/policies"
	"leanup/internal/types"
)

// AnalyzeToolchains classifies every installed toolchain as used or
// unused. Liveness sources are the known project roots' pin files, the
// directory override database, the process environment override and
// the global default. Roots whose pin no longer resolves are dropped
// from the report rather than failing the whole analysis.
func (s *Service) AnalyzeToolchains(ctx context.Context) (types.GCReport, error) {
	installed, err := s.ListToolchains()
	if err != nil {
		return types.GCReport{}, err
	}

	var used []types.UsedToolchain
	add := func(label string, desc types.ToolchainDescriptor) {
		used = append(used, types.UsedToolchain{
			Label:     label,
			Toolchain: desc,
			Name:      desc.String(),
		})
	}

	if s.EnvOverride != "" {
		if desc, err := s.ResolveName(ctx, s.EnvOverride, true); err == nil {
			add(EnvToolchain, desc)
		}
	}

	if desc, err := s.ResolveDefault(ctx); err == nil && desc != nil {
		add("default toolchain", *desc)
	}

	overrides, err := s.Overrides()
	if err != nil {
		return types.GCReport{}, err
	}
	for _, entry := range overrides {
		if desc, err := s.ResolveName(ctx, entry[1], true); err == nil {
			add(fmt.Sprintf("%s (override)", entry[0]), desc)
		}
	}

	roots, err := s.Roots.Roots()
	if err != nil {
		return types.GCReport{}, err
	}
	for _, root := range roots {
		desc, ok := s.resolveRootPin(ctx, root)
		if !ok {
			continue
		}
		add(root, desc)
	}

	descs := make([]types.ToolchainDescriptor, 0, len(used))
	for _, entry := range used {
		descs = append(descs, entry.Toolchain)
	}
	unused := policies.LivenessPolicy{}.SelectUnused(installed, descs, func(desc types.ToolchainDescriptor) bool {
		return s.Toolchain(desc).IsCustom()
	})

	report := types.GCReport{Used: used}
	for _, desc := range unused {
		report.Unused = append(report.Unused, desc.String())
	}
	return report, nil
}

// CollectGarbage runs the analysis and, when requested, deletes every
// unused toolchain, recording the deletions in the report.
func (s *Service) CollectGarbage(ctx context.Context, deleteUnused bool) (types.GCReport, error) {
	report, err := s.AnalyzeToolchains(ctx)
	if err != nil {
		return types.GCReport{}, err
	}
	if !deleteUnused {
		return report, nil
	}
	for _, name := range report.Unused {
		desc, err := types.ParseResolved(name)
		if err != nil {
			continue
		}
		if err := s.Toolchain(desc).Remove(); err != nil {
			return report, err
		}
		report.Deleted = append(report.Deleted, name)
	}
	return report, nil
}

// resolveRootPin resolves the pin file of a known project root. A
// missing root, missing pin or failed resolution means the root no
// longer pins a live toolchain.
func (s *Service) resolveRootPin(ctx context.Context, root string) (types.ToolchainDescriptor, bool) {
	content, err := os.ReadFile(filepath.Join(root, core.PinFileName))
	if err != nil {
		return types.ToolchainDescriptor{}, false
	}
	name := strings.TrimSpace(strings.SplitN(string(content), "\n", 2)[0])
	if name == "" {
		return types.ToolchainDescriptor{}, false
	}
	desc, err := s.ResolveName(ctx, name, true)
	if err != nil {
		return types.ToolchainDescriptor{}, false
	}
	return desc, true
}
