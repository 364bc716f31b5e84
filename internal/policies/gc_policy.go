package policies

import (
	"leanup/internal/types"
)

// LivenessPolicy decides which installed toolchains are safe to
// garbage collect. Local and custom toolchains are never eligible:
// they cannot be re-fetched if the decision turns out wrong.
type LivenessPolicy struct{}

// SelectUnused returns the installed toolchains that no known consumer
// uses, in the order they were listed.
func (LivenessPolicy) SelectUnused(
	installed []types.ToolchainDescriptor,
	used []types.ToolchainDescriptor,
	isCustom func(types.ToolchainDescriptor) bool,
) []types.ToolchainDescriptor {
	inUse := make(map[string]struct{}, len(used))
	for _, desc := range used {
		inUse[desc.String()] = struct{}{}
	}
	var unused []types.ToolchainDescriptor
	for _, desc := range installed {
		if desc.Kind == types.DescriptorLocal {
			continue
		}
		if isCustom != nil && isCustom(desc) {
			continue
		}
		if _, ok := inUse[desc.String()]; ok {
			continue
		}
		unused = append(unused, desc)
	}
	return unused
}
