package app

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"leanup/internal/types"
)

const (
	// envRecursionCount guards against proxy binaries that call back
	// into leanup, which would otherwise recurse forever.
	envRecursionCount = "LEANUP_RECURSION_COUNT"
	maxRecursionCount = 20
)

// Command builds a command running a binary from a toolchain. When
// toolchainName is empty the toolchain governing dir is used. The
// toolchain is installed on demand and pinned into the child's
// environment so nested invocations stay on it.
func (s *Service) Command(ctx context.Context, toolchainName string, dir string, binary string, args []string) (*exec.Cmd, error) {
	if err := checkRecursionCount(); err != nil {
		return nil, err
	}
	var desc types.ToolchainDescriptor
	var err error
	if toolchainName != "" {
		desc, err = s.ResolveName(ctx, toolchainName, true)
	} else {
		desc, _, err = s.GoverningToolchain(ctx, dir)
	}
	if err != nil {
		return nil, err
	}
	if err := s.EnsureInstalled(ctx, desc); err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, s.Toolchain(desc).BinaryPath(binary), args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(),
		EnvHome+"="+s.Home,
		EnvToolchain+"="+desc.String(),
		envRecursionCount+"="+strconv.Itoa(recursionCount()+1),
	)
	return cmd, nil
}

func recursionCount() int {
	count, err := strconv.Atoi(os.Getenv(envRecursionCount))
	if err != nil {
		return 0
	}
	return count
}

func checkRecursionCount() error {
	if recursionCount() < maxRecursionCount {
		return nil
	}
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(fmt.Sprintf("toolchain proxy recursion limit of %d reached", maxRecursionCount))
}
