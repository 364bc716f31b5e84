package cli

import (
	"errors"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <toolchain> <command> [args...]",
		Short: "Run a command with a specific toolchain",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args[0], args[1], args[2:])
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func runRun(cmd *cobra.Command, toolchain string, binary string, args []string) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	child, err := service.Command(cmd.Context(), toolchain, cwd, binary, args)
	if err != nil {
		return err
	}
	if err := child.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		return err
	}
	return nil
}
