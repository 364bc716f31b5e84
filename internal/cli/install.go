package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newInstallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install <toolchain>...",
		Short: "Install one or more toolchains",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd.Context(), args)
		},
	}
	return cmd
}

func runInstall(ctx context.Context, names []string) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	for _, name := range names {
		desc, err := service.ResolveName(ctx, name, false)
		if err != nil {
			return err
		}
		if err := service.InstallFromDist(ctx, desc); err != nil {
			return err
		}
		fmt.Printf("installed '%s'\n", desc)
	}
	return nil
}
