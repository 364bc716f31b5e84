package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newUninstallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uninstall <toolchain>...",
		Short: "Uninstall one or more toolchains",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUninstall(cmd.Context(), args)
		},
	}
	return cmd
}

func runUninstall(ctx context.Context, names []string) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	for _, name := range names {
		desc, err := service.ResolveName(ctx, name, true)
		if err != nil {
			return err
		}
		if err := service.Uninstall(ctx, desc); err != nil {
			return err
		}
		fmt.Printf("uninstalled '%s'\n", desc)
	}
	return nil
}
