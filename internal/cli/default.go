package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newDefaultCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "default [toolchain]",
		Short: "Show or set the default toolchain",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runShowDefault()
			}
			return runSetDefault(cmd.Context(), args[0])
		},
	}
	return cmd
}

func runShowDefault() error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	name, err := service.DefaultToolchain()
	if err != nil {
		return err
	}
	if name == "" {
		fmt.Println("no default toolchain configured")
		return nil
	}
	fmt.Println(name)
	return nil
}

func runSetDefault(ctx context.Context, name string) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	desc, err := service.SetDefault(ctx, name)
	if err != nil {
		return err
	}
	if err := service.EnsureInstalled(ctx, desc); err != nil {
		return err
	}
	fmt.Printf("default toolchain set to '%s'\n", desc)
	return nil
}
