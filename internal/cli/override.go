package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type overrideOptions struct {
	Path string
}

func newOverrideCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Manage directory toolchain overrides",
	}
	cmd.AddCommand(newOverrideSetCommand())
	cmd.AddCommand(newOverrideUnsetCommand())
	cmd.AddCommand(newOverrideListCommand())
	return cmd
}

func newOverrideSetCommand() *cobra.Command {
	opts := overrideOptions{}
	cmd := &cobra.Command{
		Use:   "set <toolchain>",
		Short: "Set the toolchain override for a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOverrideSet(cmd.Context(), args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.Path, "path", "", "Directory to override (default: current directory)")
	return cmd
}

func newOverrideUnsetCommand() *cobra.Command {
	opts := overrideOptions{}
	cmd := &cobra.Command{
		Use:   "unset",
		Short: "Remove the toolchain override for a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOverrideUnset(opts)
		},
	}
	cmd.Flags().StringVar(&opts.Path, "path", "", "Directory to unset (default: current directory)")
	return cmd
}

func newOverrideListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List directory toolchain overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOverrideList()
		},
	}
	return cmd
}

func overrideDir(opts overrideOptions) (string, error) {
	if opts.Path != "" {
		return opts.Path, nil
	}
	return os.Getwd()
}

func runOverrideSet(ctx context.Context, name string, opts overrideOptions) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	dir, err := overrideDir(opts)
	if err != nil {
		return err
	}
	desc, err := service.SetOverride(ctx, dir, name)
	if err != nil {
		return err
	}
	fmt.Printf("override for '%s' set to '%s'\n", dir, desc)
	return nil
}

func runOverrideUnset(opts overrideOptions) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	dir, err := overrideDir(opts)
	if err != nil {
		return err
	}
	removed, err := service.UnsetOverride(dir)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Printf("no override set for '%s'\n", dir)
		return nil
	}
	fmt.Printf("override for '%s' removed\n", dir)
	return nil
}

func runOverrideList() error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	entries, err := service.Overrides()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no overrides configured")
		return nil
	}
	for _, entry := range entries {
		fmt.Printf("%s\t%s\n", entry[0], entry[1])
	}
	return nil
}
