package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed toolchains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList()
		},
	}
	return cmd
}

func runList() error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	descs, err := service.ListToolchains()
	if err != nil {
		return err
	}
	defaultName, err := service.DefaultToolchain()
	if err != nil {
		return err
	}
	if len(descs) == 0 {
		fmt.Println("no toolchains installed")
		return nil
	}
	for _, desc := range descs {
		if desc.String() == defaultName {
			fmt.Printf("%s (default)\n", desc)
			continue
		}
		fmt.Println(desc)
	}
	return nil
}
