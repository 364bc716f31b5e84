package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type linkOptions struct {
	Copy bool
}

func newLinkCommand() *cobra.Command {
	opts := linkOptions{}
	cmd := &cobra.Command{
		Use:   "link <name> <path>",
		Short: "Install a custom toolchain from a local build directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLink(args[0], args[1], opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Copy, "copy", false, "Copy the directory instead of symlinking it")
	return cmd
}

func runLink(name string, src string, opts linkOptions) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	if opts.Copy {
		err = service.CopyInstall(name, src)
	} else {
		err = service.Link(name, src)
	}
	if err != nil {
		return err
	}
	fmt.Printf("installed '%s' from '%s'\n", name, src)
	return nil
}
