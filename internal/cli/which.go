package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newWhichCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "which <binary>",
		Short: "Print the path of a binary in the governing toolchain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := newAppService()
			if err != nil {
				return err
			}
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			path, err := service.WhichBinary(cmd.Context(), cwd, args[0])
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
	return cmd
}
