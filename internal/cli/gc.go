package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"leanup/internal/types"
)

type gcOptions struct {
	Delete bool
	Output string
}

func newGCCommand() *cobra.Command {
	opts := gcOptions{}
	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Analyze and collect unused toolchains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGC(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Delete, "delete", false, "Delete unused toolchains")
	cmd.Flags().StringVar(&opts.Output, "output", "text", "Report format: text, json or yaml")
	return cmd
}

func runGC(ctx context.Context, opts gcOptions) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	report, err := service.CollectGarbage(ctx, opts.Delete)
	if err != nil {
		return err
	}
	return writeGCReport(os.Stdout, report, opts.Output)
}

func writeGCReport(out io.Writer, report types.GCReport, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case "yaml":
		encoder := yaml.NewEncoder(out)
		defer encoder.Close()
		return encoder.Encode(report)
	case "text":
		for _, used := range report.Used {
			fmt.Fprintf(out, "used\t%s\t%s\n", used.Name, used.Label)
		}
		for _, name := range report.Unused {
			fmt.Fprintf(out, "unused\t%s\n", name)
		}
		for _, name := range report.Deleted {
			fmt.Fprintf(out, "deleted\t%s\n", name)
		}
		return nil
	default:
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unknown output format '%s'", format))
	}
}
