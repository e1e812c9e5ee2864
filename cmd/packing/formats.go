package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/infracollect/packing/internal/engine"
	"github.com/infracollect/packing/internal/runner"
	"github.com/urfave/cli/v3"
)

var formatsCommand = &cli.Command{
	Name:  "formats",
	Usage: "List the supported archive formats and their extensions",
	Action: func(ctx context.Context, command *cli.Command) error {
		registry, err := runner.BuildRegistry(runner.NewDependencies(getLogger(ctx)))
		if err != nil {
			return err
		}

		printFormats(command.Root().Writer, isInteractive(ctx), registry.Formats())
		return nil
	},
}

var extensionsCommand = &cli.Command{
	Name:      "extensions",
	Usage:     "List the archive extensions of the given formats, or of all formats",
	ArgsUsage: "[format...]",
	Action: func(ctx context.Context, command *cli.Command) error {
		registry, err := runner.BuildRegistry(runner.NewDependencies(getLogger(ctx)))
		if err != nil {
			return err
		}

		for _, ext := range registry.Extensions(command.Args().Slice()...) {
			fmt.Fprintln(command.Root().Writer, ext)
		}
		return nil
	},
}

func printFormats(w io.Writer, table bool, formats []engine.FormatInfo) {
	if !table {
		for _, f := range formats {
			fmt.Fprintf(w, "%s\t%s\n", f.Name, strings.Join(f.Extensions, ","))
		}
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FORMAT\tEXTENSIONS")
	for _, f := range formats {
		fmt.Fprintf(tw, "%s\t%s\n", f.Name, strings.Join(f.Extensions, " "))
	}
	tw.Flush()
}
