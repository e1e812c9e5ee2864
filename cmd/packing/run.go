package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/infracollect/packing/internal/engine"
	"github.com/infracollect/packing/internal/runner"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Build every archive declared in a job file",
	Flags: []cli.Flag{
		allowedEnvFlag(),
	},
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      "job",
			UsageText: "The job file to run, - for stdin",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := getLogger(ctx)

		jobFilename := command.StringArg("job")
		if jobFilename == "" {
			return fmt.Errorf("no job file provided")
		}

		job, err := loadJob(ctx, logger, jobFilename, command.StringSlice("allowed-env"))
		if err != nil {
			return err
		}

		r, err := runner.New(ctx, logger.Named("runner"), job)
		if err != nil {
			return fmt.Errorf("failed to create runner: %w", err)
		}

		results, runErr := r.Run(ctx)
		if results != nil {
			tasks := make([]engine.Result, 0, len(job.Spec.Archives))
			for _, archive := range job.Spec.Archives {
				if result, ok := results[archive.ID]; ok {
					tasks = append(tasks, result)
				}
			}
			printResults(command.Root().Writer, isInteractive(ctx), tasks)
		}
		if runErr != nil {
			return fmt.Errorf("failed to run job: %w", runErr)
		}

		logger.Info("job completed", zap.String("job_name", job.Metadata.Name), zap.Int("archives", len(results)))
		return nil
	},
}

func printResults(w io.Writer, table bool, results []engine.Result) {
	status := func(ok bool) string {
		if ok {
			return "ok"
		}
		return "failed"
	}

	if !table {
		for _, result := range results {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", result.ID, result.Format, result.Archive, status(result.OK))
		}
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFORMAT\tARCHIVE\tSTATUS")
	for _, result := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", result.ID, result.Format, result.Archive, status(result.OK))
	}
	tw.Flush()
}
