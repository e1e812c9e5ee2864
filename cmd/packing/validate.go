package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func allowedEnvFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:  "allowed-env",
		Usage: "Environment variables allowed in job configuration (can be repeated)",
	}
}

var validateCommand = &cli.Command{
	Name:  "validate",
	Usage: "Validate a job file",
	Flags: []cli.Flag{
		allowedEnvFlag(),
	},
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      "job",
			UsageText: "The job file to validate, - for stdin",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		jobFilename := command.StringArg("job")
		if jobFilename == "" {
			return fmt.Errorf("no job file provided")
		}

		logger := getLogger(ctx).With(zap.String("job_filename", jobFilename))
		logger.Debug("validating job file")

		job, err := loadJob(ctx, logger, jobFilename, command.StringSlice("allowed-env"))
		if err != nil {
			fmt.Fprintln(command.Root().ErrWriter, err)
			return fmt.Errorf("job file '%s' is invalid", jobFilename)
		}

		fmt.Fprintf(command.Root().Writer, "✓ Job file '%s' is valid (%d archive(s))\n", jobFilename, len(job.Spec.Archives))
		return nil
	},
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		var sb strings.Builder
		fmt.Fprintf(&sb, "job file has %d validation error(s):", len(validationErrs))
		for _, fe := range validationErrs {
			fmt.Fprintf(&sb, "\n  • %s: failed '%s' validation", fe.Namespace(), fe.Tag())
			if fe.Param() != "" {
				fmt.Fprintf(&sb, " (param: %s)", fe.Param())
			}
		}
		return errors.New(sb.String())
	}
	return err
}
