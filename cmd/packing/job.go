package main

import (
	"context"
	"fmt"
	"io"
	"os"

	v1 "github.com/infracollect/packing/apis/v1"
	"github.com/infracollect/packing/internal/runner"
	"go.uber.org/zap"
)

// readJobFile reads a job document from filename, or from stdin when filename is "-".
// The second value names the source for messages.
func readJobFile(ctx context.Context, filename string) ([]byte, string, error) {
	if filename == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read job from stdin: %w", err)
		}
		return data, "<stdin>", nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, "", err
	}
	return data, filename, nil
}

// loadJob reads, parses and expands a job document.
func loadJob(ctx context.Context, logger *zap.Logger, filename string, allowedEnv []string) (v1.PackJob, error) {
	data, source, err := readJobFile(ctx, filename)
	if err != nil {
		return v1.PackJob{}, fmt.Errorf("failed to read job file '%s': %w", filename, err)
	}

	logger.Debug("parsing job file", zap.String("job_filename", source))

	job, err := runner.ParseJob(data)
	if err != nil {
		return v1.PackJob{}, formatValidationError(err)
	}

	variables, err := runner.BuildVariables(job, allowedEnv)
	if err != nil {
		return v1.PackJob{}, fmt.Errorf("failed to build variables: %w", err)
	}

	if err := runner.ExpandTemplates(&job, variables); err != nil {
		return v1.PackJob{}, fmt.Errorf("failed to expand templates: %w", err)
	}

	return job, nil
}
