package runner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	v1 "github.com/infracollect/packing/apis/v1"
	"github.com/infracollect/packing/internal/engine"
	"go.uber.org/zap"
)

type Runner struct {
	logger   *zap.Logger
	job      v1.PackJob
	deps     Dependencies
	registry *engine.Registry
	pipeline *engine.Pipeline
	sink     engine.Sink
}

var (
	defaultValidator = validator.New(validator.WithRequiredStructEnabled())
)

// ParseJob parses a YAML or JSON job document and validates it. Templates are
// left unexpanded; see ExpandTemplates.
func ParseJob(data []byte) (v1.PackJob, error) {
	var job v1.PackJob
	if err := yaml.Unmarshal(data, &job); err != nil {
		return v1.PackJob{}, fmt.Errorf("failed to unmarshal job data: %w", err)
	}

	if err := defaultValidator.Struct(job); err != nil {
		return v1.PackJob{}, fmt.Errorf("failed to validate job: %w", err)
	}

	for _, format := range job.Spec.Formats {
		if _, err := ResolveFormatSpec(format); err != nil {
			return v1.PackJob{}, fmt.Errorf("failed to validate job: %w", err)
		}
	}

	return job, nil
}

// New wires job into a runner: custom formats are registered, unregistered
// formats removed and every archive queued.
func New(ctx context.Context, logger *zap.Logger, job v1.PackJob) (*Runner, error) {
	logger.Info("creating runner", zap.String("job_name", job.Metadata.Name))

	deps := NewDependencies(logger)

	registry, err := BuildRegistry(deps)
	if err != nil {
		return nil, err
	}

	pipeline, err := createPipeline(logger.Named("pipeline"), job, deps, registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	sink, err := buildSink(ctx, deps.Fs, job)
	if err != nil {
		return nil, fmt.Errorf("failed to build sink: %w", err)
	}

	return &Runner{
		logger:   logger,
		job:      job,
		deps:     deps,
		registry: registry,
		pipeline: pipeline,
		sink:     sink,
	}, nil
}

func (r *Runner) Registry() *engine.Registry {
	return r.registry
}

// Run builds every archive, then publishes them to the sink if one is configured.
// An archive that was not created fails the run after all archives were attempted.
func (r *Runner) Run(ctx context.Context) (map[string]engine.Result, error) {
	results, err := r.pipeline.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run pipeline: %w", err)
	}

	var errs error
	for _, task := range r.pipeline.Tasks() {
		if result := results[task.ID]; !result.OK {
			errs = errors.Join(errs, fmt.Errorf("archive '%s' (%s) was not created", task.ID, result.Archive))
		}
	}
	if errs != nil {
		return results, errs
	}

	if r.sink != nil {
		if err := r.Publish(ctx, results); err != nil {
			return results, fmt.Errorf("failed to publish archives: %w", err)
		}
	}

	return results, nil
}

// Publish writes each built archive to the sink under its base name, then closes the sink.
func (r *Runner) Publish(ctx context.Context, results map[string]engine.Result) error {
	for _, task := range r.pipeline.Tasks() {
		result, ok := results[task.ID]
		if !ok || !result.OK {
			continue
		}

		if err := r.publish(ctx, result); err != nil {
			return fmt.Errorf("failed to publish archive %s: %w", task.ID, err)
		}

		r.logger.Info("published archive",
			zap.String("archive_id", task.ID),
			zap.String("sink", r.sink.Name()),
		)
	}

	if err := r.sink.Close(ctx); err != nil {
		return fmt.Errorf("failed to close sink: %w", err)
	}

	return nil
}

func (r *Runner) publish(ctx context.Context, result engine.Result) (err error) {
	f, err := r.deps.Fs.Open(result.Archive)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", result.Archive, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	return r.sink.Write(ctx, filepath.Base(result.Archive), f)
}
