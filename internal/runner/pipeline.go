package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	v1 "github.com/infracollect/packing/apis/v1"
	"github.com/infracollect/packing/internal/engine"
	"github.com/infracollect/packing/internal/engine/archivers"
	"github.com/infracollect/packing/internal/engine/compressors"
	"github.com/infracollect/packing/internal/engine/sinks"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

func createPipeline(logger *zap.Logger, job v1.PackJob, deps Dependencies, registry *engine.Registry) (*engine.Pipeline, error) {
	logger.Info("creating pipeline", zap.String("job_name", job.Metadata.Name))
	spec := job.Spec

	for _, formatSpec := range spec.Formats {
		builder, err := buildFormatBuilder(deps, formatSpec)
		if err != nil {
			return nil, fmt.Errorf("failed to build format %s: %w", formatSpec.Name, err)
		}

		if err := registry.Register(formatSpec.Name, builder, formatSpec.Extensions); err != nil {
			return nil, fmt.Errorf("failed to register format %s: %w", formatSpec.Name, err)
		}

		logger.Info("registered format", zap.String("format", formatSpec.Name), zap.Strings("extensions", formatSpec.Extensions))
	}

	for _, name := range spec.Unregister {
		if err := registry.Unregister(name); err != nil {
			return nil, fmt.Errorf("failed to unregister format %s: %w", name, err)
		}

		logger.Info("unregistered format", zap.String("format", name))
	}

	pipeline := engine.NewPipeline(job.Metadata.Name, registry)
	for _, archive := range spec.Archives {
		task := engine.Task{ID: archive.ID, Archive: archive.Archive, Target: archive.Target}
		if err := pipeline.AddTask(task); err != nil {
			return nil, fmt.Errorf("failed to add archive: %w", err)
		}
	}

	return pipeline, nil
}

// buildFormatBuilder creates the builder for a custom format.
func buildFormatBuilder(deps Dependencies, spec v1.FormatSpec) (engine.Builder, error) {
	resolved, err := ResolveFormatSpec(spec)
	if err != nil {
		return nil, err
	}

	logger := deps.Logger.Named(spec.Name)

	switch resolved.Kind {
	case "zip":
		return archivers.NewZipBuilder(deps.Fs, logger), nil
	case "tar":
		return archivers.NewTarBuilder(deps.Fs, logger, nil), nil
	case "tar_external":
		ext := resolved.Spec.(*v1.ExternalCompressorSpec)
		compressor, err := compressors.NewExternal(deps.Runner, deps.Fs, logger, compressors.ExternalConfig{
			Name:      spec.Name,
			Program:   ext.Program,
			Preferred: ext.Preferred,
			Args:      ext.Args,
			Suffix:    ext.Suffix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create external compressor: %w", err)
		}
		return archivers.NewTarBuilder(deps.Fs, logger, compressor), nil
	case "tar_codec":
		codec, err := compressors.NewCodec(deps.Fs, logger, compressors.CodecType(resolved.Spec.(string)))
		if err != nil {
			return nil, fmt.Errorf("failed to create codec: %w", err)
		}
		return archivers.NewTarBuilder(deps.Fs, logger, codec), nil
	default:
		return nil, fmt.Errorf("unsupported format kind: %s", resolved.Kind)
	}
}

// buildSink creates the sink archives are published to, or nil when the job
// leaves archives where they were built.
func buildSink(ctx context.Context, fs afero.Fs, job v1.PackJob) (engine.Sink, error) {
	if job.Spec.Output == nil || job.Spec.Output.Sink == nil {
		return nil, nil
	}

	switch {
	case job.Spec.Output.Sink.Filesystem != nil:
		return buildFilesystemSink(fs, job.Spec.Output.Sink.Filesystem)
	case job.Spec.Output.Sink.S3 != nil:
		return buildS3Sink(ctx, job.Spec.Output.Sink.S3)
	default:
		return nil, fmt.Errorf("invalid sink configuration: no sink type specified")
	}
}

func buildFilesystemSink(fs afero.Fs, spec *v1.FilesystemSinkSpec) (engine.Sink, error) {
	var path, prefix string
	if spec.Path != nil {
		path = *spec.Path
	}
	if spec.Prefix != nil {
		prefix = *spec.Prefix
	}

	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = wd
	}

	return sinks.NewFilesystemSinkFromPath(fs, filepath.Join(path, prefix))
}

func buildS3Sink(ctx context.Context, spec *v1.S3SinkSpec) (engine.Sink, error) {
	cfg := sinks.S3Config{
		Bucket:         spec.Bucket,
		ForcePathStyle: spec.ForcePathStyle,
	}

	if spec.Region != nil {
		cfg.Region = *spec.Region
	}

	if spec.Endpoint != nil {
		cfg.Endpoint = *spec.Endpoint
	}

	if spec.Prefix != nil {
		cfg.Prefix = *spec.Prefix
	}

	if spec.Credentials != nil {
		cfg.AccessKeyID = spec.Credentials.AccessKeyID
		cfg.SecretAccessKey = spec.Credentials.SecretAccessKey
	}

	return sinks.NewS3Sink(ctx, cfg)
}

// BuildVariables creates the variables available to ${VAR} references: the
// built-in JOB_* variables plus each allowed environment variable. An allowed
// variable that is not set is an error.
func BuildVariables(job v1.PackJob, allowedEnv []string) (map[string]string, error) {
	date := time.Now().UTC()
	variables := map[string]string{
		"JOB_NAME":         job.Metadata.Name,
		"JOB_DATE_ISO8601": date.Format(engine.ISO8601Basic),
		"JOB_DATE_RFC3339": date.Format(time.RFC3339),
	}

	var errs error
	for _, envName := range allowedEnv {
		val, ok := os.LookupEnv(envName)
		if !ok {
			errs = errors.Join(errs, fmt.Errorf("environment variable %q is not set", envName))
			continue
		}
		variables[envName] = val
	}

	if errs != nil {
		return nil, errs
	}

	return variables, nil
}
