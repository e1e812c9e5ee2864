// Package compressors turns an uncompressed file into a compressed one, either by
// running an external tool or with an in-process codec.
package compressors

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Result describes one compression attempt. OK is the only field callers need;
// the rest is kept for diagnostics.
type Result struct {
	Program  string
	Args     []string
	ExitCode int
	Output   string
	Produced string // file the compressor was expected to write next to its input
	OK       bool
}

// Compressor consumes inputPath and leaves the compressed data at outputPath.
//
// A compressor that fails to produce its output (missing tool, non-zero exit) reports
// OK=false without an error. Errors are reserved for unexpected filesystem failures.
type Compressor interface {
	Compress(ctx context.Context, outputPath, inputPath string) (Result, error)
	Name() string
}

// ExternalConfig describes an external compression tool.
type ExternalConfig struct {
	Name string
	// Program is used when none of the Preferred programs is on the search path.
	Program   string
	Preferred []string
	// Args come before the input file. They must make the tool overwrite existing
	// output and remove its input.
	Args []string
	// Suffix is appended by the tool to the input filename.
	Suffix string
}

var (
	GzipConfig = ExternalConfig{
		Name:      "gzip",
		Program:   "gzip",
		Preferred: []string{"pigz", "pgzip"},
		Args:      []string{"--force"},
		Suffix:    ".gz",
	}
	Bzip2Config = ExternalConfig{
		Name:      "bzip2",
		Program:   "bzip2",
		Preferred: []string{"pbzip2"},
		Args:      []string{"--force"},
		Suffix:    ".bz2",
	}
	LzopConfig = ExternalConfig{
		Name:    "lzop",
		Program: "lzop",
		Args:    []string{"--force", "--delete"},
		Suffix:  ".lzo",
	}
)

// External compresses files in place with an external program.
type External struct {
	cfg    ExternalConfig
	runner *Runner
	fs     afero.Fs
	logger *zap.Logger
}

// NewExternal creates a compressor for cfg. fs must be backed by the OS filesystem
// since the tool works on real paths.
func NewExternal(runner *Runner, fs afero.Fs, logger *zap.Logger, cfg ExternalConfig) (*External, error) {
	if cfg.Program == "" {
		return nil, fmt.Errorf("program is required")
	}
	if !strings.HasPrefix(cfg.Suffix, ".") {
		return nil, fmt.Errorf("suffix %q must start with a dot", cfg.Suffix)
	}
	if cfg.Name == "" {
		cfg.Name = cfg.Program
	}

	return &External{cfg: cfg, runner: runner, fs: fs, logger: logger}, nil
}

func (e *External) Name() string {
	return e.cfg.Name
}

// Program returns the program Compress would run: the first preferred program
// found on the search path, or the configured default.
func (e *External) Program() string {
	for _, program := range e.cfg.Preferred {
		if _, ok := e.runner.LookPath(program); ok {
			return program
		}
	}
	return e.cfg.Program
}

func (e *External) Compress(ctx context.Context, outputPath, inputPath string) (Result, error) {
	args := append(slices.Clone(e.cfg.Args), inputPath)
	out := e.runner.Run(ctx, e.Program(), args...)

	result := Result{
		Program:  out.Program,
		Args:     args,
		ExitCode: out.ExitCode,
		Output:   strings.TrimSpace(string(out.Combined)),
		Produced: inputPath + e.cfg.Suffix,
	}
	if out.Err != nil && result.Output == "" {
		result.Output = out.Err.Error()
	}

	return settle(e.fs, e.logger, result, outputPath)
}

// settle moves the produced file to outputPath and decides OK from what is on disk.
func settle(fs afero.Fs, logger *zap.Logger, result Result, outputPath string) (Result, error) {
	produced, err := afero.Exists(fs, result.Produced)
	if err != nil {
		return result, fmt.Errorf("failed to stat %s: %w", result.Produced, err)
	}

	if produced {
		if err := fs.Rename(result.Produced, outputPath); err != nil {
			return result, fmt.Errorf("failed to move %s to %s: %w", result.Produced, outputPath, err)
		}
	}

	result.OK, err = afero.Exists(fs, outputPath)
	if err != nil {
		return result, fmt.Errorf("failed to stat %s: %w", outputPath, err)
	}

	if !result.OK {
		logger.Warn("compressor did not produce output",
			zap.String("program", result.Program),
			zap.Int("exit_code", result.ExitCode),
			zap.String("expected", result.Produced),
			zap.String("output", result.Output),
		)
	}
	return result, nil
}
