package runner

import (
	"fmt"

	"github.com/infracollect/packing/internal/engine"
	"github.com/infracollect/packing/internal/engine/archivers"
	"github.com/infracollect/packing/internal/engine/compressors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Dependencies shared by every format built for a job.
type Dependencies struct {
	Fs     afero.Fs
	Runner *compressors.Runner
	Logger *zap.Logger
}

// NewDependencies returns dependencies backed by the OS filesystem. External
// compressors work on real paths, so no other filesystem is supported here.
func NewDependencies(logger *zap.Logger) Dependencies {
	return Dependencies{
		Fs:     afero.NewOsFs(),
		Runner: compressors.NewRunner(logger.Named("exec")),
		Logger: logger,
	}
}

// BuildRegistry creates a registry with the built-in formats registered.
func BuildRegistry(deps Dependencies) (*engine.Registry, error) {
	registry := engine.NewRegistry(deps.Logger.Named("registry"), deps.Fs)

	if err := archivers.Register(registry, deps.Fs, deps.Runner, deps.Logger.Named("archivers")); err != nil {
		return nil, fmt.Errorf("failed to register built-in formats: %w", err)
	}

	return registry, nil
}
