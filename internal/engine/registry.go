package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Format describes a registered archive format.
type Format struct {
	Name       string
	Builder    Builder
	Extensions []string
}

// FormatInfo is the public view of a Format, without its builder.
type FormatInfo struct {
	Name       string   `json:"name" yaml:"name"`
	Extensions []string `json:"extensions" yaml:"extensions"`
}

// Registry maps format names to builders and the archive suffixes they handle.
// A new Registry is empty; see archivers.Register for the built-in formats.
type Registry struct {
	mu      sync.RWMutex
	formats map[string]Format
	order   map[string]uint64
	seq     uint64
	fs      afero.Fs
	logger  *zap.Logger
}

func NewRegistry(logger *zap.Logger, fs afero.Fs) *Registry {
	return &Registry{
		formats: make(map[string]Format),
		order:   make(map[string]uint64),
		fs:      fs,
		logger:  logger,
	}
}

// Register inserts or replaces the format called name.
func (r *Registry) Register(name string, builder Builder, extensions []string) error {
	if err := validateFormat(name, builder, extensions); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.formats[name]; ok {
		r.logger.Debug("replacing archive format", zap.String("format", name))
	}

	r.seq++
	r.formats[name] = Format{
		Name:       name,
		Builder:    builder,
		Extensions: slices.Clone(extensions),
	}
	r.order[name] = r.seq

	r.logger.Debug("registered archive format", zap.String("format", name), zap.Strings("extensions", extensions))
	return nil
}

func validateFormat(name string, builder Builder, extensions []string) error {
	if name == "" {
		return &InvalidFormatError{Name: name, Reason: "name is required"}
	}
	if isNilBuilder(builder) {
		return &InvalidFormatError{Name: name, Reason: "builder is not callable"}
	}
	if len(extensions) == 0 {
		return &InvalidFormatError{Name: name, Reason: "at least one extension is required"}
	}
	for _, ext := range extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return &InvalidFormatError{Name: name, Reason: fmt.Sprintf("extension %q must start with a dot", ext)}
		}
	}
	return nil
}

// Unregister removes the format called name.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.formats[name]; !ok {
		return &UnknownFormatError{Name: name, Available: r.names()}
	}

	delete(r.formats, name)
	delete(r.order, name)

	r.logger.Debug("unregistered archive format", zap.String("format", name))
	return nil
}

// Lookup returns the format called name.
func (r *Registry) Lookup(name string) (Format, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.formats[name]
	return f, ok
}

// Formats returns every registered format sorted by name.
func (r *Registry) Formats() []FormatInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Map(r.names(), func(name string, _ int) FormatInfo {
		return FormatInfo{Name: name, Extensions: slices.Clone(r.formats[name].Extensions)}
	})
}

// Extensions returns the extensions of the named formats, or of every format
// when no name is given. Unknown names are skipped.
func (r *Registry) Extensions(names ...string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(names) == 0 {
		names = r.names()
	}

	extensions := []string{}
	for _, name := range names {
		if f, ok := r.formats[name]; ok {
			extensions = append(extensions, f.Extensions...)
		}
	}
	return extensions
}

// Resolve picks the format whose extension matches the end of archivePath.
// The longest matching extension wins; on equal length the earlier registration wins.
func (r *Registry) Resolve(archivePath string) (Format, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		best    Format
		bestLen = -1
		bestSeq uint64
	)
	for name, f := range r.formats {
		seq := r.order[name]
		for _, ext := range f.Extensions {
			if !strings.HasSuffix(archivePath, ext) {
				continue
			}
			if len(ext) > bestLen || (len(ext) == bestLen && seq < bestSeq) {
				best, bestLen, bestSeq = f, len(ext), seq
			}
		}
	}

	if bestLen < 0 {
		available := lo.FlatMap(r.names(), func(name string, _ int) []string {
			return r.formats[name].Extensions
		})
		return Format{}, &UnknownExtensionError{ArchivePath: archivePath, Available: available}
	}
	return best, nil
}

// MakeArchive creates archivePath from targetPath using the format matching the
// archive suffix. The boolean reports whether the archive exists afterwards.
func (r *Registry) MakeArchive(ctx context.Context, archivePath, targetPath string) (bool, error) {
	format, err := r.Resolve(archivePath)
	if err != nil {
		return false, err
	}

	exists, err := afero.Exists(r.fs, targetPath)
	if err != nil {
		return false, fmt.Errorf("failed to stat target %s: %w", targetPath, err)
	}
	if !exists {
		return false, &MissingSourceError{Path: targetPath}
	}

	logger := r.logger.With(
		zap.String("format", format.Name),
		zap.String("archive", archivePath),
		zap.String("target", targetPath),
	)
	logger.Debug("building archive")

	ok, err := format.Builder.Build(ctx, archivePath, targetPath)
	if err != nil {
		return false, fmt.Errorf("failed to build %s archive %s: %w", format.Name, archivePath, err)
	}

	if ok {
		logger.Info("archive created")
	} else {
		logger.Warn("archive was not created")
	}
	return ok, nil
}

func (r *Registry) names() []string {
	names := lo.Keys(r.formats)
	slices.Sort(names)
	return names
}
