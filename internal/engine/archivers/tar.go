package archivers

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/infracollect/packing/internal/engine"
	"github.com/infracollect/packing/internal/engine/compressors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// CompressionType selects the compressor a tarball is piped through.
type CompressionType string

const (
	CompressionNone  CompressionType = "none"
	CompressionGzip  CompressionType = "gzip"
	CompressionBzip2 CompressionType = "bzip2"
	CompressionLzop  CompressionType = "lzop"
)

// NewCompressor returns the external compressor for ct, or nil for CompressionNone.
func NewCompressor(ct CompressionType, fs afero.Fs, runner *compressors.Runner, logger *zap.Logger) (compressors.Compressor, error) {
	var cfg compressors.ExternalConfig

	switch ct {
	case CompressionNone, "":
		return nil, nil
	case CompressionGzip:
		cfg = compressors.GzipConfig
	case CompressionBzip2:
		cfg = compressors.Bzip2Config
	case CompressionLzop:
		cfg = compressors.LzopConfig
	default:
		return nil, fmt.Errorf("unsupported compression type: %s", ct)
	}

	compressor, err := compressors.NewExternal(runner, fs, logger.Named(cfg.Name), cfg)
	if err != nil {
		return nil, err
	}
	return compressor, nil
}

// TarBuilder creates tar archives, optionally compressed afterwards.
type TarBuilder struct {
	fs         afero.Fs
	compressor compressors.Compressor
	logger     *zap.Logger
}

var _ engine.Builder = (*TarBuilder)(nil)

// NewTarBuilder creates a tar builder. A nil compressor produces a plain tar.
func NewTarBuilder(fs afero.Fs, logger *zap.Logger, compressor compressors.Compressor) *TarBuilder {
	return &TarBuilder{fs: fs, compressor: compressor, logger: logger}
}

// Build writes targetPath into a temporary tar next to archivePath, then moves or
// compresses it into place. A directory target contributes its children, not itself.
func (b *TarBuilder) Build(ctx context.Context, archivePath, targetPath string) (bool, error) {
	archiveDir := filepath.Dir(archivePath)
	if err := b.fs.MkdirAll(archiveDir, 0o755); err != nil {
		return false, fmt.Errorf("failed to create directory %s: %w", archiveDir, err)
	}

	tmp, err := afero.TempFile(b.fs, archiveDir, "packing-*.tar")
	if err != nil {
		return false, fmt.Errorf("failed to create temporary tar: %w", err)
	}
	tmpName := tmp.Name()
	// TempFile creates 0600; archives get the same mode as zip ones.
	if err := b.fs.Chmod(tmpName, 0o644); err != nil {
		_ = tmp.Close()
		b.removeIfExists(tmpName)
		return false, fmt.Errorf("failed to set mode on %s: %w", tmpName, err)
	}

	if err := b.writeTar(ctx, tmp, targetPath, skipSet(archivePath, tmpName)); err != nil {
		b.removeIfExists(tmpName)
		return false, err
	}

	if b.compressor == nil {
		if err := b.fs.Rename(tmpName, archivePath); err != nil {
			b.removeIfExists(tmpName)
			return false, fmt.Errorf("failed to move %s to %s: %w", tmpName, archivePath, err)
		}
		return afero.Exists(b.fs, archivePath)
	}

	// A stale archive would otherwise pass for the compressor's output.
	if err := b.fs.Remove(archivePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		b.removeIfExists(tmpName)
		return false, fmt.Errorf("failed to remove existing archive %s: %w", archivePath, err)
	}

	result, err := b.compressor.Compress(ctx, archivePath, tmpName)
	if err != nil || !result.OK {
		b.removeIfExists(tmpName)
	}
	if err != nil {
		return false, fmt.Errorf("failed to compress %s with %s: %w", tmpName, b.compressor.Name(), err)
	}

	return afero.Exists(b.fs, archivePath)
}

func (b *TarBuilder) writeTar(ctx context.Context, f afero.File, targetPath string, skip map[string]struct{}) (err error) {
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	tw := tar.NewWriter(f)

	info, err := b.fs.Stat(targetPath)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", targetPath, err)
	}

	if info.IsDir() {
		entries, err := afero.ReadDir(b.fs, targetPath)
		if err != nil {
			return fmt.Errorf("failed to read directory %s: %w", targetPath, err)
		}
		for _, entry := range entries {
			if err := b.addTree(ctx, tw, filepath.Join(targetPath, entry.Name()), entry.Name(), skip); err != nil {
				return err
			}
		}
	} else if err := b.addTree(ctx, tw, targetPath, filepath.Base(targetPath), skip); err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to close tar writer: %w", err)
	}
	return nil
}

// addTree adds root and everything below it, naming entries relative to prefix.
func (b *TarBuilder) addTree(ctx context.Context, tw *tar.Writer, root, prefix string, skip map[string]struct{}) error {
	return afero.Walk(b.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context cancelled: %w", err)
		}
		if skipped(skip, path) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to compute archive name for %s: %w", path, err)
		}
		return b.addEntry(tw, path, filepath.ToSlash(filepath.Join(prefix, rel)), info)
	})
}

func (b *TarBuilder) addEntry(tw *tar.Writer, path, name string, info os.FileInfo) error {
	var link string
	switch mode := info.Mode(); {
	case mode&os.ModeSocket != 0:
		b.logger.Debug("skipping socket", zap.String("path", path))
		return nil
	case mode&os.ModeSymlink != 0:
		reader, ok := b.fs.(afero.LinkReader)
		if !ok {
			b.logger.Debug("skipping symlink, filesystem cannot read links", zap.String("path", path))
			return nil
		}
		target, err := reader.ReadlinkIfPossible(path)
		if err != nil {
			return fmt.Errorf("failed to read link %s: %w", path, err)
		}
		link = target
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return fmt.Errorf("failed to create tar header for %s: %w", path, err)
	}
	hdr.Name = name
	if info.IsDir() {
		hdr.Name += "/"
	}

	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("failed to write tar header for %s: %w", path, err)
	}

	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := b.fs.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("failed to write tar content for %s: %w", path, err)
	}
	return nil
}

func (b *TarBuilder) removeIfExists(path string) {
	if err := b.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		b.logger.Warn("failed to remove temporary tar", zap.String("path", path), zap.Error(err))
	}
}
