package archivers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/infracollect/packing/internal/engine"
	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ZipBuilder creates deflate-compressed zip archives.
type ZipBuilder struct {
	fs     afero.Fs
	logger *zap.Logger
}

var _ engine.Builder = (*ZipBuilder)(nil)

func NewZipBuilder(fs afero.Fs, logger *zap.Logger) *ZipBuilder {
	return &ZipBuilder{fs: fs, logger: logger}
}

// Build stores every regular file below targetPath under its path relative to
// targetPath. Directories are implied by member names; symlinks and other
// non-regular files are skipped.
func (b *ZipBuilder) Build(ctx context.Context, archivePath, targetPath string) (bool, error) {
	archiveDir := filepath.Dir(archivePath)
	if err := b.fs.MkdirAll(archiveDir, 0o755); err != nil {
		return false, fmt.Errorf("failed to create directory %s: %w", archiveDir, err)
	}

	f, err := b.fs.Create(archivePath)
	if err != nil {
		return false, fmt.Errorf("failed to create zip file: %w", err)
	}

	zw := zip.NewWriter(f)
	err = b.writeZip(ctx, zw, archivePath, targetPath)
	err = errors.Join(err, zw.Close(), f.Close())
	if err != nil {
		if rmErr := b.fs.Remove(archivePath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			b.logger.Warn("failed to remove partial zip", zap.String("path", archivePath), zap.Error(rmErr))
		}
		return false, err
	}

	return afero.Exists(b.fs, archivePath)
}

func (b *ZipBuilder) writeZip(ctx context.Context, zw *zip.Writer, archivePath, targetPath string) error {
	info, err := b.fs.Stat(targetPath)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", targetPath, err)
	}

	if !info.IsDir() {
		return b.addFile(zw, targetPath, filepath.Base(targetPath), info)
	}

	skip := skipSet(archivePath)
	return afero.Walk(b.fs, targetPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context cancelled: %w", err)
		}
		if !info.Mode().IsRegular() || skipped(skip, path) {
			return nil
		}

		rel, err := filepath.Rel(targetPath, path)
		if err != nil {
			return fmt.Errorf("failed to compute archive name for %s: %w", path, err)
		}
		return b.addFile(zw, path, filepath.ToSlash(rel), info)
	})
}

func (b *ZipBuilder) addFile(zw *zip.Writer, path, name string, info os.FileInfo) error {
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("failed to create zip header for %s: %w", path, err)
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	entry, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("failed to create zip entry %s: %w", name, err)
	}

	f, err := b.fs.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(entry, f); err != nil {
		return fmt.Errorf("failed to write zip content for %s: %w", path, err)
	}
	return nil
}
