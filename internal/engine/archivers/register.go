package archivers

import (
	"errors"
	"fmt"

	"github.com/infracollect/packing/internal/engine"
	"github.com/infracollect/packing/internal/engine/compressors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const ZipFormat = "zip"

// TarFormat binds a tar format name to its compression and extensions.
type TarFormat struct {
	Name        string
	Compression CompressionType
	Extensions  []string
}

// TarFormats are the built-in tar formats.
var TarFormats = []TarFormat{
	{Name: "tar", Compression: CompressionNone, Extensions: []string{".tar"}},
	{Name: "gztar", Compression: CompressionGzip, Extensions: []string{".tgz", ".taz", ".tar.gz"}},
	{Name: "bztar", Compression: CompressionBzip2, Extensions: []string{".tbz", ".tbz2", ".tar.bz", ".tar.bz2"}},
	{Name: "lzotar", Compression: CompressionLzop, Extensions: []string{".tzo", ".tar.lzo"}},
}

// Register installs the built-in formats: zip, tar, gztar, bztar and lzotar.
// fs must be backed by the OS filesystem for the compressed tar formats.
func Register(registry *engine.Registry, fs afero.Fs, runner *compressors.Runner, logger *zap.Logger) error {
	var errs error

	errs = errors.Join(errs, registry.Register(ZipFormat, NewZipBuilder(fs, logger.Named(ZipFormat)), []string{".zip"}))

	for _, format := range TarFormats {
		compressor, err := NewCompressor(format.Compression, fs, runner, logger)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("failed to create compressor for %s: %w", format.Name, err))
			continue
		}

		builder := NewTarBuilder(fs, logger.Named(format.Name), compressor)
		errs = errors.Join(errs, registry.Register(format.Name, builder, format.Extensions))
	}

	return errs
}
