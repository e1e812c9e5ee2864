package compressors

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// CodecType names an in-process compression codec.
type CodecType string

const (
	CodecGzip CodecType = "gzip"
	CodecZstd CodecType = "zstd"
	CodecLz4  CodecType = "lz4"
)

// Codec compresses files without an external program. It follows the same
// contract as External: write <input><suffix>, remove the input, move the
// result to the output path.
type Codec struct {
	codec     CodecType
	suffix    string
	newWriter func(io.Writer) (io.WriteCloser, error)
	fs        afero.Fs
	logger    *zap.Logger
}

func NewCodec(fs afero.Fs, logger *zap.Logger, codec CodecType) (*Codec, error) {
	c := &Codec{codec: codec, fs: fs, logger: logger}

	switch codec {
	case CodecGzip:
		c.suffix = ".gz"
		c.newWriter = func(w io.Writer) (io.WriteCloser, error) {
			return gzip.NewWriter(w), nil
		}
	case CodecZstd:
		c.suffix = ".zst"
		c.newWriter = func(w io.Writer) (io.WriteCloser, error) {
			zw, err := zstd.NewWriter(w)
			if err != nil {
				return nil, fmt.Errorf("failed to create zstd writer: %w", err)
			}
			return zw, nil
		}
	case CodecLz4:
		c.suffix = ".lz4"
		c.newWriter = func(w io.Writer) (io.WriteCloser, error) {
			return lz4.NewWriter(w), nil
		}
	default:
		return nil, fmt.Errorf("unsupported codec: %s", codec)
	}

	return c, nil
}

func (c *Codec) Name() string {
	return string(c.codec)
}

func (c *Codec) Compress(ctx context.Context, outputPath, inputPath string) (Result, error) {
	result := Result{
		Program:  string(c.codec),
		Produced: inputPath + c.suffix,
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("context cancelled: %w", err)
	}

	if err := c.compressFile(result.Produced, inputPath); err != nil {
		_ = c.fs.Remove(result.Produced)
		return result, err
	}

	if err := c.fs.Remove(inputPath); err != nil {
		return result, fmt.Errorf("failed to remove %s: %w", inputPath, err)
	}

	return settle(c.fs, c.logger, result, outputPath)
}

func (c *Codec) compressFile(dst, src string) (err error) {
	in, err := c.fs.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := c.fs.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()

	w, err := c.newWriter(out)
	if err != nil {
		return err
	}

	if _, err := io.Copy(w, in); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to compress %s: %w", src, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close %s writer: %w", c.codec, err)
	}

	return nil
}
