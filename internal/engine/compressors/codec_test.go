package compressors

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func decompress(t *testing.T, codec CodecType, data []byte) string {
	t.Helper()
	var r io.Reader
	switch codec {
	case CodecGzip:
		gr, err := gzip.NewReader(bytes.NewReader(data))
		require.NoError(t, err)
		defer gr.Close()
		r = gr
	case CodecZstd:
		zr, err := zstd.NewReader(bytes.NewReader(data))
		require.NoError(t, err)
		defer zr.Close()
		r = zr
	case CodecLz4:
		r = lz4.NewReader(bytes.NewReader(data))
	}
	content, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(content)
}

func TestCodec_RoundTrip(t *testing.T) {
	tests := []struct {
		codec  CodecType
		suffix string
	}{
		{codec: CodecGzip, suffix: ".gz"},
		{codec: CodecZstd, suffix: ".zst"},
		{codec: CodecLz4, suffix: ".lz4"},
	}

	for _, tt := range tests {
		t.Run(string(tt.codec), func(t *testing.T) {
			memFs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(memFs, "/out/input.tar", []byte("codec content"), 0o644))

			codec, err := NewCodec(memFs, zap.NewNop(), tt.codec)
			require.NoError(t, err)
			assert.Equal(t, string(tt.codec), codec.Name())

			result, err := codec.Compress(t.Context(), "/out/final.bin", "/out/input.tar")
			require.NoError(t, err)
			assert.True(t, result.OK)
			assert.Equal(t, "/out/input.tar"+tt.suffix, result.Produced)

			for _, gone := range []string{"/out/input.tar", result.Produced} {
				exists, err := afero.Exists(memFs, gone)
				require.NoError(t, err)
				assert.False(t, exists, gone)
			}

			data, err := afero.ReadFile(memFs, "/out/final.bin")
			require.NoError(t, err)
			assert.Equal(t, "codec content", decompress(t, tt.codec, data))
		})
	}
}

func TestNewCodec_Unsupported(t *testing.T) {
	_, err := NewCodec(afero.NewMemMapFs(), zap.NewNop(), "brotli")
	require.Error(t, err)
	assert.ErrorContains(t, err, "unsupported codec")
}

func TestCodec_MissingInput(t *testing.T) {
	memFs := afero.NewMemMapFs()
	codec, err := NewCodec(memFs, zap.NewNop(), CodecZstd)
	require.NoError(t, err)

	_, err = codec.Compress(t.Context(), "/final.zst", "/missing.tar")
	require.Error(t, err)

	exists, err := afero.Exists(memFs, "/final.zst")
	require.NoError(t, err)
	assert.False(t, exists)
}
