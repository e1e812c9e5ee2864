package archivers

import (
	"bytes"
	"compress/bzip2"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/infracollect/packing/internal/engine"
	"github.com/infracollect/packing/internal/engine/compressors"
	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newBuiltinRegistry(t *testing.T) *engine.Registry {
	t.Helper()
	logger := zap.NewNop()
	osFs := afero.NewOsFs()
	registry := engine.NewRegistry(logger, osFs)
	require.NoError(t, Register(registry, osFs, compressors.NewRunner(logger), logger))
	return registry
}

func requirePrograms(t *testing.T, programs ...string) map[string]string {
	t.Helper()
	paths := make(map[string]string, len(programs))
	for _, program := range programs {
		path, err := exec.LookPath(program)
		if err != nil {
			t.Skipf("%s not available: %v", program, err)
		}
		paths[program] = path
	}
	return paths
}

// onlyOnPath replaces PATH with a directory holding links to the given programs.
func onlyOnPath(t *testing.T, programs ...string) {
	t.Helper()
	paths := requirePrograms(t, programs...)
	dir := t.TempDir()
	for program, path := range paths {
		require.NoError(t, os.Symlink(path, filepath.Join(dir, program)))
	}
	t.Setenv("PATH", dir)
}

func decompressTar(t *testing.T, format, archive string) map[string]string {
	t.Helper()
	data, err := os.ReadFile(archive)
	require.NoError(t, err)

	var r io.Reader = bytes.NewReader(data)
	switch format {
	case "gztar":
		gr, err := gzip.NewReader(r)
		require.NoError(t, err)
		defer gr.Close()
		r = gr
	case "bztar":
		r = bzip2.NewReader(r)
	case "lzotar":
		out := compressors.NewRunner(zap.NewNop()).Run(t.Context(), "lzop", "--decompress", "--stdout", archive)
		require.NoError(t, out.Err, string(out.Combined))
		r = bytes.NewReader(out.Combined)
	}

	found, err := readTarEntries(r)
	require.NoError(t, err)
	return found
}

func TestRegister_BuiltinFormats(t *testing.T) {
	registry := newBuiltinRegistry(t)

	assert.Equal(t, []engine.FormatInfo{
		{Name: "bztar", Extensions: []string{".tbz", ".tbz2", ".tar.bz", ".tar.bz2"}},
		{Name: "gztar", Extensions: []string{".tgz", ".taz", ".tar.gz"}},
		{Name: "lzotar", Extensions: []string{".tzo", ".tar.lzo"}},
		{Name: "tar", Extensions: []string{".tar"}},
		{Name: "zip", Extensions: []string{".zip"}},
	}, registry.Formats())

	assert.ElementsMatch(t, []string{
		".tbz", ".tbz2", ".tar.bz", ".tar.bz2",
		".tgz", ".taz", ".tar.gz",
		".tzo", ".tar.lzo",
		".tar",
		".zip",
	}, registry.Extensions())
}

func TestRegister_ResolvesBuiltinSuffixes(t *testing.T) {
	registry := newBuiltinRegistry(t)

	tests := map[string]string{
		"backup.zip":     "zip",
		"backup.tar":     "tar",
		"backup.tar.gz":  "gztar",
		"backup.taz":     "gztar",
		"backup.tbz2":    "bztar",
		"backup.tar.bz":  "bztar",
		"backup.tar.lzo": "lzotar",
		"backup.tzo":     "lzotar",
	}

	for path, expected := range tests {
		t.Run(path, func(t *testing.T) {
			format, err := registry.Resolve(path)
			require.NoError(t, err)
			assert.Equal(t, expected, format.Name)
		})
	}
}

func TestMakeArchive_RoundTrip(t *testing.T) {
	files := map[string]string{
		"README.md":          "# readme",
		"docs/guide.txt":     "guide",
		"docs/img/logo.svg":  "<svg/>",
		"data/records.jsonl": "{\"a\":1}\n{\"a\":2}\n",
	}

	tests := []struct {
		format   string
		archive  string
		programs []string
	}{
		{format: "zip", archive: "out/site.zip"},
		{format: "tar", archive: "out/site.tar"},
		{format: "gztar", archive: "out/site.tar.gz", programs: []string{"gzip"}},
		{format: "bztar", archive: "out/site.tbz2", programs: []string{"bzip2"}},
		{format: "lzotar", archive: "out/site.tzo", programs: []string{"lzop"}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			requirePrograms(t, tt.programs...)
			dir := t.TempDir()
			src := filepath.Join(dir, "site")
			writeTree(t, afero.NewOsFs(), src, files)
			archive := filepath.Join(dir, tt.archive)

			ok, err := newBuiltinRegistry(t).MakeArchive(t.Context(), archive, src)
			require.NoError(t, err)
			require.True(t, ok)

			info, err := os.Stat(archive)
			require.NoError(t, err)
			if tt.format == "zip" {
				assert.Equal(t, os.FileMode(0o044), info.Mode().Perm()&0o044, "archive is readable by group and others")
			} else {
				assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
			}

			var found map[string]string
			if tt.format == "zip" {
				data, err := os.ReadFile(archive)
				require.NoError(t, err)
				found = readZipEntries(t, data)
			} else {
				found = decompressTar(t, tt.format, archive)
				for name, content := range found {
					if content == "" && name[len(name)-1] == '/' {
						delete(found, name)
					}
				}
			}
			assert.Equal(t, files, found)
			assertNoTemporaryTars(t, afero.NewOsFs(), filepath.Dir(archive))
		})
	}
}

func TestMakeArchive_CompressorFallback(t *testing.T) {
	tests := []struct {
		format  string
		program string
		archive string
	}{
		{format: "gztar", program: "gzip", archive: "single.tgz"},
		{format: "bztar", program: "bzip2", archive: "single.tar.bz2"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			onlyOnPath(t, tt.program)
			dir := t.TempDir()
			src := filepath.Join(dir, "notes.txt")
			require.NoError(t, os.WriteFile(src, []byte("only file"), 0o644))
			archive := filepath.Join(dir, "out", tt.archive)

			ok, err := newBuiltinRegistry(t).MakeArchive(t.Context(), archive, src)
			require.NoError(t, err)
			require.True(t, ok)

			assert.Equal(t, map[string]string{"notes.txt": "only file"}, decompressTar(t, tt.format, archive))
		})
	}
}

func TestMakeArchive_MissingCompressor(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	dir := t.TempDir()
	src := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0o644))
	archive := filepath.Join(dir, "out", "notes.tar.lzo")

	ok, err := newBuiltinRegistry(t).MakeArchive(t.Context(), archive, src)
	require.NoError(t, err, "a missing compressor is reported through the boolean")
	assert.False(t, ok)
	assert.NoFileExists(t, archive)
	assertNoTemporaryTars(t, afero.NewOsFs(), filepath.Dir(archive))
}

func TestMakeArchive_MissingSource(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "out", "out.zip")

	ok, err := newBuiltinRegistry(t).MakeArchive(t.Context(), archive, filepath.Join(dir, "does", "not", "exist"))

	var missing *engine.MissingSourceError
	require.ErrorAs(t, err, &missing)
	assert.False(t, ok)
	assert.NoDirExists(t, filepath.Join(dir, "out"))
}
