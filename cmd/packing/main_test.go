package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/infracollect/packing/internal/engine"
	"github.com/infracollect/packing/internal/engine/sinks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := &cli.Command{
		Name:      "packing",
		Writer:    &out,
		ErrWriter: &out,
		Commands:  []*cli.Command{packCommand, formatsCommand, extensionsCommand, validateCommand},
	}
	ctx := withLogger(t.Context(), zap.NewNop())
	err := app.Run(ctx, append([]string{"packing"}, args...))
	return out.String(), err
}

func TestPackCommand(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(target, []byte("notes"), 0o644))
	archive := filepath.Join(dir, "out", "notes.zip")

	out, err := runApp(t, "pack", archive, target)
	require.NoError(t, err)
	assert.Equal(t, archive+"\n", out)
	assert.FileExists(t, archive)
}

func TestExtensionsCommand(t *testing.T) {
	out, err := runApp(t, "extensions", "gztar", "rar", "tar")
	require.NoError(t, err)
	assert.Equal(t, ".tgz\n.taz\n.tar.gz\n.tar\n", out)
}

func TestValidateCommand(t *testing.T) {
	job := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(job, []byte(`
kind: PackJob
metadata:
  name: nightly
spec:
  archives:
    - id: site
      archive: out/${JOB_NAME}-${JOB_DATE_ISO8601}.tar.gz
      target: site
`), 0o644))

	out, err := runApp(t, "validate", job)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid (1 archive(s))")
}

func TestPrintFormats(t *testing.T) {
	formats := []engine.FormatInfo{
		{Name: "gztar", Extensions: []string{".tgz", ".tar.gz"}},
		{Name: "zip", Extensions: []string{".zip"}},
	}

	var plain bytes.Buffer
	printFormats(&plain, false, formats)
	assert.Equal(t, "gztar\t.tgz,.tar.gz\nzip\t.zip\n", plain.String())

	var table bytes.Buffer
	printFormats(&table, true, formats)
	assert.Equal(t, "FORMAT  EXTENSIONS\ngztar   .tgz .tar.gz\nzip     .zip\n", table.String())
}

func TestPrintResults(t *testing.T) {
	results := []engine.Result{
		{ID: "site", Format: "gztar", Archive: "out/site.tgz", OK: true},
		{ID: "db", Format: "lzotar", Archive: "out/db.tzo", OK: false},
	}

	var plain bytes.Buffer
	printResults(&plain, false, results)
	assert.Equal(t, "site\tgztar\tout/site.tgz\tok\ndb\tlzotar\tout/db.tzo\tfailed\n", plain.String())

	var table bytes.Buffer
	printResults(&table, true, results)
	assert.Contains(t, table.String(), "ID    FORMAT  ARCHIVE       STATUS\n")
}

func TestStreamFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.tar")
	require.NoError(t, os.WriteFile(path, []byte("tar bytes"), 0o644))

	var out bytes.Buffer
	require.NoError(t, streamFile(t.Context(), sinks.NewStreamSink(&out), path))
	assert.Equal(t, "tar bytes", out.String())
}

func TestFormatValidationError(t *testing.T) {
	type job struct {
		Name string `validate:"required"`
	}
	err := validator.New().Struct(job{})
	require.Error(t, err)

	formatted := formatValidationError(err)
	assert.EqualError(t, formatted, "job file has 1 validation error(s):\n  • job.Name: failed 'required' validation")

	plain := errors.New("boom")
	assert.Equal(t, plain, formatValidationError(plain))
}

func TestReadJobFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kind: PackJob"), 0o644))

	data, source, err := readJobFile(t.Context(), path)
	require.NoError(t, err)
	assert.Equal(t, "kind: PackJob", string(data))
	assert.Equal(t, path, source)

	_, _, err = readJobFile(t.Context(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
