package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/infracollect/packing/internal/engine"
	"github.com/infracollect/packing/internal/engine/sinks"
	"github.com/infracollect/packing/internal/runner"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var packCommand = &cli.Command{
	Name:      "pack",
	Usage:     "Create an archive from a directory or a single file",
	UsageText: "packing pack [--stdout] <archive> <target>",
	Description: "The archive format is picked from the archive suffix, see 'packing formats'.\n" +
		"A directory target contributes its contents, a file target a single member.",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "stdout",
			Usage: "Write the archive to stdout; the archive path only selects the format",
		},
	},
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      "archive",
			UsageText: "The archive to create",
		},
		&cli.StringArg{
			Name:      "target",
			UsageText: "The directory or file to archive",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := getLogger(ctx)

		archive, target := command.StringArg("archive"), command.StringArg("target")
		if archive == "" || target == "" {
			return fmt.Errorf("an archive and a target are required")
		}

		registry, err := runner.BuildRegistry(runner.NewDependencies(logger))
		if err != nil {
			return err
		}

		if !command.Bool("stdout") {
			ok, err := registry.MakeArchive(ctx, archive, target)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("archive %s was not created", archive)
			}
			fmt.Fprintln(command.Root().Writer, archive)
			return nil
		}

		// Resolve up front so an unknown suffix fails before the temp dir exists.
		if _, err := registry.Resolve(archive); err != nil {
			return err
		}

		tmpDir, err := os.MkdirTemp("", "packing-*")
		if err != nil {
			return fmt.Errorf("failed to create temporary directory: %w", err)
		}
		defer func() {
			if err := os.RemoveAll(tmpDir); err != nil {
				logger.Warn("failed to remove temporary directory", zap.String("path", tmpDir), zap.Error(err))
			}
		}()

		built := filepath.Join(tmpDir, filepath.Base(archive))
		ok, err := registry.MakeArchive(ctx, built, target)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("archive %s was not created", archive)
		}

		return streamFile(ctx, sinks.NewStreamSink(command.Root().Writer), built)
	},
}

func streamFile(ctx context.Context, sink engine.Sink, path string) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	return sink.Write(ctx, filepath.Base(path), f)
}
