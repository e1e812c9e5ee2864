package compressors

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// Output is what an external program left behind.
type Output struct {
	Program  string
	Args     []string
	ExitCode int
	Combined []byte
	Duration time.Duration
	Err      error
}

// Runner invokes external programs with an argument vector; nothing goes through a shell.
type Runner struct {
	logger   *zap.Logger
	lookPath func(string) (string, error)
}

func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{logger: logger, lookPath: exec.LookPath}
}

// LookPath reports the resolved location of program on the search path.
func (r *Runner) LookPath(program string) (string, bool) {
	path, err := r.lookPath(program)
	if err != nil {
		return "", false
	}
	return path, true
}

// Run executes program and captures its merged stdout/stderr and exit code.
// A non-zero exit or a missing program is not an error: callers decide success
// from the side effects, and Output.Err keeps the cause for diagnostics.
func (r *Runner) Run(ctx context.Context, program string, args ...string) Output {
	exe := program
	if resolved, ok := r.LookPath(program); ok {
		exe = resolved
	}

	cmd := exec.CommandContext(ctx, exe, args...)

	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	r.logger.Debug("invoking external program",
		zap.String("program", exe),
		zap.Strings("args", args),
	)
	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)
	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	r.logger.Debug("external program finished",
		zap.String("program", exe),
		zap.Int("exit_code", exitCode),
		zap.Duration("duration", duration),
		zap.Error(err),
	)

	return Output{
		Program:  exe,
		Args:     args,
		ExitCode: exitCode,
		Combined: combined.Bytes(),
		Duration: duration,
		Err:      err,
	}
}
