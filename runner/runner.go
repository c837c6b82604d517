// Package runner executes external analysis tools and normalizes every way
// they can end into a model.ToolResult.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/codesentry/codesentry/model"
	"github.com/rs/zerolog"
)

// defaultWaitDelay bounds how long Run waits for output pipes to close after
// the process has exited or been killed. Grandchildren that inherited the
// pipe would otherwise keep Wait blocked past the deadline.
const defaultWaitDelay = 2 * time.Second

// Command describes one tool invocation.
type Command struct {
	// Human-readable tool name used in results and messages
	Label string
	// Executable followed by its arguments
	Args []string
	// Working directory
	Dir string
	// Hard wall-clock limit; zero means no limit
	Timeout time.Duration
}

// String renders the command line with shell quoting, for logs.
func (c Command) String() string {
	return shellescape.QuoteCommand(c.Args)
}

type Runner struct {
	logger    zerolog.Logger
	waitDelay time.Duration
}

func New(logger zerolog.Logger) *Runner {
	return &Runner{
		logger:    logger,
		waitDelay: defaultWaitDelay,
	}
}

// Run executes c and returns its result. Run never returns an error: a missing
// executable, a timeout or a failure to start are all reported through the
// result's exit code, outcome and output.
func (r *Runner) Run(ctx context.Context, c Command) model.ToolResult {
	timer := StartTimer()

	exitCode, outcome, output := r.exec(ctx, c)

	res := model.ToolResult{
		Tool:        c.Label,
		ExitCode:    exitCode,
		DurationSec: Seconds(timer.Elapsed()),
		Output:      output,
		Outcome:     outcome,
	}

	r.logger.Debug().
		Str("tool", c.Label).
		Str("outcome", outcome.String()).
		Int("exit_code", exitCode).
		Float64("duration_sec", res.DurationSec).
		Msg("Tool finished")

	return res
}

func (r *Runner) exec(ctx context.Context, c Command) (int, model.Outcome, string) {
	if len(c.Args) == 0 {
		return model.ExitCodeFailed, model.OutcomeFailed,
			fmt.Sprintf("Unexpected error running %s: empty command", c.Label)
	}

	runCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	// The default Cancel kills the process outright, no SIGTERM first.
	cmd := exec.CommandContext(runCtx, c.Args[0], c.Args[1:]...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = r.waitDelay

	// Same writer for both streams: exec serializes the writes.
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	r.logger.Debug().
		Str("tool", c.Label).
		Str("command", c.String()).
		Str("dir", c.Dir).
		Dur("timeout", c.Timeout).
		Msg("Starting tool")

	err := cmd.Run()
	output := out.String()

	switch {
	case err == nil:
		return 0, model.OutcomeCompleted, output

	case isNotFound(err, cmd):
		return model.ExitCodeNotFound, model.OutcomeNotFound,
			fmt.Sprintf("%s is not installed or not on PATH.", c.Label)

	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		return model.ExitCodeFailed, model.OutcomeTimedOut,
			fmt.Sprintf("%s timed out after %s seconds.\n\nPartial output:\n%s",
				c.Label, formatSeconds(c.Timeout), output)
	}

	// The process exited but a descendant kept the pipes open.
	if errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil {
		return exitStatus(cmd.ProcessState), model.OutcomeCompleted, output
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		return exitStatus(exitErr.ProcessState), model.OutcomeCompleted, output
	}

	return model.ExitCodeFailed, model.OutcomeFailed,
		fmt.Sprintf("Unexpected error running %s: %v", c.Label, err)
}

func isNotFound(err error, cmd *exec.Cmd) bool {
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) && pathErr.Op == "chdir" {
		return false
	}
	// Paths with a separator skip the PATH lookup and fail in Start instead.
	return cmd.Process == nil && errors.Is(err, fs.ErrNotExist)
}

// exitStatus returns the exit code of a finished process. A process killed by
// a signal reports 128+signal, as shells do, so it never collides with the
// negative sentinels.
func exitStatus(state *os.ProcessState) int {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
