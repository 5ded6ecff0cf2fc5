package render

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"scenecast/internal/pkg/errors"
	"scenecast/internal/pkg/logger"
)

// Command describes one child-process invocation.
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Env     []string
	Timeout time.Duration
}

// Result is the captured outcome of a finished child process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// CommandRunner launches a child process and blocks until it exits or
// ctx is done. Implementations report non-zero exits through
// Result.ExitCode, not through the error.
type CommandRunner func(ctx context.Context, cmd Command) (Result, error)

// Supervisor runs renderer processes with output capture, a wall-clock
// timeout and whole-process-group teardown on expiry.
type Supervisor struct {
	log *logger.Logger
	run CommandRunner
}

// NewSupervisor creates a supervisor that launches real processes.
func NewSupervisor(log *logger.Logger) *Supervisor {
	return &Supervisor{
		log: log.WithComponent("supervisor"),
		run: runCommand,
	}
}

// WithCommandRunner replaces the process launcher. Tests use this to
// run the pipeline without a renderer installed.
func (s *Supervisor) WithCommandRunner(run CommandRunner) *Supervisor {
	s.run = run
	return s
}

// Run executes cmd and classifies the outcome: deadline expiry becomes
// a TIMEOUT error, a non-zero exit becomes a PROCESS_ERROR carrying the
// stderr tail, and launch failures become PROCESS_ERROR as well.
func (s *Supervisor) Run(ctx context.Context, cmd Command) (Result, error) {
	runCtx := ctx
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	start := time.Now()
	s.log.Debug("starting process", "name", cmd.Name, "args", strings.Join(cmd.Args, " "))

	res, err := s.run(runCtx, cmd)
	elapsed := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		s.log.Warn("process killed on timeout", "name", cmd.Name, "timeout", cmd.Timeout.String())
		return res, errors.WrapWithCode(runCtx.Err(), errors.CodeTimeout, "render.supervise",
			fmt.Sprintf("rendering timeout (%d seconds exceeded)", int(cmd.Timeout.Seconds())))
	}
	if err != nil {
		return res, errors.WrapWithCode(err, errors.CodeProcess, "render.supervise",
			fmt.Sprintf("failed to run %s", cmd.Name))
	}
	if res.ExitCode != 0 {
		return res, errors.Process(fmt.Sprintf("renderer exited with code %d: %s",
			res.ExitCode, tail(res.Stderr, 2000)))
	}

	s.log.Debug("process finished", "name", cmd.Name, "duration_ms", elapsed.Milliseconds())
	return res, nil
}

// runCommand is the real CommandRunner. The child is placed in its own
// process group so that cancellation kills the renderer together with
// any helpers it spawned (ffmpeg, LaTeX).
func runCommand(ctx context.Context, spec Command) (Result, error) {
	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 5 * time.Second

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}

// tail returns at most n trailing bytes of s.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
