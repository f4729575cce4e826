package engine

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Result is the outcome of an external command that ran to completion.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner executes external programs on behalf of the engine and search
// layers. Run waits for the command; a non-zero exit is reported through
// Result.ExitCode with a nil error. An error means the program could not be
// run at all or ctx expired first. Start launches a detached process and
// returns once it has been spawned.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
	Start(dir, name string, args ...string) error
}

// ExecRunner is the os/exec backed Runner.
type ExecRunner struct{}

// waitDelay bounds how long Run waits for stray pipe holders after the
// command itself has exited or been killed.
const waitDelay = 500 * time.Millisecond

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	hideWindow(cmd)
	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		res.ExitCode = ee.ExitCode()
		return res, nil
	}
	return res, err
}

func (ExecRunner) Start(dir, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return err
	}
	// reap the child so it does not linger as a zombie on unix
	go func() { _ = cmd.Wait() }()
	return nil
}
