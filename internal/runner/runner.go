// Package runner wraps execution of the external tools the CLI drives (git,
// west, nrfutil) behind a small interface so command construction can be
// tested without the tools installed.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Runner executes external commands in a working directory.
type Runner interface {
	// Run streams the command's output to the user and fails on a non-zero
	// exit.
	Run(ctx context.Context, dir, name string, args ...string) error
	// Output captures the command's combined stdout and stderr. The captured
	// output is returned even when the command exits non-zero, since several
	// tools report usable state on stderr.
	Output(ctx context.Context, dir, name string, args ...string) (string, error)
}

// Exec is the Runner backed by the real tools on PATH.
type Exec struct{}

func (Exec) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %s: %w", commandLine(name, args), err)
	}
	return nil
}

func (Exec) Output(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	out := buf.String()
	if err != nil {
		return out, fmt.Errorf("running %s: %w", commandLine(name, args), err)
	}
	return out, nil
}

func commandLine(name string, args []string) string {
	return strings.Join(append([]string{name}, args...), " ")
}

// Recorder is a Runner for tests. It records every invocation and replies
// with canned output keyed by the full command line.
type Recorder struct {
	// Calls holds the command lines in invocation order, each prefixed with
	// the working directory.
	Calls []string
	// Outputs maps a command line to the output Output returns for it.
	Outputs map[string]string
	// Errs maps a command line to an error returned alongside the output.
	Errs map[string]error
}

func (r *Recorder) Run(ctx context.Context, dir, name string, args ...string) error {
	line := commandLine(name, args)
	r.Calls = append(r.Calls, dir+": "+line)
	return r.Errs[line]
}

func (r *Recorder) Output(ctx context.Context, dir, name string, args ...string) (string, error) {
	line := commandLine(name, args)
	r.Calls = append(r.Calls, dir+": "+line)
	return r.Outputs[line], r.Errs[line]
}
