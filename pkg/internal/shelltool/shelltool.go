// Copyright 2024 Redpanda Data, Inc.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.md
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0

// Package shelltool builds the external commands used to provision local
// disks: mdadm, mkfs.xfs, lsblk, blkid, cp, udevadm, systemctl and
// systemd-analyze. Builders only produce an *exec.Cmd; a Runner executes it.
package shelltool

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

type shelltool struct {
	command   string
	options   []string
	arguments []string
	error     error
}

// fail records the first misuse of a builder; Build returns it.
func (s *shelltool) fail(format string, args ...interface{}) {
	if s.error == nil {
		s.error = fmt.Errorf(s.command+": "+format, args...)
	}
}

// Build builds the full command and returns an *[exec.Cmd] instance, or an [error].
// By default, it configures [cmd.SysProcAttr] and [cmd.Cancel] to gracefully
// SIGTERM children processes, however, it also requires the caller of this function
// to execute the command in the same OS thread using [runtime.LockOSThread]
// due to https://github.com/golang/go/issues/27505. The [Runner] returned by
// [NewRunner] takes care of that.
func (s *shelltool) Build(ctx context.Context) (*exec.Cmd, error) {
	args := append(append([]string{}, s.options...), s.arguments...)
	cmd := exec.CommandContext(ctx, s.command, args...)
	cmd.SysProcAttr = defaultSysProcAttr
	cmd.Cancel = func() error {
		// Attempt to gracefully terminate command and its subcommands on
		// context cancellation. Go's default behavior is to SIGKILL the
		// subprocesses.
		return cmd.Process.Signal(unix.SIGTERM)
	}
	return cmd, s.error
}

// Builder is implemented by every command builder in this package.
type Builder interface {
	Build(ctx context.Context) (*exec.Cmd, error)
}

// Runner runs a built command and returns its standard output.
type Runner interface {
	Run(cmd *exec.Cmd) ([]byte, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(cmd *exec.Cmd) ([]byte, error)

func (f RunnerFunc) Run(cmd *exec.Cmd) ([]byte, error) { return f(cmd) }

// Output builds the command and runs it with r.
func Output(ctx context.Context, r Runner, b Builder) ([]byte, error) {
	cmd, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}
	return r.Run(cmd)
}

// Exec is Output for commands whose standard output is not needed.
func Exec(ctx context.Context, r Runner, b Builder) error {
	_, err := Output(ctx, r, b)
	return err
}

// CommandError is returned by the default Runner when a command exits
// unsuccessfully.
type CommandError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%q failed: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%q failed: %v: %s", e.Command, e.Err, e.Stderr)
}

func (e *CommandError) Unwrap() error { return e.Err }

type execRunner struct {
	logger *zap.Logger
}

// NewRunner returns a Runner that executes commands on the host.
func NewRunner(logger *zap.Logger) Runner {
	return &execRunner{logger: logger}
}

func (r *execRunner) Run(cmd *exec.Cmd) ([]byte, error) {
	// Pdeathsig is delivered when the thread that forked the child exits,
	// so keep this goroutine on its thread until the command returns.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Sugar().Debugf("Running %q", cmd.String())
	err := cmd.Run()
	if stderr.Len() > 0 {
		r.logger.Sugar().Debugf("%s: %s", cmd.Path, strings.TrimSpace(stderr.String()))
	}
	if err != nil {
		return stdout.Bytes(), &CommandError{
			Command: cmd.String(),
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
	}
	return stdout.Bytes(), nil
}
