// Copyright 2024 Redpanda Data, Inc.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.md
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0

package disksetup

import (
	"io"

	"github.com/redpanda-data/setup-local-disks/pkg/config"
	"github.com/redpanda-data/setup-local-disks/pkg/internal/shelltool"
	"github.com/redpanda-data/setup-local-disks/pkg/system/systemd"
)

// SetupOpt implements functional options for [Setup] as described in
// https://dave.cheney.net/2014/10/17/functional-options-for-friendly-apis
type SetupOpt func(*setupOpts)

type setupOpts struct {
	cfg            *config.Config
	runner         shelltool.Runner
	systemd        systemd.Client
	enumerator     Enumerator
	locator        ArrayLocator
	mounts         MountTable
	copier         Copier
	checkPrivilege func() error
	out            io.Writer
}

// WithConfig sets the run configuration. Defaults to [config.Default].
func WithConfig(c *config.Config) SetupOpt {
	return func(o *setupOpts) {
		o.cfg = c
	}
}

// WithRunner sets the runner used for every external command. Defaults to
// running them on the host.
func WithRunner(r shelltool.Runner) SetupOpt {
	return func(o *setupOpts) {
		o.runner = r
	}
}

// WithSystemd sets the service manager client. Defaults to a systemctl
// client using the configured runner.
func WithSystemd(c systemd.Client) SetupOpt {
	return func(o *setupOpts) {
		o.systemd = c
	}
}

// WithEnumerator replaces the by-id disk scan.
func WithEnumerator(e Enumerator) SetupOpt {
	return func(o *setupOpts) {
		o.enumerator = e
	}
}

// WithArrayLocator replaces the /dev/md lookup of the array device.
func WithArrayLocator(l ArrayLocator) SetupOpt {
	return func(o *setupOpts) {
		o.locator = l
	}
}

// WithMountTable replaces the mount table used to skip disks that are
// already mounted. Defaults to /proc/self/mountinfo.
func WithMountTable(m MountTable) SetupOpt {
	return func(o *setupOpts) {
		o.mounts = m
	}
}

// WithCopier replaces the copier selected by the configured copy method.
func WithCopier(c Copier) SetupOpt {
	return func(o *setupOpts) {
		o.copier = c
	}
}

// WithPrivilegeCheck sets a check run once disks were found and before
// anything on the node is modified.
func WithPrivilegeCheck(f func() error) SetupOpt {
	return func(o *setupOpts) {
		o.checkPrivilege = f
	}
}

// WithOutput sets where the final summary is printed. Defaults to
// io.Discard.
func WithOutput(w io.Writer) SetupOpt {
	return func(o *setupOpts) {
		o.out = w
	}
}
