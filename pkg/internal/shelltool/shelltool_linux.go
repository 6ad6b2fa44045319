// Copyright 2024 Redpanda Data, Inc.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.md
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0

//go:build linux

package shelltool

import "golang.org/x/sys/unix"

// mdadm and mkfs.xfs may fork helpers of their own. If this process dies
// mid-run those helpers get SIGTERM instead of being left behind holding
// the member devices open.
var defaultSysProcAttr = &unix.SysProcAttr{
	// Requires the command to be started from a locked OS thread.
	Pdeathsig: unix.SIGTERM,
	Setpgid:   true,
}
