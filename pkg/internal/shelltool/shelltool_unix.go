// Copyright 2024 Redpanda Data, Inc.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.md
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0

//go:build !linux && unix

package shelltool

import "golang.org/x/sys/unix"

// Pdeathsig is Linux only; other platforms just build the commands, which
// keeps the builders testable on developer machines.
var defaultSysProcAttr = &unix.SysProcAttr{Setpgid: true}
