// Copyright 2024 Redpanda Data, Inc.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.md
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0

package shelltool

import (
	"context"
	"os/exec"
	"strconv"
)

type mdadmCreate struct {
	shelltool
	raidDevices int
}

// MdadmCreate creates a Linux md device (aka RAID array).
func MdadmCreate(device string) *mdadmCreate {
	m := new(mdadmCreate)
	m.command = "/usr/sbin/mdadm"
	m.options = append(m.options, "--create", device)

	return m
}

// Verbose increases output logging.
func (m *mdadmCreate) Verbose() *mdadmCreate {
	m.options = append(m.options, "--verbose")
	return m
}

// Force honours devices as given through [Devices], even a single device or
// devices that appear to be part of another array.
func (m *mdadmCreate) Force() *mdadmCreate {
	m.options = append(m.options, "--force")
	return m
}

// Level is the RAID level. Only 0 and 10 are used here.
func (m *mdadmCreate) Level(l int) *mdadmCreate {
	m.options = append(m.options, "--level", strconv.Itoa(l))
	return m
}

// Name sets the array name stored in the superblock. udev uses it to create
// the /dev/md/<name> symlink, suffixed with the homehost when the array is
// assembled on a foreign host.
func (m *mdadmCreate) Name(n string) *mdadmCreate {
	m.options = append(m.options, "--name", n)
	return m
}

// DeviceNumber is the number of active devices in array.
func (m *mdadmCreate) DeviceNumber(n int) *mdadmCreate {
	m.raidDevices = n
	m.options = append(m.options, "--raid-devices", strconv.Itoa(n))
	return m
}

func (m *mdadmCreate) Devices(d ...string) *mdadmCreate {
	m.arguments = append(m.arguments, d...)
	return m
}

// Build fails unless member devices were given and their number matches
// DeviceNumber, if set.
func (m *mdadmCreate) Build(ctx context.Context) (*exec.Cmd, error) {
	switch n := len(m.arguments); {
	case n == 0:
		m.fail("no member devices")
	case m.raidDevices != 0 && m.raidDevices != n:
		m.fail("--raid-devices %d with %d member devices", m.raidDevices, n)
	}
	return m.shelltool.Build(ctx)
}
