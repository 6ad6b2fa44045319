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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMdadmCreate(t *testing.T) {
	cmd, err := MdadmCreate("/dev/md/kubernetes").
		Force().
		Verbose().
		Level(10).
		Name("kubernetes").
		DeviceNumber(4).
		Devices("/dev/nvme1n1", "/dev/nvme2n1", "/dev/nvme3n1", "/dev/nvme4n1").
		Build(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, "/usr/sbin/mdadm --create /dev/md/kubernetes --force --verbose --level 10 --name kubernetes --raid-devices 4 /dev/nvme1n1 /dev/nvme2n1 /dev/nvme3n1 /dev/nvme4n1", cmd.String())
}

func TestMdadmCreateRejectsBadMembers(t *testing.T) {
	_, err := MdadmCreate("/dev/md/kubernetes").Level(0).DeviceNumber(0).Build(context.Background())
	assert.ErrorContains(t, err, "no member devices")

	_, err = MdadmCreate("/dev/md/kubernetes").
		Level(10).
		DeviceNumber(4).
		Devices("/dev/nvme1n1", "/dev/nvme2n1").
		Build(context.Background())
	assert.ErrorContains(t, err, "--raid-devices 4 with 2 member devices")
}

func TestMdadmScan(t *testing.T) {
	cmd, err := MdadmScan().Build(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, "/usr/sbin/mdadm --detail --scan", cmd.String())
}

func TestMakeXFS(t *testing.T) {
	cmd, err := MakeXFS("/dev/md127").LogStripeUnit("8b").Build(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, "/usr/sbin/mkfs.xfs -l su=8b /dev/md127", cmd.String())
}

func TestUdevadmSettle(t *testing.T) {
	cmd, err := UdevadmSettle().Build(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, "/usr/bin/udevadm settle", cmd.String())
}
