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
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestProvisioner(t *testing.T) {
	tests := []struct {
		name   string
		fstype string
		exp    []string
	}{
		{
			name: "blank device is formatted",
			exp: []string{
				"/usr/bin/lsblk --output FSTYPE --noheadings /dev/md/kubernetes",
				"/usr/sbin/mkfs.xfs -l su=8b /dev/md/kubernetes",
			},
		},
		{
			name:   "xfs is kept",
			fstype: "xfs",
			exp:    []string{"/usr/bin/lsblk --output FSTYPE --noheadings /dev/md/kubernetes"},
		},
		{
			name:   "any filesystem is kept",
			fstype: "ext4",
			exp:    []string{"/usr/bin/lsblk --output FSTYPE --noheadings /dev/md/kubernetes"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newFakeNode(t, 0)
			n.fstype["/dev/md/kubernetes"] = tt.fstype

			p := NewProvisioner(zaptest.NewLogger(t), n)
			require.NoError(t, p.Ensure(context.Background(), "/dev/md/kubernetes"))
			require.Equal(t, tt.exp, n.commands)
		})
	}
}

func TestProvisionerInspectFails(t *testing.T) {
	n := newFakeNode(t, 0)
	n.failCommand["lsblk"] = errors.New("exit status 32")

	p := NewProvisioner(zaptest.NewLogger(t), n)
	require.Error(t, p.Ensure(context.Background(), "/dev/nvme1n1"))
	require.Empty(t, n.ran("mkfs.xfs"))
}

func TestBlockUUID(t *testing.T) {
	n := newFakeNode(t, 0)
	n.uuids["/dev/md/kubernetes"] = "5D3E1C1A-7A41-4F5B-9C1D-2B8E7F6A1D00"
	n.uuids["/dev/nvme1n1"] = "not-a-uuid"

	id, err := BlockUUID(context.Background(), n, "/dev/md/kubernetes")
	require.NoError(t, err)
	require.Equal(t, "5d3e1c1a-7a41-4f5b-9c1d-2b8e7f6a1d00", id)
	require.Equal(t, "/usr/sbin/blkid --match-tag UUID --output value /dev/md/kubernetes", n.commands[0])

	_, err = BlockUUID(context.Background(), n, "/dev/nvme1n1")
	require.Error(t, err)

	_, err = BlockUUID(context.Background(), n, "/dev/nvme2n1")
	require.Error(t, err)
}
