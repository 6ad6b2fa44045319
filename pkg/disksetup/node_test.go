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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/coreos/go-systemd/v22/unit"
	"github.com/google/uuid"
	"github.com/redpanda-data/setup-local-disks/pkg/config"
	"github.com/redpanda-data/setup-local-disks/pkg/internal/shelltool"
	rpos "github.com/redpanda-data/setup-local-disks/pkg/os"
	"github.com/redpanda-data/setup-local-disks/pkg/system/systemd"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeNode simulates the parts of a node touched by a setup: block devices,
// the external tools, systemd and the mount table. It implements
// shelltool.Runner, systemd.Client and MountTable.
type fakeNode struct {
	t  *testing.T
	fs afero.Fs

	aliases map[string]string // by-id alias -> device
	fstype  map[string]string
	uuids   map[string]string

	// mdLink is the name udev gives the array in /dev/md.
	mdLink string
	arrays int

	units   map[string]systemd.ActiveState
	enabled map[string]bool
	mounts  map[string]string // where -> what

	commands []string
	calls    []string

	failCommand map[string]error // by tool name
	failStop    error
	failStart   error
	// failStartService fails starting units other than mounts.
	failStartService error
}

func newFakeNode(t *testing.T, disks int) *fakeNode {
	n := &fakeNode{
		t:           t,
		fs:          afero.NewMemMapFs(),
		aliases:     make(map[string]string),
		fstype:      make(map[string]string),
		uuids:       make(map[string]string),
		mdLink:      "kubernetes",
		units:       make(map[string]systemd.ActiveState),
		enabled:     make(map[string]bool),
		mounts:      make(map[string]string),
		failCommand: make(map[string]error),
	}
	for i := 1; i <= disks; i++ {
		n.addDisk(fmt.Sprintf("/dev/nvme%dn1", i), fmt.Sprintf("nvme-Amazon_EC2_NVMe_Instance_Storage_AWS%017d", i))
	}
	return n
}

func (n *fakeNode) addDisk(device, alias string) {
	path := filepath.Join("/dev/disk/by-id", alias)
	require.NoError(n.t, afero.WriteFile(n.fs, path, nil, 0o777))
	require.NoError(n.t, afero.WriteFile(n.fs, filepath.Join(sysBlockDir, filepath.Base(device), "size"), []byte("3662109375\n"), 0o444))
	n.aliases[path] = device
}

func (n *fakeNode) resolve(alias string) (string, error) {
	if d, ok := n.aliases[alias]; ok {
		return d, nil
	}
	return "", fmt.Errorf("lstat %s: no such file or directory", alias)
}

// service marks a service unit as running.
func (n *fakeNode) service(name string) {
	n.units[name] = systemd.ActiveStateActive
}

func (n *fakeNode) config(mode config.Mode) *config.Config {
	c := config.Default()
	c.Mode = mode
	return c
}

func (n *fakeNode) setup(cfg *config.Config, opts ...SetupOpt) *Setup {
	logger := zaptest.NewLogger(n.t)
	base := []SetupOpt{
		WithConfig(cfg),
		WithRunner(n),
		WithSystemd(n),
		WithMountTable(n),
		WithEnumerator(NewByIDEnumerator(n.fs, logger, cfg.ByIDDir, cfg.ByIDPattern, n.resolve)),
	}
	return New(n.fs, logger, append(base, opts...)...)
}

// ran returns the commands run with the given tool and first argument.
func (n *fakeNode) ran(tool string, args ...string) []string {
	var matched []string
	for _, c := range n.commands {
		fields := strings.Fields(c)
		if filepath.Base(fields[0]) != tool {
			continue
		}
		if len(args) > 0 && !strings.HasPrefix(strings.Join(fields[1:], " "), strings.Join(args, " ")) {
			continue
		}
		matched = append(matched, c)
	}
	return matched
}

func (n *fakeNode) readUnit(path string) map[string]string {
	raw, err := afero.ReadFile(n.fs, path)
	require.NoError(n.t, err)
	opts, err := unit.Deserialize(bytes.NewReader(raw))
	require.NoError(n.t, err)
	fields := make(map[string]string)
	for _, o := range opts {
		fields[o.Section+"."+o.Name] = o.Value
	}
	return fields
}

func (n *fakeNode) Run(cmd *exec.Cmd) ([]byte, error) {
	line := cmd.String()
	n.commands = append(n.commands, line)
	tool := filepath.Base(cmd.Path)
	if err := n.failCommand[tool]; err != nil {
		return nil, err
	}
	args := cmd.Args[1:]
	last := args[len(args)-1]

	switch tool {
	case "mdadm":
		switch args[0] {
		case "--create":
			n.arrays++
			link := filepath.Join(mdDir, n.mdLink)
			require.NoError(n.t, afero.WriteFile(n.fs, link, nil, 0o660))
			n.fstype[link] = ""
			return nil, nil
		case "--detail":
			if n.arrays == 0 {
				return nil, nil
			}
			return []byte("ARRAY /dev/md/kubernetes metadata=1.2 name=kubernetes UUID=0d8b4b62:d3a5b6c1:6f0f6e2a:9b1c2d3e\n"), nil
		}
	case "udevadm":
		return nil, nil
	case "lsblk":
		return []byte(n.fstype[last] + "\n"), nil
	case "mkfs.xfs":
		n.fstype[last] = "xfs"
		n.uuids[last] = uuid.NewString()
		return nil, nil
	case "blkid":
		id, ok := n.uuids[last]
		if !ok {
			return nil, errors.New("exit status 2")
		}
		return []byte(id + "\n"), nil
	case "systemd-analyze":
		raw, err := afero.ReadFile(n.fs, last)
		if err != nil {
			return nil, err
		}
		_, err = unit.Deserialize(bytes.NewReader(raw))
		return nil, err
	case "cp":
		src := strings.TrimSuffix(args[1], "/.")
		dst := strings.TrimSuffix(args[2], "/")
		return nil, rpos.CopyTree(n.fs, src, dst)
	}
	n.t.Fatalf("unexpected command %q", line)
	return nil, nil
}

// runnerOverride answers the commands containing match with out and passes
// the others to n.
func runnerOverride(n *fakeNode, match string, out []byte) shelltool.Runner {
	return shelltool.RunnerFunc(func(cmd *exec.Cmd) ([]byte, error) {
		if strings.Contains(cmd.String(), match) {
			n.commands = append(n.commands, cmd.String())
			return out, nil
		}
		return n.Run(cmd)
	})
}

func (*fakeNode) Shutdown() error { return nil }

func (n *fakeNode) UnitState(_ context.Context, name string) (systemd.LoadState, systemd.ActiveState, error) {
	if st, ok := n.units[name]; ok {
		return systemd.LoadStateLoaded, st, nil
	}
	if ok, _ := afero.Exists(n.fs, systemd.UnitPath(name)); ok {
		return systemd.LoadStateLoaded, systemd.ActiveStateInactive, nil
	}
	return systemd.LoadStateNotFound, systemd.ActiveStateInactive, nil
}

func (n *fakeNode) StartUnits(_ context.Context, names ...string) error {
	n.calls = append(n.calls, "start "+strings.Join(names, " "))
	if n.failStart != nil {
		return n.failStart
	}
	for _, name := range names {
		if n.failStartService != nil && !strings.HasSuffix(name, ".mount") {
			return n.failStartService
		}
	}
	for _, name := range names {
		if strings.HasSuffix(name, ".mount") {
			u := n.readUnit(systemd.UnitPath(name))
			n.mounts[u["Mount.Where"]] = u["Mount.What"]
		}
		n.units[name] = systemd.ActiveStateActive
	}
	return nil
}

func (n *fakeNode) StopUnits(_ context.Context, names ...string) error {
	n.calls = append(n.calls, "stop "+strings.Join(names, " "))
	if n.failStop != nil {
		return n.failStop
	}
	for _, name := range names {
		n.units[name] = systemd.ActiveStateInactive
	}
	return nil
}

func (n *fakeNode) EnableUnits(_ context.Context, names ...string) error {
	n.calls = append(n.calls, "enable "+strings.Join(names, " "))
	for _, name := range names {
		n.enabled[name] = true
	}
	return nil
}

func (n *fakeNode) Reload(context.Context) error {
	n.calls = append(n.calls, "daemon-reload")
	return nil
}

func (n *fakeNode) IsMounted(device string) (bool, error) {
	for _, what := range n.mounts {
		if what == device {
			return true, nil
		}
	}
	return false, nil
}

// boot simulates a reboot: services and mounts are gone until enabled units
// come back, the array keeps its record and udev symlink.
func (n *fakeNode) boot() {
	n.units = make(map[string]systemd.ActiveState)
	n.mounts = make(map[string]string)
	n.commands, n.calls = nil, nil
	for name := range n.enabled {
		require.NoError(n.t, n.StartUnits(context.Background(), name))
	}
	n.calls = nil
}
