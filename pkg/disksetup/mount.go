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
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/moby/sys/mountinfo"
	"github.com/redpanda-data/setup-local-disks/pkg/internal/shelltool"
	"github.com/redpanda-data/setup-local-disks/pkg/system/systemd"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	xfsMountOptions  = "defaults,noatime"
	bindMountOptions = "bind"
)

// ErrUnitVerification is returned when systemd-analyze rejects a generated
// mount unit. The unit file is removed before returning.
var ErrUnitVerification = errors.New("mount unit failed verification")

// MountTarget is a persistent mount, registered as a systemd mount unit
// named after Where.
type MountTarget struct {
	Description string
	What        string
	Where       string
	Type        string
	Options     string
}

// UnitName returns the mount unit name for t.Where.
func (t MountTarget) UnitName() string {
	return systemd.MountUnitName(t.Where)
}

// Registrar creates, verifies and starts mount units.
type Registrar struct {
	fs      afero.Fs
	runner  shelltool.Runner
	systemd systemd.Client
	logger  *zap.Logger
}

func NewRegistrar(fs afero.Fs, logger *zap.Logger, runner shelltool.Runner, client systemd.Client) *Registrar {
	return &Registrar{fs: fs, runner: runner, systemd: client, logger: logger}
}

// Ensure mounts t persistently. It is a no-op if the unit for t.Where is
// already active.
func (r *Registrar) Ensure(ctx context.Context, t MountTarget) error {
	log := r.logger.Sugar()
	name := t.UnitName()

	active, err := systemd.IsUnitActive(ctx, r.systemd, name)
	if err != nil {
		return err
	}
	if active {
		log.Infof("%s is already mounted by %s", t.Where, name)
		return nil
	}

	if err := r.fs.MkdirAll(t.Where, 0o755); err != nil {
		return fmt.Errorf("unable to create mount point %s: %w", t.Where, err)
	}
	body := systemd.RenderMountUnit(systemd.MountUnit(t))
	path, err := systemd.InstallUnit(r.fs, body, name)
	if err != nil {
		return err
	}
	log.Debugf("Wrote %s:\n%s", path, body)

	if err := shelltool.Exec(ctx, r.runner, shelltool.SystemdAnalyzeVerify(path)); err != nil {
		if rmErr := r.fs.Remove(path); rmErr != nil {
			log.Warnf("Unable to remove %s: %v", path, rmErr)
		}
		return fmt.Errorf("%w: %s: %v", ErrUnitVerification, name, err)
	}

	if err := r.systemd.Reload(ctx); err != nil {
		return fmt.Errorf("unable to reload systemd: %w", err)
	}
	if err := r.systemd.EnableUnits(ctx, name); err != nil {
		return fmt.Errorf("unable to enable %s: %w", name, err)
	}
	if err := r.systemd.StartUnits(ctx, name); err != nil {
		return fmt.Errorf("unable to mount %s: %w", t.Where, err)
	}
	log.Infof("Mounted %s on %s", t.What, t.Where)
	return nil
}

// MountDevice mounts the XFS filesystem on device at where, referring to it
// by filesystem UUID so the unit keeps working if the device node is renamed.
func (r *Registrar) MountDevice(ctx context.Context, device, where, description string) error {
	// Skip blkid when there is nothing left to do.
	active, err := systemd.IsUnitActive(ctx, r.systemd, systemd.MountUnitName(where))
	if err != nil {
		return err
	}
	if active {
		r.logger.Sugar().Infof("%s is already mounted", where)
		return nil
	}
	id, err := BlockUUID(ctx, r.runner, device)
	if err != nil {
		return err
	}
	return r.Ensure(ctx, MountTarget{
		Description: description,
		What:        "UUID=" + id,
		Where:       where,
		Type:        "xfs",
		Options:     xfsMountOptions,
	})
}

// BlockUUID returns the filesystem UUID of device.
func BlockUUID(ctx context.Context, r shelltool.Runner, device string) (string, error) {
	out, err := shelltool.Output(ctx, r, shelltool.BlockID(device).Value("UUID"))
	if err != nil {
		return "", fmt.Errorf("unable to read filesystem UUID of %s: %w", device, err)
	}
	raw := strings.TrimSpace(string(out))
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("unexpected filesystem UUID %q for %s: %w", raw, device, err)
	}
	return id.String(), nil
}

// MountTable reports whether a device is mounted anywhere.
type MountTable interface {
	IsMounted(device string) (bool, error)
}

type mountInfoTable struct{}

// NewMountInfoTable returns a MountTable backed by /proc/self/mountinfo.
func NewMountInfoTable() MountTable {
	return mountInfoTable{}
}

func (mountInfoTable) IsMounted(device string) (bool, error) {
	mounts, err := mountinfo.GetMounts(func(i *mountinfo.Info) (skip, stop bool) {
		match := i.Source == device
		return !match, match
	})
	if err != nil {
		return false, fmt.Errorf("unable to read mount table: %w", err)
	}
	return len(mounts) > 0, nil
}
