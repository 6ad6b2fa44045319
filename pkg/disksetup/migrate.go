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
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/redpanda-data/setup-local-disks/pkg/config"
	"github.com/redpanda-data/setup-local-disks/pkg/internal/shelltool"
	rpos "github.com/redpanda-data/setup-local-disks/pkg/os"
	"github.com/redpanda-data/setup-local-disks/pkg/system/systemd"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var (
	// ErrStopServices is returned when the services owning a binding could
	// not be stopped. Nothing was copied.
	ErrStopServices = errors.New("unable to stop services")
	// ErrRestartServices is returned when services stopped for the
	// migration could not be started again. They stay in the restart
	// ledger.
	ErrRestartServices = errors.New("unable to restart services")
)

// Copier copies the contents of the directory src into the directory dst,
// preserving ownership, modes, timestamps and links.
type Copier interface {
	Copy(ctx context.Context, src, dst string) error
}

type cpCopier struct {
	runner shelltool.Runner
}

// NewCPCopier returns a Copier that runs cp --archive.
func NewCPCopier(runner shelltool.Runner) Copier {
	return &cpCopier{runner: runner}
}

func (c *cpCopier) Copy(ctx context.Context, src, dst string) error {
	// src/. copies the contents rather than the directory itself, so a
	// second copy into the same dst does not nest.
	return shelltool.Exec(ctx, c.runner, shelltool.CopyArchive(src+"/.", dst+"/"))
}

type nativeCopier struct {
	fs afero.Fs
}

// NewNativeCopier returns a Copier that walks the tree through fs.
func NewNativeCopier(fs afero.Fs) Copier {
	return &nativeCopier{fs: fs}
}

func (c *nativeCopier) Copy(_ context.Context, src, dst string) error {
	return rpos.CopyTree(c.fs, src, dst)
}

// Migrator moves state directories onto the array and bind mounts them back
// in place, stopping the services that write to them while they are copied.
type Migrator struct {
	fs        afero.Fs
	systemd   systemd.Client
	copier    Copier
	registrar *Registrar
	ledger    *Ledger
	logger    *zap.Logger
}

func NewMigrator(
	fs afero.Fs,
	logger *zap.Logger,
	client systemd.Client,
	copier Copier,
	registrar *Registrar,
	ledger *Ledger,
) *Migrator {
	return &Migrator{
		fs:        fs,
		systemd:   client,
		copier:    copier,
		registrar: registrar,
		ledger:    ledger,
		logger:    logger,
	}
}

// Ensure relocates every binding that is not bind mounted yet to
// <arrayRoot>/<base name of its path>. The original directories are left in
// place under the bind mounts.
func (m *Migrator) Ensure(ctx context.Context, bindings []config.Binding, arrayRoot string) error {
	log := m.logger.Sugar()

	owed, err := m.ledger.Load()
	if err != nil {
		return err
	}
	if len(owed) > 0 {
		log.Warnf("A previous run stopped %v and did not start them again, they will be started", owed)
	}

	var pending []config.Binding
	for _, b := range bindings {
		active, err := systemd.IsUnitActive(ctx, m.systemd, systemd.MountUnitName(b.Path))
		if err != nil {
			return err
		}
		if active {
			log.Infof("%s is already on the array", b.Path)
			continue
		}
		pending = append(pending, b)
	}

	var stop []string
	for _, b := range pending {
		for _, svc := range b.Services {
			if contains(stop, svc) {
				continue
			}
			active, err := systemd.IsUnitActive(ctx, m.systemd, svc)
			if err != nil {
				return err
			}
			if active {
				stop = append(stop, svc)
			}
		}
	}
	restart := owed
	for _, svc := range stop {
		if !contains(restart, svc) {
			restart = append(restart, svc)
		}
	}

	if len(stop) > 0 {
		if err := m.ledger.Save(restart); err != nil {
			return err
		}
		log.Infof("Stopping %v", stop)
		if err := m.systemd.StopUnits(ctx, stop...); err != nil {
			return m.resume(ctx, restart, fmt.Errorf("%w %v: %v", ErrStopServices, stop, err))
		}
	}

	var migrateErr error
	for _, b := range pending {
		if err := m.migrate(ctx, b, arrayRoot); err != nil {
			migrateErr = fmt.Errorf("unable to move %s to the array: %w", b.Path, err)
			break
		}
	}
	return m.resume(ctx, restart, migrateErr)
}

func (m *Migrator) migrate(ctx context.Context, b config.Binding, arrayRoot string) error {
	dst := filepath.Join(arrayRoot, filepath.Base(b.Path))
	for _, dir := range []string{b.Path, dst} {
		if err := m.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("unable to create %s: %w", dir, err)
		}
	}

	m.logger.Sugar().Infof("Copying %s/ to %s/", b.Path, dst)
	if err := m.copier.Copy(ctx, b.Path, dst); err != nil {
		return err
	}
	return m.registrar.Ensure(ctx, MountTarget{
		Description: fmt.Sprintf("Mount %s on the local disk array", b.Name),
		What:        dst,
		Where:       b.Path,
		Type:        "none",
		Options:     bindMountOptions,
	})
}

// resume starts the services owed a restart and clears the ledger. cause is
// returned along with any restart failure.
func (m *Migrator) resume(ctx context.Context, services []string, cause error) error {
	if len(services) == 0 {
		return cause
	}
	m.logger.Sugar().Infof("Starting %v", services)
	if err := m.systemd.StartUnits(ctx, services...); err != nil {
		restartErr := fmt.Errorf("%w %v, they are left stopped: %v", ErrRestartServices, services, err)
		if cause == nil {
			return restartErr
		}
		return multierror.Append(cause, restartErr)
	}
	if err := m.ledger.Clear(); err != nil {
		if cause == nil {
			return err
		}
		return multierror.Append(cause, err)
	}
	return cause
}

func contains(s []string, v string) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}
