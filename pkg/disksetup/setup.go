// Copyright 2024 Redpanda Data, Inc.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.md
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0

// Package disksetup provisions the ephemeral disks of a node: it assembles
// them into an md array or mounts them one by one, formats them with XFS,
// mounts them persistently through systemd and moves the container runtime
// and kubelet state onto the array.
//
// Every step inspects the node before acting, so a run can be repeated on
// every boot and after being interrupted at any point.
package disksetup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/redpanda-data/setup-local-disks/pkg/config"
	"github.com/redpanda-data/setup-local-disks/pkg/internal/shelltool"
	"github.com/redpanda-data/setup-local-disks/pkg/system/systemd"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ErrInsufficientDisks is returned when the node has too few disks for the
// requested RAID level.
var ErrInsufficientDisks = errors.New("insufficient disks")

const minRAID10Disks = 4

// arrayMountDir is the directory under the mount root where the array is
// mounted.
const arrayMountDir = "0"

// Setup provisions the disks of the node according to a [config.Config].
type Setup struct {
	fs     afero.Fs
	logger *zap.Logger
	cfg    *config.Config
	out    io.Writer

	enumerator     Enumerator
	mounts         MountTable
	checkPrivilege func() error

	assembler   *Assembler
	provisioner *Provisioner
	registrar   *Registrar
	migrator    *Migrator
}

// Result summarizes a successful run.
type Result struct {
	Mode  config.Mode
	Disks []Disk
	// Skipped is set when there was nothing to do, with the reason.
	Skipped string
}

func (r Result) String() string {
	if r.Skipped != "" {
		return r.Skipped
	}
	paths := make([]string, 0, len(r.Disks))
	for _, d := range r.Disks {
		paths = append(paths, d.Path)
	}
	if r.Mode.IsRAID() {
		return fmt.Sprintf("Successfully setup RAID-%d consisting of %s", r.Mode.Level(), strings.Join(paths, " "))
	}
	return fmt.Sprintf("Successfully setup disk mounts consisting of %s", strings.Join(paths, " "))
}

// New returns a Setup. Collaborators not set through opts are built from
// the configuration and run against the host.
func New(fs afero.Fs, logger *zap.Logger, opts ...SetupOpt) *Setup {
	o := setupOpts{
		cfg: config.Default(),
		out: io.Discard,
	}
	for _, opt := range opts {
		opt(&o)
	}
	cfg := o.cfg
	if o.runner == nil {
		o.runner = shelltool.NewRunner(logger)
	}
	if o.systemd == nil {
		o.systemd = systemd.NewSystemctlClient(o.runner)
	}
	if o.enumerator == nil {
		o.enumerator = NewByIDEnumerator(fs, logger, cfg.ByIDDir, cfg.ByIDPattern, filepath.EvalSymlinks)
	}
	if o.locator == nil {
		o.locator = NewDevMDLocator(fs)
	}
	if o.mounts == nil {
		o.mounts = NewMountInfoTable()
	}
	if o.copier == nil {
		if cfg.CopyMethod == config.CopyMethodNative {
			o.copier = NewNativeCopier(fs)
		} else {
			o.copier = NewCPCopier(o.runner)
		}
	}

	registrar := NewRegistrar(fs, logger, o.runner, o.systemd)
	return &Setup{
		fs:             fs,
		logger:         logger,
		cfg:            cfg,
		out:            o.out,
		enumerator:     o.enumerator,
		mounts:         o.mounts,
		checkPrivilege: o.checkPrivilege,
		assembler:      NewAssembler(fs, logger, o.runner, o.locator, cfg.ArrayName, cfg.ArrayRecord),
		provisioner:    NewProvisioner(logger, o.runner),
		registrar:      registrar,
		migrator:       NewMigrator(fs, logger, o.systemd, o.copier, registrar, NewLedger(fs, cfg.RestartLedger)),
	}
}

// Run provisions the disks and prints a summary on success.
func (s *Setup) Run(ctx context.Context) (Result, error) {
	res, err := s.run(ctx)
	if err != nil {
		return res, err
	}
	fmt.Fprintln(s.out, res)
	return res, nil
}

func (s *Setup) run(ctx context.Context) (Result, error) {
	log := s.logger.Sugar()
	mode, err := config.ParseMode(string(s.cfg.Mode))
	if err != nil {
		return Result{}, err
	}
	res := Result{Mode: mode}
	if mode == config.ModeNone {
		res.Skipped = "Disk setup is disabled"
		return res, nil
	}

	disks, err := s.enumerator.Enumerate(ctx)
	if err != nil {
		return res, fmt.Errorf("unable to list disks: %w", err)
	}
	if len(disks) == 0 {
		res.Skipped = "No ephemeral disks found, skipping disk setup"
		return res, nil
	}
	res.Disks = disks

	if s.checkPrivilege != nil {
		if err := s.checkPrivilege(); err != nil {
			return res, err
		}
	}
	if mode == config.ModeRAID10 && len(disks) < minRAID10Disks {
		return res, fmt.Errorf("%w: RAID-10 needs at least %d disks, found %d", ErrInsufficientDisks, minRAID10Disks, len(disks))
	}

	log.Infof("Setting up %d disk(s) in %s mode under %s", len(disks), mode, s.cfg.MountRoot)
	if mode.IsRAID() {
		return res, s.setupArray(ctx, disks, mode.Level())
	}
	return res, s.setupMounts(ctx, disks)
}

func (s *Setup) setupArray(ctx context.Context, disks []Disk, level int) error {
	device, err := s.assembler.Ensure(ctx, disks, level)
	if err != nil {
		return err
	}
	if err := s.provisioner.Ensure(ctx, device); err != nil {
		return err
	}
	root := filepath.Join(s.cfg.MountRoot, arrayMountDir)
	desc := fmt.Sprintf("Mount local ephemeral disk RAID-%d array", level)
	if err := s.registrar.MountDevice(ctx, device, root, desc); err != nil {
		return err
	}
	return s.migrator.Ensure(ctx, s.cfg.EnabledBindings(), root)
}

// setupMounts mounts disk i at <root>/<i+1>. The index of a disk does not
// depend on which other disks are already mounted.
func (s *Setup) setupMounts(ctx context.Context, disks []Disk) error {
	log := s.logger.Sugar()
	for i, d := range disks {
		if err := s.provisioner.Ensure(ctx, d.Path); err != nil {
			return err
		}
		mounted, err := s.mounts.IsMounted(d.Path)
		if err != nil {
			return err
		}
		if mounted {
			log.Infof("%s is already mounted, skipping", d.Path)
			continue
		}
		err = s.registrar.Ensure(ctx, MountTarget{
			Description: "Mount local ephemeral disk " + strconv.Itoa(i+1),
			What:        d.Path,
			Where:       filepath.Join(s.cfg.MountRoot, strconv.Itoa(i+1)),
			Type:        "xfs",
			Options:     xfsMountOptions,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
