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
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/avast/retry-go"
	"github.com/redpanda-data/setup-local-disks/pkg/internal/shelltool"
	rpos "github.com/redpanda-data/setup-local-disks/pkg/os"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const mdDir = "/dev/md"

// ArrayLocator finds the current device node of the array called name.
// Found is false if there is none.
type ArrayLocator interface {
	Locate(name string) (path string, found bool, err error)
}

type devMDLocator struct {
	fs  afero.Fs
	dir string
}

// NewDevMDLocator returns an ArrayLocator that looks for the udev symlinks
// in /dev/md. Once the array is re-assembled at boot udev may name it
// <name>_0 instead of <name>, so the last match in lexical order wins.
func NewDevMDLocator(fs afero.Fs) ArrayLocator {
	return &devMDLocator{fs: fs, dir: mdDir}
}

func (l *devMDLocator) Locate(name string) (string, bool, error) {
	re, err := regexp.Compile("^" + regexp.QuoteMeta(name) + "_?[0-9a-z]*$")
	if err != nil {
		return "", false, err
	}
	entries, err := afero.ReadDir(l.fs, l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("unable to list %s: %w", l.dir, err)
	}
	var matches []string
	for _, e := range entries {
		if re.MatchString(e.Name()) {
			matches = append(matches, e.Name())
		}
	}
	if len(matches) == 0 {
		return "", false, nil
	}
	sort.Strings(matches)
	return filepath.Join(l.dir, matches[len(matches)-1]), true, nil
}

var errArrayNotFound = errors.New("array device not found")

// Assembler creates the md array once and finds its device on every run.
type Assembler struct {
	fs      afero.Fs
	runner  shelltool.Runner
	locator ArrayLocator
	logger  *zap.Logger

	name   string
	record string

	pollAttempts uint
	pollDelay    time.Duration
}

// NewAssembler returns an Assembler for the array called name whose
// configuration is persisted at record.
func NewAssembler(fs afero.Fs, logger *zap.Logger, runner shelltool.Runner, locator ArrayLocator, name, record string) *Assembler {
	return &Assembler{
		fs:           fs,
		runner:       runner,
		locator:      locator,
		logger:       logger,
		name:         name,
		record:       record,
		pollAttempts: 10,
		pollDelay:    500 * time.Millisecond,
	}
}

// Ensure creates an array of the given level from disks unless the array
// record exists, and returns the current array device.
func (a *Assembler) Ensure(ctx context.Context, disks []Disk, level int) (string, error) {
	log := a.logger.Sugar()
	device := filepath.Join(mdDir, a.name)

	exists, err := rpos.NonEmptyFile(a.fs, a.record)
	if err != nil {
		return "", fmt.Errorf("unable to check array record %s: %w", a.record, err)
	}
	created := false
	if exists {
		log.Debugf("Array record %s exists, not creating %s", a.record, device)
	} else {
		if err := a.create(ctx, device, disks, level); err != nil {
			return "", err
		}
		created = true
	}

	current, err := a.locate(ctx, created)
	switch {
	case err == nil:
		device = current
	case errors.Is(err, errArrayNotFound):
		log.Warnf("No entry for array %s in %s, using %s", a.name, mdDir, device)
	default:
		return "", err
	}
	log.Infof("Using array device %s", device)
	return device, nil
}

func (a *Assembler) create(ctx context.Context, device string, disks []Disk, level int) error {
	paths := make([]string, 0, len(disks))
	for _, d := range disks {
		paths = append(paths, d.Path)
	}
	a.logger.Sugar().Infof("Creating RAID-%d array %s from %v", level, device, paths)

	err := shelltool.Exec(ctx, a.runner, shelltool.MdadmCreate(device).
		Force().
		Verbose().
		Level(level).
		Name(a.name).
		DeviceNumber(len(paths)).
		Devices(paths...))
	if err != nil {
		return fmt.Errorf("unable to create array %s: %w", device, err)
	}
	if err := shelltool.Exec(ctx, a.runner, shelltool.UdevadmSettle()); err != nil {
		return fmt.Errorf("unable to wait for udev: %w", err)
	}

	scan, err := shelltool.Output(ctx, a.runner, shelltool.MdadmScan())
	if err != nil {
		return fmt.Errorf("unable to read array configuration: %w", err)
	}
	// An empty record would make the next run create the array again.
	if len(bytes.TrimSpace(scan)) == 0 {
		return fmt.Errorf("mdadm reported no arrays after creating %s", device)
	}
	if err := rpos.ReplaceFile(a.fs, a.record, scan, 0o644); err != nil {
		return fmt.Errorf("unable to write array record %s: %w", a.record, err)
	}
	return nil
}

// locate resolves the array device, polling for the udev symlink when the
// array was just created.
func (a *Assembler) locate(ctx context.Context, poll bool) (string, error) {
	var device string
	try := func() error {
		path, found, err := a.locator.Locate(a.name)
		if err != nil {
			return err
		}
		if !found {
			return errArrayNotFound
		}
		device = path
		return nil
	}
	if !poll {
		return device, try()
	}
	err := retry.Do(
		try,
		retry.Context(ctx),
		retry.Attempts(a.pollAttempts),
		retry.Delay(a.pollDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	return device, err
}
