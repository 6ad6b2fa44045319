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
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/docker/go-units"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Disk is an ephemeral block device found on the node.
type Disk struct {
	Path      string // Canonical device node, e.g. /dev/nvme1n1.
	ByID      string // The by-id alias the disk was found through.
	SizeBytes uint64 // 0 if unknown.
}

// Enumerator lists the ephemeral disks of the node, deduplicated and sorted
// by Path.
type Enumerator interface {
	Enumerate(ctx context.Context) ([]Disk, error)
}

const (
	sysBlockDir = "/sys/class/block"
	sectorSize  = 512
)

type byIDEnumerator struct {
	fs      afero.Fs
	dir     string
	pattern string
	resolve func(string) (string, error)
	logger  *zap.Logger
}

// NewByIDEnumerator returns an Enumerator that lists the entries of dir
// matching the glob pattern and resolves them with resolve, usually
// filepath.EvalSymlinks.
func NewByIDEnumerator(fs afero.Fs, logger *zap.Logger, dir, pattern string, resolve func(string) (string, error)) Enumerator {
	return &byIDEnumerator{
		fs:      fs,
		dir:     dir,
		pattern: pattern,
		resolve: resolve,
		logger:  logger,
	}
}

func (e *byIDEnumerator) Enumerate(context.Context) ([]Disk, error) {
	log := e.logger.Sugar()
	if _, err := filepath.Match(e.pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid disk pattern %q: %w", e.pattern, err)
	}
	entries, err := afero.ReadDir(e.fs, e.dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debugf("%s does not exist, no disks", e.dir)
			return nil, nil
		}
		return nil, fmt.Errorf("unable to list %s: %w", e.dir, err)
	}

	seen := make(map[string]bool)
	var disks []Disk
	for _, entry := range entries {
		if ok, _ := filepath.Match(e.pattern, entry.Name()); !ok {
			continue
		}
		alias := filepath.Join(e.dir, entry.Name())
		path, err := e.resolve(alias)
		if err != nil {
			log.Warnf("Skipping %s: %v", alias, err)
			continue
		}
		if seen[path] {
			continue
		}
		seen[path] = true

		d := Disk{Path: path, ByID: alias, SizeBytes: e.size(path)}
		log.Infof("Found ephemeral disk %s (%s)", d.Path, units.BytesSize(float64(d.SizeBytes)))
		disks = append(disks, d)
	}
	sort.Slice(disks, func(i, j int) bool { return disks[i].Path < disks[j].Path })
	return disks, nil
}

func (e *byIDEnumerator) size(device string) uint64 {
	file := filepath.Join(sysBlockDir, filepath.Base(device), "size")
	raw, err := afero.ReadFile(e.fs, file)
	if err != nil {
		e.logger.Sugar().Debugf("Unable to read size of %s: %v", device, err)
		return 0
	}
	sectors, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		e.logger.Sugar().Debugf("Unable to parse %s: %v", file, err)
		return 0
	}
	return sectors * sectorSize
}
