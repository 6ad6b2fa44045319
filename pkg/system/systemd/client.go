// Copyright 2020 Redpanda Data, Inc.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.md
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0

package systemd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

type ActiveState int

// systemctl --state=help
// https://www.freedesktop.org/software/systemd/man/systemctl.html
const (
	ActiveStateActive ActiveState = iota
	ActiveStateReloading
	ActiveStateInactive
	ActiveStateFailed
	ActiveStateActivating
	ActiveStateDeactivating
	ActiveStateMaintenance
	ActiveStateUnknown
)

func (s ActiveState) String() string {
	switch s {
	case ActiveStateActive:
		return "active"
	case ActiveStateReloading:
		return "reloading"
	case ActiveStateInactive:
		return "inactive"
	case ActiveStateFailed:
		return "failed"
	case ActiveStateActivating:
		return "activating"
	case ActiveStateDeactivating:
		return "deactivating"
	case ActiveStateMaintenance:
		return "maintenance"
	}
	return "unknown"
}

func toActiveState(s string) ActiveState {
	switch strings.Trim(s, ` "`) {
	case "active":
		return ActiveStateActive
	case "reloading":
		return ActiveStateReloading
	case "inactive":
		return ActiveStateInactive
	case "failed":
		return ActiveStateFailed
	case "activating":
		return ActiveStateActivating
	case "deactivating":
		return ActiveStateDeactivating
	case "maintenance":
		return ActiveStateMaintenance
	}
	return ActiveStateUnknown
}

type LoadState int

const (
	LoadStateStub LoadState = iota
	LoadStateLoaded
	LoadStateNotFound
	LoadStateBadSetting
	LoadStateError
	LoadStateMerged
	LoadStateMasked
	LoadStateUnknown
)

func (s LoadState) String() string {
	switch s {
	case LoadStateStub:
		return "stub"
	case LoadStateLoaded:
		return "loaded"
	case LoadStateNotFound:
		return "not-found"
	case LoadStateBadSetting:
		return "bad-setting"
	case LoadStateError:
		return "error"
	case LoadStateMerged:
		return "merged"
	case LoadStateMasked:
		return "masked"
	}
	return "unknown"
}

func toLoadState(s string) LoadState {
	switch strings.Trim(s, ` "`) {
	case "stub":
		return LoadStateStub
	case "loaded":
		return LoadStateLoaded
	case "not-found":
		return LoadStateNotFound
	case "bad-setting":
		return LoadStateBadSetting
	case "error":
		return LoadStateError
	case "merged":
		return LoadStateMerged
	case "masked":
		return LoadStateMasked
	}
	return LoadStateUnknown
}

// Client is the subset of the service manager needed to provision disks.
// Batch methods act on all the given units as one operation; an empty list
// is a no-op.
type Client interface {
	Shutdown() error
	UnitState(ctx context.Context, name string) (LoadState, ActiveState, error)
	StartUnits(ctx context.Context, names ...string) error
	StopUnits(ctx context.Context, names ...string) error
	EnableUnits(ctx context.Context, names ...string) error
	Reload(ctx context.Context) error
}

const unitDir = "/etc/systemd/system"

func UnitPath(name string) string {
	return filepath.Join(unitDir, name)
}

// InstallUnit writes the unit file body under /etc/systemd/system and
// returns its path. The manager must be reloaded before the unit is used.
func InstallUnit(fs afero.Fs, body, name string) (string, error) {
	path := UnitPath(name)
	if err := fs.MkdirAll(unitDir, 0o755); err != nil {
		return "", fmt.Errorf("unable to create %s: %w", unitDir, err)
	}
	if err := afero.WriteFile(fs, path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("unable to write unit %s: %w", path, err)
	}
	return path, nil
}

func IsActive(s ActiveState) bool {
	return s == ActiveStateActive
}

// IsUnitActive is a shortcut for UnitState + IsActive.
func IsUnitActive(ctx context.Context, c Client, name string) (bool, error) {
	_, active, err := c.UnitState(ctx, name)
	if err != nil {
		return false, fmt.Errorf("unable to get state of %s: %w", name, err)
	}
	return IsActive(active), nil
}
