// Copyright 2024 Redpanda Data, Inc.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.md
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0

package systemd

import (
	"io"
	"path/filepath"

	"github.com/coreos/go-systemd/v22/unit"
)

// MountUnit holds the fields of a .mount unit.
type MountUnit struct {
	Description string
	What        string
	Where       string
	Type        string
	Options     string
}

// MountUnitName returns the unit name systemd requires for a mount unit at
// where; the same as `systemd-escape --path --suffix=mount where`.
func MountUnitName(where string) string {
	return unit.UnitNamePathEscape(filepath.Clean(where)) + ".mount"
}

// RenderMountUnit renders m as a unit file wanted by multi-user.target, so
// that it is mounted on every boot once enabled.
func RenderMountUnit(m MountUnit) string {
	opts := []*unit.UnitOption{
		unit.NewUnitOption("Unit", "Description", m.Description),
		unit.NewUnitOption("Mount", "What", m.What),
		unit.NewUnitOption("Mount", "Where", filepath.Clean(m.Where)),
		unit.NewUnitOption("Mount", "Type", m.Type),
	}
	if m.Options != "" {
		opts = append(opts, unit.NewUnitOption("Mount", "Options", m.Options))
	}
	opts = append(opts, unit.NewUnitOption("Install", "WantedBy", "multi-user.target"))

	// Serialize returns an in-memory buffer, reading it cannot fail.
	body, _ := io.ReadAll(unit.Serialize(opts))
	return string(body)
}
