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
	"bufio"
	"bytes"
	"context"
	"strings"

	"github.com/redpanda-data/setup-local-disks/pkg/internal/shelltool"
)

type systemctlClient struct {
	runner shelltool.Runner
}

// NewSystemctlClient returns a Client that shells out to systemctl. It is
// used where the system bus is not reachable.
func NewSystemctlClient(runner shelltool.Runner) Client {
	return &systemctlClient{runner: runner}
}

func (*systemctlClient) Shutdown() error { return nil }

func (c *systemctlClient) UnitState(ctx context.Context, name string) (LoadState, ActiveState, error) {
	out, err := shelltool.Output(ctx, c.runner, shelltool.SystemCTL().
		Show().
		Property("LoadState", "ActiveState").
		Unit(name))
	if err != nil {
		return LoadStateUnknown, ActiveStateUnknown, err
	}
	load, active := LoadStateUnknown, ActiveStateUnknown
	s := bufio.NewScanner(bytes.NewReader(out))
	for s.Scan() {
		k, v, ok := strings.Cut(strings.TrimSpace(s.Text()), "=")
		if !ok {
			continue
		}
		switch k {
		case "LoadState":
			load = toLoadState(v)
		case "ActiveState":
			active = toActiveState(v)
		}
	}
	return load, active, s.Err()
}

func (c *systemctlClient) StartUnits(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	return shelltool.Exec(ctx, c.runner, shelltool.SystemCTL().Start().Unit(names...))
}

func (c *systemctlClient) StopUnits(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	return shelltool.Exec(ctx, c.runner, shelltool.SystemCTL().Stop().Unit(names...))
}

func (c *systemctlClient) EnableUnits(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	return shelltool.Exec(ctx, c.runner, shelltool.SystemCTL().Enable().Unit(names...))
}

func (c *systemctlClient) Reload(ctx context.Context) error {
	return shelltool.Exec(ctx, c.runner, shelltool.SystemCTL().DaemonReload())
}
