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

	"github.com/coreos/go-systemd/v22/dbus"
	"github.com/hashicorp/go-multierror"
)

type dbusClient struct {
	conn *dbus.Conn
}

func NewDbusClient(ctx context.Context) (Client, error) {
	conn, err := dbus.NewWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to systemd: %w", err)
	}
	return &dbusClient{conn: conn}, nil
}

func (c *dbusClient) Shutdown() error {
	c.conn.Close()
	return nil
}

func (c *dbusClient) UnitState(ctx context.Context, name string) (LoadState, ActiveState, error) {
	loadState, err := c.conn.GetUnitPropertyContext(ctx, name, "LoadState")
	if err != nil {
		return LoadStateUnknown, ActiveStateUnknown, err
	}
	activeState, err := c.conn.GetUnitPropertyContext(ctx, name, "ActiveState")
	if err != nil {
		return toLoadState(loadState.Value.String()),
			ActiveStateUnknown,
			err
	}

	return toLoadState(loadState.Value.String()),
		toActiveState(activeState.Value.String()),
		nil
}

func (c *dbusClient) StartUnits(ctx context.Context, names ...string) error {
	return c.jobs(ctx, "start", c.conn.StartUnitContext, names)
}

func (c *dbusClient) StopUnits(ctx context.Context, names ...string) error {
	return c.jobs(ctx, "stop", c.conn.StopUnitContext, names)
}

func (c *dbusClient) EnableUnits(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	_, _, err := c.conn.EnableUnitFilesContext(ctx, names, false, false)
	if err != nil {
		return fmt.Errorf("unable to enable %v: %w", names, err)
	}
	return nil
}

func (c *dbusClient) Reload(ctx context.Context) error {
	return c.conn.ReloadContext(ctx)
}

type jobFunc func(ctx context.Context, name, mode string, ch chan<- string) (int, error)

// jobs enqueues one job per unit before waiting on any of them, so the
// units change state together.
func (*dbusClient) jobs(ctx context.Context, verb string, enqueue jobFunc, names []string) error {
	var errs *multierror.Error
	results := make([]chan string, len(names))
	for i, name := range names {
		ch := make(chan string, 1)
		if _, err := enqueue(ctx, name, "replace", ch); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("unable to %s %s: %w", verb, name, err))
			continue
		}
		results[i] = ch
	}
	for i, ch := range results {
		if ch == nil {
			continue
		}
		select {
		case res := <-ch:
			if res != "done" {
				errs = multierror.Append(errs, fmt.Errorf("unable to %s %s: job %s", verb, names[i], res))
			}
		case <-ctx.Done():
			return multierror.Append(errs, ctx.Err()).ErrorOrNil()
		}
	}
	return errs.ErrorOrNil()
}
