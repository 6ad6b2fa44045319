// Copyright 2020 Redpanda Data, Inc.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.md
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0

package systemd

import "context"

type mockClient struct {
	shutdown    func() error
	unitState   func(string) (LoadState, ActiveState, error)
	startUnits  func(...string) error
	stopUnits   func(...string) error
	enableUnits func(...string) error
	reload      func() error
}

// MockOpt overrides one method of the client returned by NewMockClient.
type MockOpt func(*mockClient)

func MockUnitState(f func(string) (LoadState, ActiveState, error)) MockOpt {
	return func(c *mockClient) { c.unitState = f }
}

func MockStartUnits(f func(...string) error) MockOpt {
	return func(c *mockClient) { c.startUnits = f }
}

func MockStopUnits(f func(...string) error) MockOpt {
	return func(c *mockClient) { c.stopUnits = f }
}

func MockEnableUnits(f func(...string) error) MockOpt {
	return func(c *mockClient) { c.enableUnits = f }
}

func MockReload(f func() error) MockOpt {
	return func(c *mockClient) { c.reload = f }
}

// NewMockClient returns a Client where every unit is loaded and inactive and
// every operation succeeds, unless overridden by opts.
func NewMockClient(opts ...MockOpt) Client {
	c := &mockClient{
		shutdown: func() error { return nil },
		unitState: func(string) (LoadState, ActiveState, error) {
			return LoadStateLoaded, ActiveStateInactive, nil
		},
		startUnits:  func(...string) error { return nil },
		stopUnits:   func(...string) error { return nil },
		enableUnits: func(...string) error { return nil },
		reload:      func() error { return nil },
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *mockClient) Shutdown() error {
	return c.shutdown()
}

func (c *mockClient) UnitState(_ context.Context, name string) (LoadState, ActiveState, error) {
	return c.unitState(name)
}

func (c *mockClient) StartUnits(_ context.Context, names ...string) error {
	return c.startUnits(names...)
}

func (c *mockClient) StopUnits(_ context.Context, names ...string) error {
	return c.stopUnits(names...)
}

func (c *mockClient) EnableUnits(_ context.Context, names ...string) error {
	return c.enableUnits(names...)
}

func (c *mockClient) Reload(context.Context) error {
	return c.reload()
}
