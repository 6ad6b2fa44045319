// Copyright 2024 Redpanda Data, Inc.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.md
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0

package shelltool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemCTLDaemonReload(t *testing.T) {
	cmd, err := SystemCTL().
		DaemonReload().
		Build(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, "/usr/bin/systemctl daemon-reload", cmd.String())
}

func TestSystemCTLEnable(t *testing.T) {
	cmd, err := SystemCTL().
		Enable().
		Unit("var-lib-kubelet.mount").
		Build(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, "/usr/bin/systemctl enable var-lib-kubelet.mount", cmd.String())
}

func TestSystemCTLOneSubcommandAllowed(t *testing.T) {
	_, err := SystemCTL().
		Stop().
		Start().
		Unit("kubelet").
		Build(context.Background())

	assert.ErrorContains(t, err, `subcommand "start" given after "stop"`)
}

func TestSystemCTLStartMultipleUnits(t *testing.T) {
	cmd, err := SystemCTL().
		Start().
		Unit("kubelet", "containerd").
		Build(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, "/usr/bin/systemctl start kubelet containerd", cmd.String())
}

func TestSystemCTLShowProperties(t *testing.T) {
	cmd, err := SystemCTL().
		Show().
		Property("LoadState", "ActiveState").
		Unit("var-log-pods.mount").
		Build(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, "/usr/bin/systemctl --property LoadState,ActiveState show var-log-pods.mount", cmd.String())
}
