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
	"strings"

	"github.com/redpanda-data/setup-local-disks/pkg/internal/shelltool"
	"go.uber.org/zap"
)

// mkfs.xfs picks the array stripe unit as log stripe unit, which is above
// the 256KiB maximum for the usual 512KiB md chunk; it then warns and falls
// back to 32KiB. Ask for 32KiB (8 blocks) up front.
const xfsLogStripeUnit = "8b"

// Provisioner puts an XFS filesystem on block devices that have none.
type Provisioner struct {
	runner shelltool.Runner
	logger *zap.Logger
}

func NewProvisioner(logger *zap.Logger, runner shelltool.Runner) *Provisioner {
	return &Provisioner{runner: runner, logger: logger}
}

// Ensure formats device with XFS unless it already holds a filesystem of any
// type.
func (p *Provisioner) Ensure(ctx context.Context, device string) error {
	log := p.logger.Sugar()
	out, err := shelltool.Output(ctx, p.runner, shelltool.ListBlock(device).Output("FSTYPE").NoHeadings())
	if err != nil {
		return fmt.Errorf("unable to inspect %s: %w", device, err)
	}
	if fstype := strings.Join(strings.Fields(string(out)), ","); fstype != "" {
		log.Infof("%s already has a %s filesystem, not formatting", device, fstype)
		return nil
	}

	log.Infof("Formatting %s with XFS", device)
	if err := shelltool.Exec(ctx, p.runner, shelltool.MakeXFS(device).LogStripeUnit(xfsLogStripeUnit)); err != nil {
		return fmt.Errorf("unable to format %s: %w", device, err)
	}
	return nil
}
