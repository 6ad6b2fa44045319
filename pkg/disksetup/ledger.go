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
	"fmt"
	"os"
	"time"

	rpos "github.com/redpanda-data/setup-local-disks/pkg/os"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Ledger persists the services this tool stopped and has not started again,
// so that a run killed mid-migration does not leave them stopped for good.
type Ledger struct {
	fs   afero.Fs
	path string
}

type ledgerFile struct {
	Services  []string  `yaml:"services"`
	StoppedAt time.Time `yaml:"stopped_at"`
}

func NewLedger(fs afero.Fs, path string) *Ledger {
	return &Ledger{fs: fs, path: path}
}

// Load returns the services owed a restart, or nothing if there is no
// ledger.
func (l *Ledger) Load() ([]string, error) {
	raw, err := afero.ReadFile(l.fs, l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("unable to read restart ledger %s: %w", l.path, err)
	}
	var f ledgerFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("unable to parse restart ledger %s: %w", l.path, err)
	}
	return f.Services, nil
}

// Save atomically replaces the ledger with services.
func (l *Ledger) Save(services []string) error {
	raw, err := yaml.Marshal(ledgerFile{Services: services, StoppedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := rpos.ReplaceFile(l.fs, l.path, raw, 0o600); err != nil {
		return fmt.Errorf("unable to write restart ledger %s: %w", l.path, err)
	}
	return nil
}

// Clear removes the ledger.
func (l *Ledger) Clear() error {
	if err := l.fs.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unable to remove restart ledger %s: %w", l.path, err)
	}
	return nil
}
