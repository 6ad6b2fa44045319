// Copyright 2024 Redpanda Data, Inc.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.md
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0

// Package config contains the run configuration of setup-local-disks. A
// Config is built once at startup from defaults, an optional YAML file and
// command line flags, and is read-only afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeRAID0  Mode = "raid0"
	ModeRAID10 Mode = "raid10"
	ModeMount  Mode = "mount"
	ModeNone   Mode = "none"
)

// Modes lists the valid modes, in the order shown in help text.
var Modes = []Mode{ModeRAID0, ModeRAID10, ModeMount, ModeNone}

// ErrInvalidMode is returned for a mode outside of Modes.
var ErrInvalidMode = errors.New("invalid mode")

// ParseMode validates s as a Mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w %q, must be one of %v", ErrInvalidMode, s, Modes)
}

// IsRAID reports whether m assembles an md array.
func (m Mode) IsRAID() bool {
	return m == ModeRAID0 || m == ModeRAID10
}

// Level returns the RAID level of a RAID mode.
func (m Mode) Level() int {
	if m == ModeRAID10 {
		return 10
	}
	return 0
}

const (
	ServiceManagerDbus      = "dbus"
	ServiceManagerSystemctl = "systemctl"

	CopyMethodCP     = "cp"
	CopyMethodNative = "native"
)

// Well known binding names.
const (
	BindingContainerd = "containerd"
	BindingKubelet    = "kubelet"
	BindingPodLogs    = "pod-logs"
)

// Binding is a state directory that is relocated onto the array and bind
// mounted back in place. Services are the units that write to Path and must
// be stopped while it is copied.
type Binding struct {
	Name     string   `yaml:"name"`
	Path     string   `yaml:"path"`
	Services []string `yaml:"services"`
}

// DefaultBindings are the container runtime, kubelet and pod log
// directories.
func DefaultBindings() []Binding {
	return []Binding{
		{Name: BindingContainerd, Path: "/var/lib/containerd", Services: []string{"containerd"}},
		{Name: BindingKubelet, Path: "/var/lib/kubelet", Services: []string{"kubelet"}},
		{Name: BindingPodLogs, Path: "/var/log/pods", Services: []string{"kubelet"}},
	}
}

const DefaultConfigPath = "/etc/setup-local-disks.yaml"

type Config struct {
	Mode      Mode   `yaml:"mode"`
	MountRoot string `yaml:"mount_root"`

	Bindings         []Binding `yaml:"bindings"`
	DisabledBindings []string  `yaml:"disabled_bindings"`

	ByIDDir     string `yaml:"by_id_dir"`
	ByIDPattern string `yaml:"by_id_pattern"`

	ArrayName     string `yaml:"array_name"`
	ArrayRecord   string `yaml:"array_record"`
	RestartLedger string `yaml:"restart_ledger"`

	ServiceManager string `yaml:"service_manager"`
	CopyMethod     string `yaml:"copy_method"`

	Verbose bool `yaml:"verbose"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		MountRoot:      "/mnt/k8s-disks",
		Bindings:       DefaultBindings(),
		ByIDDir:        "/dev/disk/by-id",
		ByIDPattern:    "*NVMe_Instance_Storage_*",
		ArrayName:      "kubernetes",
		ArrayRecord:    "/.aws/mdadm.conf",
		RestartLedger:  "/var/lib/setup-local-disks/pending-restarts.yaml",
		ServiceManager: ServiceManagerDbus,
		CopyMethod:     CopyMethodCP,
	}
}

// Load returns the default configuration overridden by the YAML file at
// path. A missing file is only an error if mustExist is set.
func Load(fs afero.Fs, path string, mustExist bool) (*Config, error) {
	c := Default()
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return c, nil
		}
		return nil, fmt.Errorf("unable to read config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("unable to parse config file %q: %w", path, err)
	}
	return c, nil
}

// DisableBinding drops the binding called name, if present.
func (c *Config) DisableBinding(name string) {
	for _, d := range c.DisabledBindings {
		if d == name {
			return
		}
	}
	c.DisabledBindings = append(c.DisabledBindings, name)
}

// EnabledBindings returns the bindings not disabled.
func (c *Config) EnabledBindings() []Binding {
	disabled := make(map[string]bool, len(c.DisabledBindings))
	for _, d := range c.DisabledBindings {
		disabled[d] = true
	}
	var enabled []Binding
	for _, b := range c.Bindings {
		if !disabled[b.Name] {
			enabled = append(enabled, b)
		}
	}
	return enabled
}

// Validate checks the configuration before anything is touched.
func (c *Config) Validate() error {
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if !filepath.IsAbs(c.MountRoot) {
		return fmt.Errorf("mount root %q must be an absolute path", c.MountRoot)
	}
	switch c.ServiceManager {
	case ServiceManagerDbus, ServiceManagerSystemctl:
	default:
		return fmt.Errorf("unknown service manager %q, must be %q or %q", c.ServiceManager, ServiceManagerDbus, ServiceManagerSystemctl)
	}
	switch c.CopyMethod {
	case CopyMethodCP, CopyMethodNative:
	default:
		return fmt.Errorf("unknown copy method %q, must be %q or %q", c.CopyMethod, CopyMethodCP, CopyMethodNative)
	}
	if c.ArrayName == "" {
		return errors.New("array name must not be empty")
	}
	if !filepath.IsAbs(c.ArrayRecord) || !filepath.IsAbs(c.RestartLedger) {
		return errors.New("array record and restart ledger must be absolute paths")
	}

	// Each binding is copied to <mount root>/<base name>.
	bases := make(map[string]string)
	for _, b := range c.Bindings {
		if !filepath.IsAbs(b.Path) || filepath.Clean(b.Path) == "/" {
			return fmt.Errorf("binding %q: path %q must be an absolute directory below /", b.Name, b.Path)
		}
		base := filepath.Base(b.Path)
		if other, ok := bases[base]; ok {
			return fmt.Errorf("bindings %q and %q would both be copied to %s", other, b.Name, filepath.Join(c.MountRoot, "0", base))
		}
		bases[base] = b.Name
	}
	return nil
}
