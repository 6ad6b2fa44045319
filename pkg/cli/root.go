// Copyright 2024 Redpanda Data, Inc.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.md
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0

// Package cli contains the setup-local-disks command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/redpanda-data/setup-local-disks/pkg/config"
	"github.com/redpanda-data/setup-local-disks/pkg/disksetup"
	"github.com/redpanda-data/setup-local-disks/pkg/internal/shelltool"
	"github.com/redpanda-data/setup-local-disks/pkg/out"
	"github.com/redpanda-data/setup-local-disks/pkg/system/systemd"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

type options struct {
	dir            string
	noContainerd   bool
	noKubelet      bool
	noPodLogs      bool
	noMounts       bool
	configPath     string
	serviceManager string
	copyMethod     string
	timeout        time.Duration
	verbose        bool
}

func Execute() {
	color.NoColor = !colorStderr(term.IsTerminal)
	if err := NewCommand(afero.NewOsFs()).Execute(); err != nil {
		os.Exit(1)
	}
}

// colorStderr reports whether error output may be colored. out.Die writes
// its prefix to stderr, so that is the descriptor checked.
func colorStderr(isTerminal func(fd int) bool) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set || os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTerminal(int(os.Stderr.Fd()))
}

func NewCommand(fs afero.Fs) *cobra.Command {
	var o options
	modes := make([]string, 0, len(config.Modes))
	for _, m := range config.Modes {
		modes = append(modes, string(m))
	}
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("setup-local-disks [%s]", strings.Join(modes, "|")),
		Short: "Set up the ephemeral disks of this node for Kubernetes",
		Long: `Set up the ephemeral disks of this node for Kubernetes.

In raid0 and raid10 mode the instance store NVMe disks are assembled into a
single md array named "kubernetes", formatted with XFS and mounted at
<dir>/0. The containerd, kubelet and pod log directories are then copied
onto the array and bind mounted back in place; the services writing to them
are stopped while they are copied and started again afterwards.

In mount mode every disk is formatted and mounted at <dir>/<n> instead,
where n starts at 1. In none mode nothing is done.

Mounts are registered as systemd mount units under /etc/systemd/system so
they are restored on boot. The command is idempotent and is meant to run on
every boot; existing arrays and filesystems are never re-created.

This command requires root privileges.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: modes,
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := buildConfig(fs, cmd.Flags(), &o, args[0])
			out.MaybeDieErr(err)
			out.MaybeDieErr(run(cmd.Context(), fs, cfg, o.timeout))
		},
	}

	o.install(cmd.Flags())
	return cmd
}

func (o *options) install(flags *pflag.FlagSet) {
	flags.StringVarP(&o.dir, "dir", "d", config.Default().MountRoot, "Directory under which the disks are mounted")
	flags.BoolVar(&o.noContainerd, "no-bind-containerd", false, "Do not move /var/lib/containerd onto the array")
	flags.BoolVar(&o.noKubelet, "no-bind-kubelet", false, "Do not move /var/lib/kubelet onto the array")
	flags.BoolVar(&o.noPodLogs, "no-bind-pod-logs", false, "Do not move /var/log/pods onto the array")
	flags.BoolVar(&o.noMounts, "no-bind-mounts", false, "Do not move any directory onto the array")
	flags.StringVar(&o.configPath, "config", config.DefaultConfigPath, "Optional YAML configuration file")
	flags.StringVar(&o.serviceManager, "service-manager", config.ServiceManagerDbus, fmt.Sprintf("How to talk to systemd, %q or %q", config.ServiceManagerDbus, config.ServiceManagerSystemctl))
	flags.StringVar(&o.copyMethod, "copy-method", config.CopyMethodCP, fmt.Sprintf("How directories are copied onto the array, %q or %q", config.CopyMethodCP, config.CopyMethodNative))
	flags.DurationVar(&o.timeout, "timeout", 0, "The maximum time to wait for the command to finish, 0 waits forever")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "Enable verbose logging")
}

// buildConfig layers the configuration file and the flags the user set over
// the defaults.
func buildConfig(fs afero.Fs, flags *pflag.FlagSet, o *options, mode string) (*config.Config, error) {
	cfg, err := config.Load(fs, o.configPath, flags.Changed("config"))
	if err != nil {
		return nil, err
	}
	m, err := config.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	cfg.Mode = m

	if flags.Changed("dir") {
		cfg.MountRoot = o.dir
	}
	if flags.Changed("service-manager") {
		cfg.ServiceManager = o.serviceManager
	}
	if flags.Changed("copy-method") {
		cfg.CopyMethod = o.copyMethod
	}
	if o.verbose {
		cfg.Verbose = true
	}
	for _, d := range []struct {
		set     bool
		binding string
	}{
		{o.noContainerd, config.BindingContainerd},
		{o.noKubelet, config.BindingKubelet},
		{o.noPodLogs, config.BindingPodLogs},
	} {
		if d.set {
			cfg.DisableBinding(d.binding)
		}
	}
	if o.noMounts {
		for _, b := range cfg.Bindings {
			cfg.DisableBinding(b.Name)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, fs afero.Fs, cfg *config.Config, timeout time.Duration) error {
	logger := newLogger(os.Stderr, cfg.Verbose)
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	runner := shelltool.NewRunner(logger)
	client := newSystemdClient(ctx, logger, cfg.ServiceManager, runner)
	defer client.Shutdown()

	s := disksetup.New(fs, logger,
		disksetup.WithConfig(cfg),
		disksetup.WithRunner(runner),
		disksetup.WithSystemd(client),
		disksetup.WithPrivilegeCheck(requireRoot),
		disksetup.WithOutput(os.Stdout),
	)
	_, err := s.Run(ctx)
	return err
}

// newSystemdClient connects to systemd over D-Bus, falling back to
// systemctl if the bus is not reachable.
func newSystemdClient(ctx context.Context, logger *zap.Logger, manager string, runner shelltool.Runner) systemd.Client {
	if manager == config.ServiceManagerDbus {
		c, err := systemd.NewDbusClient(ctx)
		if err == nil {
			return c
		}
		logger.Sugar().Warnf("Unable to connect to systemd over D-Bus, using systemctl: %v", err)
	}
	return systemd.NewSystemctlClient(runner)
}

func requireRoot() error {
	if unix.Geteuid() != 0 {
		return errors.New("setup-local-disks must be run as root")
	}
	return nil
}
