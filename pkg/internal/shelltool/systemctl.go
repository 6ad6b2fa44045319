// Copyright 2024 Redpanda Data, Inc.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.md
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0

package shelltool

import "strings"

type systemctl struct {
	shelltool
	subCommand string
}

func SystemCTL() *systemctl {
	s := new(systemctl)
	s.command = "/usr/bin/systemctl"

	return s
}

func (s *systemctl) Unit(names ...string) *systemctl {
	s.arguments = append(s.arguments, names...)
	return s
}

// verb sets the subcommand. A second one is an error.
func (s *systemctl) verb(name string) *systemctl {
	if s.subCommand != "" {
		s.fail("subcommand %q given after %q", name, s.subCommand)
		return s
	}
	s.subCommand = name
	s.arguments = append(s.arguments, name)
	return s
}

func (s *systemctl) Enable() *systemctl { return s.verb("enable") }

// Start runs systemctl start on the units.
func (s *systemctl) Start() *systemctl { return s.verb("start") }

// Stop runs systemctl stop on the units.
func (s *systemctl) Stop() *systemctl { return s.verb("stop") }

// Show prints unit properties as Key=Value lines.
func (s *systemctl) Show() *systemctl { return s.verb("show") }

// DaemonReload reloads systemd manager configuration.
// This will rerun all generators (see systemd.generator(7)),
// reload all unit files, and recreate the entire dependency tree.
//
// This command should not be confused with the reload command.
// -- https://www.freedesktop.org/software/systemd/man/latest/systemctl.html#daemon-reload
func (s *systemctl) DaemonReload() *systemctl { return s.verb("daemon-reload") }

// Property limits show to the given properties.
func (s *systemctl) Property(names ...string) *systemctl {
	s.options = append(s.options, "--property", strings.Join(names, ","))
	return s
}
