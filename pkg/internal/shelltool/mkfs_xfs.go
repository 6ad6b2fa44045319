// Copyright 2024 Redpanda Data, Inc.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.md
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0

package shelltool

type makeXFS struct {
	shelltool
}

func MakeXFS(device string) *makeXFS {
	m := new(makeXFS)
	m.command = "/usr/sbin/mkfs.xfs"
	m.arguments = append(m.arguments, device)

	return m
}

// LogStripeUnit sets the log stripe unit, e.g. "8b" for 8 filesystem blocks.
func (m *makeXFS) LogStripeUnit(su string) *makeXFS {
	m.options = append(m.options, "-l", "su="+su)
	return m
}
