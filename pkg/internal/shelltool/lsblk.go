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

type lsblk struct {
	shelltool
}

// ListBlock lists information about a block device.
func ListBlock(device string) *lsblk {
	l := new(lsblk)
	l.command = "/usr/bin/lsblk"
	l.arguments = append(l.arguments, device)

	return l
}

// Output selects the columns to print.
func (l *lsblk) Output(columns ...string) *lsblk {
	l.options = append(l.options, "--output", strings.Join(columns, ","))
	return l
}

func (l *lsblk) NoHeadings() *lsblk {
	l.options = append(l.options, "--noheadings")
	return l
}
