// Copyright 2024 Redpanda Data, Inc.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.md
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0

package shelltool

type copyArchive struct {
	shelltool
}

// CopyArchive copies src to dst recursively with cp -a, preserving modes,
// ownership, timestamps, links and extended attributes.
func CopyArchive(src, dst string) *copyArchive {
	c := new(copyArchive)
	c.command = "/usr/bin/cp"
	c.options = append(c.options, "--archive")
	c.arguments = append(c.arguments, src, dst)

	return c
}
