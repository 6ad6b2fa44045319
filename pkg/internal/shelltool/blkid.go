// Copyright 2024 Redpanda Data, Inc.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.md
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0

package shelltool

type blkid struct {
	shelltool
}

// BlockID probes device with blkid.
func BlockID(device string) *blkid {
	b := new(blkid)
	b.command = "/usr/sbin/blkid"
	b.arguments = append(b.arguments, device)

	return b
}

// Value prints only the value of tag, e.g. the bare filesystem UUID for
// "UUID". It can be set once.
func (b *blkid) Value(tag string) *blkid {
	switch {
	case tag == "":
		b.fail("empty tag")
	case len(b.options) > 0:
		b.fail("tag %q requested after %q", tag, b.options[1])
	default:
		b.options = append(b.options, "--match-tag", tag, "--output", "value")
	}
	return b
}
