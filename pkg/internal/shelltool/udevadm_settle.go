// Copyright 2024 Redpanda Data, Inc.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.md
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0

package shelltool

type udevadmSettle struct {
	shelltool
}

// UdevadmSettle waits for the udev event queue to drain, so the /dev/md
// symlinks of a new array exist before they are looked up.
func UdevadmSettle() *udevadmSettle {
	return &udevadmSettle{shelltool{
		command:   "/usr/bin/udevadm",
		arguments: []string{"settle"},
	}}
}
