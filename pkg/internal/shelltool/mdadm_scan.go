// Copyright 2022 Redpanda Data, Inc.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.md
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0

package shelltool

type mdadmScan struct {
	shelltool
}

// MdadmScan prints one ARRAY line per assembled md array, in mdadm.conf
// format.
func MdadmScan() *mdadmScan {
	return &mdadmScan{shelltool{
		command: "/usr/sbin/mdadm",
		options: []string{"--detail", "--scan"},
	}}
}
