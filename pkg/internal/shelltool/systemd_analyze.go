// Copyright 2024 Redpanda Data, Inc.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.md
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0

package shelltool

type systemdAnalyze struct {
	shelltool
}

// SystemdAnalyzeVerify checks unit files for correctness. It exits non-zero
// for syntax errors and missing dependencies.
func SystemdAnalyzeVerify(unitFiles ...string) *systemdAnalyze {
	s := new(systemdAnalyze)
	s.command = "/usr/bin/systemd-analyze"
	s.options = append(s.options, "verify")
	s.arguments = append(s.arguments, unitFiles...)

	return s
}
