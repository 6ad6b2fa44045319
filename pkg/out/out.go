// Copyright 2020 Vectorized, Inc.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.md
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0

// Package out contains helpers to write to stdout / stderr and to exit the
// process.
package out

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var errorPrefix = color.New(color.FgRed, color.Bold)

// Die formats the message with a suffixed newline to stderr and exits the
// process with 1.
func Die(msg string, args ...interface{}) {
	die(os.Stderr, msg, args...)
	os.Exit(1)
}

func die(w io.Writer, msg string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", errorPrefix.Sprint("error:"), fmt.Sprintf(msg, args...))
}

// MaybeDieErr calls Die if err is non-nil, with just the err as the message.
func MaybeDieErr(err error) {
	if err != nil {
		Die("%v", err)
	}
}
