// Copyright 2020 Redpanda Data, Inc.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.md
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0

package os

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// ReplaceFile either writes a new file with newPerms, or replaces an existing
// file and preserves the permissions of the original file. The contents are
// written to a temporary file in the same directory first and renamed into
// place, so a crash never leaves a truncated file behind.
func ReplaceFile(fs afero.Fs, filename string, contents []byte, newPerms os.FileMode) (rerr error) {
	exists, err := afero.Exists(fs, filename)
	if err != nil {
		return fmt.Errorf("unable to determine if file %q exists: %v", filename, err)
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	temp := filepath.Join(filepath.Dir(filename), fmt.Sprintf(".setup-local-disks-%v", r.Int()))

	// If the directory does not exist, create it. We do not preserve perms
	// if not-exist because there are no perms to preserve.
	if err := fs.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}

	err = afero.WriteFile(fs, temp, contents, newPerms)
	if err != nil {
		return fmt.Errorf("error writing to temporary file: %v", err)
	}
	defer func() {
		if rerr != nil {
			if removeErr := fs.Remove(temp); removeErr != nil {
				rerr = fmt.Errorf("%s, unable to remove temp file: %v", rerr, removeErr)
			} else {
				rerr = fmt.Errorf("%s, temp file removed from disk", rerr)
			}
		}
	}()

	if exists {
		stat, err := fs.Stat(filename)
		if err != nil {
			return fmt.Errorf("unable to stat existing file: %v", err)
		}

		err = fs.Chmod(temp, stat.Mode())
		if err != nil {
			return fmt.Errorf("unable to chmod temp file: %v", err)
		}

		err = PreserveUnixOwnership(fs, stat, temp)
		if err != nil {
			return err
		}
	}

	return fs.Rename(temp, filename)
}

// NonEmptyFile reports whether filename exists and has a size greater than
// zero, like test -s.
func NonEmptyFile(fs afero.Fs, filename string) (bool, error) {
	stat, err := fs.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !stat.IsDir() && stat.Size() > 0, nil
}
