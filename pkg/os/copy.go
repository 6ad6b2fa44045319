// Copyright 2024 Redpanda Data, Inc.
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
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const preservedModeBits = os.ModePerm | os.ModeSetuid | os.ModeSetgid | os.ModeSticky

// CopyTree copies the contents of the directory src into dst, creating dst
// if needed. Existing files in dst are overwritten and files only present in
// dst are kept, so an interrupted copy can simply be run again.
//
// Modes, modification times and ownership (when fs exposes it) are
// preserved. Symlinks are recreated if fs supports them and skipped
// otherwise, as are devices, sockets and pipes.
func CopyTree(fs afero.Fs, src, dst string) error {
	root, _, err := lstatIfPossible(fs, src)
	if err != nil {
		return err
	}
	if !root.IsDir() {
		return fmt.Errorf("%s is not a directory", src)
	}

	// Directory attributes are applied once all their children are written,
	// deepest first, so read-only directories and mtimes survive the copy.
	type dirAttrs struct {
		path string
		info os.FileInfo
	}
	var dirs []dirAttrs

	err = afero.Walk(fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch mode := info.Mode(); {
		case mode&os.ModeSymlink != 0:
			return copySymlink(fs, path, target)
		case mode.IsDir():
			if err := fs.MkdirAll(target, 0o700); err != nil {
				return fmt.Errorf("unable to create %s: %w", target, err)
			}
			dirs = append(dirs, dirAttrs{target, info})
			return nil
		case mode.IsRegular():
			if err := copyFile(fs, path, target); err != nil {
				return err
			}
			return applyAttrs(fs, info, target)
		default:
			return nil
		}
	})
	if err != nil {
		return err
	}

	for i := len(dirs) - 1; i >= 0; i-- {
		if err := applyAttrs(fs, dirs[i].info, dirs[i].path); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(fs afero.Fs, src, dst string) error {
	in, err := fs.Open(src)
	if err != nil {
		return fmt.Errorf("unable to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("unable to copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}

func copySymlink(fs afero.Fs, src, dst string) error {
	linker, ok := fs.(afero.Symlinker)
	if !ok {
		return nil
	}
	link, err := linker.ReadlinkIfPossible(src)
	if err != nil {
		return fmt.Errorf("unable to read link %s: %w", src, err)
	}
	if err := fs.Remove(dst); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unable to replace %s: %w", dst, err)
	}
	return linker.SymlinkIfPossible(link, dst)
}

func applyAttrs(fs afero.Fs, info os.FileInfo, target string) error {
	if err := PreserveUnixOwnership(fs, info, target); err != nil {
		return err
	}
	if err := fs.Chmod(target, info.Mode()&preservedModeBits); err != nil {
		return fmt.Errorf("unable to chmod %s: %w", target, err)
	}
	if err := fs.Chtimes(target, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("unable to set times of %s: %w", target, err)
	}
	return nil
}

func lstatIfPossible(fs afero.Fs, path string) (os.FileInfo, bool, error) {
	if l, ok := fs.(afero.Lstater); ok {
		return l.LstatIfPossible(path)
	}
	info, err := fs.Stat(path)
	return info, false, err
}
