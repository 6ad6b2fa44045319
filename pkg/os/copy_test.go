// Copyright 2024 Redpanda Data, Inc.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.md
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0

package os_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	rpos "github.com/redpanda-data/setup-local-disks/pkg/os"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestReplaceFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	const path = "/.aws/mdadm.conf"

	require.NoError(t, rpos.ReplaceFile(fs, path, []byte("ARRAY /dev/md/kubernetes\n"), 0o644))
	got, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	require.Equal(t, "ARRAY /dev/md/kubernetes\n", string(got))

	// Replacing keeps the perms of the existing file.
	require.NoError(t, fs.Chmod(path, 0o600))
	require.NoError(t, rpos.ReplaceFile(fs, path, []byte("x"), 0o644))
	stat, err := fs.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), stat.Mode().Perm())

	// No temp files are left behind.
	entries, err := afero.ReadDir(fs, "/.aws")
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestNonEmptyFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/empty", nil, 0o644))
	require.NoError(t, afero.WriteFile(fs, "/full", []byte("a"), 0o644))
	require.NoError(t, fs.MkdirAll("/dir", 0o755))

	for path, exp := range map[string]bool{
		"/empty":   false,
		"/full":    true,
		"/dir":     false,
		"/missing": false,
	} {
		got, err := rpos.NonEmptyFile(fs, path)
		require.NoError(t, err)
		require.Equal(t, exp, got, path)
	}
}

func TestCopyTree(t *testing.T) {
	fs := afero.NewMemMapFs()
	mtime := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	files := map[string]struct {
		body string
		mode os.FileMode
	}{
		"/var/lib/kubelet/config.yaml":                {"kind: KubeletConfiguration\n", 0o644},
		"/var/lib/kubelet/pki/kubelet.key":            {"secret", 0o600},
		"/var/lib/kubelet/plugins/csi/socket-dir/.k":  {"", 0o640},
		"/var/lib/kubelet/device-plugins/kubelet_ckp": {"{}", 0o755},
	}
	for path, f := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, afero.WriteFile(fs, path, []byte(f.body), f.mode))
		require.NoError(t, fs.Chmod(path, f.mode))
		require.NoError(t, fs.Chtimes(path, mtime, mtime))
	}
	require.NoError(t, fs.Chmod("/var/lib/kubelet/pki", 0o700))

	// A stale partial copy from an interrupted run.
	require.NoError(t, fs.MkdirAll("/mnt/k8s-disks/0/kubelet/pki", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/mnt/k8s-disks/0/kubelet/pki/kubelet.key", []byte("sec"), 0o600))

	require.NoError(t, rpos.CopyTree(fs, "/var/lib/kubelet", "/mnt/k8s-disks/0/kubelet"))

	err := afero.Walk(fs, "/var/lib/kubelet", func(path string, info os.FileInfo, err error) error {
		require.NoError(t, err)
		rel, err := filepath.Rel("/var/lib/kubelet", path)
		require.NoError(t, err)
		copied, err := fs.Stat(filepath.Join("/mnt/k8s-disks/0/kubelet", rel))
		require.NoError(t, err)
		require.Equal(t, info.Mode(), copied.Mode(), path)
		if info.IsDir() {
			return nil
		}
		require.True(t, info.ModTime().Equal(copied.ModTime()), path)
		want, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		got, err := afero.ReadFile(fs, filepath.Join("/mnt/k8s-disks/0/kubelet", rel))
		require.NoError(t, err)
		require.Equal(t, want, got, path)
		return nil
	})
	require.NoError(t, err)

	// The source is left in place.
	exists, err := afero.Exists(fs, "/var/lib/kubelet/pki/kubelet.key")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestCopyTreeRejectsFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/file", []byte("a"), 0o644))
	require.Error(t, rpos.CopyTree(fs, "/file", "/dst"))
	require.Error(t, rpos.CopyTree(fs, "/missing", "/dst"))
}
