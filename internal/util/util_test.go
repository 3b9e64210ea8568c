package util

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandUser(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	tests := []struct {
		path     string
		expected string
	}{
		{"~", home},
		{"~" + string(os.PathSeparator) + "freqcheck.yaml", filepath.Join(home, "freqcheck.yaml")},
		{"/etc/freqcheck.yaml", "/etc/freqcheck.yaml"},
		{"relative/~/path", "relative/~/path"},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, ExpandUser(test.path), "path %s", test.path)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("prescaler: 64\n"), 0600))

	exists, err := FileExists(file)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = FileExists(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = FileExists(dir)
	assert.Error(t, err, "a directory is not a file")
}

func TestDirectoryExists(t *testing.T) {
	dir := t.TempDir()
	exists, err := DirectoryExists(dir)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = DirectoryExists(filepath.Join(dir, "nope"))
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = FileExists(filepath.Join(dir, "nope", "deeper"))
	assert.NoError(t, err, "a missing parent is not an error")
}

func TestCreateDirectoryIfNotExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, CreateDirectoryIfNotExists(dir, 0755))
	exists, err := DirectoryExists(dir)
	require.NoError(t, err)
	assert.True(t, exists)
	// second call is a no-op
	require.NoError(t, CreateDirectoryIfNotExists(dir, 0755))

	file := filepath.Join(dir, "report.txt")
	require.NoError(t, os.WriteFile(file, nil, 0600))
	assert.ErrorContains(t, CreateDirectoryIfNotExists(file, 0755), "not a directory")
}
