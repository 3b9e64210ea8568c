// Package util holds the path and file system helpers shared by the config
// loader and the commands that write reports.
package util

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const homePrefix = "~" + string(os.PathSeparator)

// ExpandUser replaces a leading "~" with the home directory. Paths that do not
// start with "~", or a home directory that cannot be found, leave path as is.
func ExpandUser(path string) string {
	if path != "~" && !strings.HasPrefix(path, homePrefix) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// AbsPath is filepath.Abs after ExpandUser.
func AbsPath(path string) (string, error) {
	return filepath.Abs(ExpandUser(path))
}

// exists stats path and reports whether it is present with the mode it asks
// for. A missing path is not an error; a path of the wrong kind is.
func exists(path string, is func(fs.FileMode) bool, kind string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, errors.Wrapf(err, "stat %s", path)
	case !is(info.Mode()):
		return false, errors.Errorf("%s is not a %s", path, kind)
	}
	return true, nil
}

// FileExists reports whether path names a regular file.
func FileExists(path string) (bool, error) {
	return exists(path, fs.FileMode.IsRegular, "file")
}

// DirectoryExists reports whether path names a directory.
func DirectoryExists(path string) (bool, error) {
	return exists(path, fs.FileMode.IsDir, "directory")
}

// CreateDirectoryIfNotExists makes dir and its parents with perm unless dir is
// already a directory.
func CreateDirectoryIfNotExists(dir string, perm os.FileMode) error {
	ok, err := DirectoryExists(dir)
	if err != nil || ok {
		return err
	}
	return errors.Wrapf(os.MkdirAll(dir, perm), "create directory %s", dir)
}
