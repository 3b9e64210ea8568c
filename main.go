// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"
	"os"
	"runtime/pprof"

	"freqcheck/cmd"
)

// profileEnv names the file that receives a CPU profile of the whole run.
const profileEnv = "FREQCHECK_CPU_PROFILE"

func main() {
	stop := startProfile(os.Getenv(profileEnv))
	code := cmd.Execute()
	stop()
	os.Exit(code)
}

func startProfile(path string) (stop func()) {
	if path == "" {
		return func() {}
	}
	f, err := os.Create(path) // #nosec G304
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", profileEnv, err)
		return func() {}
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", profileEnv, err)
		f.Close()
		return func() {}
	}
	return func() {
		pprof.StopCPUProfile()
		f.Close()
		fmt.Fprintf(os.Stderr, "CPU profile written to %s, inspect with: go tool pprof %s\n", path, path)
	}
}
