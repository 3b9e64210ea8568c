package common

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freqcheck/internal/config"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	AddConfigFlags(cmd)
	return cmd
}

func TestGetConfigurationDefaults(t *testing.T) {
	cfg, err := GetConfiguration(newConfigCommand())
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestGetConfigurationFlags(t *testing.T) {
	cmd := newConfigCommand()
	require.NoError(t, cmd.Flags().Set(flagPrescalerName, "256"))
	require.NoError(t, cmd.Flags().Set(flagCPUFrequencyName, "32000000"))
	cfg, err := GetConfiguration(cmd)
	require.NoError(t, err)
	want := config.Default()
	want.Prescaler = 256
	want.CPUFrequency = 32000000
	assert.Equal(t, want, cfg)
}

func TestGetConfigurationFileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "freqcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prescaler: 8\ntolerance_percent: 5\nreference_frequency: 32768\n"), 0600))
	cmd := newConfigCommand()
	require.NoError(t, cmd.Flags().Set(flagConfigFileName, path))
	require.NoError(t, cmd.Flags().Set(flagToleranceName, "10"))
	require.NoError(t, ValidateConfigFlags(cmd))
	cfg, err := GetConfiguration(cmd)
	require.NoError(t, err)
	want := config.Default()
	want.Prescaler = 8
	want.ReferenceFrequency = 32768
	want.TolerancePercent = 10
	assert.Equal(t, want, cfg)
}

func TestValidateConfigFlagsMissingFile(t *testing.T) {
	cmd := newConfigCommand()
	require.NoError(t, cmd.Flags().Set(flagConfigFileName, filepath.Join(t.TempDir(), "missing.yaml")))
	assert.ErrorContains(t, ValidateConfigFlags(cmd), "does not exist")
}

func TestPrintUsage(t *testing.T) {
	cmd := newConfigCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, PrintUsage(cmd, []FlagGroup{GetConfigFlagGroup()}))
	usage := out.String()
	assert.Contains(t, usage, "Test Configuration Options:")
	assert.Contains(t, usage, "--prescaler")
	assert.Contains(t, usage, "1, 2, 4, 8, 64, 256, 1024")
	assert.Contains(t, usage, "(default: 2000000)")
}
