// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package constants

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"freqcheck/internal/config"
	"freqcheck/internal/report"
)

func defaultResolved(t *testing.T) resolved {
	t.Helper()
	cfg := config.Default()
	constants, err := config.Resolve(cfg)
	require.NoError(t, err)
	return resolved{Configuration: cfg, Constants: constants}
}

func TestRenderText(t *testing.T) {
	out, err := render(defaultResolved(t), report.FormatText)
	require.NoError(t, err)
	assert.Contains(t, out, "Reference Count:     31,250")
	assert.Contains(t, out, "Max Deviation:       7,812")
}

func TestRenderJson(t *testing.T) {
	out, err := render(defaultResolved(t), report.FormatJson)
	require.NoError(t, err)
	var decoded resolved
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, defaultResolved(t), decoded)
}

func TestRenderYaml(t *testing.T) {
	out, err := render(defaultResolved(t), report.FormatYaml)
	require.NoError(t, err)
	assert.Contains(t, out, "reference_count: 31250")
	var decoded resolved
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, defaultResolved(t), decoded)
}

func TestValidateFlags(t *testing.T) {
	require.NoError(t, Cmd.Flags().Set("format", "xlsx"))
	assert.Error(t, validateFlags(Cmd, nil))
	require.NoError(t, Cmd.Flags().Set("format", report.FormatYaml))
	assert.NoError(t, validateFlags(Cmd, nil))
}
