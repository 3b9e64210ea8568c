// Package constants is a subcommand of the root command. It resolves the test
// configuration and prints the derived constants.
package constants

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"freqcheck/internal/common"
	"freqcheck/internal/config"
	"freqcheck/internal/report"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

const cmdName = "constants"

var examples = []string{
	fmt.Sprintf("  Constants of the default configuration:   $ %s %s", common.AppName, cmdName),
	fmt.Sprintf("  Constants from a configuration file:      $ %s %s --config freqcheck.yaml", common.AppName, cmdName),
	fmt.Sprintf("  Constants as JSON for a 1/8 s reference:  $ %s %s --reference-period 128 --format json", common.AppName, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName,
	Short:         "Resolve the test configuration and print the derived constants",
	Long:          "",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
}

var formatOptions = []string{report.FormatText, report.FormatJson, report.FormatYaml}

func init() {
	Cmd.Flags().StringVar(&common.FlagFormat, common.FlagFormatName, report.FormatText, "")
	common.AddConfigFlags(Cmd)
	Cmd.SetUsageFunc(usageFunc)
}

func usageFunc(cmd *cobra.Command) error {
	return common.PrintUsage(cmd, getFlagGroups())
}

func getFlagGroups() []common.FlagGroup {
	return []common.FlagGroup{
		common.GetConfigFlagGroup(),
		{
			GroupName: "Output Options",
			Flags: []common.Flag{
				{Name: common.FlagFormatName, Help: fmt.Sprintf("choose output format from: %s", strings.Join(formatOptions, ", "))},
			},
		},
	}
}

func validateFlags(cmd *cobra.Command, args []string) error {
	if !slices.Contains(formatOptions, common.FlagFormat) {
		err := fmt.Errorf("format options are: %s", strings.Join(formatOptions, ", "))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	if err := common.ValidateConfigFlags(cmd); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

type resolved struct {
	Configuration config.Configuration `json:"configuration" yaml:"configuration"`
	Constants     config.Constants     `json:"constants" yaml:"constants"`
}

func runCmd(cmd *cobra.Command, args []string) error {
	cfg, err := common.GetConfiguration(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	constants, err := config.Resolve(cfg)
	if err != nil {
		slog.Error("configuration rejected", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	out, err := render(resolved{Configuration: cfg, Constants: constants}, common.FlagFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	fmt.Print(out)
	return nil
}

func render(r resolved, format string) (string, error) {
	switch format {
	case report.FormatJson:
		out, err := json.MarshalIndent(r, "", " ")
		return string(out) + "\n", err
	case report.FormatYaml:
		out, err := yaml.Marshal(r)
		return string(out), err
	default:
		return report.ConstantsText(r.Constants), nil
	}
}
