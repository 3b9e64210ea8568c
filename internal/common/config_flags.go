package common

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"freqcheck/internal/config"
	"freqcheck/internal/ticksource"
)

// configuration flags
var (
	flagConfigFile         string
	flagCPUFrequency       uint64
	flagTickSource         string
	flagPrescaler          uint32
	flagReferencePeriod    uint32
	flagReferenceFrequency uint32
	flagTolerance          uint32
)

// configuration flag names
const (
	flagConfigFileName         = "config"
	flagCPUFrequencyName       = "cpu-frequency"
	flagTickSourceName         = "tick-source"
	flagPrescalerName          = "prescaler"
	flagReferencePeriodName    = "reference-period"
	flagReferenceFrequencyName = "reference-frequency"
	flagToleranceName          = "tolerance"
)

func configFlags() []Flag {
	prescalers := make([]string, 0, len(config.Prescalers()))
	for _, p := range config.Prescalers() {
		prescalers = append(prescalers, fmt.Sprintf("%d", p))
	}
	return []Flag{
		{Name: flagConfigFileName, Help: "YAML file with the test configuration, flags override its values"},
		{Name: flagCPUFrequencyName, Help: "expected CPU frequency in Hz"},
		{Name: flagTickSourceName, Help: fmt.Sprintf("tick source instance (%s)", strings.Join(ticksource.Names(), ", "))},
		{Name: flagPrescalerName, Help: fmt.Sprintf("tick source prescaler (%s)", strings.Join(prescalers, ", "))},
		{Name: flagReferencePeriodName, Help: "reference clock ticks per evaluation"},
		{Name: flagReferenceFrequencyName, Help: "reference clock frequency in Hz"},
		{Name: flagToleranceName, Help: "allowed deviation in percent"},
	}
}

// AddConfigFlags adds the test configuration flags to cmd. Defaults are those of
// config.Default().
func AddConfigFlags(cmd *cobra.Command) {
	defaults := config.Default()
	flags := configFlags()
	cmd.Flags().StringVar(&flagConfigFile, flagConfigFileName, "", flags[0].Help)
	cmd.Flags().Uint64Var(&flagCPUFrequency, flagCPUFrequencyName, defaults.CPUFrequency, flags[1].Help)
	cmd.Flags().StringVar(&flagTickSource, flagTickSourceName, defaults.TickSource, flags[2].Help)
	cmd.Flags().Uint32Var(&flagPrescaler, flagPrescalerName, defaults.Prescaler, flags[3].Help)
	cmd.Flags().Uint32Var(&flagReferencePeriod, flagReferencePeriodName, defaults.ReferencePeriod, flags[4].Help)
	cmd.Flags().Uint32Var(&flagReferenceFrequency, flagReferenceFrequencyName, defaults.ReferenceFrequency, flags[5].Help)
	cmd.Flags().Uint32Var(&flagTolerance, flagToleranceName, defaults.TolerancePercent, flags[6].Help)
}

func GetConfigFlagGroup() FlagGroup {
	return FlagGroup{
		GroupName: "Test Configuration Options",
		Flags:     configFlags(),
	}
}

// ValidateConfigFlags checks the configuration file exists.
// The values themselves are checked when the configuration is resolved.
func ValidateConfigFlags(cmd *cobra.Command) error {
	if flagConfigFile != "" {
		if _, err := os.Stat(flagConfigFile); os.IsNotExist(err) {
			return fmt.Errorf("configuration file %s does not exist", flagConfigFile)
		}
	}
	return nil
}

// GetConfiguration builds the test configuration: defaults, then the
// configuration file, then the flags the user set explicitly.
func GetConfiguration(cmd *cobra.Command) (config.Configuration, error) {
	cfg := config.Default()
	if flagConfigFile != "" {
		var err error
		if cfg, err = config.Load(flagConfigFile); err != nil {
			return cfg, err
		}
		slog.Info("loaded configuration file", slog.String("path", flagConfigFile))
	}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		switch f.Name {
		case flagCPUFrequencyName:
			cfg.CPUFrequency = flagCPUFrequency
		case flagTickSourceName:
			cfg.TickSource = flagTickSource
		case flagPrescalerName:
			cfg.Prescaler = flagPrescaler
		case flagReferencePeriodName:
			cfg.ReferencePeriod = flagReferencePeriod
		case flagReferenceFrequencyName:
			cfg.ReferenceFrequency = flagReferenceFrequency
		case flagToleranceName:
			cfg.TolerancePercent = flagTolerance
		default:
			return
		}
		slog.Debug("configuration overridden by flag", slog.String("flag", f.Name), slog.String("value", f.Value.String()))
	})
	return cfg, nil
}

// PrintUsage prints the grouped flags of cmd followed by the global flags.
func PrintUsage(cmd *cobra.Command, groups []FlagGroup) error {
	cmd.Printf("Usage: %s [flags]\n\n", cmd.CommandPath())
	if cmd.Example != "" {
		cmd.Printf("Examples:\n%s\n\n", cmd.Example)
	}
	cmd.Println("Flags:")
	for _, group := range groups {
		cmd.Printf("  %s:\n", group.GroupName)
		for _, flag := range group.Flags {
			flagDefault := ""
			if pf := cmd.Flags().Lookup(flag.Name); pf != nil && pf.DefValue != "" {
				flagDefault = fmt.Sprintf(" (default: %s)", pf.DefValue)
			}
			cmd.Printf("    --%-22s %s%s\n", flag.Name, flag.Help, flagDefault)
		}
	}
	cmd.Println("\nGlobal Flags:")
	cmd.Root().PersistentFlags().VisitAll(func(pf *pflag.Flag) {
		flagDefault := ""
		if pf.DefValue != "" {
			flagDefault = fmt.Sprintf(" (default: %s)", pf.DefValue)
		}
		cmd.Printf("  --%-24s %s%s\n", pf.Name, pf.Usage, flagDefault)
	})
	return nil
}
