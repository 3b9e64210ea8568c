// Package run is a subcommand of the root command. It runs the CPU frequency
// self-test against the simulated tick source.
package run

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"freqcheck/internal/common"
	"freqcheck/internal/freqtest"
	"freqcheck/internal/metrics"
	"freqcheck/internal/refclock"
	"freqcheck/internal/report"
	"freqcheck/internal/sim"
	"freqcheck/internal/util"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const cmdName = "run"

var examples = []string{
	fmt.Sprintf("  Run 10 windows at the expected frequency:     $ %s %s", common.AppName, cmdName),
	fmt.Sprintf("  Run with a CPU clock 30%% too fast:            $ %s %s --actual-frequency \"expected * 1.3\"", common.AppName, cmdName),
	fmt.Sprintf("  Keep running after faults, write xlsx report: $ %s %s --windows 100 --on-fault rearm --format xlsx", common.AppName, cmdName),
	fmt.Sprintf("  Run in real time and serve metrics:           $ %s %s --realtime --windows 0 --metrics-addr :9100", common.AppName, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName,
	Short:         "Run the frequency self-test against the simulated tick source",
	Long:          "",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
}

var (
	flagWindows     int
	flagActual      string
	flagOnFault     string
	flagRealtime    bool
	flagMetricsAddr string
	flagNoStatus    bool
)

const (
	flagWindowsName     = "windows"
	flagActualName      = "actual-frequency"
	flagOnFaultName     = "on-fault"
	flagRealtimeName    = "realtime"
	flagMetricsAddrName = "metrics-addr"
	flagNoStatusName    = "no-status"
)

// fault policies
const (
	onFaultHalt  = "halt"
	onFaultRearm = "rearm"
)

var onFaultOptions = []string{onFaultHalt, onFaultRearm}

func init() {
	Cmd.Flags().IntVar(&flagWindows, flagWindowsName, 10, "")
	Cmd.Flags().StringVar(&flagActual, flagActualName, sim.VarExpected, "")
	Cmd.Flags().StringVar(&flagOnFault, flagOnFaultName, onFaultHalt, "")
	Cmd.Flags().BoolVar(&flagRealtime, flagRealtimeName, false, "")
	Cmd.Flags().StringVar(&flagMetricsAddr, flagMetricsAddrName, "", "")
	Cmd.Flags().BoolVar(&flagNoStatus, flagNoStatusName, false, "")
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
			GroupName: "Simulation Options",
			Flags: []common.Flag{
				{Name: flagWindowsName, Help: "number of reference intervals to evaluate, 0 runs until interrupted (requires --realtime)"},
				{Name: flagActualName, Help: fmt.Sprintf("actual CPU frequency in Hz, an expression of %q and %q", sim.VarWindow, sim.VarExpected)},
				{Name: flagOnFaultName, Help: fmt.Sprintf("fault policy (%s)", strings.Join(onFaultOptions, ", "))},
				{Name: flagRealtimeName, Help: "pace reference ticks with the host clock instead of virtual time"},
			},
		},
		{
			GroupName: "Output Options",
			Flags: []common.Flag{
				{Name: common.FlagFormatName, Help: fmt.Sprintf("choose report format from: %s", strings.Join(report.FormatOptions, ", "))},
				{Name: flagMetricsAddrName, Help: "serve Prometheus metrics at this address, e.g. :9100"},
				{Name: flagNoStatusName, Help: "do not draw the status line"},
			},
		},
	}
}

func validateFlags(cmd *cobra.Command, args []string) error {
	var err error
	switch {
	case !slices.Contains(report.FormatOptions, common.FlagFormat):
		err = fmt.Errorf("format options are: %s", strings.Join(report.FormatOptions, ", "))
	case !slices.Contains(onFaultOptions, flagOnFault):
		err = fmt.Errorf("on-fault options are: %s", strings.Join(onFaultOptions, ", "))
	case flagWindows < 0:
		err = fmt.Errorf("windows must be 0 or greater")
	case flagWindows == 0 && !flagRealtime:
		err = fmt.Errorf("windows must be greater than 0 unless --%s is set", flagRealtimeName)
	default:
		err = common.ValidateConfigFlags(cmd)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func runCmd(cmd *cobra.Command, args []string) error {
	appContext := cmd.Parent().Context().Value(common.AppContext{}).(common.AppContext)
	err := runTest(appContext, cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func runTest(appContext common.AppContext, cmd *cobra.Command) error {
	cfg, err := common.GetConfiguration(cmd)
	if err != nil {
		return err
	}
	scenario, err := sim.NewScenario(flagActual, cfg.CPUFrequency)
	if err != nil {
		return err
	}
	reporter := freqtest.FaultReporterFunc(func(id freqtest.FaultID) {
		slog.Warn("fault reported", slog.String("fault", id.String()), slog.String("policy", flagOnFault))
	})
	test, err := freqtest.Open(cfg, reporter)
	if err != nil {
		slog.Error("configuration rejected", slog.String("error", err.Error()))
		return err
	}
	driver, err := sim.NewDriver(cfg, test.Source(), scenario)
	if err != nil {
		return err
	}
	if flagRealtime {
		ticker, err := refclock.NewTicker(cfg.ReferencePeriod, cfg.ReferenceFrequency)
		if err != nil {
			return err
		}
		driver.Pace(ticker)
	}
	rpt := report.New(cfg, test.Constants(), scenario.String())
	test.Observe(rpt.Add)
	if flagMetricsAddr != "" {
		collector := metrics.NewCollector(test.Constants().ReferenceCount)
		test.Observe(collector.Observe)
		server := collector.Serve(flagMetricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Error("failed to shut down metrics server", slog.String("error", err.Error()))
			}
		}()
	}
	status := newStatusLine(!flagNoStatus && term.IsTerminal(int(os.Stderr.Fd())))
	test.Observe(func(eval freqtest.Evaluation) {
		status.update(eval, driver.LastFrequency(), rpt.Summary)
	})

	if err := test.SetupTimer(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var haltErr error
	runErr := driver.Run(ctx, func() {
		_, err := test.OnReferenceTick()
		if err != nil {
			if !errors.Is(err, freqtest.ErrFrequencyDeviation) {
				slog.Error("reference tick failed", slog.String("error", err.Error()))
				haltErr = err
				cancel()
				return
			}
			if flagOnFault == onFaultHalt {
				haltErr = err
				cancel()
				return
			}
			if err := test.Rearm(); err != nil {
				haltErr = err
				cancel()
				return
			}
		}
		if flagWindows > 0 && driver.Window() >= uint64(flagWindows) {
			cancel()
		}
	})
	status.finish()
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return errors.Wrap(runErr, "simulation failed")
	}
	if haltErr == nil && driver.Window() < uint64(flagWindows) {
		slog.Info("run interrupted", slog.Uint64("windows", driver.Window()))
	}

	outputFile, err := writeReport(appContext, rpt, common.FlagFormat)
	if err != nil {
		return err
	}
	fmt.Printf("Windows: %d, passed: %d, faults: %d\n", rpt.Summary.Windows, rpt.Summary.Passed, rpt.Summary.Faults)
	fmt.Printf("Report file: %s\n", outputFile)
	if haltErr != nil {
		return haltErr
	}
	return nil
}

func writeReport(appContext common.AppContext, rpt *report.Report, format string) (string, error) {
	out, err := rpt.Create(format)
	if err != nil {
		return "", errors.Wrap(err, "failed to create report")
	}
	if err := util.CreateDirectoryIfNotExists(appContext.OutputDir, 0755); err != nil { // #nosec G301
		return "", err
	}
	path := filepath.Join(appContext.OutputDir, fmt.Sprintf("%s_%s.%s", common.AppName, cmdName, format))
	if err := os.WriteFile(path, out, 0644); err != nil { // #nosec G306
		return "", errors.Wrapf(err, "failed to write report %s", path)
	}
	slog.Info("report written", slog.String("path", path))
	return path, nil
}
