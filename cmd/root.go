// Package cmd provides the command line interface for the application.
package cmd

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"fmt"
	"log/slog"
	"log/syslog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"freqcheck/cmd/constants"
	"freqcheck/cmd/run"
	"freqcheck/internal/common"
	"freqcheck/internal/util"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var gLogFile *os.File
var gVersion = "9.9.9" // overwritten with -ldflags at build time

const (
	// LongAppName is the name of the application
	LongAppName = "FreqCheck"
)

var examples = []string{
	fmt.Sprintf("  Show the constants derived from the default configuration:  $ %s constants", common.AppName),
	fmt.Sprintf("  Show the constants for a 32 MHz CPU with a /256 prescaler:  $ %s constants --cpu-frequency 32000000 --prescaler 256", common.AppName),
	fmt.Sprintf("  Run 60 windows of the self-test against the simulator:      $ %s run --windows 60", common.AppName),
	fmt.Sprintf("  Inject a 30%% fast CPU clock from window 10 on:              $ %s run --actual-frequency \"window >= 10 ? expected * 1.3 : expected\"", common.AppName),
}

var rootCmd = &cobra.Command{
	Use:                common.AppName,
	Short:              common.AppName,
	Long:               fmt.Sprintf(`%s (%s) runs the IEC 60730 Class B CPU clock frequency self-test: a CPU clocked counter is checked against an independent reference clock.`, LongAppName, common.AppName),
	Example:            strings.Join(examples, "\n"),
	PersistentPreRunE:  initializeApplication,
	PersistentPostRunE: terminateApplication,
	Version:            gVersion,
}

var (
	flagDebug     bool
	flagSyslog    bool
	flagLogStdOut bool
	flagOutputDir string
)

const (
	flagDebugName     = "debug"
	flagSyslogName    = "syslog"
	flagLogStdOutName = "log-stdout"
	flagOutputDirName = "output"
)

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{}) // block the help command
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.AddGroup([]*cobra.Group{{ID: "primary", Title: "Commands:"}}...)
	rootCmd.AddCommand(constants.Cmd)
	rootCmd.AddCommand(run.Cmd)
	rootCmd.PersistentFlags().BoolVar(&flagDebug, flagDebugName, false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagSyslog, flagSyslogName, false, "write logs to syslog instead of a file")
	rootCmd.PersistentFlags().BoolVar(&flagLogStdOut, flagLogStdOutName, false, "write logs to stdout")
	rootCmd.PersistentFlags().StringVar(&flagOutputDir, flagOutputDirName, "", "write reports to this existing directory instead of a new timestamped one")
	rootCmd.MarkFlagsMutuallyExclusive(flagSyslogName, flagLogStdOutName)
}

// Execute runs the command named on the command line and returns the process
// exit code. A self-test fault is a failed run, so it exits 1 like any error.
func Execute() int {
	cobra.EnableCommandSorting = false
	cobra.EnableCaseInsensitive = true
	if err := rootCmd.Execute(); err != nil {
		if closeErr := closeLogFile(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", closeErr)
		}
		return 1
	}
	return 0
}

func initializeApplication(cmd *cobra.Command, args []string) error {
	timestamp := time.Now().Local().Format("2006-01-02_15-04-05")
	outputDir, err := outputDirectory(flagOutputDir, timestamp)
	if err != nil {
		return err
	}
	handler, err := logHandler()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("Starting up", slog.String("app", common.AppName), slog.String("version", gVersion), slog.Int("PID", os.Getpid()), slog.String("arguments", strings.Join(os.Args, " ")))
	appContext := common.AppContext{
		Timestamp: timestamp,
		OutputDir: outputDir,
		Version:   gVersion,
		Debug:     flagDebug,
	}
	if gLogFile != nil {
		appContext.LogFilePath = gLogFile.Name()
	}
	cmd.Parent().SetContext(context.WithValue(context.Background(), common.AppContext{}, appContext))
	return nil
}

// outputDirectory returns the absolute report directory. A requested directory
// must already exist. Otherwise the directory is named after the application
// and the start time; the run command creates it on first write.
func outputDirectory(requested, timestamp string) (string, error) {
	if requested == "" {
		dir, err := util.AbsPath(common.AppName + "_" + timestamp)
		return dir, errors.Wrap(err, "output directory")
	}
	dir, err := util.AbsPath(requested)
	if err != nil {
		return "", errors.Wrap(err, "output directory")
	}
	ok, err := util.DirectoryExists(dir)
	if err != nil {
		return "", errors.Wrap(err, "output directory")
	}
	if !ok {
		return "", errors.Errorf("output directory %s does not exist", dir)
	}
	return dir, nil
}

// logHandler builds the handler selected by the logging flags. The default
// appends text records to <app>.log in the working directory.
func logHandler() (slog.Handler, error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if flagDebug {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}
	switch {
	case flagSyslog:
		return NewSyslogHandler(opts)
	case flagLogStdOut:
		return slog.NewJSONHandler(os.Stdout, opts), nil
	}
	var err error
	gLogFile, err = os.OpenFile(common.AppName+".log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644) // #nosec G302
	if err != nil {
		return nil, errors.Wrap(err, "open log file")
	}
	return slog.NewTextHandler(gLogFile, opts), nil
}

func terminateApplication(cmd *cobra.Command, args []string) error {
	slog.Info("Shutting down", slog.String("app", common.AppName), slog.String("version", gVersion), slog.Int("PID", os.Getpid()))
	return closeLogFile()
}

func closeLogFile() error {
	if gLogFile == nil {
		return nil
	}
	err := gLogFile.Close()
	gLogFile = nil
	return errors.Wrap(err, "close log file")
}

// SyslogHandler writes each record as one logfmt style line to the local
// syslog daemon, at the syslog priority matching the record level.
type SyslogHandler struct {
	writer *syslog.Writer
	level  slog.Leveler
	attrs  []slog.Attr
}

func NewSyslogHandler(opts *slog.HandlerOptions) (*SyslogHandler, error) {
	writer, err := syslog.New(syslog.LOG_INFO|syslog.LOG_USER, filepath.Base(os.Args[0]))
	if err != nil {
		return nil, errors.Wrap(err, "connect to syslog")
	}
	return &SyslogHandler{writer: writer, level: opts.Level}, nil
}

func (h *SyslogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *SyslogHandler) Handle(ctx context.Context, r slog.Record) error {
	line := formatSyslogLine(r, h.attrs)
	switch {
	case r.Level >= slog.LevelError:
		return h.writer.Err(line)
	case r.Level >= slog.LevelWarn:
		return h.writer.Warning(line)
	case r.Level >= slog.LevelInfo:
		return h.writer.Info(line)
	default:
		return h.writer.Debug(line)
	}
}

func (h *SyslogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

// groups are flattened
func (h *SyslogHandler) WithGroup(name string) slog.Handler {
	return h
}

func formatSyslogLine(r slog.Record, attrs []slog.Attr) string {
	var b strings.Builder
	fmt.Fprintf(&b, "level=%s msg=%q", r.Level, r.Message)
	write := func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%q", a.Key, a.Value.String())
		return true
	}
	for _, a := range attrs {
		write(a)
	}
	r.Attrs(write)
	return b.String()
}
