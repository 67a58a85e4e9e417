package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/flatindex/internal/pipeline"
	"github.com/ajitpratap0/flatindex/pkg/config"
	"github.com/ajitpratap0/flatindex/pkg/errors"
	"github.com/ajitpratap0/flatindex/pkg/logger"
	"github.com/ajitpratap0/flatindex/pkg/metrics"
	"github.com/ajitpratap0/flatindex/pkg/profile"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the command line and returns the process exit status.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "flatindex: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "flatindex",
		Short: "flatindex - byte-offset indexer for delimited data files",
		Long: `flatindex converts a delimited data file into a flat index describing
selected fields of every record together with the record's byte offset and
length in the file. The profile deciding which columns are indexed is picked
from a configuration file by matching the input's base name.`,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "flatindex v%s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(newRunCmd(), newMatchCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var inputPath, outputPath, configPath string

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Index a data file",
		Long: `Index a data file with the first profile of the configuration whose
match pattern matches the input's base name.

Example:
  flatindex run --input orders_42.csv --output orders_42.idx --config profiles.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runIndex(cmd, inputPath, outputPath, configPath)
		},
	}

	// Required flags
	runCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Path to the delimited input file (required)")
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Path to the index file to write (required)")
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the profile configuration, YAML or JSON (required)")
	_ = runCmd.MarkFlagRequired("input")
	_ = runCmd.MarkFlagRequired("output")
	_ = runCmd.MarkFlagRequired("config")

	// Optional settings, also read from FLATINDEX_* environment variables
	def := config.DefaultSettings()
	runCmd.Flags().String("log-level", def.LogLevel, "Log level (debug, info, warn, error)")
	runCmd.Flags().String("log-format", def.LogFormat, "Log encoding (json, console)")
	runCmd.Flags().Int("max-line-size", def.MaxLineSize, "Longest accepted input line in bytes")

	return runCmd
}

func runIndex(cmd *cobra.Command, inputPath, outputPath, configPath string) error {
	settings, err := config.LoadSettings(cmd.Flags())
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid settings")
	}

	if err := logger.Init(logger.Config{Level: settings.LogLevel, Encoding: settings.LogFormat}); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialize logger")
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	ctx = context.WithValue(ctx, logger.RunIDKey, uuid.NewString())
	ctx = context.WithValue(ctx, logger.InputKey, inputPath)
	log := logger.FromContext(ctx, logger.With(zap.String("component", "flatindex-cli")))

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return err
	}
	log.Debug("configuration loaded",
		zap.String("config", configPath),
		zap.Int("profiles", len(cfg.Profiles)))

	collector := metrics.NewCollector(filepath.Base(inputPath))
	summary, err := pipeline.RunFiles(ctx, cfg, inputPath, outputPath, pipeline.Options{
		MaxLineSize: settings.MaxLineSize,
		Logger:      log,
		Metrics:     collector,
	})

	fields := summary.Fields()
	if snap, serr := collector.Snapshot(); serr == nil {
		fields = append(fields, zap.Float64("records_per_second", snap.Throughput))
	}
	if err != nil {
		log.Error("indexing failed", append(fields, zap.Error(err))...)
		return err
	}
	log.Info("indexing completed", fields...)
	return nil
}

func newMatchCmd() *cobra.Command {
	var configPath string

	matchCmd := &cobra.Command{
		Use:   "match NAME...",
		Short: "Show which profile each file name selects",
		Long: `Show which profile each file name selects. Only the base name of every
argument is matched, exactly as the run command does.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := config.LoadFile(configPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, name := range args {
				p, err := profile.SelectForPath(cfg, name)
				switch {
				case errors.IsType(err, errors.ErrorTypeNoProfile):
					fmt.Fprintf(out, "%s\tno matching profile\n", name)
				case err != nil:
					return err
				default:
					fmt.Fprintf(out, "%s\t%d\t%s\n", name, p.Index, p.Pattern)
				}
			}
			return nil
		},
	}

	matchCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the profile configuration, YAML or JSON (required)")
	_ = matchCmd.MarkFlagRequired("config")

	return matchCmd
}
