package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/conneroisu/assetpipe/internal/fsutil"
	"github.com/conneroisu/assetpipe/internal/metrics"
	"github.com/conneroisu/assetpipe/internal/params"
	"github.com/conneroisu/assetpipe/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch [releaseDB=<name>]",
	Aliases: []string{"w"},
	Short:   "Recompile stylesheets when SCSS sources change",
	Long: `Watch the configured folders and rebuild main.css whenever an SCSS file
changes. Changes that arrive while a rebuild is running are dropped; after
each rebuild the watcher stays busy for the debounce interval.

Examples:
  assetpipe watch releaseDB=dev
  assetpipe watch releaseDB=dev --debounce 1s`,
	RunE: runWatch,
}

var watchMetricsFile string

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Duration("debounce", 0, "time the watcher stays busy after a rebuild")
	watchCmd.Flags().StringVar(&watchMetricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file on exit")
}

func runWatch(cmd *cobra.Command, args []string) error {
	buildParams, err := params.Parse(args)
	if err != nil {
		return err
	}

	env, err := newEnvironment(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer env.Close()

	transformer, sass, err := env.transformer(buildParams.ReleaseDB)
	if err != nil {
		return err
	}
	defer sass.Close()

	if !sass.Available() {
		env.logger.Warn(cmd.Context(), nil, "sass binary not found, stylesheet rebuilds will fail",
			"binary", env.cfg.Transform.SassBinary)
	}

	opts := watcher.Options{
		Clear:    env.cfg.Patterns(env.cfg.Watch.Clear),
		Entry:    env.cfg.Path(env.cfg.Watch.Entry),
		Output:   env.cfg.Path(env.cfg.Watch.Output),
		Debounce: env.cfg.Watch.Debounce,
	}
	if d, _ := cmd.Flags().GetDuration("debounce"); d > 0 {
		opts.Debounce = d
	}

	recorder := metrics.NewPrometheusRecorder(prometheus.NewRegistry())
	orchestrator := watcher.NewOrchestrator(opts, fsutil.NewCleaner(env.fs, env.logger), transformer, recorder, env.logger)

	fileWatcher, err := watcher.NewFileWatcher(env.logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fileWatcher.Stop()
	fileWatcher.AddFilter(watcher.NoEditorTempFilter)

	folders := make([]string, 0, len(env.cfg.Watch.Folders))
	for _, folder := range env.cfg.Watch.Folders {
		folders = append(folders, env.cfg.Path(folder))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env.logger.Info(ctx, "Starting watcher", "folders", folders, "debounce", opts.Debounce.String())
	runErr := orchestrator.Run(ctx, fileWatcher, folders)

	if watchMetricsFile != "" {
		if err := recorder.WriteTextfile(env.cfg.Path(watchMetricsFile)); err != nil {
			env.logger.Error(ctx, err, "Failed to write metrics file", "path", watchMetricsFile)
		}
	}
	return runErr
}
