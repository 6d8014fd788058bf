package cmd

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/conneroisu/assetpipe/internal/fsutil"
	"github.com/conneroisu/assetpipe/internal/memsize"
	"github.com/conneroisu/assetpipe/internal/metrics"
	"github.com/conneroisu/assetpipe/internal/params"
	"github.com/conneroisu/assetpipe/internal/pipeline"
	"github.com/conneroisu/assetpipe/internal/report"
	"github.com/conneroisu/assetpipe/internal/transform"
)

var distributeCmd = &cobra.Command{
	Use:     "distribute [releaseDB=<name>] [key=value...]",
	Aliases: []string{"dist", "d"},
	Short:   "Build the distribution folder",
	Long: `Clear the distribution folder and copy every configured source into it.

JavaScript files are minified with the placeholder token replaced by the
releaseDB value, shell scripts are stripped of comments and blank lines, CSS
is minified and SCSS is compiled, prefixed and minified into CSS. A file that
fails is reported and the remaining files are still processed.

releaseDB falls back to the RELEASE_DB environment variable.

Examples:
  assetpipe distribute releaseDB=prod
  assetpipe distribute releaseDB=prod --no-minify
  assetpipe distribute releaseDB=prod --report build.yml --metrics-file build.prom`,
	RunE: runDistribute,
}

var (
	distReport        string
	distMetricsFile   string
	distAllowFailures bool
	distNoMinify      bool
	distNoClear       bool
	distVerbose       bool
)

func init() {
	rootCmd.AddCommand(distributeCmd)

	distributeCmd.Flags().StringVar(&distReport, "report", "", "write a YAML build report to this file")
	distributeCmd.Flags().StringVar(&distMetricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file")
	distributeCmd.Flags().BoolVar(&distAllowFailures, "allow-failures", false, "exit successfully even when files failed")
	distributeCmd.Flags().BoolVar(&distNoMinify, "no-minify", false, "copy sources without transforming them")
	distributeCmd.Flags().BoolVar(&distNoClear, "no-clear", false, "keep the existing distribution folder content")
	distributeCmd.Flags().BoolVarP(&distVerbose, "verbose", "v", false, "print every handled path")
}

func runDistribute(cmd *cobra.Command, args []string) error {
	// Missing parameters fail before any file is touched.
	buildParams, err := params.Parse(args)
	if err != nil {
		return err
	}

	env, err := newEnvironment(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recorder := metrics.NewPrometheusRecorder(prometheus.NewRegistry())
	var progress pipeline.FileCallback
	if distVerbose {
		out := cmd.OutOrStdout()
		progress = func(o transform.FileOutcome) {
			fmt.Fprintf(out, "  %-11s %-11s %s\n", o.Status, o.Kind, o.Source)
		}
	}

	result, err := distribute(ctx, env, buildParams, recorder, progress)
	if err != nil {
		return err
	}

	rep := report.FromResult(result)
	if size, err := memsize.Describe(rep, memsize.Options{Unit: memsize.Kilobytes, AsString: true, Precision: 2}); err == nil {
		env.logger.Debug(ctx, "Build report footprint", "size", size)
	}

	if distReport != "" {
		if err := rep.Write(env.fs, env.cfg.Path(distReport)); err != nil {
			env.logger.Error(ctx, err, "Failed to write build report", "path", distReport)
		}
	}
	if distMetricsFile != "" {
		if err := recorder.WriteTextfile(env.cfg.Path(distMetricsFile)); err != nil {
			env.logger.Error(ctx, err, "Failed to write metrics file", "path", distMetricsFile)
		}
	}

	printSummary(cmd.OutOrStdout(), rep)

	if result.Copy.Canceled != nil {
		return fmt.Errorf("distribute canceled: %w", result.Copy.Canceled)
	}
	if !result.OK() && !distAllowFailures {
		return fmt.Errorf("distribute finished with %d failed file(s): %w", rep.Summary.Failed, result.Copy.Err())
	}
	return nil
}

func distribute(ctx context.Context, env *environment, buildParams params.BuildParams, recorder metrics.Recorder, progress pipeline.FileCallback) (*pipeline.DistributeResult, error) {
	transformer, sass, err := env.transformer(buildParams.ReleaseDB)
	if err != nil {
		return nil, err
	}
	defer sass.Close()

	logger := env.logger.With("release_db", buildParams.ReleaseDB)
	cleaner := fsutil.NewCleaner(env.fs, logger)
	copier := pipeline.New(transformer, recorder, logger)
	if progress != nil {
		copier.AddCallback(progress)
	}
	distributor := pipeline.NewDistributor(env.fs, cleaner, copier, recorder, logger)

	opts := pipeline.DistributeOptions{
		Sources: env.cfg.Patterns(env.cfg.Distribute.Sources),
		Output:  env.cfg.OutputDir(),
		Minify:  env.cfg.Distribute.Minify && !distNoMinify,
	}
	if !distNoClear {
		opts.Clear = env.cfg.Patterns(env.cfg.Distribute.Clear)
	}

	return distributor.Run(ctx, opts), nil
}

func printSummary(w io.Writer, rep *report.Report) {
	fmt.Fprintf(w, "Distribution %s: %d written, %d directories, %d skipped, %d failed (%d bytes) in %s\n",
		rep.RunID, rep.Summary.Written, rep.Summary.CreatedDirs, rep.Summary.Skipped, rep.Summary.Failed,
		rep.Summary.Bytes, rep.Duration)
	for _, t := range slices.Sorted(maps.Keys(rep.Summary.FailuresByType)) {
		fmt.Fprintf(w, "  %s errors: %d\n", t, rep.Summary.FailuresByType[t])
	}
	for _, f := range rep.Files {
		if f.Error != "" {
			fmt.Fprintf(w, "  failed: %s: %s\n", f.Source, f.Error)
		}
	}
	if rep.ClearError != "" {
		fmt.Fprintf(w, "  clear: %s\n", rep.ClearError)
	}
	if rep.Canceled != "" {
		fmt.Fprintf(w, "  canceled: %s\n", rep.Canceled)
	}
}
