package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/assetpipe/internal/fsutil"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [pattern...]",
	Short: "Delete files matching glob patterns",
	Long: `Delete every path matched by the given glob patterns, resolved against the
project root. Patterns starting with "!" exclude paths, and an excluded path
keeps its parent directories as well. Without arguments the configured
distribute.clear patterns are used.

Examples:
  assetpipe clean
  assetpipe clean 'dist/**/*' '!dist'
  assetpipe clean --dry-run 'src/assets/css/main.css'`,
	RunE: runClean,
}

var cleanDryRun bool

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().BoolVarP(&cleanDryRun, "dry-run", "n", false, "list matching paths without deleting them")
}

func runClean(cmd *cobra.Command, args []string) error {
	env, err := newEnvironment(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer env.Close()

	patterns := args
	if len(patterns) == 0 {
		patterns = env.cfg.Distribute.Clear
	}
	patterns = env.cfg.Patterns(patterns)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cleanDryRun {
		matches, err := fsutil.Expand(env.fs, patterns)
		if err != nil {
			return err
		}
		for _, m := range matches {
			fmt.Fprintln(cmd.OutOrStdout(), m)
		}
		return nil
	}

	result, err := fsutil.NewCleaner(env.fs, env.logger).Remove(ctx, patterns)
	if result != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d path(s)\n", len(result.Removed))
	}
	return err
}
