// Package cmd provides the command-line interface for assetpipe with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	Settings are resolved with the following precedence:
//	1. Command-line flags (--config, --log-level, ...) - highest priority
//	2. ASSETPIPE_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (ASSETPIPE_DISTRIBUTE_OUTPUT, ...)
//	4. Configuration file (.assetpipe.yml) - lowest priority
//
// A .env file in the working directory is loaded first, so RELEASE_DB and
// ASSETPIPE_* values can live there.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "assetpipe",
	Short: "Build pipeline for web front-end assets",
	Long: `assetpipe prepares the static assets of a web project for distribution.

It clears the distribution folder, then copies every configured source into
it: JavaScript is minified with the release database substituted for the
placeholder token, shell scripts lose their comments, stylesheets are
compiled, prefixed and minified. During development it watches the SCSS
folder and recompiles main.css on change.

Quick Start:
  assetpipe distribute releaseDB=prod   Build the distribution folder
  assetpipe watch releaseDB=dev         Recompile stylesheets on change
  assetpipe clean 'dist/**/*'           Delete paths matching globs`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.SetGlobalNormalizationFunc(normalizeFlagName)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .assetpipe.yml, can also use ASSETPIPE_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "console log format (text, json)")
	rootCmd.PersistentFlags().String("project-root", "", "project root (default is the working directory)")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("project_root", rootCmd.PersistentFlags().Lookup("project-root"))
}

// initConfig initializes the configuration system.
//
// Configuration file lookup (highest to lowest):
//  1. --config flag
//  2. ASSETPIPE_CONFIG_FILE environment variable
//  3. .assetpipe.yml in the current directory
//
// Every key can be overridden with an ASSETPIPE_ prefixed variable where
// dots become underscores, e.g. ASSETPIPE_WATCH_DEBOUNCE=1s.
func initConfig() {
	// A missing .env file is normal.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("ASSETPIPE_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".assetpipe")
	}

	viper.SetEnvPrefix("ASSETPIPE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Defaults cover a missing or unreadable file.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// normalizeFlagName accepts snake_case spellings of flags, matching the keys
// used in the config file: --metrics_file is --metrics-file.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}
