package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gregbanks/novaprova/internal/logging"
)

var (
	cfgFile     string
	binaryPath  string
	inspectSelf bool
	logger      *slog.Logger
)

// rootCmd is the base command; every dump/describe/tui subcommand hangs
// off it and shares the -f/--self flags that pick the target link object.
var rootCmd = &cobra.Command{
	Use:   "novaprova",
	Short: "DWARF introspection and diagnostics for novaprova-instrumented binaries",
	Long: `novaprova is diagnostic tooling over the introspection state: load a
target executable (or the running process itself) and inspect the
compile units, functions, structs, and variables its DWARF info
describes.

This CLI does not discover or run tests; it exposes the same
introspection state the test runner builds on, for ad-hoc inspection.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.New(logging.Options{Level: slog.LevelInfo})
	},
}

// Execute adds all child commands to rootCmd and runs it. Called once by
// main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.novaprova.yaml)")
	rootCmd.PersistentFlags().StringVarP(&binaryPath, "file", "f", "", "target executable to load (default: none, combine with --self)")
	rootCmd.PersistentFlags().BoolVar(&inspectSelf, "self", false, "also load the running process's own link object")

	cobra.OnInitialize(initConfig)
}

// initConfig reads a YAML config file and environment variables, matching
// the conventional Cobra/Viper bootstrap: an explicit --config flag wins,
// otherwise $HOME/.novaprova.yaml is tried and silently skipped if absent.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".novaprova")
	}

	viper.SetEnvPrefix("NOVAPROVA")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "using config file:", viper.ConfigFileUsed())
	}
}
