// Package cmd provides the command-line interface for arlock with
// configuration from multiple sources.
//
// Configuration precedence, highest first:
//  1. Command-line flags (--config, --port, ...)
//  2. ARLOCK_CONFIG_FILE environment variable - custom config file path
//  3. Individual environment variables (ARLOCK_BRIDGE_PORT, ...)
//  4. Configuration file (.arlock.yml)
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "arlock",
	Short: "AR surface tracking and world-anchoring core",
	Long: `arlock is the pose-tracking and world-anchoring core of an AR
object-placement system. It performs per-frame surface hit detection,
converts placement commits into anchor records, keeps placed objects
world-locked across three capability tiers, and manages the session
state machine that degrades from native AR down to sensor-only
tracking.

Quick Start:
  arlock run                      Serve the websocket host bridge and run sessions
  arlock replay trace.yml         Replay a recorded trace against the simulator
  arlock devices                  List cameras reported by the connected host
  arlock version                  Show version information`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Accept underscored flag spellings (--log_level) alongside dashes.
	rootCmd.PersistentFlags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .arlock.yml, can also use ARLOCK_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig initializes the configuration system.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("ARLOCK_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(".arlock")
		viper.SetConfigType("yml")
	}

	viper.SetEnvPrefix("ARLOCK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env cover it.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		}
	}
}
