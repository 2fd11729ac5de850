package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arlock/arlock/internal/config"
	"github.com/arlock/arlock/internal/hostsim"
	"github.com/arlock/arlock/internal/logging"
	"github.com/arlock/arlock/internal/session"
)

var replayCmd = &cobra.Command{
	Use:   "replay <trace.yml>",
	Short: "Replay a recorded trace against the simulated host",
	Long: `Drive a full session from a YAML trace: scripted session grant,
per-frame surface hits, orientation readings, and placement commits.
Prints the reticle state and every object transform per frame.

Examples:
  arlock replay traces/native-placement.yml
  arlock replay traces/sensor-fallback.yml --log-level debug`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	trace, err := hostsim.LoadTrace(args[0])
	if err != nil {
		return err
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})

	sessCfg := session.DefaultConfig()
	sessCfg.PlaceDistance = cfg.Session.PlaceDistance
	sessCfg.RequiredFeatures = cfg.Session.RequiredFeatures
	sessCfg.OptionalFeatures = cfg.Session.OptionalFeatures

	result, err := hostsim.Replay(context.Background(), trace, sessCfg, logger, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "replayed %d frames, %d objects placed\n",
		result.Frames, result.Placed)
	return nil
}
