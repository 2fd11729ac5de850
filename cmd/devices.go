package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/arlock/arlock/internal/bridge"
	"github.com/arlock/arlock/internal/config"
	"github.com/arlock/arlock/internal/logging"
)

var devicesWait time.Duration

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List cameras reported by the connected host",
	Long: `Start the bridge, wait for a remote host to connect, and print its
camera device list. Labels are only populated when the remote host
already holds a camera permission grant.`,
	RunE: runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)

	devicesCmd.Flags().DurationVar(&devicesWait, "wait", 30*time.Second, "How long to wait for a host connection")
}

func runDevices(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})

	b := bridge.New(cfg.Bridge.AllowedOrigins, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Bridge.Host, cfg.Bridge.Port)
	mux := http.NewServeMux()
	mux.Handle("/bridge", b)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go srv.ListenAndServe()
	defer srv.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), devicesWait)
	defer cancel()

	fmt.Fprintf(cmd.OutOrStdout(), "waiting for host connection on %s/bridge ...\n", addr)
	for !b.Connected() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("no host connected within %s", devicesWait)
		case <-time.After(100 * time.Millisecond):
		}
	}

	devices, err := b.EnumerateDevices(ctx)
	if err != nil {
		return err
	}

	if len(devices) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no cameras reported")
		return nil
	}
	for _, d := range devices {
		label := d.Label
		if label == "" {
			label = "(label hidden until permission granted)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-44s %s\n", d.ID, label)
	}
	return nil
}
