package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arlock/arlock/internal/bridge"
	"github.com/arlock/arlock/internal/capability"
	"github.com/arlock/arlock/internal/config"
	"github.com/arlock/arlock/internal/logging"
	"github.com/arlock/arlock/internal/models"
	"github.com/arlock/arlock/internal/scene"
	"github.com/arlock/arlock/internal/session"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Serve the websocket host bridge and run AR sessions",
	Long: `Start the websocket bridge and run the tracking core against the
remote host that connects to it (typically a browser page running the
WebXR and deviceorientation APIs).

The remote host drives the frame loop: every inbound frame ticks the
session, and per-object transforms stream back to the remote renderer.

Examples:
  arlock run                       # Listen on the configured address
  arlock run --port 9000           # Override the bridge port`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntP("port", "p", 9223, "Port for the bridge listener")
	runCmd.Flags().String("host", "localhost", "Host to bind the bridge to")
	runCmd.Flags().String("models", "./models", "Model catalog directory")

	viper.BindPFlag("bridge.port", runCmd.Flags().Lookup("port"))
	viper.BindPFlag("bridge.host", runCmd.Flags().Lookup("host"))
	viper.BindPFlag("models.dir", runCmd.Flags().Lookup("models"))
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := bridge.New(cfg.Bridge.AllowedOrigins, logger)

	catalog := models.NewCatalog(cfg.Models.Dir, logger)
	if err := catalog.Start(ctx); err != nil {
		logger.Warn(ctx, err, "model catalog watcher unavailable", "dir", cfg.Models.Dir)
	}
	defer catalog.Stop()

	life := session.New(b, b, b, b, session.Config{
		CameraDeviceID:   cfg.Camera.DeviceID,
		CameraWidth:      cfg.Camera.Width,
		CameraHeight:     cfg.Camera.Height,
		PlaceDistance:    cfg.Session.PlaceDistance,
		RequiredFeatures: cfg.Session.RequiredFeatures,
		OptionalFeatures: cfg.Session.OptionalFeatures,
	}, logger)

	life.SetStatusHandler(func(msg string, tier capability.Tier) {
		b.SendStatus(msg, tier.String())
	})

	b.SetFrameHandler(func(ctx context.Context) {
		life.Tick(ctx)
	})

	b.SetControlHandler(func(ctx context.Context, ctl bridge.Control) {
		handleControl(ctx, life, catalog, logger, ctl)
	})

	addr := fmt.Sprintf("%s:%d", cfg.Bridge.Host, cfg.Bridge.Port)
	mux := http.NewServeMux()
	mux.Handle("/bridge", b)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "bridge listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		life.Exit(context.Background())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// handleControl applies one remote UI action.
func handleControl(ctx context.Context, life *session.Lifecycle, catalog *models.Catalog, logger logging.Logger, ctl bridge.Control) {
	switch ctl.Action {
	case bridge.ActionEnterAR:
		if err := life.Enter(ctx); err != nil {
			logger.Error(ctx, err, "enter AR failed")
		}
	case bridge.ActionExitAR:
		life.Exit(ctx)
	case bridge.ActionClearScene:
		life.ClearScene(ctx)
	case bridge.ActionSwitchCamera:
		if err := life.SwitchCamera(ctx, ctl.DeviceID); err != nil {
			logger.Warn(ctx, err, "camera switch rejected", "device_id", ctl.DeviceID)
		}
	case bridge.ActionCommit:
		kind, modelRef, ok := resolveCommit(catalog, ctl)
		if !ok {
			logger.Warn(ctx, nil, "commit rejected: unknown model", "model", ctl.Model)
			return
		}
		scale := ctl.Scale
		if scale <= 0 {
			scale = 1.0
		}
		if !life.CommitPlacement(ctx, kind, modelRef, scale) {
			logger.Debug(ctx, "commit ignored: reticle not armed")
		}
	}
}

func resolveCommit(catalog *models.Catalog, ctl bridge.Control) (scene.Kind, string, bool) {
	switch ctl.Kind {
	case "sphere":
		return scene.KindSphere, "", true
	case "model":
		entry, ok := catalog.Lookup(ctl.Model)
		if !ok {
			return scene.KindModel, "", false
		}
		return scene.KindModel, entry.Path, true
	default:
		return scene.KindCube, "", true
	}
}
