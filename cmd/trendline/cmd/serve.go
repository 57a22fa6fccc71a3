package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nfrund/trendline/internal/app"
	"github.com/nfrund/trendline/internal/config"
	"github.com/nfrund/trendline/internal/logging"
	"github.com/nfrund/trendline/internal/pubsub"
	"github.com/nfrund/trendline/internal/rendering"
	"github.com/nfrund/trendline/internal/server"
	"github.com/nfrund/trendline/internal/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Run the HTTP server until interrupted.

Configuration is read from the environment and an optional .env file.
The --addr flag overrides APP_ADDR.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	logging.New(cfg.GetLogFormat(), cfg.GetLogLevel())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Setup(ctx, cfg.GetTracing())
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	bus := pubsub.NewWatermillBridge()
	renderer := rendering.NewUniversalRenderer()

	modules := app.NewModules(app.Dependencies{
		Publisher:     bus,
		Subscriber:    bus,
		Renderer:      renderer,
		Store:         app.NewTrendingStore(cfg, bus, reg),
		Notifications: app.NewNotificationSource(cfg, afero.NewOsFs()),
	})

	s, err := server.New(server.Dependencies{
		Config:   cfg,
		Renderer: renderer,
		Registry: reg,
		Modules:  modules,
		Version:  version,
	})
	if err != nil {
		return err
	}
	s.OnShutdown(func(context.Context) error { return bus.Close() })
	s.OnShutdown(shutdownTracing)

	if err := s.InitModules(ctx); err != nil {
		return err
	}
	s.RegisterRoutes()

	slog.Info("Trendline starting", "version", version, "env", cfg.GetEnv())
	return s.Start(cfg.GetAddr())
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address, e.g. :8080")
	rootCmd.AddCommand(serveCmd)
}
