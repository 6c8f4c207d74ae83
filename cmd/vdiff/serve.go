package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vdiff/internal/config"
	"github.com/vango-dev/vdiff/internal/demo"
	"github.com/vango-dev/vdiff/internal/errors"
	"github.com/vango-dev/vdiff/internal/logging"
	"github.com/vango-dev/vdiff/pkg/server"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		tick       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo counter over a websocket",
		Long: `Serve the demo counter app. Each websocket connection gets its own
counter; every click is diffed and streamed back as one deltas frame.

Configuration is read from --config, or from vdiff.json / vdiff.yaml in
the working directory.

Examples:
  vdiff serve
  vdiff serve --addr=:9000 --tick=1s
  vdiff serve --config=deploy/vdiff.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, tick)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default vdiff.json or vdiff.yaml)")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().DurationVar(&tick, "tick", 0, "Push a tick to every session at this interval")

	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	dir, err := os.Getwd()
	if err != nil {
		return nil, errors.FromError(err, "E100")
	}
	return config.Load(dir)
}

func runServe(ctx context.Context, cfg *config.Config, tick time.Duration) error {
	scfg, err := serverConfig(cfg)
	if err != nil {
		return err
	}
	return demo.Run(ctx, cfg.Server.Addr, tick, scfg)
}

// serverConfig maps the file configuration onto server.Config.
func serverConfig(cfg *config.Config) (*server.Config, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, errors.FromError(err, "E102")
	}
	logger, err := logging.New(level, logging.Format(cfg.Log.Format), os.Stderr)
	if err != nil {
		return nil, errors.FromError(err, "E102")
	}

	return &server.Config{
		Path:           cfg.Server.Path,
		ReadTimeout:    cfg.ReadTimeout(),
		WriteTimeout:   cfg.WriteTimeout(),
		PingInterval:   cfg.PingInterval(),
		MaxMessageSize: cfg.Server.MaxMessageSize,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Metrics:        cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
		Namespace:      cfg.Metrics.Namespace,
		Tracing:        cfg.Tracing.Enabled,
		TracerName:     cfg.Tracing.TracerName,
		Logger:         logger,
	}, nil
}
