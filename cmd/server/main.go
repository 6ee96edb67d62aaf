package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/woozymasta/safetymap/internal/config"
	"github.com/woozymasta/safetymap/internal/dataset"
	"github.com/woozymasta/safetymap/internal/logger"
	"github.com/woozymasta/safetymap/internal/mapview"
	"github.com/woozymasta/safetymap/internal/metrics"
	"github.com/woozymasta/safetymap/internal/overlay"
	"github.com/woozymasta/safetymap/internal/search"
	"github.com/woozymasta/safetymap/internal/server"
	"github.com/woozymasta/safetymap/internal/viewport"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE"    description:"Path to configuration file (defaults are used when empty)"`
	Addr       string `short:"a" long:"addr"   env:"LISTEN_ADDRESS" description:"Address to listen on" default:"0.0.0.0"`
	Port       int    `short:"p" long:"port"   env:"LISTEN_PORT"    description:"Port to listen on"    default:"8080"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg := config.Default()
	if opts.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigFile); err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
	}

	ds, report, err := loadDataset(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load dataset")
	}
	for _, rej := range report.Rejected {
		metrics.RejectedEntities.WithLabelValues(string(rej.Collection)).Inc()
	}

	m := mapview.New(
		ds,
		overlay.NewRenderer(cfg.Encoding, cfg.RouteStyle),
		viewport.NewController(cfg.BaseLayer),
		search.New(log.Logger),
	)
	if err := m.Mount(cfg.View.Center, cfg.View.Zoom); err != nil {
		log.Fatal().Err(err).Msg("Failed to mount map")
	}
	defer m.Unmount()

	srvCtx, err := server.NewServerContext(cfg, m)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	log.Info().
		Str("addr", listenAddr).
		Int("hazards", len(ds.Hazards())).
		Int("shelters", len(ds.Shelters())).
		Int("routes", len(ds.Routes())).
		Int("rejected", len(report.Rejected)).
		Msg("Starting web server")

	if err := srvCtx.Run(ctx, listenAddr); err != nil {
		log.Error().Err(err).Msg("Server failed")
		return
	}

	log.Info().Msg("Server stopped")
}

func loadDataset(cfg *config.Config) (*dataset.Dataset, dataset.Report, error) {
	opts := dataset.Options{AssociationRadiusKm: cfg.AssociationRadiusKm}
	if cfg.Dataset == "" {
		log.Debug().Msg("No dataset configured, using embedded Kenya fixture")
		return dataset.Kenya(opts)
	}

	return dataset.Load(cfg.Dataset, opts)
}
