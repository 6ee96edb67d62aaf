package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/woozymasta/safetymap/internal/config"
	"github.com/woozymasta/safetymap/internal/logger"
	"github.com/woozymasta/safetymap/internal/tiles"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string `short:"c" long:"config"      env:"CONFIG_FILE" description:"Path to configuration file (defaults are used when empty)"`
	Radius      int    `short:"r" long:"radius"      env:"RADIUS"      description:"Tiles to fetch around the center on each side" default:"4"`
	Concurrency int    `short:"p" long:"concurrency" env:"CONCURRENCY" description:"Concurrency" default:"8"`
	ZoomLimit   int    `short:"z" long:"zoom-limit"  env:"ZOOM_LIMIT"  description:"Tiles zoom limit" default:"10"`
	Force       bool   `short:"f" long:"force"       description:"Force overwrite of existing files"`
	Quiet       bool   `short:"q" long:"quiet"       description:"Hide the progress bar"`
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

	opts.Logger.Setup()

	cfg := config.Default()
	if opts.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigFile); err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
	}

	client := &http.Client{
		Transport: &http.Transport{
			TLSNextProto:        make(map[string]func(string, *tls.Conn) http.RoundTripper),
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
		},
		Timeout: 15 * time.Second,
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}

	maxZoom := min(opts.ZoomLimit, cfg.BaseLayer.MaxZoom)
	if maxZoom < cfg.BaseLayer.MinZoom {
		log.Fatal().
			Int("zoom_limit", opts.ZoomLimit).
			Int("min_zoom", cfg.BaseLayer.MinZoom).
			Msg("Zoom limit is below the base layer minimum zoom")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("url", cfg.BaseLayer.URL).
		Str("cache_dir", cfg.Tiles.CacheDir).
		Stringer("center", cfg.View.Center).
		Int("max_zoom", maxZoom).
		Int("radius", opts.Radius).
		Msg("Starting loader")

	stats, err := tiles.Prefetch(ctx, client, tiles.PrefetchOptions{
		URL:         cfg.BaseLayer.URL,
		Subdomains:  cfg.BaseLayer.Subdomains,
		Cache:       tiles.Cache{Dir: cfg.Tiles.CacheDir},
		Center:      cfg.View.Center,
		MinZoom:     cfg.BaseLayer.MinZoom,
		MaxZoom:     maxZoom,
		Radius:      opts.Radius,
		Concurrency: opts.Concurrency,
		Force:       opts.Force,
		Quiet:       opts.Quiet,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Loader interrupted")
	}

	log.Info().
		Int("requested", stats.Requested).
		Int("stored", stats.Stored).
		Int("cached", stats.Cached).
		Int("missing", stats.Missing).
		Int("failed", stats.Failed).
		Msg("Loader finished successfully")
}
