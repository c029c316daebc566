package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/woozymasta/geotoolbox/internal/config"
	"github.com/woozymasta/geotoolbox/internal/logger"
	"github.com/woozymasta/geotoolbox/internal/server"
	"github.com/woozymasta/geotoolbox/internal/toolbox"
	"github.com/woozymasta/geotoolbox/internal/ukgeog"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE"    description:"Path to configuration file" default:"config.yaml"`
	Addr       string `short:"a" long:"addr"   env:"LISTEN_ADDRESS" description:"Address to listen on; config value if empty"`
	Port       int    `short:"p" long:"port"   env:"LISTEN_PORT"    description:"Port to listen on; config value if zero"`
	NoDataset  bool   `long:"no-uk-geography"  description:"Skip loading the UK geography dataset"`
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
	cfg, err := config.LoadOptional(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}
	if opts.Port > 0 {
		cfg.Server.Port = opts.Port
	}

	if err := run(cfg, opts.NoDataset); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}

	log.Info().Msg("Web server stopped")
}

// run owns every resource so they are released before main exits.
func run(cfg *config.Config, noDataset bool) error {
	tb, err := toolbox.Open(cfg)
	if err != nil {
		return fmt.Errorf("open upstream clients: %w", err)
	}
	defer tb.Close()

	var dataset *ukgeog.Dataset
	if !noDataset && cfg.UKGeography.BoundariesPath != "" {
		dataset, err = ukgeog.Open(cfg.UKGeography)
		if err != nil {
			return fmt.Errorf("load UK geography dataset: %w", err)
		}
	}

	srvCtx, err := server.NewServerContext(cfg, tb.Overpass, tb.Nominatim, dataset)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	listenAddr := fmt.Sprintf("%s:%d", cfg.Server.Addr, cfg.Server.Port)
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           server.NewRouter(srvCtx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("addr", listenAddr).
		Bool("uk_geography", dataset != nil).
		Int("requests_per_minute", cfg.Server.RequestsPerMin).
		Str("version", config.Version).
		Msg("Web server started")

	return serve(ctx, srv, ln, shutdownTimeout)
}

const shutdownTimeout = 10 * time.Second

// serve runs srv on ln until ctx is done, then waits up to timeout for
// in-flight requests to finish.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down, draining requests")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
