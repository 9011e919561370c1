// Command zonecarbond serves the zone emissions estimation API.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/zonecarbon/zonecarbon/internal/activity"
	"github.com/zonecarbon/zonecarbon/internal/emissions"
	"github.com/zonecarbon/zonecarbon/internal/gridmix"
	"github.com/zonecarbon/zonecarbon/internal/server"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := parseConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatal().Str("level", cfg.LogLevel).Msg("unknown log level")
	}
	logger = logger.Level(level)

	estimatorCfg := emissions.DefaultConfig()
	if cfg.ConfigPath != "" {
		estimatorCfg, err = emissions.LoadConfig(cfg.ConfigPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.ConfigPath).Msg("invalid estimator configuration")
		}
		logger.Info().Str("path", cfg.ConfigPath).Msg("estimator configuration loaded")
	}

	var grid emissions.GridProvider
	if cfg.GridProviderURL != "" {
		grid = gridmix.NewHTTPProvider(cfg.GridProviderURL, cfg.GridTimeout, logger)
		logger.Info().Str("url", cfg.GridProviderURL).Msg("using live grid intensity feed")
	} else {
		grid = gridmix.NewStaticProvider()
		logger.Info().Msg("using bundled grid intensity factors")
	}

	for _, o := range cfg.CORSAllowedOrigins {
		if o == "*" {
			logger.Warn().Msg("CORS wildcard origin (*) is insecure; use specific origins in production")
		}
	}

	engine := emissions.NewEngine(
		estimatorCfg,
		grid,
		activity.SyntheticRoadSource{},
		activity.SyntheticFlightSource{},
		activity.SyntheticRailSource{},
		logger,
	)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.New(engine, logger).Routes(cfg.CORSAllowedOrigins),
	}

	shutdownDone := make(chan struct{})
	go func() {
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
		<-signalChan

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("shutdown failed")
		}
		close(shutdownDone)
	}()

	logger.Info().Str("addr", cfg.Addr).Msg("starting zonecarbond")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server failed")
	}
	<-shutdownDone
}
