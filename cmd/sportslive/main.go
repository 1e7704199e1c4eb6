package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/fortuna/sportslive/internal/api/rest"
	"github.com/fortuna/sportslive/internal/api/websocket"
	"github.com/fortuna/sportslive/internal/config"
	"github.com/fortuna/sportslive/internal/events"
	"github.com/fortuna/sportslive/internal/feed"
	"github.com/fortuna/sportslive/internal/images"
	"github.com/fortuna/sportslive/internal/monitor"
	"github.com/fortuna/sportslive/internal/providers"
	"github.com/fortuna/sportslive/internal/publisher"
	"github.com/fortuna/sportslive/internal/resolver"
)

const (
	serviceName    = "sportslive"
	serviceVersion = "1.0.0"
)

func main() {
	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	library, err := images.Load(cfg.Images.MapPath, cfg.Images.GeneratorBaseURL, logger.With().Str("component", "images").Logger())
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Images.MapPath).Msg("failed to load image keyword map")
	}

	feedClient := feed.NewClient(cfg.Feed.URL, logger.With().Str("component", "feed").Logger())
	normalizer := events.NewNormalizer(cfg.Timezone.SourceOffsetHours, cfg.Timezone.DestOffsetHours, logger.With().Str("component", "timenorm").Logger())
	aggregator := events.NewAggregator(feedClient, library, normalizer)

	httpClient := providers.NewHTTPClient(cfg.Resolver.ProviderTimeout)
	envivo := providers.NewEnVivo()
	defer envivo.Close()

	registry, err := resolver.NewRegistry(
		providers.NewStreamTP(httpClient),
		providers.NewLa12HD(httpClient),
		envivo,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build provider registry")
	}
	engine := resolver.NewEngine(registry, cfg.Resolver.Workers, logger.With().Str("component", "resolver").Logger())

	providerInfo := make([]rest.ProviderInfo, 0, len(registry.All()))
	for _, p := range registry.All() {
		providerInfo = append(providerInfo, rest.ProviderInfo{ID: p.ID(), Name: p.DisplayName()})
	}

	restServer := rest.NewServer(cfg.Addon.Port, aggregator, engine, providerInfo, serviceVersion, logger.With().Str("component", "rest").Logger())
	go func() {
		logger.Info().Str("port", cfg.Addon.Port).Msg("addon server listening")
		if err := restServer.Start(); err != nil {
			logger.Error().Err(err).Msg("addon server stopped")
		}
	}()

	wsServer := websocket.NewServer(cfg.Addon.WSPort, logger.With().Str("component", "websocket").Logger())
	go func() {
		if err := wsServer.Start(); err != nil {
			logger.Error().Err(err).Msg("websocket server stopped")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The Redis publisher is optional; the addon serves requests fine
	// without it, so a connection failure downgrades to a warning.
	var streamPublisher monitor.Publisher
	if cfg.Redis.URL != "" {
		redisPub, err := publisher.NewRedisPublisher(cfg.Redis.URL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, stream publishing disabled")
		} else {
			defer redisPub.Close()
			streamPublisher = redisPub
			logger.Info().Msg("redis stream publishing enabled")
		}
	}

	if cfg.Monitor.Enabled {
		liveMonitor := monitor.New(aggregator, wsServer, streamPublisher, cfg.Monitor.PollInterval, logger.With().Str("component", "monitor").Logger())
		go liveMonitor.Run(ctx)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("addon server shutdown failed")
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("websocket server shutdown failed")
	}
	logger.Info().Msg("shutdown complete")
}
