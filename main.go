package main

import (
	"context"
	"imgenhance/internal/adapters/enhancer"
	"imgenhance/internal/adapters/handler"
	"imgenhance/internal/adapters/probe"
	"imgenhance/internal/config"
	"imgenhance/internal/core/service"
	"imgenhance/internal/logging"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Info().Msg("starting imgenhance...")

	log.Info().Msg("reading config...")
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}

	logging.Init(cfg.LogLevel, cfg.LogConsole)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	falEnhancer := enhancer.NewFAL(cfg.FAL.EnhanceURL, cfg.FAL.APIKey, cfg.FAL.Timeout)
	pipeline := service.NewPipeline(cfg.Strictness, falEnhancer, probe.NewHTTPProber())

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	enhanceHandler := handler.NewEnhance(pipeline, handler.NewMetrics(registry))
	server := handler.NewServer(cfg.Addr(), handler.NewRouter(enhanceHandler, registry), cfg.ShutdownTimeout)

	log.Info().
		Str("addr", cfg.Addr()).
		Str("strictness", string(cfg.Strictness)).
		Str("provider", cfg.FAL.EnhanceURL).
		Msg("service configured")

	if err := server.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}

	log.Info().Msg("server stopped")
}
