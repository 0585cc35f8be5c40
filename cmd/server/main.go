package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mfbatista/carteira-backend/internal/adapter/httpapi"
	"github.com/mfbatista/carteira-backend/internal/adapter/pricefeed"
	"github.com/mfbatista/carteira-backend/internal/config"
	"github.com/mfbatista/carteira-backend/internal/domain"
	"github.com/mfbatista/carteira-backend/internal/logger"
	"github.com/mfbatista/carteira-backend/internal/usecase/rebalance"
)

func main() {
	// 1. Configuration and logging
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})

	log.Info().Msg("Starting carteira backend")

	// 2. Price feed: Yahoo client behind a bounded-freshness cache
	symbols, err := pricefeed.LoadSymbolMap(cfg.SymbolMapPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load symbol map")
	}

	var prices domain.PriceSource = pricefeed.NewYahooClient(pricefeed.Config{
		BaseURL:   cfg.QuoteBaseURL,
		Timeout:   cfg.QuoteTimeout,
		SymbolMap: symbols,
	}, log)
	prices = pricefeed.NewCachedSource(prices, cfg.QuoteCacheTTL)

	// 3. Usecase service
	service := rebalance.NewService(prices, log).
		WithDefaultEpsilon(cfg.DefaultEpsilon)

	// 4. HTTP server
	srv := httpapi.New(httpapi.Config{
		Port:     cfg.Port,
		APIToken: cfg.APIToken,
		Log:      log,
		Service:  service,
		Prices:   prices,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server stopped")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	waitForShutdown(srv, log)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(srv *httpapi.Server, log zerolog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown")
	}
	log.Info().Msg("Server stopped")
}
