package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/eshopco/telemetry-api/internal/dataset"
	"github.com/eshopco/telemetry-api/internal/domain"
	httpx "github.com/eshopco/telemetry-api/internal/http"
	metricssvc "github.com/eshopco/telemetry-api/internal/service/metrics"
	"github.com/eshopco/telemetry-api/pkg/config"
	"github.com/eshopco/telemetry-api/pkg/logger"
)

func main() {
	cfg := config.LoadAPIConfig()
	log := logger.New("telemetry-api", logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := buildProviders(cfg)
	if err != nil {
		log.Error("invalid dataset configuration", "error", err)
		os.Exit(1)
	}

	loaded, err := dataset.Load(ctx, log, providers...)
	if err != nil {
		log.Error("dataset load failed", "error", err)
		os.Exit(1)
	}
	if loaded.Source == "synthetic" {
		log.Warn("serving synthetic dataset", "records", len(loaded.Records))
	}
	snapshot := domain.NewDataset(loaded.Records)

	svc := metricssvc.New(snapshot, metricssvc.Options{CaseSensitive: cfg.CaseSensitiveRegions})

	limiter := httpx.NewMemoryRateLimiter()
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable, using in-memory limits", "error", err)
		} else {
			limiter.Close()
			limiter = redisLimiter
		}
	}

	router := httpx.NewRouter(
		log,
		svc,
		httpx.DatasetInfo{Source: loaded.Source, Records: snapshot.Len()},
		httpx.CORSPolicy{AllowedOrigin: cfg.CORSAllowedOrigin},
		limiter,
	)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr, "dataset_source", loaded.Source, "records", snapshot.Len())
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}

// buildProviders maps DATASET_SOURCE to an explicit provider chain. "auto"
// probes file then postgres and falls back to the embedded dataset; any
// named source must succeed on its own.
func buildProviders(cfg config.APIConfig) ([]dataset.Provider, error) {
	fileProvider := func() dataset.Provider {
		if cfg.DatasetPath != "" {
			return dataset.NewFileProvider(cfg.DatasetPath)
		}
		return dataset.NewFileProvider("telemetry.json", filepath.Join("data", "telemetry.json"))
	}

	switch strings.ToLower(strings.TrimSpace(cfg.DatasetSource)) {
	case "", "auto":
		providers := []dataset.Provider{fileProvider()}
		if cfg.DatabaseURL != "" {
			providers = append(providers, dataset.NewPostgresProvider(cfg.DatabaseURL))
		}
		return append(providers, dataset.EmbeddedProvider{}), nil
	case "file":
		return []dataset.Provider{fileProvider()}, nil
	case "postgres":
		return []dataset.Provider{dataset.NewPostgresProvider(cfg.DatabaseURL)}, nil
	case "embedded":
		return []dataset.Provider{dataset.EmbeddedProvider{}}, nil
	case "synthetic":
		return []dataset.Provider{dataset.NewSyntheticProvider(nil, cfg.SyntheticPerRegion, cfg.SyntheticSeed)}, nil
	default:
		return nil, fmt.Errorf("unknown DATASET_SOURCE %q", cfg.DatasetSource)
	}
}
