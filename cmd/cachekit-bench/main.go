// Command cachekit-bench drives a configurable workload against a cache
// and exposes the resulting Prometheus metrics, for eyeballing hit ratios
// and eviction behavior under different policies and TTLs.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/c360/cachekit/cache"
	"github.com/c360/cachekit/metric"
)

func main() {
	cliCfg := parseFlags()

	if cliCfg.ShowHelp {
		printDetailedHelp()
		os.Exit(0)
	}

	if err := validateFlags(cliCfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n\n", err)
		printDetailedHelp()
		os.Exit(2)
	}

	logger := setupLogger(cliCfg)

	if err := run(cliCfg, logger); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cliCfg *CLIConfig, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cacheCfg, err := loadCacheConfig(cliCfg)
	if err != nil {
		return err
	}

	registry := metric.NewMetricsRegistry()

	c, err := cache.NewFromConfig[string](ctx, cacheCfg,
		cache.WithMetrics[string](registry, "bench"),
		cache.WithLogger[string](logger),
	)
	if err != nil {
		return err
	}
	defer c.Close()

	logger.Info("cache ready",
		"policy", string(cacheCfg.Policy),
		"max_size", cacheCfg.MaxSize,
		"default_ttl", cacheCfg.DefaultTTL,
	)

	if cliCfg.MetricsPort > 0 {
		startMetricsServer(ctx, registry, cliCfg.MetricsPort, logger)
	}

	if cliCfg.Duration > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, cliCfg.Duration)
		defer timeoutCancel()
	}

	runWorkload(ctx, c, cliCfg, logger)

	summary := c.Stats().Summary()
	logger.Info("workload finished",
		"hits", summary.Hits,
		"misses", summary.Misses,
		"hit_ratio", fmt.Sprintf("%.3f", summary.HitRatio),
		"evictions", summary.Evictions,
		"expirations", summary.Expirations,
		"size", summary.CurrentSize,
	)
	return nil
}

func loadCacheConfig(cliCfg *CLIConfig) (cache.Config, error) {
	if cliCfg.ConfigPath != "" {
		data, err := os.ReadFile(cliCfg.ConfigPath)
		if err != nil {
			return cache.Config{}, fmt.Errorf("read config: %w", err)
		}
		var cfg cache.Config
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cache.Config{}, fmt.Errorf("parse config: %w", err)
		}
		return cfg, nil
	}

	return cache.Config{
		Enabled:    true,
		Policy:     cache.Policy(cliCfg.Policy),
		MaxSize:    cliCfg.MaxSize,
		DefaultTTL: cliCfg.TTL,
	}, nil
}

func startMetricsServer(ctx context.Context, registry *metric.MetricsRegistry, port int, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", registry.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		logger.Info("metrics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}

// runWorkload hammers the cache with a zipf-distributed mix of reads and
// writes until the context is cancelled.
func runWorkload(ctx context.Context, c cache.Cache[string], cliCfg *CLIConfig, logger *slog.Logger) {
	var wg sync.WaitGroup
	for w := 0; w < cliCfg.Workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()

			rng := rand.New(rand.NewSource(seed))
			zipf := rand.NewZipf(rng, 1.1, 1, uint64(cliCfg.Keyspace-1))

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				key := fmt.Sprintf("key%d", zipf.Uint64())
				if rng.Intn(10) == 0 {
					if _, err := c.Set(key, "payload"); err != nil {
						logger.Error("set failed", "key", key, "error", err)
						return
					}
				} else {
					if _, found := c.Get(key); !found {
						// Cache-aside: miss repopulates.
						if _, err := c.Set(key, "payload"); err != nil {
							logger.Error("set failed", "key", key, "error", err)
							return
						}
					}
				}
			}
		}(int64(w) + time.Now().UnixNano())
	}

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case <-ticker.C:
			summary := c.Stats().Summary()
			logger.Debug("progress",
				"hits", summary.Hits,
				"misses", summary.Misses,
				"hit_ratio", fmt.Sprintf("%.3f", summary.HitRatio),
				"size", summary.CurrentSize,
			)
		}
	}
}
