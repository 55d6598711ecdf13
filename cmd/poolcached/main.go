// Command poolcached serves a cached document pool over HTTP.
//
// Environment:
//
//	POOLCACHED_ADDR         listen address (":8080")
//	POOLCACHED_BACKEND      sqlite | redis | bigcache | ristretto ("sqlite")
//	POOLCACHED_DSN          sqlite DSN or redis URL ("poolcached.db")
//	POOLCACHED_NAMESPACE    object namespace ("doc")
//	POOLCACHED_CODEC        json | cbor | msgpack ("json")
//	POOLCACHED_CONFIG       optional YAML file with pool_cache.size/pressure
//	POOLCACHED_ONLY_ACTIVE  "true" starts the cache in pressure mode
//	POOL_CACHE_SIZE, POOL_CACHE_PRESSURE  bound overrides
//	LOG_LEVEL               debug | info
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/poolcache"
	c "github.com/unkn0wn-root/poolcache/codec"
	"github.com/unkn0wn-root/poolcache/config"
	asynchook "github.com/unkn0wn-root/poolcache/hooks/async"
	promhooks "github.com/unkn0wn-root/poolcache/hooks/prom"
	"github.com/unkn0wn-root/poolcache/internal/server"
	zaplog "github.com/unkn0wn-root/poolcache/log/zap"
	"github.com/unkn0wn-root/poolcache/pool"
	pr "github.com/unkn0wn-root/poolcache/provider"
	"github.com/unkn0wn-root/poolcache/provider/bigcache"
	"github.com/unkn0wn-root/poolcache/provider/redis"
	"github.com/unkn0wn-root/poolcache/provider/ristretto"
	"github.com/unkn0wn-root/poolcache/provider/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "poolcached:", err)
		os.Exit(1)
	}
}

func run() error {
	zl, err := newZap(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()
	log := zaplog.New(zl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := openProvider(ctx, getEnv("POOLCACHED_BACKEND", "sqlite"), getEnv("POOLCACHED_DSN", "poolcached.db"))
	if err != nil {
		return err
	}

	codec, err := selectCodec(getEnv("POOLCACHED_CODEC", "json"))
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	ph, err := promhooks.New("poolcache", reg)
	if err != nil {
		return err
	}
	hooks := asynchook.New(ph, 1, 4096)
	defer hooks.Close()

	p, err := pool.New(pool.Options[server.Document]{
		Namespace:  getEnv("POOLCACHED_NAMESPACE", "doc"),
		Provider:   backend,
		Codec:      codec,
		Bounds:     bounds(os.Getenv("POOLCACHED_CONFIG")),
		OnlyActive: strings.EqualFold(os.Getenv("POOLCACHED_ONLY_ACTIVE"), "true"),
		Logger:     log,
		Hooks:      hooks,
	})
	if err != nil {
		_ = backend.Close(context.Background())
		return err
	}
	defer func() { _ = p.Close(context.Background()) }()

	srv := &http.Server{
		Addr:              getEnv("POOLCACHED_ADDR", ":8080"),
		Handler:           server.NewRouter(p, reg, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	st := p.Cache().Stats()
	log.Info("server started", poolcache.Fields{"addr": srv.Addr, "mode": st.ModeName, "capacity": st.Capacity})

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received", nil)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped", nil)
	return nil
}

func newZap(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if strings.EqualFold(level, "debug") {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func bounds(path string) poolcache.Bounds {
	chain := config.Chain{config.Env{}}
	if path != "" {
		chain = append(config.Chain{config.NewFile(path)}, chain...)
	}
	return append(chain, config.Defaults())
}

func openProvider(ctx context.Context, kind, dsn string) (pr.Provider, error) {
	switch kind {
	case "sqlite":
		return sqlite.Open(ctx, sqlite.Config{DSN: dsn})
	case "redis":
		return redis.Dial(dsn)
	case "bigcache":
		return bigcache.New(bigcache.Config{})
	case "ristretto":
		return ristretto.New(ristretto.Config{NumCounters: 1e6, MaxCost: 256 << 20, BufferItems: 64})
	default:
		return nil, fmt.Errorf("unknown backend %q", kind)
	}
}

func selectCodec(name string) (c.Codec[server.Document], error) {
	switch name {
	case "json":
		return c.JSON[server.Document]{}, nil
	case "cbor":
		return c.NewCBOR[server.Document](c.CBOROptions{Deterministic: true})
	case "msgpack":
		return c.Msgpack[server.Document]{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
