package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/igprobe/api"
	"github.com/use-agent/igprobe/browser"
	"github.com/use-agent/igprobe/cache"
	"github.com/use-agent/igprobe/config"
	"github.com/use-agent/igprobe/identity"
	"github.com/use-agent/igprobe/proxy"
	"github.com/use-agent/igprobe/scraper"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	if cfg.DotEnvErr != nil {
		slog.Warn("could not read .env file", "error", cfg.DotEnvErr)
	}
	slog.Info("igprobe starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxAttempts", cfg.Scraper.MaxAttempts,
	)

	// ── 3. Check the proxy once ─────────────────────────────────────
	// It is resolved again for every session, so the service still starts
	// and /health answers while the proxy is being fixed.
	proxies := proxy.EnvProvider{}
	if pc, err := proxies.Resolve(); err != nil {
		slog.Warn("proxy not configured, scrape requests will fail", "error", err)
	} else {
		slog.Info("proxy configured", "server", pc.ServerURI)
	}

	// ── 4. Wire the scraper ─────────────────────────────────────────
	identities, err := identity.NewPool(identity.DefaultCatalog)
	if err != nil {
		slog.Error("failed to initialise identity pool", "error", err)
		os.Exit(1)
	}
	slog.Info("identity pool ready", "identities", identities.Len())
	factory := scraper.NewSessionFactory(
		proxies,
		identities,
		browser.NewRodLauncher(),
		cfg.Browser,
		cfg.Scraper.BlockedResourceTypes,
	)
	sc := scraper.NewScraper(factory, scraper.NewPipeline(cfg.Scraper), cfg.Scraper)

	// ── 4b. Initialise cache ────────────────────────────────────────
	var cc *cache.Cache
	if cfg.Cache.TTL > 0 {
		cc = cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
		defer cc.Close()
		slog.Info("record cache enabled", "ttl", cfg.Cache.TTL, "maxEntries", cfg.Cache.MaxEntries)
	}

	// ── 5. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(sc, cfg, cc)

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	// Request contexts derive from baseCtx so a forced shutdown cancels
	// in-flight scrapes, which then close their browsers.
	baseCtx, cancelRequests := context.WithCancel(context.Background())
	defer cancelRequests()
	srv := &http.Server{
		Addr:        addr,
		Handler:     router,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		cancelRequests()
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("igprobe stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
