package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"TickerLens/internal/api"
	"TickerLens/internal/cache"
	"TickerLens/internal/collector"
	"TickerLens/internal/config"
	"TickerLens/internal/dashboard"
	"TickerLens/internal/logger"
	"TickerLens/internal/metrics"
	"TickerLens/internal/notifier"
	"TickerLens/internal/scheduler"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := logger.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatal().Err(err).Msg("setup logger")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Str("config", cfgPath).Msg("TickerLens starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Init fetcher
	fetcher := newFetcher(cfg)
	log.Info().Str("provider", fetcher.Name()).Msg("data source ready")

	// Init cache
	store, sweeper, closeCache := newCache(ctx, cfg)
	defer closeCache()

	col := collector.NewCollector(fetcher,
		collector.WithCache(store, cfg.Cache.TTL),
		collector.WithLookback(cfg.DataSource.Lookback),
		collector.WithMetrics(m),
	)
	svc := dashboard.NewService(col, cfg.Analysis.PreviewRows, m)

	srv, err := api.NewServer(
		api.NewHandler(svc, cfg.Analysis.DefaultSymbol, cfg.Analysis.DefaultDays, m),
		api.WithHost(cfg.Server.Host),
		api.WithPort(cfg.Server.Port),
		api.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		api.WithMetrics(m, reg),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("init http server")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })

	// Init Telegram bot
	var tn scheduler.Notifier
	if cfg.TelegramEnabled() {
		chatID, _ := cfg.ChatID()
		bot, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, chatID, cfg.Proxy)
		if err != nil {
			log.Error().Err(err).Msg("telegram disabled")
		} else {
			tn = bot
			handler := &notifier.CommandHandler{Reports: svc, DefaultDays: cfg.Analysis.DefaultDays}
			g.Go(func() error {
				bot.StartPolling(gctx, handler)
				return nil
			})
			log.Info().Msg("telegram polling started")
		}
	}

	// Init scheduler
	sched := scheduler.NewScheduler(gctx, svc, sweeper, tn, cfg.Telegram.Watchlist, cfg.Analysis.DefaultDays)
	if err := sched.RegisterAll(cfg.Schedule.CacheSweepCron, cfg.Schedule.DigestCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	g.Go(func() error {
		<-gctx.Done()
		sched.Stop()
		return nil
	})

	log.Info().Msg("TickerLens is running. Press Ctrl+C to stop.")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("TickerLens stopped")
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	ds := cfg.DataSource
	switch ds.Provider {
	case "twelvedata":
		return collector.NewTwelveDataFetcher(collector.TwelveDataOptions{
			BaseURL:        ds.BaseURL,
			APIKey:         ds.APIKey,
			Proxy:          cfg.Proxy,
			Timeout:        ds.Timeout,
			RequestsPerSec: ds.RequestsPerSec,
		})
	case "mock":
		return &collector.MockFetcher{Price: 100}
	default:
		return collector.NewYahooFetcher(collector.YahooOptions{
			BaseURL:        ds.BaseURL,
			Proxy:          cfg.Proxy,
			Timeout:        ds.Timeout,
			RequestsPerSec: ds.RequestsPerSec,
		})
	}
}

// newCache returns the configured cache, a sweeper when the backend needs
// periodic eviction, and a close func.
func newCache(ctx context.Context, cfg *config.Config) (cache.BytesCache, scheduler.Sweeper, func()) {
	switch cfg.Cache.Backend {
	case "redis":
		rc := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rc.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, falling back to in-memory cache")
			_ = rc.Close()
			break
		}
		log.Info().Str("addr", cfg.Cache.Redis.Addr).Msg("redis cache connected")
		return rc, nil, func() { _ = rc.Close() }
	case "none":
		return cache.NopCache{}, nil, func() {}
	}
	mem := cache.NewTTLCache()
	return mem, mem, func() {}
}
