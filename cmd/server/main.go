// cmd/server runs the full advisor: a fetch→analyze loop over the watchlist,
// the REST/WebSocket gateway, and the Prometheus metrics endpoint.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"stock-advisor/config"
	"stock-advisor/internal/advisor"
	"stock-advisor/internal/backtest"
	"stock-advisor/internal/fetcher"
	"stock-advisor/internal/gateway"
	"stock-advisor/internal/logger"
	"stock-advisor/internal/markethours"
	"stock-advisor/internal/metrics"
	"stock-advisor/internal/notification"
	redisstore "stock-advisor/internal/store/redis"
	"stock-advisor/internal/store/sqlite"
	"stock-advisor/internal/strategy"
)

const historyLookback = 400 * 24 * time.Hour

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[server] starting...")

	cfg := config.Load()
	symbols := cfg.ParseSymbols()
	if len(symbols) == 0 {
		log.Fatal("[server] SYMBOLS resolved to an empty watchlist")
	}

	slogger := logger.Init("server", slog.LevelInfo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	health.SetSymbols(symbols)

	store, err := sqlite.New(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[server] sqlite open failed: %v", err)
	}
	defer store.Close()

	// Redis is optional: without it the gateway serves from SQLite and
	// WebSocket pushes stay in-process.
	var cache *redisstore.Cache
	if c, err := redisstore.New(redisstore.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}); err != nil {
		log.Printf("[server] WARNING: redis unavailable, continuing without cache: %v", err)
	} else {
		cache = c
		defer cache.Close()
	}

	client := fetcher.New(fetcher.Config{
		BaseURL:    cfg.ProviderBaseURL,
		APIKey:     cfg.ProviderAPIKey,
		ClientCode: cfg.ProviderClientCode,
		Password:   cfg.ProviderPassword,
		TOTPSecret: cfg.ProviderTOTPSecret,
	})
	client.Breaker().OnStateChange = func(from, to fetcher.State) {
		log.Printf("[server] provider breaker %s -> %s", from, to)
		prom.ProviderBreakerState.Set(float64(to))
		if to == fetcher.StateOpen {
			prom.ProviderBreakerTrips.Inc()
		}
		health.SetProviderOK(to != fetcher.StateOpen)
	}

	reg, err := strategy.NewRegistry(strategy.DefaultParams())
	if err != nil {
		log.Fatalf("[server] strategy registry init failed: %v", err)
	}
	engine := strategy.NewEngine(reg)
	backtester := backtest.New(reg)

	var notifier notification.Notifier
	switch {
	case cfg.TelegramBotToken != "" && cfg.TelegramChatID != "":
		notifier = notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
	case cfg.WebhookURL != "":
		notifier = notification.NewWebhookNotifier(cfg.WebhookURL)
	default:
		notifier = notification.NewLogNotifier()
	}
	adv := advisor.New(notifier)

	hub := gateway.NewHub(redisClient(cache), prom)
	go hub.Run(ctx)

	health.StartLivenessChecker(ctx, redisClient(cache), store.DB(), 30*time.Second)

	metricsServer := metrics.NewServer(cfg.MetricsAddr, health)
	metricsServer.Start()

	mux := http.NewServeMux()
	gateway.RegisterRoutes(mux, &gateway.Deps{
		Hub:      hub,
		Engine:   engine,
		Backtest: backtester,
		Store:    store,
		Cache:    cache,
		Prom:     prom,
		Defaults: backtest.Config{
			InitialCapital: cfg.InitialCapital,
			Commission:     cfg.Commission,
		},
		Started: time.Now(),
	})
	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}
	go func() {
		log.Printf("[server] gateway listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[server] gateway listen failed: %v", err)
		}
	}()

	loop := &advisorLoop{
		store:   store,
		cache:   cache,
		client:  client,
		engine:  engine,
		adv:     adv,
		hub:     hub,
		prom:    prom,
		health:  health,
		slogger: slogger,
	}
	go loop.run(ctx, symbols, cfg.FetchInterval)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("[server] shutdown signal received")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[server] gateway shutdown: %v", err)
	}
	metricsServer.Stop(shutdownCtx)
	log.Println("[server] stopped")
}

func redisClient(cache *redisstore.Cache) *goredis.Client {
	if cache == nil {
		return nil
	}
	return cache.Client()
}

// advisorLoop drives the periodic fetch→persist→analyze→publish cycle.
type advisorLoop struct {
	store   *sqlite.Store
	cache   *redisstore.Cache
	client  *fetcher.Client
	engine  *strategy.Engine
	adv     *advisor.Advisor
	hub     *gateway.Hub
	prom    *metrics.Metrics
	health  *metrics.HealthStatus
	slogger *slog.Logger
}

func (l *advisorLoop) run(ctx context.Context, symbols []string, interval time.Duration) {
	l.cycle(ctx, symbols)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.cycle(ctx, symbols)
		}
	}
}

func (l *advisorLoop) cycle(ctx context.Context, symbols []string) {
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			return
		}
		if err := l.process(ctx, symbol); err != nil {
			log.Printf("[server] cycle for %s: %v", symbol, err)
		}
	}
}

func (l *advisorLoop) process(ctx context.Context, symbol string) error {
	tctx := logger.WithTraceID(ctx, logger.GenerateTraceID(symbol, time.Now()))

	last, err := l.store.LastBarTime(tctx, symbol)
	if err != nil {
		return err
	}
	from := last
	if from.IsZero() {
		from = time.Now().Add(-historyLookback)
	}

	// Off-session polling only re-fetches a closed book; skip it unless
	// there is no history at all yet.
	if markethours.IsTradingDay(time.Now()) || last.IsZero() {
		start := time.Now()
		bars, err := l.client.DailyBars(tctx, symbol, from, time.Now())
		l.prom.FetchDur.Observe(time.Since(start).Seconds())
		l.prom.FetchesTotal.WithLabelValues(symbol).Inc()
		if err != nil {
			l.prom.FetchErrors.Inc()
			l.health.SetProviderOK(false)
			return err
		}
		l.health.SetProviderOK(true)
		l.health.SetLastFetchTime(time.Now())

		if len(bars) > 0 {
			commitStart := time.Now()
			if err := l.store.SaveBars(tctx, symbol, bars); err != nil {
				return err
			}
			l.prom.SQLiteCommitDur.Observe(time.Since(commitStart).Seconds())
		}
	}

	history, err := l.store.LoadBars(tctx, symbol, time.Time{}, time.Time{})
	if err != nil {
		return err
	}
	if len(history) == 0 {
		log.Printf("[server] no history for %s yet, skipping analysis", symbol)
		return nil
	}

	if l.cache != nil {
		writeStart := time.Now()
		if err := l.cache.SetBars(tctx, symbol, history); err != nil {
			log.Printf("[server] redis bars write for %s: %v", symbol, err)
		}
		l.prom.RedisWriteDur.Observe(time.Since(writeStart).Seconds())
	}

	analyzeStart := time.Now()
	res, err := l.engine.Analyze(history, nil)
	if err != nil {
		return err
	}
	l.prom.AnalyzeDur.Observe(time.Since(analyzeStart).Seconds())
	l.prom.SignalsTotal.WithLabelValues(string(res.FinalSignal)).Inc()

	at := history[len(history)-1].Timestamp
	if err := l.store.SaveResult(tctx, symbol, at, res); err != nil {
		log.Printf("[server] save result for %s: %v", symbol, err)
	}

	if l.cache != nil {
		// SetResult publishes on pub/sub; the hub picks it up there.
		if err := l.cache.SetResult(tctx, symbol, res); err != nil {
			log.Printf("[server] redis result write for %s: %v", symbol, err)
		}
	} else {
		l.hub.BroadcastResult(symbol, res)
	}

	l.adv.UpdatePrice(symbol, history[len(history)-1].Close)
	rec := l.adv.Observe(tctx, symbol, res)
	l.slogger.Info("analysis complete",
		slog.String("trace_id", logger.TraceID(tctx)),
		slog.String("symbol", symbol),
		slog.String("signal", string(res.FinalSignal)),
		slog.Float64("confidence", res.Confidence),
		slog.String("action", rec.Action),
		slog.Int("bars", len(history)),
	)
	return nil
}
