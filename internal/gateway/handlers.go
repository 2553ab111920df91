package gateway

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"stock-advisor/internal/backtest"
	"stock-advisor/internal/indicator"
	"stock-advisor/internal/markethours"
	"stock-advisor/internal/metrics"
	"stock-advisor/internal/model"
	redisstore "stock-advisor/internal/store/redis"
	"stock-advisor/internal/store/sqlite"
	"stock-advisor/internal/strategy"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// Deps bundles everything the REST surface needs. Cache may be nil when
// running without Redis; reads then fall through to SQLite.
type Deps struct {
	Hub      *Hub
	Engine   *strategy.Engine
	Backtest *backtest.Engine
	Store    *sqlite.Store
	Cache    *redisstore.Cache
	Prom     *metrics.Metrics
	Defaults backtest.Config
	Started  time.Time
}

// RegisterRoutes registers all HTTP routes on the provided mux.
func RegisterRoutes(mux *http.ServeMux, d *Deps) {
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[gateway] ws upgrade error: %v", err)
			return
		}
		d.Hub.HandleWSRequest(conn)
	})

	mux.HandleFunc("/api/v1/health", d.instrument("/api/v1/health", d.handleHealth))
	mux.HandleFunc("/api/v1/strategies", d.instrument("/api/v1/strategies", d.handleStrategies))
	mux.HandleFunc("/api/v1/analyze", d.instrument("/api/v1/analyze", d.handleAnalyze))
	mux.HandleFunc("/api/v1/backtest", d.instrument("/api/v1/backtest", d.handleBacktest))
	mux.HandleFunc("/api/v1/signals", d.instrument("/api/v1/signals", d.handleSignals))
	mux.HandleFunc("/api/v1/signals/latest", d.instrument("/api/v1/signals/latest", d.handleLatest))
}

func (d *Deps) instrument(path string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		h(w, r)
		if d.Prom != nil {
			d.Prom.HTTPRequestDur.WithLabelValues(path).Observe(time.Since(start).Seconds())
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusFor maps engine errors to HTTP status codes. Caller mistakes
// (unknown strategy, bad config, corrupt series) are 400s; a series that
// is merely too short is 422 so clients can tell it apart.
func statusFor(err error) int {
	switch {
	case errors.Is(err, strategy.ErrUnknownStrategy),
		errors.Is(err, strategy.ErrInvalidConfig),
		errors.Is(err, model.ErrUnorderedBars):
		return http.StatusBadRequest
	case errors.Is(err, indicator.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (d *Deps) handleHealth(w http.ResponseWriter, r *http.Request) {
	SetCORS(w)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(d.Started).Seconds()),
		"market":         markethours.StatusString(time.Now()),
	})
}

func (d *Deps) handleStrategies(w http.ResponseWriter, r *http.Request) {
	SetCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	reg := d.Engine.Registry()
	names := reg.List()
	infos := make([]StrategyInfo, 0, len(names))
	for _, name := range names {
		ev, err := reg.Lookup(name)
		if err != nil {
			continue
		}
		infos = append(infos, StrategyInfo{Name: name, MinBars: ev.MinBars()})
	}
	writeJSON(w, http.StatusOK, infos)
}

func (d *Deps) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	SetCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "symbol is required"})
		return
	}

	bars, err := d.loadBars(r, symbol)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if len(bars) == 0 {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no bars stored for " + symbol})
		return
	}

	start := time.Now()
	res, err := d.Engine.Analyze(bars, req.Strategies)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if d.Prom != nil {
		d.Prom.AnalyzeDur.Observe(time.Since(start).Seconds())
		d.Prom.SignalsTotal.WithLabelValues(string(res.FinalSignal)).Inc()
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		Symbol:   symbol,
		At:       bars[len(bars)-1].Timestamp,
		BarCount: len(bars),
		Result:   res,
	})
}

func (d *Deps) handleBacktest(w http.ResponseWriter, r *http.Request) {
	SetCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" || req.Strategy == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "symbol and strategy are required"})
		return
	}

	cfg := backtest.Config{
		InitialCapital: req.InitialCapital,
		Commission:     req.Commission,
	}
	if cfg.InitialCapital == 0 {
		cfg.InitialCapital = d.Defaults.InitialCapital
	}
	if cfg.Commission == 0 {
		cfg.Commission = d.Defaults.Commission
	}

	bars, err := d.Store.LoadBars(r.Context(), symbol, time.Time{}, time.Time{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if len(bars) == 0 {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no bars stored for " + symbol})
		return
	}

	start := time.Now()
	report, err := d.Backtest.Run(bars, req.Strategy, cfg)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if d.Prom != nil {
		d.Prom.BacktestsTotal.Inc()
		d.Prom.BacktestDur.Observe(time.Since(start).Seconds())
	}

	if err := d.Store.SaveReport(r.Context(), symbol, report); err != nil {
		log.Printf("[gateway] save report for %s/%s: %v", symbol, req.Strategy, err)
	}
	writeJSON(w, http.StatusOK, report)
}

func (d *Deps) handleSignals(w http.ResponseWriter, r *http.Request) {
	SetCORS(w)
	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
	if symbol == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "symbol query param is required"})
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	results, err := d.Store.RecentResults(r.Context(), symbol, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (d *Deps) handleLatest(w http.ResponseWriter, r *http.Request) {
	SetCORS(w)
	writeJSON(w, http.StatusOK, d.Hub.LatestAll())
}

// loadBars prefers the Redis cache and falls back to SQLite history.
func (d *Deps) loadBars(r *http.Request, symbol string) ([]model.Bar, error) {
	ctx := r.Context()
	if d.Cache != nil {
		bars, err := d.Cache.Bars(ctx, symbol)
		if err != nil {
			log.Printf("[gateway] redis bars read for %s: %v", symbol, err)
		} else if len(bars) > 0 {
			return bars, nil
		}
	}
	return d.Store.LoadBars(ctx, symbol, time.Time{}, time.Time{})
}
