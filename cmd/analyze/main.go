// cmd/analyze runs a one-shot analysis over one or more symbols and prints
// each verdict. By default it analyzes history already stored in SQLite;
// with --fetch it pulls fresh daily bars from the provider first
// (credentials required).
//
// Usage:
//
//	go run ./cmd/analyze --symbols=AAPL,MSFT --strategies=ma_cross,rsi
//	go run ./cmd/analyze --symbols=AAPL --fetch --days=400
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"stock-advisor/config"
	"stock-advisor/internal/fetcher"
	"stock-advisor/internal/model"
	"stock-advisor/internal/store/sqlite"
	"stock-advisor/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	symbolsFlag := flag.String("symbols", "", "Comma-separated symbols to analyze (required)")
	strategiesFlag := flag.String("strategies", "", "Comma-separated strategy names (default: all)")
	days := flag.Int("days", 400, "History window in days when fetching")
	dbPath := flag.String("db", "data/advisor.db", "Path to SQLite database")
	fetch := flag.Bool("fetch", false, "Fetch fresh bars from the provider before analyzing")
	flag.Parse()

	symbols := splitList(*symbolsFlag, true)
	if len(symbols) == 0 {
		log.Fatal("[analyze] --symbols is required")
	}
	names := splitList(*strategiesFlag, false)

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("[analyze] sqlite open failed: %v", err)
	}
	defer store.Close()

	reg, err := strategy.NewRegistry(strategy.DefaultParams())
	if err != nil {
		log.Fatalf("[analyze] registry init failed: %v", err)
	}
	engine := strategy.NewEngine(reg)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var client *fetcher.Client
	if *fetch {
		cfg := config.Load()
		client = fetcher.New(fetcher.Config{
			BaseURL:    cfg.ProviderBaseURL,
			APIKey:     cfg.ProviderAPIKey,
			ClientCode: cfg.ProviderClientCode,
			Password:   cfg.ProviderPassword,
			TOTPSecret: cfg.ProviderTOTPSecret,
		})
	}

	failures := 0
	for _, sym := range symbols {
		if err := analyzeOne(ctx, store, client, engine, sym, names, *days); err != nil {
			log.Printf("[analyze] %s: %v", sym, err)
			failures++
		}
	}
	if failures > 0 {
		log.Fatalf("[analyze] %d of %d symbols failed", failures, len(symbols))
	}
}

func analyzeOne(ctx context.Context, store *sqlite.Store, client *fetcher.Client,
	engine *strategy.Engine, sym string, names []string, days int) error {

	if client != nil {
		from := time.Now().AddDate(0, 0, -days)
		bars, err := client.DailyBars(ctx, sym, from, time.Now())
		if err != nil {
			return fmt.Errorf("fetch: %w", err)
		}
		if err := store.SaveBars(ctx, sym, bars); err != nil {
			return fmt.Errorf("save bars: %w", err)
		}
		log.Printf("[analyze] fetched %d bars for %s", len(bars), sym)
	}

	bars, err := store.LoadBars(ctx, sym, time.Time{}, time.Time{})
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}
	if len(bars) == 0 {
		return fmt.Errorf("no bars stored (try --fetch)")
	}

	res, err := engine.Analyze(bars, names)
	if err != nil {
		return err
	}
	printResult(sym, bars, res)
	return nil
}

func printResult(sym string, bars []model.Bar, res *model.AggregatedResult) {
	first := bars[0].Timestamp.Format("2006-01-02")
	last := bars[len(bars)-1].Timestamp.Format("2006-01-02")
	fmt.Println()
	fmt.Printf("Symbol:     %s\n", sym)
	fmt.Printf("Bars:       %d (%s .. %s)\n", len(bars), first, last)
	fmt.Printf("Last close: %.2f\n", bars[len(bars)-1].Close)
	fmt.Printf("Verdict:    %s (confidence %.0f%%)\n", res.FinalSignal, res.Confidence*100)
	fmt.Println()

	names := make([]string, 0, len(res.PerStrategy))
	for name := range res.PerStrategy {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sig := res.PerStrategy[name]
		fmt.Printf("  %-14s %-5s %s\n", name, sig.Kind, sig.Reason)
	}
	fmt.Println()
}

func splitList(s string, upper bool) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if upper {
			p = strings.ToUpper(p)
		}
		out = append(out, p)
	}
	return out
}
