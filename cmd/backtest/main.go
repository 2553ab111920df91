// cmd/backtest replays stored daily bars through a single strategy and
// prints the resulting performance report.
//
// Usage:
//
//	go run ./cmd/backtest --symbol=AAPL --strategy=ma_cross --capital=100000
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"stock-advisor/internal/backtest"
	"stock-advisor/internal/model"
	"stock-advisor/internal/store/sqlite"
	"stock-advisor/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	symbol := flag.String("symbol", "", "Symbol to replay (required)")
	strategyName := flag.String("strategy", "ma_cross", "Strategy to evaluate")
	capital := flag.Float64("capital", 100000, "Initial capital")
	commission := flag.Float64("commission", 0, "Commission rate per fill (e.g. 0.001)")
	dbPath := flag.String("db", "data/advisor.db", "Path to SQLite database")
	showTrades := flag.Bool("trades", false, "Print every fill")
	flag.Parse()

	if *symbol == "" {
		log.Fatal("[backtest] --symbol is required")
	}
	sym := strings.ToUpper(strings.TrimSpace(*symbol))

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("[backtest] sqlite open failed: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	bars, err := store.LoadBars(ctx, sym, time.Time{}, time.Time{})
	if err != nil {
		log.Fatalf("[backtest] load bars failed: %v", err)
	}
	if len(bars) == 0 {
		log.Fatalf("[backtest] no bars stored for %s", sym)
	}

	reg, err := strategy.NewRegistry(strategy.DefaultParams())
	if err != nil {
		log.Fatalf("[backtest] registry init failed: %v", err)
	}
	report, err := backtest.New(reg).Run(bars, *strategyName, backtest.Config{
		InitialCapital: *capital,
		Commission:     *commission,
	})
	if err != nil {
		log.Fatalf("[backtest] run failed: %v", err)
	}

	if err := store.SaveReport(ctx, sym, report); err != nil {
		log.Printf("[backtest] WARNING: save report failed: %v", err)
	}

	if *showTrades {
		fmt.Println()
		for _, tr := range report.Trades {
			if tr.Side == model.SignalSell {
				fmt.Printf("  %s  %-4s %10.2f x %-12.4f pnl %+.2f\n",
					tr.Timestamp.Format("2006-01-02"), tr.Side, tr.Price, tr.Shares, tr.PnL)
			} else {
				fmt.Printf("  %s  %-4s %10.2f x %-12.4f\n",
					tr.Timestamp.Format("2006-01-02"), tr.Side, tr.Price, tr.Shares)
			}
		}
	}

	first := bars[0].Timestamp.Format("2006-01-02")
	last := bars[len(bars)-1].Timestamp.Format("2006-01-02")
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════╗")
	fmt.Println("║        BACKTEST COMPLETE             ║")
	fmt.Println("╠══════════════════════════════════════╣")
	fmt.Printf("║  Symbol:          %-18s ║\n", sym)
	fmt.Printf("║  Strategy:        %-18s ║\n", report.Strategy)
	fmt.Printf("║  Bars:            %-18d ║\n", len(bars))
	fmt.Printf("║  Period:  %s .. %s     ║\n", first, last)
	fmt.Printf("║  Final equity:    %-18.2f ║\n", report.FinalEquity)
	fmt.Printf("║  Total return:    %-17.2f%% ║\n", report.TotalReturnPct)
	fmt.Printf("║  Max drawdown:    %-17.2f%% ║\n", report.MaxDrawdownPct)
	fmt.Printf("║  Round trips:     %-18d ║\n", report.TradeCount)
	fmt.Printf("║  Win rate:        %-17.1f%% ║\n", report.WinRate*100)
	fmt.Println("╚══════════════════════════════════════╝")
	if report.OpenPosition != nil {
		fmt.Printf("  open position: %.4f shares from %.2f (%s)\n",
			report.OpenPosition.Shares, report.OpenPosition.EntryPrice,
			report.OpenPosition.EntryTime.Format("2006-01-02"))
	}
}
