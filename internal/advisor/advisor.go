// Package advisor turns aggregated analysis results into position
// recommendations and tracks the user's holdings for unrealized P&L.
// It also alerts when a symbol's final signal flips direction.
package advisor

import (
	"context"
	"fmt"
	"log"
	"sync"

	"stock-advisor/internal/model"
	"stock-advisor/internal/notification"
)

// Confidence bands for recommendation strength.
const (
	strongConfidence   = 0.65
	moderateConfidence = 0.40
)

// Holding represents a position in a single symbol.
type Holding struct {
	Symbol    string  `json:"symbol"`
	Shares    float64 `json:"shares"`
	AvgPrice  float64 `json:"avg_price"`
	LastPrice float64 `json:"last_price"`
}

// UnrealizedPnL returns the open profit on this holding.
func (h *Holding) UnrealizedPnL() float64 {
	return (h.LastPrice - h.AvgPrice) * h.Shares
}

// Recommendation is an actionable reading of an aggregated result.
type Recommendation struct {
	Symbol     string           `json:"symbol"`
	Signal     model.SignalKind `json:"signal"`
	Confidence float64          `json:"confidence"`
	Action     string           `json:"action"`
}

// Advisor tracks holdings and the last emitted signal per symbol.
type Advisor struct {
	mu          sync.RWMutex
	holdings    map[string]*Holding
	lastSignals map[string]model.SignalKind
	notifier    notification.Notifier
}

// New creates an Advisor. A nil notifier disables flip alerts.
func New(notifier notification.Notifier) *Advisor {
	return &Advisor{
		holdings:    make(map[string]*Holding),
		lastSignals: make(map[string]model.SignalKind),
		notifier:    notifier,
	}
}

// SetHolding records or replaces a holding.
func (a *Advisor) SetHolding(symbol string, shares, avgPrice float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.holdings[symbol] = &Holding{
		Symbol:    symbol,
		Shares:    shares,
		AvgPrice:  avgPrice,
		LastPrice: avgPrice,
	}
}

// UpdatePrice refreshes the mark price for a holding, if one exists.
func (a *Advisor) UpdatePrice(symbol string, price float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if h, ok := a.holdings[symbol]; ok {
		h.LastPrice = price
	}
}

// Holdings returns a snapshot of all holdings.
func (a *Advisor) Holdings() []Holding {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Holding, 0, len(a.holdings))
	for _, h := range a.holdings {
		out = append(out, *h)
	}
	return out
}

// TotalUnrealizedPnL sums open profit across all holdings.
func (a *Advisor) TotalUnrealizedPnL() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var total float64
	for _, h := range a.holdings {
		total += h.UnrealizedPnL()
	}
	return total
}

// Recommend translates an aggregated result into an action sentence,
// scaled by confidence and by whether the symbol is already held.
func (a *Advisor) Recommend(symbol string, res *model.AggregatedResult) Recommendation {
	a.mu.RLock()
	_, held := a.holdings[symbol]
	a.mu.RUnlock()

	rec := Recommendation{
		Symbol:     symbol,
		Signal:     res.FinalSignal,
		Confidence: res.Confidence,
	}

	switch res.FinalSignal {
	case model.SignalBuy:
		switch {
		case held:
			rec.Action = "already holding; signal supports keeping the position"
		case res.Confidence >= strongConfidence:
			rec.Action = fmt.Sprintf("strong buy consensus (%d strategies agree); consider opening a position", len(res.BuySignals))
		case res.Confidence >= moderateConfidence:
			rec.Action = "moderate buy signal; consider a partial position"
		default:
			rec.Action = "weak buy signal; wait for confirmation"
		}
	case model.SignalSell:
		switch {
		case !held:
			rec.Action = "no position held; nothing to sell"
		case res.Confidence >= strongConfidence:
			rec.Action = fmt.Sprintf("strong sell consensus (%d strategies agree); consider closing the position", len(res.SellSignals))
		case res.Confidence >= moderateConfidence:
			rec.Action = "moderate sell signal; consider reducing the position"
		default:
			rec.Action = "weak sell signal; watch closely"
		}
	default:
		rec.Action = "no clear consensus; hold"
	}
	return rec
}

// Observe records a new result for a symbol, returning the recommendation.
// When the final signal flips direction against the previous one, an alert
// goes out through the notifier.
func (a *Advisor) Observe(ctx context.Context, symbol string, res *model.AggregatedResult) Recommendation {
	rec := a.Recommend(symbol, res)

	a.mu.Lock()
	prev, seen := a.lastSignals[symbol]
	a.lastSignals[symbol] = res.FinalSignal
	a.mu.Unlock()

	flipped := seen && prev != res.FinalSignal && res.FinalSignal != model.SignalHold
	if flipped && a.notifier != nil {
		level := notification.AlertInfo
		if res.FinalSignal == model.SignalSell {
			level = notification.AlertWarning
		}
		alert := notification.Alert{
			Level:      level,
			Symbol:     symbol,
			Signal:     string(res.FinalSignal),
			Confidence: res.Confidence,
			Title:      fmt.Sprintf("%s signal flipped to %s", symbol, res.FinalSignal),
			Message:    fmt.Sprintf("%s (confidence %.0f%%)", rec.Action, res.Confidence*100),
		}
		if err := a.notifier.Send(ctx, alert); err != nil {
			log.Printf("[advisor] alert delivery failed for %s: %v", symbol, err)
		}
	}
	return rec
}
