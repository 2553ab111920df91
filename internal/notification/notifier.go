// Package notification delivers signal alerts to external channels
// (Telegram, webhooks, etc.). Alerts carry the symbol, the aggregated
// signal, and its confidence so receivers can route or filter without
// parsing prose.
package notification

import (
	"context"
	"log"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert is one signal event worth pushing to a human.
type Alert struct {
	Level      AlertLevel `json:"level"`
	Symbol     string     `json:"symbol"`
	Signal     string     `json:"signal"`     // BUY / SELL / HOLD
	Confidence float64    `json:"confidence"` // [0,1]
	Title      string     `json:"title"`
	Message    string     `json:"message"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier is a simple notifier that logs alerts (useful for development).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s %s (%.0f%%): %s",
		alert.Level, alert.Symbol, alert.Signal, alert.Confidence*100, alert.Message)
	return nil
}
