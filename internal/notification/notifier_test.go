package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func sellAlert() Alert {
	return Alert{
		Level:      AlertWarning,
		Symbol:     "AAPL",
		Signal:     "SELL",
		Confidence: 0.75,
		Title:      "AAPL signal flipped to SELL",
		Message:    "strong sell consensus; consider closing the position (confidence 75%)",
	}
}

func TestWebhookNotifierPayload(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	if err := n.Send(context.Background(), sellAlert()); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if got.Symbol != "AAPL" || got.Signal != "SELL" {
		t.Errorf("payload symbol/signal = %s/%s", got.Symbol, got.Signal)
	}
	if got.Confidence != 0.75 {
		t.Errorf("payload confidence = %v, want 0.75", got.Confidence)
	}
	if got.Level != AlertWarning {
		t.Errorf("payload level = %s, want WARNING", got.Level)
	}
	if got.TS == "" {
		t.Error("payload is missing the send timestamp")
	}
}

func TestWebhookNotifierRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	if err := n.Send(context.Background(), sellAlert()); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}

func TestTelegramNotifierRequest(t *testing.T) {
	var path string
	var body struct {
		ChatID    string `json:"chat_id"`
		Text      string `json:"text"`
		ParseMode string `json:"parse_mode"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("bot-token", "chat-42")
	n.apiBase = srv.URL
	if err := n.Send(context.Background(), sellAlert()); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if path != "/botbot-token/sendMessage" {
		t.Errorf("path = %q", path)
	}
	if body.ChatID != "chat-42" || body.ParseMode != "MarkdownV2" {
		t.Errorf("chat_id/parse_mode = %s/%s", body.ChatID, body.ParseMode)
	}
	if !strings.Contains(body.Text, "AAPL SELL") || !strings.Contains(body.Text, "75") {
		t.Errorf("text = %q, want symbol, signal and confidence", body.Text)
	}
}

func TestFormatTelegramTextEscapesMarkdown(t *testing.T) {
	text := formatTelegramText(Alert{
		Symbol:     "BRK.B",
		Signal:     "BUY",
		Confidence: 0.6,
		Message:    "moderate buy signal; consider a partial position",
	})
	if !strings.HasPrefix(text, "📈") {
		t.Errorf("BUY text should lead with the up emoji, got %q", text)
	}
	if !strings.Contains(text, `BRK\.B`) {
		t.Errorf("dot in symbol should be escaped for MarkdownV2, got %q", text)
	}
}
