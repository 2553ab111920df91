// Package gateway exposes the advisor over REST and WebSocket. The hub
// fans analysis results out to connected WebSocket clients, either pushed
// directly by the in-process advisor loop or received over Redis pub/sub
// when another instance produced them.
package gateway

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"

	"stock-advisor/internal/metrics"
	"stock-advisor/internal/model"
)

// Hub manages WebSocket clients and signal fan-out.
type Hub struct {
	rdb  *goredis.Client
	prom *metrics.Metrics

	mu      sync.RWMutex
	clients map[*Client]bool
	latest  map[string]latestEntry // key = symbol
}

type latestEntry struct {
	Data json.RawMessage
	TS   time.Time
}

// NewHub creates a Hub. rdb may be nil when running without Redis; the hub
// then only carries in-process broadcasts.
func NewHub(rdb *goredis.Client, prom *metrics.Metrics) *Hub {
	return &Hub{
		rdb:     rdb,
		prom:    prom,
		clients: make(map[*Client]bool),
		latest:  make(map[string]latestEntry),
	}
}

// Run subscribes to the signal pub/sub pattern and routes messages to
// connected clients. Blocks until ctx is cancelled. No-op without Redis.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		<-ctx.Done()
		return
	}

	pubsub := h.rdb.PSubscribe(ctx, "pub:signal:*")
	defer pubsub.Close()
	log.Printf("[gateway] subscribed to signal channels")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			symbol := msg.Channel[len("pub:signal:"):]
			h.broadcast(symbol, []byte(msg.Payload))
		}
	}
}

// BroadcastResult pushes a freshly computed result to all clients. Used by
// the in-process advisor loop; remote instances arrive via Run.
func (h *Hub) BroadcastResult(symbol string, res *model.AggregatedResult) {
	data, err := json.Marshal(res)
	if err != nil {
		log.Printf("[gateway] marshal result for %s: %v", symbol, err)
		return
	}
	h.broadcast(symbol, data)
}

func (h *Hub) broadcast(symbol string, data []byte) {
	now := time.Now()
	envelope, err := json.Marshal(map[string]interface{}{
		"symbol": symbol,
		"data":   json.RawMessage(data),
		"ts":     now.Format(time.RFC3339Nano),
	})
	if err != nil {
		return
	}

	h.mu.Lock()
	h.latest[symbol] = latestEntry{Data: data, TS: now}
	for c := range h.clients {
		select {
		case c.send <- envelope:
		default:
			// Slow client: drop the message rather than block the hub.
		}
	}
	h.mu.Unlock()
}

// HandleWSRequest registers a freshly upgraded WebSocket connection.
func (h *Hub) HandleWSRequest(conn *websocket.Conn) {
	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()
	if h.prom != nil {
		h.prom.WSClients.Set(float64(count))
	}

	log.Printf("[gateway] ws client connected (%d total)", count)

	go client.sendInitialState()
	go client.writePump()
	go client.readPump()
}

// RemoveClient removes a client from the hub.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()
	if h.prom != nil {
		h.prom.WSClients.Set(float64(count))
	}
	close(c.send)
}

// LatestAll returns a snapshot of the latest result per symbol.
func (h *Hub) LatestAll() map[string]json.RawMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()
	cp := make(map[string]json.RawMessage, len(h.latest))
	for k, v := range h.latest {
		cp[k] = v.Data
	}
	return cp
}
