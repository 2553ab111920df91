// Package fetcher pulls historical bars from the market data provider's
// REST API. Sessions are authenticated with a TOTP-based login and calls go
// through a circuit breaker so a flapping upstream does not get hammered.
package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"stock-advisor/internal/model"

	"github.com/pquerna/otp/totp"
)

const (
	defaultTimeout = 7 * time.Second
	candleEndpoint = "/rest/secure/historical/v1/getCandleData"
	loginEndpoint  = "/rest/auth/user/v1/loginByPassword"
)

// Config holds provider connection settings and credentials.
type Config struct {
	BaseURL    string
	APIKey     string
	ClientCode string
	Password   string
	TOTPSecret string
	Timeout    time.Duration // zero means defaultTimeout
}

// Client is an authenticated provider API client. Safe for concurrent use;
// the session token is refreshed on demand behind a mutex.
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *CircuitBreaker

	mu          sync.Mutex
	accessToken string
}

// New creates a provider client. No network calls are made until the first
// request.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    NewCircuitBreaker(5, 10*time.Second),
	}
}

// Breaker exposes the circuit breaker for state-change callbacks.
func (c *Client) Breaker() *CircuitBreaker { return c.breaker }

type loginResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		JWTToken string `json:"jwtToken"`
	} `json:"data"`
}

// Login generates a fresh TOTP code and opens a session. Called
// automatically when a request finds no session or an expired one.
func (c *Client) Login(ctx context.Context) error {
	code, err := totp.GenerateCode(c.cfg.TOTPSecret, time.Now())
	if err != nil {
		return fmt.Errorf("totp generate: %w", err)
	}

	body, _ := json.Marshal(map[string]string{
		"clientcode": c.cfg.ClientCode,
		"password":   c.cfg.Password,
		"totp":       code,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+loginEndpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.setHeaders(req, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("login decode: %w", err)
	}
	if !lr.Status || lr.Data.JWTToken == "" {
		return fmt.Errorf("login failed: %s", lr.Message)
	}

	c.mu.Lock()
	c.accessToken = lr.Data.JWTToken
	c.mu.Unlock()
	log.Printf("[fetcher] session established for %s", c.cfg.ClientCode)
	return nil
}

func (c *Client) setHeaders(req *http.Request, token string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-PrivateKey", c.cfg.APIKey)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	tok := c.accessToken
	c.mu.Unlock()
	if tok != "" {
		return tok, nil
	}
	if err := c.Login(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	tok = c.accessToken
	c.mu.Unlock()
	return tok, nil
}

type candleResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    [][]json.Number `json:"data"`
}

// DailyBars fetches daily OHLCV bars for a symbol in [from, to], oldest
// first. The provider returns rows of [unix_ts, open, high, low, close,
// volume].
func (c *Client) DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]model.Bar, error) {
	var bars []model.Bar
	err := c.breaker.Execute(func() error {
		var err error
		bars, err = c.fetchDaily(ctx, symbol, from, to)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bars, nil
}

func (c *Client) fetchDaily(ctx context.Context, symbol string, from, to time.Time) ([]model.Bar, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	body, _ := json.Marshal(map[string]string{
		"symbol":   symbol,
		"interval": "ONE_DAY",
		"fromdate": from.UTC().Format("2006-01-02 15:04"),
		"todate":   to.UTC().Format("2006-01-02 15:04"),
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+candleEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, tok)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("candle request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		// Session expired. Re-login once and retry.
		io.Copy(io.Discard, resp.Body)
		log.Printf("[fetcher] session expired (%d), re-authenticating", resp.StatusCode)
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
		return c.retryDaily(ctx, body)
	}

	return decodeCandles(resp.Body)
}

func (c *Client) retryDaily(ctx context.Context, body []byte) ([]model.Bar, error) {
	c.mu.Lock()
	tok := c.accessToken
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+candleEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, tok)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("candle retry: %w", err)
	}
	defer resp.Body.Close()
	return decodeCandles(resp.Body)
}

func decodeCandles(r io.Reader) ([]model.Bar, error) {
	var cr candleResponse
	if err := json.NewDecoder(r).Decode(&cr); err != nil {
		return nil, fmt.Errorf("candle decode: %w", err)
	}
	if !cr.Status {
		return nil, fmt.Errorf("provider error: %s", cr.Message)
	}

	bars := make([]model.Bar, 0, len(cr.Data))
	for i, row := range cr.Data {
		if len(row) < 6 {
			return nil, fmt.Errorf("candle row %d: want 6 fields, got %d", i, len(row))
		}
		ts, err := row[0].Int64()
		if err != nil {
			return nil, fmt.Errorf("candle row %d timestamp: %w", i, err)
		}
		vals := make([]float64, 5)
		for f := 1; f < 6; f++ {
			v, err := row[f].Float64()
			if err != nil {
				return nil, fmt.Errorf("candle row %d field %d: %w", i, f, err)
			}
			vals[f-1] = v
		}
		bars = append(bars, model.Bar{
			Timestamp: time.Unix(ts, 0).UTC(),
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
		})
	}
	if err := model.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("provider bars: %w", err)
	}
	return bars, nil
}
