// Package provider streams live market prices used for the entry-vs-market
// proximity check. Prices are advisory input only; the feed being down must
// never block extraction.
package provider

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	reconnectDelay = 5 * time.Second
	readTimeout    = 90 * time.Second
	priceTTL       = 5 * time.Minute
)

type tickerEvent struct {
	EventType string `json:"e"`
	Symbol    string `json:"s"`
	Close     string `json:"c"`
}

// combinedEvent is the envelope Binance uses on combined streams.
type combinedEvent struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

type subscribeRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int      `json:"id"`
}

// MarketFeed maintains a websocket subscription to miniTicker streams and
// caches the last seen price per symbol. It reconnects forever until its
// context is cancelled.
type MarketFeed struct {
	url     string
	symbols []string
	now     func() time.Time

	mu      sync.RWMutex
	prices  map[string]float64
	updated map[string]time.Time
}

func NewMarketFeed(url string, symbols []string) *MarketFeed {
	return &MarketFeed{
		url:     url,
		symbols: symbols,
		now:     time.Now,
		prices:  make(map[string]float64),
		updated: make(map[string]time.Time),
	}
}

// LastPrice returns the most recent price for symbol, if fresh enough.
// Symbols are matched case-insensitively.
func (f *MarketFeed) LastPrice(symbol string) (float64, bool) {
	key := strings.ToUpper(strings.TrimSpace(symbol))
	f.mu.RLock()
	defer f.mu.RUnlock()
	price, ok := f.prices[key]
	if !ok {
		return 0, false
	}
	if f.now().Sub(f.updated[key]) > priceTTL {
		return 0, false
	}
	return price, true
}

// Snapshot returns every symbol with a fresh price. Stale entries are
// omitted rather than aged out, so the map always reflects priceTTL.
func (f *MarketFeed) Snapshot() map[string]float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]float64, len(f.prices))
	now := f.now()
	for key, price := range f.prices {
		if now.Sub(f.updated[key]) > priceTTL {
			continue
		}
		out[key] = price
	}
	return out
}

// Run dials the stream and consumes ticker events until ctx is cancelled.
// Intended to run as a goroutine from main.
func (f *MarketFeed) Run(ctx context.Context) {
	if len(f.symbols) == 0 {
		log.Println("market feed: no symbols configured, feed idle")
		<-ctx.Done()
		return
	}

	for {
		if ctx.Err() != nil {
			return
		}
		if err := f.consume(ctx); err != nil && ctx.Err() == nil {
			log.Printf("market feed: connection lost: %v, reconnecting in %s", err, reconnectDelay)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (f *MarketFeed) consume(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Close the connection when ctx ends so the blocked read returns.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	if err := conn.WriteJSON(subscribeRequest{
		Method: "SUBSCRIBE",
		Params: f.streamNames(),
		ID:     1,
	}); err != nil {
		return err
	}
	log.Printf("market feed: subscribed to %d streams", len(f.symbols))

	for {
		conn.SetReadDeadline(f.now().Add(readTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		f.apply(message)
	}
}

func (f *MarketFeed) streamNames() []string {
	out := make([]string, 0, len(f.symbols))
	for _, sym := range f.symbols {
		out = append(out, strings.ToLower(strings.TrimSpace(sym))+"@miniTicker")
	}
	return out
}

// apply updates the cache from one stream message. Non-ticker frames
// (subscribe acks, envelopes without data) are ignored.
func (f *MarketFeed) apply(message []byte) {
	payload := message
	var env combinedEvent
	if err := json.Unmarshal(message, &env); err == nil && len(env.Data) > 0 {
		payload = env.Data
	}

	var event tickerEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return
	}
	if event.EventType != "24hrMiniTicker" || event.Symbol == "" {
		return
	}
	price, err := strconv.ParseFloat(event.Close, 64)
	if err != nil || price <= 0 {
		return
	}

	key := strings.ToUpper(event.Symbol)
	f.mu.Lock()
	f.prices[key] = price
	f.updated[key] = f.now()
	f.mu.Unlock()
}
