package provider

import (
	"testing"
	"time"
)

func TestApplyUpdatesLastPrice(t *testing.T) {
	feed := NewMarketFeed("wss://example", []string{"btcusdt"})
	feed.apply([]byte(`{"e":"24hrMiniTicker","s":"BTCUSDT","c":"64230.50"}`))

	price, ok := feed.LastPrice("btcusdt")
	if !ok || price != 64230.50 {
		t.Fatalf("expected 64230.50, got %v ok=%v", price, ok)
	}
}

func TestApplyUnwrapsCombinedStreamEnvelope(t *testing.T) {
	feed := NewMarketFeed("wss://example", []string{"ethusdt"})
	feed.apply([]byte(`{"stream":"ethusdt@miniTicker","data":{"e":"24hrMiniTicker","s":"ETHUSDT","c":"3100.25"}}`))

	price, ok := feed.LastPrice("ETHUSDT")
	if !ok || price != 3100.25 {
		t.Fatalf("expected 3100.25, got %v ok=%v", price, ok)
	}
}

func TestApplyIgnoresNonTickerFrames(t *testing.T) {
	feed := NewMarketFeed("wss://example", []string{"btcusdt"})
	feed.apply([]byte(`{"result":null,"id":1}`))
	feed.apply([]byte(`{"e":"trade","s":"BTCUSDT","c":"100"}`))
	feed.apply([]byte(`{"e":"24hrMiniTicker","s":"BTCUSDT","c":"not-a-number"}`))
	feed.apply([]byte(`{"e":"24hrMiniTicker","s":"BTCUSDT","c":"-5"}`))
	feed.apply([]byte(`not json`))

	if _, ok := feed.LastPrice("BTCUSDT"); ok {
		t.Fatal("expected no price from ignored frames")
	}
}

func TestLastPriceExpires(t *testing.T) {
	feed := NewMarketFeed("wss://example", []string{"btcusdt"})
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	feed.now = func() time.Time { return current }

	feed.apply([]byte(`{"e":"24hrMiniTicker","s":"BTCUSDT","c":"100"}`))
	if _, ok := feed.LastPrice("BTCUSDT"); !ok {
		t.Fatal("expected fresh price")
	}

	current = current.Add(priceTTL + time.Second)
	if _, ok := feed.LastPrice("BTCUSDT"); ok {
		t.Fatal("expected stale price to be dropped")
	}
}

func TestSnapshotOmitsStaleEntries(t *testing.T) {
	feed := NewMarketFeed("wss://example", []string{"btcusdt", "ethusdt"})
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	feed.now = func() time.Time { return current }

	feed.apply([]byte(`{"e":"24hrMiniTicker","s":"BTCUSDT","c":"100"}`))
	current = current.Add(priceTTL + time.Second)
	feed.apply([]byte(`{"e":"24hrMiniTicker","s":"ETHUSDT","c":"3100.25"}`))

	snap := feed.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected 1 fresh price, got %d", len(snap))
	}
	if snap["ETHUSDT"] != 3100.25 {
		t.Fatalf("expected ETHUSDT 3100.25, got %v", snap["ETHUSDT"])
	}
}

func TestStreamNames(t *testing.T) {
	feed := NewMarketFeed("wss://example", []string{" BTCUSDT ", "ethusdt"})
	names := feed.streamNames()
	if len(names) != 2 || names[0] != "btcusdt@miniTicker" || names[1] != "ethusdt@miniTicker" {
		t.Fatalf("unexpected stream names: %+v", names)
	}
}
