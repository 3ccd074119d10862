package config

import (
	"reflect"
	"testing"

	"chartwatch/internal/domain"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TELEGRAM_BOT_TOKEN", "DATABASE_URL", "REDIS_URL", "HTTP_PORT",
		"OPENAI_API_KEY", "OPENAI_MODEL",
		"MONITOR_CHAT_IDS", "MONITOR_AUTHORS",
		"ACCEPT_CONFIDENCE", "STRATEGY_TIMEOUT_SECS", "STRATEGY_ORDER",
		"ASSET_CLASS_MAP", "PENDING_SIGNAL_SECS", "IMAGE_RETENTION_HOURS",
		"MARKET_FEED_ENABLED", "MARKET_FEED_URL", "MARKET_FEED_SYMBOLS",
		"ANOMALY_ENABLED", "ANOMALY_THRESHOLD", "ANOMALY_DAMP_MAX",
		"ANOMALY_TREES", "ANOMALY_SAMPLE_SIZE", "ANOMALY_MIN_SAMPLES",
		"SSH_REVIEW_ENABLED", "SSH_REVIEW_BIND", "SSH_REVIEW_PORT",
		"SSH_REVIEW_HOST_KEY", "SSH_REVIEW_AUTHORIZED_FINGERPRINTS",
		"SSH_REVIEW_REVIEWERS",
		"MCP_TRANSPORT", "MCP_HTTP_ENABLED", "MCP_HTTP_BIND", "MCP_HTTP_PORT",
		"MCP_AUTH_TOKEN", "MCP_REQUEST_TIMEOUT_SECS", "MCP_RATE_LIMIT_PER_MIN",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	if cfg.RedisURL != "localhost:6379" {
		t.Fatalf("expected default redis url, got %s", cfg.RedisURL)
	}
	if cfg.HTTPPort != 8080 {
		t.Fatalf("expected default http port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.OpenAIModel != "gpt-4o" {
		t.Fatalf("expected default model gpt-4o, got %s", cfg.OpenAIModel)
	}
	if cfg.AcceptConfidence != 70 || cfg.StrategyTimeoutSecs != 30 {
		t.Fatalf("unexpected extraction defaults: conf=%d timeout=%d", cfg.AcceptConfidence, cfg.StrategyTimeoutSecs)
	}
	if len(cfg.StrategyOrder) != 0 {
		t.Fatalf("expected empty strategy order, got %+v", cfg.StrategyOrder)
	}
	if cfg.PendingSignalSecs != 30 || cfg.ImageRetentionHours != 24 {
		t.Fatalf("unexpected monitor defaults: pending=%d retention=%d", cfg.PendingSignalSecs, cfg.ImageRetentionHours)
	}
	if cfg.MarketFeedEnabled || cfg.MarketFeedURL != "wss://stream.binance.com:9443/ws" {
		t.Fatalf("unexpected market feed defaults: %+v", cfg)
	}
	if cfg.AnomalyEnabled || cfg.AnomalyThreshold != 0.62 || cfg.AnomalyDampMax != 0.5 {
		t.Fatalf("unexpected anomaly defaults: %+v", cfg)
	}
	if cfg.AnomalyTrees != 100 || cfg.AnomalySampleSize != 256 || cfg.AnomalyMinSamples != 32 {
		t.Fatalf("unexpected anomaly forest defaults: %+v", cfg)
	}
	if cfg.SSHReviewEnabled || cfg.SSHReviewBind != "127.0.0.1" || cfg.SSHReviewPort != 2222 {
		t.Fatalf("unexpected ssh review defaults: %+v", cfg)
	}
	if cfg.MCPTransport != "stdio" {
		t.Fatalf("expected default MCP transport stdio, got %s", cfg.MCPTransport)
	}
	if cfg.MCPHTTPBind != "127.0.0.1" || cfg.MCPHTTPPort != 8090 {
		t.Fatalf("unexpected MCP http defaults: %s:%d", cfg.MCPHTTPBind, cfg.MCPHTTPPort)
	}
	if cfg.MCPRequestTimeoutSecs != 5 || cfg.MCPRateLimitPerMin != 60 {
		t.Fatalf("unexpected MCP defaults: timeout=%d rate=%d", cfg.MCPRequestTimeoutSecs, cfg.MCPRateLimitPerMin)
	}
}

func TestLoadWithEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis:6379")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")
	t.Setenv("MONITOR_CHAT_IDS", "-100123, 456, bad")
	t.Setenv("MONITOR_AUTHORS", "neil, trader2")
	t.Setenv("ACCEPT_CONFIDENCE", "80")
	t.Setenv("STRATEGY_TIMEOUT_SECS", "10")
	t.Setenv("STRATEGY_ORDER", "line_focused, comprehensive")
	t.Setenv("ASSET_CLASS_MAP", "btcusdt:crypto, EURUSD:forex, AAPL:bogus, broken")
	t.Setenv("PENDING_SIGNAL_SECS", "45")
	t.Setenv("IMAGE_RETENTION_HOURS", "48")
	t.Setenv("MARKET_FEED_ENABLED", "true")
	t.Setenv("MARKET_FEED_SYMBOLS", "btcusdt,ethusdt")
	t.Setenv("ANOMALY_ENABLED", "true")
	t.Setenv("ANOMALY_THRESHOLD", "0.70")
	t.Setenv("ANOMALY_DAMP_MAX", "0.30")
	t.Setenv("ANOMALY_TREES", "111")
	t.Setenv("ANOMALY_SAMPLE_SIZE", "333")
	t.Setenv("ANOMALY_MIN_SAMPLES", "64")
	t.Setenv("SSH_REVIEW_ENABLED", "true")
	t.Setenv("SSH_REVIEW_PORT", "2022")
	t.Setenv("SSH_REVIEW_AUTHORIZED_FINGERPRINTS", "SHA256:abc, SHA256:def")
	t.Setenv("SSH_REVIEW_REVIEWERS", "alex:SHA256:rev1, sam:SHA256:rev2, broken")
	t.Setenv("MCP_TRANSPORT", "http")
	t.Setenv("MCP_HTTP_ENABLED", "true")
	t.Setenv("MCP_HTTP_BIND", "0.0.0.0")
	t.Setenv("MCP_HTTP_PORT", "9191")
	t.Setenv("MCP_AUTH_TOKEN", "secret")
	t.Setenv("MCP_REQUEST_TIMEOUT_SECS", "9")
	t.Setenv("MCP_RATE_LIMIT_PER_MIN", "75")

	cfg := Load()
	if cfg.TelegramBotToken != "token" || cfg.DatabaseURL != "postgres://example" || cfg.RedisURL != "redis:6379" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.HTTPPort != 9090 || cfg.OpenAIAPIKey != "sk-test" || cfg.OpenAIModel != "gpt-4o-mini" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.MonitorChatIDs, []int64{-100123, 456}) {
		t.Fatalf("unexpected chat ids: %+v", cfg.MonitorChatIDs)
	}
	if !reflect.DeepEqual(cfg.MonitorAuthors, []string{"neil", "trader2"}) {
		t.Fatalf("unexpected authors: %+v", cfg.MonitorAuthors)
	}
	if cfg.AcceptConfidence != 80 || cfg.StrategyTimeoutSecs != 10 {
		t.Fatalf("unexpected extraction config: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.StrategyOrder, []string{"line_focused", "comprehensive"}) {
		t.Fatalf("unexpected strategy order: %+v", cfg.StrategyOrder)
	}
	wantClasses := map[string]domain.AssetClass{
		"BTCUSDT": domain.AssetCrypto,
		"EURUSD":  domain.AssetForex,
	}
	if !reflect.DeepEqual(cfg.AssetClassMap, wantClasses) {
		t.Fatalf("unexpected asset class map: %+v", cfg.AssetClassMap)
	}
	if cfg.PendingSignalSecs != 45 || cfg.ImageRetentionHours != 48 {
		t.Fatalf("unexpected monitor config: %+v", cfg)
	}
	if !cfg.MarketFeedEnabled || !reflect.DeepEqual(cfg.MarketFeedSymbols, []string{"btcusdt", "ethusdt"}) {
		t.Fatalf("unexpected market feed config: %+v", cfg)
	}
	if !cfg.AnomalyEnabled || cfg.AnomalyThreshold != 0.70 || cfg.AnomalyDampMax != 0.30 {
		t.Fatalf("unexpected anomaly config: %+v", cfg)
	}
	if cfg.AnomalyTrees != 111 || cfg.AnomalySampleSize != 333 || cfg.AnomalyMinSamples != 64 {
		t.Fatalf("unexpected anomaly forest config: %+v", cfg)
	}
	if !cfg.SSHReviewEnabled || cfg.SSHReviewPort != 2022 || cfg.SSHReviewHostKey == "" {
		t.Fatalf("unexpected ssh review config: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.SSHReviewKeys, []string{"SHA256:abc", "SHA256:def"}) {
		t.Fatalf("unexpected ssh fingerprints: %+v", cfg.SSHReviewKeys)
	}
	wantReviewers := map[string]string{"alex": "SHA256:rev1", "sam": "SHA256:rev2"}
	if !reflect.DeepEqual(cfg.SSHReviewReviewers, wantReviewers) {
		t.Fatalf("unexpected ssh reviewers: %+v", cfg.SSHReviewReviewers)
	}
	if cfg.MCPTransport != "http" || !cfg.MCPHTTPEnabled || cfg.MCPHTTPBind != "0.0.0.0" || cfg.MCPHTTPPort != 9191 || cfg.MCPAuthToken != "secret" {
		t.Fatalf("unexpected MCP config: %+v", cfg)
	}
	if cfg.MCPRequestTimeoutSecs != 9 || cfg.MCPRateLimitPerMin != 75 {
		t.Fatalf("unexpected MCP timeout/rate: %+v", cfg)
	}

	t.Setenv("HTTP_PORT", "bad")
	t.Setenv("ACCEPT_CONFIDENCE", "250")
	t.Setenv("STRATEGY_TIMEOUT_SECS", "bad")
	t.Setenv("PENDING_SIGNAL_SECS", "bad")
	t.Setenv("IMAGE_RETENTION_HOURS", "-1")
	t.Setenv("ANOMALY_THRESHOLD", "bad")
	t.Setenv("ANOMALY_DAMP_MAX", "2")
	t.Setenv("ANOMALY_TREES", "bad")
	t.Setenv("MCP_HTTP_PORT", "bad")
	t.Setenv("MCP_REQUEST_TIMEOUT_SECS", "bad")
	t.Setenv("MCP_RATE_LIMIT_PER_MIN", "bad")
	t.Setenv("MCP_TRANSPORT", "carrier-pigeon")
	cfg = Load()
	if cfg.HTTPPort != 8080 || cfg.AcceptConfidence != 70 || cfg.StrategyTimeoutSecs != 30 {
		t.Fatalf("invalid numeric values should fall back to defaults: %+v", cfg)
	}
	if cfg.PendingSignalSecs != 30 || cfg.ImageRetentionHours != 24 {
		t.Fatalf("invalid monitor values should fall back to defaults: %+v", cfg)
	}
	if cfg.AnomalyThreshold != 0.62 || cfg.AnomalyDampMax != 0.5 || cfg.AnomalyTrees != 100 {
		t.Fatalf("invalid anomaly values should fall back to defaults: %+v", cfg)
	}
	if cfg.MCPHTTPPort != 8090 || cfg.MCPRequestTimeoutSecs != 5 || cfg.MCPRateLimitPerMin != 60 {
		t.Fatalf("invalid MCP numeric values should fall back to defaults: %+v", cfg)
	}
	if cfg.MCPTransport != "stdio" {
		t.Fatalf("unsupported transport should fall back to stdio, got %s", cfg.MCPTransport)
	}
}
