package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"chartwatch/internal/domain"
)

type Config struct {
	TelegramBotToken string
	DatabaseURL      string
	RedisURL         string
	HTTPPort         int

	OpenAIAPIKey string
	OpenAIModel  string

	MonitorChatIDs []int64
	MonitorAuthors []string

	AcceptConfidence    int
	StrategyTimeoutSecs int
	StrategyOrder       []string
	AssetClassMap       map[string]domain.AssetClass
	PendingSignalSecs   int
	ImageRetentionHours int

	MarketFeedEnabled bool
	MarketFeedURL     string
	MarketFeedSymbols []string

	AnomalyEnabled    bool
	AnomalyThreshold  float64
	AnomalyDampMax    float64
	AnomalyTrees      int
	AnomalySampleSize int
	AnomalyMinSamples int

	SSHReviewEnabled   bool
	SSHReviewBind      string
	SSHReviewPort      int
	SSHReviewHostKey   string
	SSHReviewKeys      []string
	SSHReviewReviewers map[string]string

	MCPTransport          string
	MCPHTTPEnabled        bool
	MCPHTTPBind           string
	MCPHTTPPort           int
	MCPAuthToken          string
	MCPRequestTimeoutSecs int
	MCPRateLimitPerMin    int
}

func Load() *Config {
	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		MCPAuthToken:     os.Getenv("MCP_AUTH_TOKEN"),
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	cfg.HTTPPort = 8080
	if v := strings.TrimSpace(os.Getenv("HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, chart extraction will be disabled")
	}

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o"
	}

	cfg.MonitorChatIDs = parseChatIDs(os.Getenv("MONITOR_CHAT_IDS"))
	if len(cfg.MonitorChatIDs) == 0 {
		log.Println("Warning: MONITOR_CHAT_IDS not set, monitoring all chats the bot can see")
	}
	cfg.MonitorAuthors = parseList(os.Getenv("MONITOR_AUTHORS"))

	cfg.AcceptConfidence = 70
	if v := strings.TrimSpace(os.Getenv("ACCEPT_CONFIDENCE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			cfg.AcceptConfidence = n
		}
	}

	cfg.StrategyTimeoutSecs = 30
	if v := strings.TrimSpace(os.Getenv("STRATEGY_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.StrategyTimeoutSecs = n
		}
	}

	cfg.StrategyOrder = parseList(os.Getenv("STRATEGY_ORDER"))

	cfg.AssetClassMap = parseAssetClassMap(os.Getenv("ASSET_CLASS_MAP"))

	cfg.PendingSignalSecs = 30
	if v := strings.TrimSpace(os.Getenv("PENDING_SIGNAL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PendingSignalSecs = n
		}
	}

	cfg.ImageRetentionHours = 24
	if v := strings.TrimSpace(os.Getenv("IMAGE_RETENTION_HOURS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ImageRetentionHours = n
		}
	}

	cfg.MarketFeedEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("MARKET_FEED_ENABLED")), "true")
	cfg.MarketFeedURL = strings.TrimSpace(os.Getenv("MARKET_FEED_URL"))
	if cfg.MarketFeedURL == "" {
		cfg.MarketFeedURL = "wss://stream.binance.com:9443/ws"
	}
	cfg.MarketFeedSymbols = parseList(os.Getenv("MARKET_FEED_SYMBOLS"))
	if cfg.MarketFeedEnabled && len(cfg.MarketFeedSymbols) == 0 {
		log.Println("Warning: MARKET_FEED_ENABLED but MARKET_FEED_SYMBOLS empty, feed will idle")
	}

	cfg.AnomalyEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("ANOMALY_ENABLED")), "true")

	cfg.AnomalyThreshold = 0.62
	if v := strings.TrimSpace(os.Getenv("ANOMALY_THRESHOLD")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 && n < 1 {
			cfg.AnomalyThreshold = n
		}
	}

	cfg.AnomalyDampMax = 0.5
	if v := strings.TrimSpace(os.Getenv("ANOMALY_DAMP_MAX")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n >= 0 && n <= 1 {
			cfg.AnomalyDampMax = n
		}
	}

	cfg.AnomalyTrees = 100
	if v := strings.TrimSpace(os.Getenv("ANOMALY_TREES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AnomalyTrees = n
		}
	}

	cfg.AnomalySampleSize = 256
	if v := strings.TrimSpace(os.Getenv("ANOMALY_SAMPLE_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AnomalySampleSize = n
		}
	}

	cfg.AnomalyMinSamples = 32
	if v := strings.TrimSpace(os.Getenv("ANOMALY_MIN_SAMPLES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AnomalyMinSamples = n
		}
	}

	cfg.SSHReviewEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("SSH_REVIEW_ENABLED")), "true")

	cfg.SSHReviewBind = strings.TrimSpace(os.Getenv("SSH_REVIEW_BIND"))
	if cfg.SSHReviewBind == "" {
		cfg.SSHReviewBind = "127.0.0.1"
	}

	cfg.SSHReviewPort = 2222
	if v := strings.TrimSpace(os.Getenv("SSH_REVIEW_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SSHReviewPort = n
		}
	}

	cfg.SSHReviewHostKey = strings.TrimSpace(os.Getenv("SSH_REVIEW_HOST_KEY"))
	if cfg.SSHReviewEnabled && cfg.SSHReviewHostKey == "" {
		cfg.SSHReviewHostKey = ".ssh/chartwatch_review"
	}
	cfg.SSHReviewKeys = parseList(os.Getenv("SSH_REVIEW_AUTHORIZED_FINGERPRINTS"))
	cfg.SSHReviewReviewers = parseReviewers(os.Getenv("SSH_REVIEW_REVIEWERS"))

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Printf("Warning: unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}

	cfg.MCPHTTPEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("MCP_HTTP_ENABLED")), "true")

	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}

	cfg.MCPHTTPPort = 8090
	if v := strings.TrimSpace(os.Getenv("MCP_HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPHTTPPort = n
		}
	}

	cfg.MCPRequestTimeoutSecs = 5
	if v := strings.TrimSpace(os.Getenv("MCP_REQUEST_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPRequestTimeoutSecs = n
		}
	}

	cfg.MCPRateLimitPerMin = 60
	if v := strings.TrimSpace(os.Getenv("MCP_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPRateLimitPerMin = n
		}
	}

	return cfg
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseChatIDs(raw string) []int64 {
	parts := parseList(raw)
	out := make([]int64, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Printf("Warning: skipping invalid chat id %q in MONITOR_CHAT_IDS", part)
			continue
		}
		out = append(out, n)
	}
	return out
}

// parseReviewers reads "username:fingerprint" pairs, e.g.
// "alex:SHA256:abc...". Only the first colon separates; the fingerprint keeps
// its own SHA256: prefix.
func parseReviewers(raw string) map[string]string {
	out := make(map[string]string)
	for _, pair := range parseList(raw) {
		username, fingerprint, ok := strings.Cut(pair, ":")
		username = strings.TrimSpace(username)
		fingerprint = strings.TrimSpace(fingerprint)
		if !ok || username == "" || fingerprint == "" {
			log.Printf("Warning: skipping malformed SSH_REVIEW_REVIEWERS entry %q", pair)
			continue
		}
		out[username] = fingerprint
	}
	return out
}

// parseAssetClassMap reads "SYMBOL:class" pairs, e.g.
// "BTCUSDT:crypto,EURUSD:forex". Unknown classes are skipped with a warning;
// symbols are uppercased so lookups are case-insensitive.
func parseAssetClassMap(raw string) map[string]domain.AssetClass {
	out := make(map[string]domain.AssetClass)
	for _, pair := range parseList(raw) {
		sym, class, ok := strings.Cut(pair, ":")
		if !ok {
			log.Printf("Warning: skipping malformed ASSET_CLASS_MAP entry %q", pair)
			continue
		}
		ac := domain.AssetClass(strings.ToLower(strings.TrimSpace(class)))
		if _, known := domain.DefaultProfiles()[ac]; !known {
			log.Printf("Warning: skipping unknown asset class %q for %q", class, sym)
			continue
		}
		out[strings.ToUpper(strings.TrimSpace(sym))] = ac
	}
	return out
}
