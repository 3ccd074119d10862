package bot

import (
	"regexp"
	"strings"
	"time"

	"chartwatch/internal/domain"
)

// Detection patterns for trade calls as traders actually phrase them,
// including past tense. The first capture group is always the ticker.
var longPatterns = compilePatterns([]string{
	`going\s+longs?\s+(?:on\s+)?(\$?[A-Z]{2,10})`,
	`taking\s+(?:a|an)\s+(\$?[A-Z]{2,10})\s+long`,
	`(?:^|\s)long(?:ing)?\s+(\$?[A-Z]{2,10})`,
	`(\$?[A-Z]{2,10})\s+long`,
	`longed\s+(?:on\s+)?(\$?[A-Z]{2,10})`,
	`went\s+longs?\s+(?:on\s+)?(\$?[A-Z]{2,10})`,
	`entered\s+(?:a\s+)?long\s+(?:on\s+)?(\$?[A-Z]{2,10})`,
	`entered\s+(\$?[A-Z]{2,10})\s+long`,
	`market\s+long(?:ing|ed)?\s+(?:on\s+)?(\$?[A-Z]{2,10})`,
	`long(?:ed|ing)?\s+(\$?[A-Z]{2,10})\s+here`,
	`(\$?[A-Z]{2,10})\s+long\s+here`,
})

var shortPatterns = compilePatterns([]string{
	`going\s+shorts?\s+(?:on\s+)?(\$?[A-Z]{2,10})`,
	`taking\s+(?:a|an)\s+(\$?[A-Z]{2,10})\s+short`,
	`(?:^|\s)short(?:ing)?\s+(\$?[A-Z]{2,10})`,
	`(\$?[A-Z]{2,10})\s+short`,
	`shorted\s+(?:on\s+)?(\$?[A-Z]{2,10})`,
	`went\s+shorts?\s+(?:on\s+)?(\$?[A-Z]{2,10})`,
	`entered\s+(?:a\s+)?short\s+(?:on\s+)?(\$?[A-Z]{2,10})`,
	`entered\s+(\$?[A-Z]{2,10})\s+short`,
	`market\s+short(?:ing|ed)?\s+(?:on\s+)?(\$?[A-Z]{2,10})`,
	`short(?:ed|ing)?\s+(\$?[A-Z]{2,10})\s+here`,
	`(\$?[A-Z]{2,10})\s+short\s+here`,
})

var cmpPattern = regexp.MustCompile(`(?i)\bat\s+cmp\b`)

// tickerStopwords are words the loose patterns would otherwise read as a
// ticker ("long term", "short squeeze", "went long on"). Skipping them lets
// a stricter pattern further down the list claim the real symbol.
var tickerStopwords = map[string]struct{}{
	"TERM": {}, "TIME": {}, "RUN": {}, "THE": {}, "THIS": {}, "THAT": {},
	"SQUEEZE": {}, "POSITION": {}, "SIDE": {}, "BIAS": {}, "GAME": {}, "HAUL": {},
	"ON": {}, "HERE": {}, "WENT": {}, "MARKET": {}, "GOING": {}, "JUST": {},
}

func compilePatterns(raw []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(raw))
	for _, p := range raw {
		out = append(out, regexp.MustCompile(`(?i)`+p))
	}
	return out
}

// DetectSignal scans one message for a trade call. It returns nil when the
// message contains no recognizable signal.
func DetectSignal(text string) *domain.DetectedSignal {
	if ticker, ok := matchTicker(longPatterns, text); ok {
		return buildDetected(text, domain.DirectionLong, ticker)
	}
	if ticker, ok := matchTicker(shortPatterns, text); ok {
		return buildDetected(text, domain.DirectionShort, ticker)
	}
	return nil
}

func matchTicker(patterns []*regexp.Regexp, text string) (string, bool) {
	for _, pattern := range patterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		ticker := cleanTicker(match[1])
		if _, stop := tickerStopwords[ticker]; stop {
			continue
		}
		return ticker, true
	}
	return "", false
}

func cleanTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(ticker, "$", "")))
}

func buildDetected(text string, direction domain.Direction, ticker string) *domain.DetectedSignal {
	entryType := domain.EntryTypeMarket
	if cmpPattern.MatchString(text) {
		entryType = domain.EntryTypeCMP
	}
	return &domain.DetectedSignal{
		Ticker:     ticker,
		Direction:  direction,
		EntryType:  entryType,
		RawMessage: text,
		DetectedAt: time.Now().UTC(),
	}
}
