package recognizer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"chartwatch/internal/domain"
)

// maxTakeProfits bounds how many numbered take_profit_N slots are scanned.
const maxTakeProfits = 5

// ParseReading turns the recognizer's free-form response into a RawReading.
// The external service promises nothing about schema conformance, so parsing
// is defensive: markdown fences are stripped, prices may arrive as numbers or
// as formatted strings, and unknown fields are ignored. A response that
// decodes but reports no prices is a valid, empty reading; only a response
// that cannot be decoded into the slot structure is an error.
func ParseReading(raw string) (domain.RawReading, error) {
	payload := stripFences(raw)
	if strings.TrimSpace(payload) == "" {
		return domain.RawReading{}, fmt.Errorf("empty response")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return domain.RawReading{}, fmt.Errorf("decode: %w", err)
	}

	reading := domain.RawReading{RawText: raw}

	reading.StopLoss = parsePrice(fields["stop_loss"])
	reading.Entry = parsePrice(fields["entry_price"])
	if reading.Entry == nil {
		// Some strategies report the current market price instead of a
		// marked entry; use it as the entry fallback.
		reading.Entry = parsePrice(fields["current_price"])
	}

	// Slots are independent: a null take_profit_1 must not drop the targets
	// the model did report in later slots.
	for i := 1; i <= maxTakeProfits; i++ {
		tp := parsePrice(fields[fmt.Sprintf("take_profit_%d", i)])
		if tp == nil {
			continue
		}
		reading.TakeProfits = append(reading.TakeProfits, *tp)
	}

	reading.Evidence = parseEvidence(fields["evidence"])
	return reading, nil
}

// stripFences removes a surrounding ```json ... ``` (or bare ```) block.
func stripFences(s string) string {
	if idx := strings.Index(s, "```json"); idx >= 0 {
		s = s[idx+len("```json"):]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		return s
	}
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+3:]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
	}
	return s
}

// parsePrice accepts a JSON number, a quoted number with $ and thousands
// separators, or null/absent. Unparseable values are treated as absent.
func parsePrice(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		if num <= 0 {
			return nil
		}
		return &num
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	cleaned := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(s, "$", ""), ",", ""))
	if cleaned == "" || strings.EqualFold(cleaned, "null") {
		return nil
	}
	num, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || num <= 0 {
		return nil
	}
	return &num
}

func parseEvidence(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return []string{single}
	}
	return nil
}
