package domain

import "time"

// Direction is the declared side of a trade signal.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

func (d Direction) IsValid() bool {
	return d == DirectionLong || d == DirectionShort
}

// AssetClass groups symbols that share numeric validation tolerances.
type AssetClass string

const (
	AssetCrypto  AssetClass = "crypto"
	AssetForex   AssetClass = "forex"
	AssetStocks  AssetClass = "stocks"
	AssetFutures AssetClass = "futures"
)

// AssetClassProfile holds the per-class tolerances used by validation and
// confidence scoring. Range percentages are relative to the entry price.
type AssetClassProfile struct {
	Class             AssetClass
	MaxRangePct       float64
	MinRangePct       float64
	TypicalRiskReward float64
}

// DefaultProfiles returns the built-in tolerance table. The returned map is
// freshly allocated; callers may adjust their copy.
func DefaultProfiles() map[AssetClass]AssetClassProfile {
	return map[AssetClass]AssetClassProfile{
		AssetCrypto:  {Class: AssetCrypto, MaxRangePct: 50, MinRangePct: 0.5, TypicalRiskReward: 3.0},
		AssetForex:   {Class: AssetForex, MaxRangePct: 5, MinRangePct: 0.01, TypicalRiskReward: 2.0},
		AssetStocks:  {Class: AssetStocks, MaxRangePct: 20, MinRangePct: 0.1, TypicalRiskReward: 2.5},
		AssetFutures: {Class: AssetFutures, MaxRangePct: 10, MinRangePct: 0.05, TypicalRiskReward: 2.0},
	}
}

// ChartImage is one chart attachment awaiting extraction.
type ChartImage struct {
	Bytes     []byte
	MimeType  string
	MessageID int64
	Symbol    string
	Direction Direction
}

// RawReading is the parsed output of one recognizer call. Slot values are nil
// when the recognizer did not report them. Evidence and RawText are kept for
// diagnostics only; extraction decisions never depend on them.
type RawReading struct {
	Entry       *float64
	StopLoss    *float64
	TakeProfits []float64

	Evidence  []string
	RawText   string
	LatencyMS int64
}

// HasAnyLevel reports whether the reading carries at least one numeric slot.
func (r RawReading) HasAnyLevel() bool {
	return r.Entry != nil || r.StopLoss != nil || len(r.TakeProfits) > 0
}

// Violation is one validation rule breach. Advisory violations never fail a
// reading; they only feed confidence scoring.
type Violation struct {
	Rule     string `json:"rule"`
	Detail   string `json:"detail,omitempty"`
	Advisory bool   `json:"advisory,omitempty"`
}

// Verdict is the outcome of validating one reading. It is always produced,
// with an empty violation list on a clean pass.
type Verdict struct {
	Passed     bool        `json:"passed"`
	Violations []Violation `json:"violations"`
}

// Mandatory returns the non-advisory violations.
func (v Verdict) Mandatory() []Violation {
	out := make([]Violation, 0, len(v.Violations))
	for _, viol := range v.Violations {
		if !viol.Advisory {
			out = append(out, viol)
		}
	}
	return out
}

// Candidate binds a reading to the strategy that produced it, its verdict,
// and its confidence score. Candidates live only for one extraction call.
type Candidate struct {
	Strategy   string
	Reading    RawReading
	Verdict    Verdict
	Confidence int
}

// StrategyAttempt records what happened when one strategy ran, whether or not
// it produced a candidate. The ordered list of attempts is the validation
// trace returned with every extraction result.
type StrategyAttempt struct {
	Strategy   string   `json:"strategy"`
	Err        string   `json:"error,omitempty"`
	Verdict    *Verdict `json:"verdict,omitempty"`
	Confidence int      `json:"confidence"`
	LatencyMS  int64    `json:"latency_ms"`
}

// Outcome distinguishes the terminal states of one extraction. Selected and
// LowConfidence carry a candidate; Failed carries only a reason.
type Outcome string

const (
	OutcomeSelected      Outcome = "selected"
	OutcomeLowConfidence Outcome = "low_confidence"
	OutcomeFailed        Outcome = "failed"
)

// Failure reasons for OutcomeFailed.
const (
	FailNoRecognizerResponse = "no_recognizer_response"
	FailAllInvalid           = "all_invalid"
)

// ExtractionResult is the single value returned per chart image. Exactly one
// of Candidate (Selected/LowConfidence) or FailReason (Failed) is meaningful.
type ExtractionResult struct {
	Outcome    Outcome
	Candidate  *Candidate
	FailReason string
	Trace      []StrategyAttempt
}

// Entry types. CMP means the author called an at-market entry in the message
// text; MARKET means the entry comes from the chart.
const (
	EntryTypeCMP    = "CMP"
	EntryTypeMarket = "MARKET"
)

// DetectedSignal is a chat message recognized as a trade call, before any
// chart has been read. The chart image may arrive in the same message or in a
// follow-up within the pending window.
type DetectedSignal struct {
	Ticker     string
	Direction  Direction
	EntryType  string
	RawMessage string
	MessageID  int64
	Author     string
	ChatID     int64
	DetectedAt time.Time
}

// Signal statuses as persisted. Selected extractions are confirmed outright;
// low-confidence ones wait for an operator decision.
const (
	StatusConfirmed     = "confirmed"
	StatusPendingReview = "pending_review"
	StatusDiscarded     = "discarded"
)

// Signal is the persisted trade record assembled from a chat message and its
// extracted chart levels.
type Signal struct {
	ID          int64     `json:"id"`
	Ticker      string    `json:"ticker"`
	Direction   Direction `json:"direction"`
	EntryType   string    `json:"entry_type"` // CMP or MARKET
	Entry       *float64  `json:"entry,omitempty"`
	StopLoss    *float64  `json:"stop_loss,omitempty"`
	TakeProfits []float64 `json:"take_profits,omitempty"`
	Confidence  int       `json:"confidence"`
	Strategy    string    `json:"strategy,omitempty"`
	Status      string    `json:"status"`
	Violations  []string  `json:"violations,omitempty"`
	RawMessage  string    `json:"raw_message,omitempty"`
	MessageID   int64     `json:"message_id,omitempty"`
	Author      string    `json:"author,omitempty"`
	ChatID      int64     `json:"chat_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SignalFilter narrows signal listings.
type SignalFilter struct {
	Ticker    string
	Direction Direction
	Status    string
	Limit     int
}

// SignalStats summarizes recent signal activity.
type SignalStats struct {
	Total         int     `json:"total"`
	Longs         int     `json:"longs"`
	Shorts        int     `json:"shorts"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// ChartImageRecord is a persisted chart image kept for diagnostics until its
// retention window lapses.
type ChartImageRecord struct {
	ID        int64
	SignalID  int64
	MimeType  string
	Bytes     []byte
	ExpiresAt time.Time
}

// Ptr is a convenience for building optional price slots.
func Ptr(v float64) *float64 { return &v }
