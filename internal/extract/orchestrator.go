// Package extract drives the strategy fallback chain that turns one chart
// image into at most one validated trade reading.
package extract

import (
	"context"
	"log"
	"time"

	"chartwatch/internal/domain"
	"chartwatch/internal/score"
	"chartwatch/internal/strategy"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultAcceptConfidence = 70
	DefaultStrategyTimeout  = 30 * time.Second
)

// Recognizer is the external vision model boundary.
type Recognizer interface {
	Extract(ctx context.Context, image domain.ChartImage, prompt string) (domain.RawReading, error)
}

// Validator applies the asset-aware rule set to one reading.
type Validator interface {
	Validate(reading domain.RawReading, direction domain.Direction, symbol string) domain.Verdict
	ProfileFor(symbol string) domain.AssetClassProfile
}

// Damper optionally lowers a candidate's confidence when its reading looks
// anomalous against historical accepted readings. Applied after scoring so
// the scorer itself stays pure.
type Damper interface {
	Damp(reading domain.RawReading, confidence int) int
}

// Config tunes the chain. Zero values fall back to defaults.
type Config struct {
	AcceptConfidence int
	StrategyTimeout  time.Duration
	Strategies       []strategy.Strategy
}

// Orchestrator runs strategies sequentially in priority order and stops at
// the first candidate that both passes validation and clears the acceptance
// threshold. Sequential short-circuiting is the one consistent policy here:
// it bounds external-call cost, and ranking still applies when the chain is
// exhausted. Orchestrators are stateless across calls; each Run is fully
// independent.
type Orchestrator struct {
	recognizer Recognizer
	validator  Validator
	damper     Damper
	tracer     trace.Tracer
	cfg        Config
}

func New(recognizer Recognizer, validator Validator, damper Damper, tracer trace.Tracer, cfg Config) *Orchestrator {
	if cfg.AcceptConfidence <= 0 {
		cfg.AcceptConfidence = DefaultAcceptConfidence
	}
	if cfg.StrategyTimeout <= 0 {
		cfg.StrategyTimeout = DefaultStrategyTimeout
	}
	if len(cfg.Strategies) == 0 {
		cfg.Strategies, _ = strategy.Resolve(nil)
	}
	return &Orchestrator{
		recognizer: recognizer,
		validator:  validator,
		damper:     damper,
		tracer:     tracer,
		cfg:        cfg,
	}
}

type evaluation struct {
	candidate    domain.Candidate
	corroborated bool
	traceIndex   int
}

// Run executes the fallback chain for one chart image and always returns
// exactly one terminal result: Selected, LowConfidence, or Failed. Strategy-
// local recognizer errors are absorbed into the trace and never abort the
// chain. Cancelling ctx abandons the remaining strategies.
func (o *Orchestrator) Run(ctx context.Context, image domain.ChartImage) domain.ExtractionResult {
	ctx, span := o.tracer.Start(ctx, "extract.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("symbol", image.Symbol),
		attribute.String("direction", string(image.Direction)),
	)

	profile := o.validator.ProfileFor(image.Symbol)

	attempts := make([]domain.StrategyAttempt, 0, len(o.cfg.Strategies))
	evals := make([]*evaluation, 0, len(o.cfg.Strategies))

	for _, strat := range o.cfg.Strategies {
		if ctx.Err() != nil {
			break
		}

		reading, err := o.invoke(ctx, image, strat)
		if err != nil {
			log.Printf("extract: strategy %s failed for %s: %v", strat.Name, image.Symbol, err)
			attempts = append(attempts, domain.StrategyAttempt{Strategy: strat.Name, Err: err.Error()})
			continue
		}

		verdict := o.validator.Validate(reading, image.Direction, image.Symbol)
		eval := &evaluation{
			candidate: domain.Candidate{Strategy: strat.Name, Reading: reading, Verdict: verdict},
		}
		evals = append(evals, eval)

		// Cross-strategy corroboration lifts both parties.
		o.markAgreements(evals, eval)
		rescore(evals, profile, o.damper)

		eval.traceIndex = len(attempts)
		attempts = append(attempts, domain.StrategyAttempt{
			Strategy:   strat.Name,
			Verdict:    &eval.candidate.Verdict,
			Confidence: eval.candidate.Confidence,
			LatencyMS:  reading.LatencyMS,
		})
		syncTrace(attempts, evals)

		if selected := o.accepted(evals); selected != nil {
			span.SetAttributes(attribute.String("outcome", string(domain.OutcomeSelected)))
			c := selected.candidate
			return domain.ExtractionResult{
				Outcome:   domain.OutcomeSelected,
				Candidate: &c,
				Trace:     attempts,
			}
		}
	}

	result := o.exhausted(evals, attempts)
	span.SetAttributes(attribute.String("outcome", string(result.Outcome)))
	return result
}

func (o *Orchestrator) invoke(ctx context.Context, image domain.ChartImage, strat strategy.Strategy) (domain.RawReading, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.cfg.StrategyTimeout)
	defer cancel()
	return o.recognizer.Extract(callCtx, image, strat.Prompt)
}

// markAgreements flags the new evaluation and any earlier one whose reading
// agrees on at least one price slot.
func (o *Orchestrator) markAgreements(evals []*evaluation, latest *evaluation) {
	for _, prev := range evals {
		if prev == latest {
			continue
		}
		if readingsAgree(prev.candidate.Reading, latest.candidate.Reading) {
			prev.corroborated = true
			latest.corroborated = true
		}
	}
}

func readingsAgree(a, b domain.RawReading) bool {
	if score.Agrees(a.Entry, b.Entry) || score.Agrees(a.StopLoss, b.StopLoss) {
		return true
	}
	n := len(a.TakeProfits)
	if len(b.TakeProfits) < n {
		n = len(b.TakeProfits)
	}
	for i := 0; i < n; i++ {
		if score.Agrees(&a.TakeProfits[i], &b.TakeProfits[i]) {
			return true
		}
	}
	return false
}

// rescore recomputes every candidate's confidence; corroboration discovered
// late must reach candidates scored earlier.
func rescore(evals []*evaluation, profile domain.AssetClassProfile, damper Damper) {
	for _, e := range evals {
		confidence := score.Score(e.candidate.Reading, e.candidate.Verdict, profile, e.corroborated)
		if damper != nil {
			confidence = damper.Damp(e.candidate.Reading, confidence)
		}
		e.candidate.Confidence = confidence
	}
}

func syncTrace(attempts []domain.StrategyAttempt, evals []*evaluation) {
	for _, e := range evals {
		attempts[e.traceIndex].Confidence = e.candidate.Confidence
	}
}

// accepted returns the first candidate, in priority order, that passes
// validation and clears the acceptance threshold.
func (o *Orchestrator) accepted(evals []*evaluation) *evaluation {
	for _, e := range evals {
		if e.candidate.Verdict.Passed && e.candidate.Confidence >= o.cfg.AcceptConfidence {
			return e
		}
	}
	return nil
}

// exhausted builds the terminal result when no candidate was accepted: the
// best-scoring candidate tagged low-confidence, or a definitive failure when
// nothing usable was produced.
func (o *Orchestrator) exhausted(evals []*evaluation, attempts []domain.StrategyAttempt) domain.ExtractionResult {
	if len(evals) == 0 {
		return domain.ExtractionResult{
			Outcome:    domain.OutcomeFailed,
			FailReason: domain.FailNoRecognizerResponse,
			Trace:      attempts,
		}
	}

	var best *evaluation
	anyData := false
	for _, e := range evals {
		if e.candidate.Reading.HasAnyLevel() {
			anyData = true
		}
		if best == nil || e.candidate.Confidence > best.candidate.Confidence {
			best = e
		}
	}
	if !anyData {
		return domain.ExtractionResult{
			Outcome:    domain.OutcomeFailed,
			FailReason: domain.FailAllInvalid,
			Trace:      attempts,
		}
	}

	c := best.candidate
	return domain.ExtractionResult{
		Outcome:   domain.OutcomeLowConfidence,
		Candidate: &c,
		Trace:     attempts,
	}
}
