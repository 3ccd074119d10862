// Package service holds the application services between the chat boundary
// and the storage layer.
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"chartwatch/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultImageRetention = 24 * time.Hour

// Extractor runs the strategy fallback chain for one chart image.
type Extractor interface {
	Run(ctx context.Context, image domain.ChartImage) domain.ExtractionResult
}

type ExtractionSignalRepository interface {
	InsertSignal(ctx context.Context, s domain.Signal) (domain.Signal, error)
}

type ChartImageRepository interface {
	SaveChartImage(ctx context.Context, signalID int64, imageBytes []byte, mimeType string, expiresAt time.Time) (int64, error)
}

// ReadingObserver learns the geometry of confirmed readings, feeding the
// anomaly damper.
type ReadingObserver interface {
	Observe(reading domain.RawReading)
}

// Notifier announces persisted signals, e.g. back into the chat.
type Notifier interface {
	NotifySignal(s domain.Signal)
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(s domain.Signal)

func (f NotifierFunc) NotifySignal(s domain.Signal) { f(s) }

// ExtractionService turns one detected signal plus its chart image into at
// most one persisted signal record.
type ExtractionService struct {
	tracer         trace.Tracer
	extractor      Extractor
	signals        ExtractionSignalRepository
	images         ChartImageRepository
	observer       ReadingObserver
	notifier       Notifier
	imageRetention time.Duration
	now            func() time.Time
}

func NewExtractionService(
	tracer trace.Tracer,
	extractor Extractor,
	signals ExtractionSignalRepository,
	images ChartImageRepository,
	observer ReadingObserver,
	notifier Notifier,
	imageRetention time.Duration,
) *ExtractionService {
	if imageRetention <= 0 {
		imageRetention = defaultImageRetention
	}
	return &ExtractionService{
		tracer:         tracer,
		extractor:      extractor,
		signals:        signals,
		images:         images,
		observer:       observer,
		notifier:       notifier,
		imageRetention: imageRetention,
		now:            time.Now,
	}
}

// ProcessChart runs extraction and applies the persistence policy: selected
// readings are confirmed, low-confidence ones parked for review, failures
// logged and dropped. The returned signal is nil when nothing was persisted.
func (s *ExtractionService) ProcessChart(ctx context.Context, detected domain.DetectedSignal, image domain.ChartImage) (*domain.Signal, error) {
	ctx, span := s.tracer.Start(ctx, "extraction-service.process-chart")
	defer span.End()
	span.SetAttributes(
		attribute.String("ticker", detected.Ticker),
		attribute.String("direction", string(detected.Direction)),
	)

	if s.extractor == nil || s.signals == nil {
		return nil, fmt.Errorf("extraction service is not fully initialized")
	}

	image.Symbol = detected.Ticker
	image.Direction = detected.Direction
	image.MessageID = detected.MessageID

	result := s.extractor.Run(ctx, image)
	span.SetAttributes(attribute.String("outcome", string(result.Outcome)))

	if result.Outcome == domain.OutcomeFailed {
		log.Printf("extraction failed for %s %s (msg %d): %s",
			detected.Ticker, detected.Direction, detected.MessageID, result.FailReason)
		return nil, nil
	}

	status := domain.StatusConfirmed
	if result.Outcome == domain.OutcomeLowConfidence {
		status = domain.StatusPendingReview
	}

	signal := buildSignal(detected, *result.Candidate, status)
	persisted, err := s.signals.InsertSignal(ctx, signal)
	if err != nil {
		return nil, fmt.Errorf("insert signal: %w", err)
	}

	if s.images != nil && len(image.Bytes) > 0 {
		expiresAt := s.now().UTC().Add(s.imageRetention)
		if _, err := s.images.SaveChartImage(ctx, persisted.ID, image.Bytes, image.MimeType, expiresAt); err != nil {
			log.Printf("chart image save failed for signal %d: %v", persisted.ID, err)
		}
	}

	if status == domain.StatusConfirmed {
		if s.observer != nil {
			s.observer.Observe(result.Candidate.Reading)
		}
		if s.notifier != nil {
			s.notifier.NotifySignal(persisted)
		}
	}

	return &persisted, nil
}

func buildSignal(detected domain.DetectedSignal, candidate domain.Candidate, status string) domain.Signal {
	violations := make([]string, 0, len(candidate.Verdict.Violations))
	for _, v := range candidate.Verdict.Violations {
		violations = append(violations, v.Rule)
	}

	entryType := detected.EntryType
	if entryType == "" {
		entryType = domain.EntryTypeMarket
	}

	return domain.Signal{
		Ticker:      detected.Ticker,
		Direction:   detected.Direction,
		EntryType:   entryType,
		Entry:       candidate.Reading.Entry,
		StopLoss:    candidate.Reading.StopLoss,
		TakeProfits: candidate.Reading.TakeProfits,
		Confidence:  candidate.Confidence,
		Strategy:    candidate.Strategy,
		Status:      status,
		Violations:  violations,
		RawMessage:  detected.RawMessage,
		MessageID:   detected.MessageID,
		Author:      detected.Author,
		ChatID:      detected.ChatID,
	}
}
