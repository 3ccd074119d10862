package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chartwatch/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type SignalRepository interface {
	GetSignal(ctx context.Context, id int64) (*domain.Signal, error)
	ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.Signal, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	Stats(ctx context.Context, since time.Time) (domain.SignalStats, error)
}

type SignalChartImageRepository interface {
	GetBySignalID(ctx context.Context, signalID int64) (*domain.ChartImageRecord, error)
}

// SignalService is the query and review side: listing, stats, and operator
// decisions on pending signals.
type SignalService struct {
	tracer  trace.Tracer
	signals SignalRepository
	images  SignalChartImageRepository
}

func NewSignalService(tracer trace.Tracer, signals SignalRepository, images SignalChartImageRepository) *SignalService {
	return &SignalService{tracer: tracer, signals: signals, images: images}
}

func (s *SignalService) ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.Signal, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.list-signals")
	defer span.End()

	if s.signals == nil {
		return nil, fmt.Errorf("signal service is not fully initialized")
	}

	filter.Ticker = strings.ToUpper(strings.TrimSpace(filter.Ticker))
	if filter.Direction != "" && !filter.Direction.IsValid() {
		return nil, fmt.Errorf("invalid direction: %s", filter.Direction)
	}
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, fmt.Errorf("invalid status: %s", filter.Status)
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}

	return s.signals.ListSignals(ctx, filter)
}

func (s *SignalService) GetSignal(ctx context.Context, id int64) (*domain.Signal, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.get-signal")
	defer span.End()

	if id <= 0 {
		return nil, fmt.Errorf("invalid signal id")
	}
	return s.signals.GetSignal(ctx, id)
}

func (s *SignalService) GetChartImage(ctx context.Context, signalID int64) (*domain.ChartImageRecord, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.get-chart-image")
	defer span.End()

	if signalID <= 0 {
		return nil, fmt.Errorf("invalid signal id")
	}
	if s.images == nil {
		return nil, nil
	}
	return s.images.GetBySignalID(ctx, signalID)
}

func (s *SignalService) ListPendingReview(ctx context.Context, limit int) ([]domain.Signal, error) {
	return s.ListSignals(ctx, domain.SignalFilter{Status: domain.StatusPendingReview, Limit: limit})
}

// Review applies an operator decision to a pending signal. Confirming or
// discarding anything not pending is rejected.
func (s *SignalService) Review(ctx context.Context, id int64, confirm bool) (*domain.Signal, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.review")
	defer span.End()

	signal, err := s.signals.GetSignal(ctx, id)
	if err != nil {
		return nil, err
	}
	if signal == nil {
		return nil, fmt.Errorf("signal %d not found", id)
	}
	if signal.Status != domain.StatusPendingReview {
		return nil, fmt.Errorf("signal %d is %s, not pending review", id, signal.Status)
	}

	status := domain.StatusDiscarded
	if confirm {
		status = domain.StatusConfirmed
	}
	if err := s.signals.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	signal.Status = status
	return signal, nil
}

func (s *SignalService) Stats(ctx context.Context, window time.Duration) (domain.SignalStats, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.stats")
	defer span.End()

	if window <= 0 {
		window = 24 * time.Hour
	}
	return s.signals.Stats(ctx, time.Now().UTC().Add(-window))
}

func validStatus(status string) bool {
	switch status {
	case domain.StatusConfirmed, domain.StatusPendingReview, domain.StatusDiscarded:
		return true
	}
	return false
}
