package service

import (
	"context"
	"testing"
	"time"

	"chartwatch/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type stubSignalRepo struct {
	signals      map[int64]*domain.Signal
	listFilter   domain.SignalFilter
	listResult   []domain.Signal
	statusUpdate map[int64]string
	statsSince   time.Time
	stats        domain.SignalStats
}

func newStubSignalRepo() *stubSignalRepo {
	return &stubSignalRepo{
		signals:      make(map[int64]*domain.Signal),
		statusUpdate: make(map[int64]string),
	}
}

func (s *stubSignalRepo) GetSignal(ctx context.Context, id int64) (*domain.Signal, error) {
	sig, ok := s.signals[id]
	if !ok {
		return nil, nil
	}
	cp := *sig
	return &cp, nil
}

func (s *stubSignalRepo) ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.Signal, error) {
	s.listFilter = filter
	return s.listResult, nil
}

func (s *stubSignalRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	s.statusUpdate[id] = status
	return nil
}

func (s *stubSignalRepo) Stats(ctx context.Context, since time.Time) (domain.SignalStats, error) {
	s.statsSince = since
	return s.stats, nil
}

func newSignalService(repo *stubSignalRepo) *SignalService {
	return NewSignalService(trace.NewNoopTracerProvider().Tracer("test"), repo, nil)
}

func TestListSignalsNormalizesFilter(t *testing.T) {
	repo := newStubSignalRepo()
	svc := newSignalService(repo)

	if _, err := svc.ListSignals(context.Background(), domain.SignalFilter{Ticker: " btc "}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.listFilter.Ticker != "BTC" || repo.listFilter.Limit != 50 {
		t.Fatalf("unexpected filter: %+v", repo.listFilter)
	}
}

func TestListSignalsRejectsInvalidFilter(t *testing.T) {
	svc := newSignalService(newStubSignalRepo())

	if _, err := svc.ListSignals(context.Background(), domain.SignalFilter{Direction: "SIDEWAYS"}); err == nil {
		t.Fatal("expected error for invalid direction")
	}
	if _, err := svc.ListSignals(context.Background(), domain.SignalFilter{Status: "unknown"}); err == nil {
		t.Fatal("expected error for invalid status")
	}
}

func TestReviewConfirmsPendingSignal(t *testing.T) {
	repo := newStubSignalRepo()
	repo.signals[5] = &domain.Signal{ID: 5, Status: domain.StatusPendingReview}
	svc := newSignalService(repo)

	signal, err := svc.Review(context.Background(), 5, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signal.Status != domain.StatusConfirmed || repo.statusUpdate[5] != domain.StatusConfirmed {
		t.Fatalf("expected confirmed, got %+v", signal)
	}
}

func TestReviewDiscardsPendingSignal(t *testing.T) {
	repo := newStubSignalRepo()
	repo.signals[5] = &domain.Signal{ID: 5, Status: domain.StatusPendingReview}
	svc := newSignalService(repo)

	signal, err := svc.Review(context.Background(), 5, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signal.Status != domain.StatusDiscarded {
		t.Fatalf("expected discarded, got %s", signal.Status)
	}
}

func TestReviewRejectsNonPending(t *testing.T) {
	repo := newStubSignalRepo()
	repo.signals[5] = &domain.Signal{ID: 5, Status: domain.StatusConfirmed}
	svc := newSignalService(repo)

	if _, err := svc.Review(context.Background(), 5, true); err == nil {
		t.Fatal("expected error for non-pending signal")
	}
	if _, err := svc.Review(context.Background(), 404, true); err == nil {
		t.Fatal("expected error for missing signal")
	}
}

func TestStatsDefaultsWindow(t *testing.T) {
	repo := newStubSignalRepo()
	repo.stats = domain.SignalStats{Total: 3, Longs: 2, Shorts: 1, AvgConfidence: 80}
	svc := newSignalService(repo)

	stats, err := svc.Stats(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Total != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if since := time.Since(repo.statsSince); since < 23*time.Hour || since > 25*time.Hour {
		t.Fatalf("expected ~24h window, got %s", since)
	}
}
