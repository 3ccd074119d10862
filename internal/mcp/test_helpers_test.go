package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chartwatch/internal/domain"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type stubSignalService struct {
	listed []domain.Signal
	byID   map[int64]*domain.Signal
	stats  domain.SignalStats

	lastFilter      domain.SignalFilter
	lastStatsWindow time.Duration
	lastReviewID    int64
	lastConfirm     bool
}

func (s *stubSignalService) ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.Signal, error) {
	s.lastFilter = filter
	return append([]domain.Signal(nil), s.listed...), nil
}

func (s *stubSignalService) GetSignal(ctx context.Context, id int64) (*domain.Signal, error) {
	if s.byID == nil {
		return nil, nil
	}
	return s.byID[id], nil
}

func (s *stubSignalService) ListPendingReview(ctx context.Context, limit int) ([]domain.Signal, error) {
	out := make([]domain.Signal, 0, len(s.listed))
	for _, sig := range s.listed {
		if sig.Status == domain.StatusPendingReview {
			out = append(out, sig)
		}
	}
	return out, nil
}

func (s *stubSignalService) Review(ctx context.Context, id int64, confirm bool) (*domain.Signal, error) {
	s.lastReviewID = id
	s.lastConfirm = confirm
	signal, _ := s.GetSignal(ctx, id)
	if signal == nil {
		return nil, fmt.Errorf("signal %d not found", id)
	}
	if signal.Status != domain.StatusPendingReview {
		return nil, fmt.Errorf("signal %d is %s, not pending review", id, signal.Status)
	}
	updated := *signal
	updated.Status = domain.StatusDiscarded
	if confirm {
		updated.Status = domain.StatusConfirmed
	}
	return &updated, nil
}

func (s *stubSignalService) Stats(ctx context.Context, window time.Duration) (domain.SignalStats, error) {
	s.lastStatsWindow = window
	return s.stats, nil
}

func testServer() (*sdkmcp.Server, *stubSignalService) {
	signals := &stubSignalService{
		listed: []domain.Signal{
			{
				ID: 1, Ticker: "BTC", Direction: domain.DirectionLong, EntryType: domain.EntryTypeMarket,
				Entry: domain.Ptr(64250), Confidence: 82, Status: domain.StatusConfirmed,
				CreatedAt: time.Unix(0, 0).UTC(),
			},
			{
				ID: 2, Ticker: "ETH", Direction: domain.DirectionShort, EntryType: domain.EntryTypeCMP,
				Confidence: 48, Status: domain.StatusPendingReview,
				CreatedAt: time.Unix(1, 0).UTC(),
			},
		},
		stats: domain.SignalStats{Total: 2, Longs: 1, Shorts: 1, AvgConfidence: 65},
	}
	signals.byID = map[int64]*domain.Signal{
		1: &signals.listed[0],
		2: &signals.listed[1],
	}

	srv := NewServer(nil, signals, ServerConfig{RequestTimeout: time.Second})
	return srv, signals
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

func decodeResourceJSON(result *sdkmcp.ReadResourceResult, out any) error {
	if len(result.Contents) == 0 {
		return nil
	}
	return json.Unmarshal([]byte(result.Contents[0].Text), out)
}
