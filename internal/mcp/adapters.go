package mcp

import (
	"context"
	"time"

	"chartwatch/internal/domain"
)

// SignalReader exposes the query and review operations served over MCP.
type SignalReader interface {
	ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.Signal, error)
	GetSignal(ctx context.Context, id int64) (*domain.Signal, error)
	ListPendingReview(ctx context.Context, limit int) ([]domain.Signal, error)
	Review(ctx context.Context, id int64, confirm bool) (*domain.Signal, error)
	Stats(ctx context.Context, window time.Duration) (domain.SignalStats, error)
}
