package tui

import (
	"context"
	"time"

	"chartwatch/internal/domain"
)

// SignalReviewer provides the pending-review queue and the operator decision
// path to the TUI.
type SignalReviewer interface {
	ListPendingReview(ctx context.Context, limit int) ([]domain.Signal, error)
	Review(ctx context.Context, id int64, confirm bool) (*domain.Signal, error)
	Stats(ctx context.Context, window time.Duration) (domain.SignalStats, error)
}

// Services bundles the dependencies injected into the review console.
type Services struct {
	Signals  SignalReviewer
	Username string
}
