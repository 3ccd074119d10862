// Package job holds the background loops that run alongside the monitor.
package job

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
)

const (
	defaultRetentionTick = time.Hour

	// Pending reviews nobody acted on in this long get discarded; a trade
	// call this old is no longer actionable either way.
	stalePendingAge = 72 * time.Hour
)

// ExpiredImageDeleter removes chart images whose retention window lapsed.
type ExpiredImageDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// StalePendingExpirer discards pending reviews older than the cutoff.
type StalePendingExpirer interface {
	ExpireStalePending(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Retention periodically purges expired chart images and stale pending
// reviews so neither outlives its window by more than one tick.
type Retention struct {
	tracer  trace.Tracer
	images  ExpiredImageDeleter
	pending StalePendingExpirer
	tick    time.Duration
}

func NewRetention(tracer trace.Tracer, images ExpiredImageDeleter, pending StalePendingExpirer, tick time.Duration) *Retention {
	if tick <= 0 {
		tick = defaultRetentionTick
	}
	return &Retention{
		tracer:  tracer,
		images:  images,
		pending: pending,
		tick:    tick,
	}
}

func (j *Retention) Start(ctx context.Context) {
	if j == nil || (j.images == nil && j.pending == nil) {
		<-ctx.Done()
		return
	}

	log.Println("Retention job starting...")
	ticker := time.NewTicker(j.tick)
	defer ticker.Stop()

	j.runCleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("Retention job stopped")
			return
		case <-ticker.C:
			j.runCleanup(ctx)
		}
	}
}

func (j *Retention) runCleanup(ctx context.Context) {
	if j.tracer != nil {
		_, span := j.tracer.Start(ctx, "retention-job.cleanup")
		defer span.End()
	}

	if j.images != nil {
		deleted, err := j.images.DeleteExpired(ctx)
		if err != nil {
			log.Printf("chart image cleanup error: %v", err)
		} else if deleted > 0 {
			log.Printf("chart image cleanup removed %d row(s)", deleted)
		}
	}

	if j.pending != nil {
		expired, err := j.pending.ExpireStalePending(ctx, stalePendingAge)
		if err != nil {
			log.Printf("stale pending cleanup error: %v", err)
		} else if expired > 0 {
			log.Printf("stale pending cleanup discarded %d signal(s)", expired)
		}
	}
}
