package repository

import (
	"context"
	"errors"
	"time"

	"chartwatch/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

type ChartImageRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewChartImageRepository(pool PgxPool, tracer trace.Tracer) *ChartImageRepository {
	return &ChartImageRepository{pool: pool, tracer: tracer}
}

// SaveChartImage stores the original chart bytes for one signal so operators
// can inspect what the extraction saw. At most one image per signal; a second
// save replaces the first.
func (r *ChartImageRepository) SaveChartImage(
	ctx context.Context,
	signalID int64,
	imageBytes []byte,
	mimeType string,
	expiresAt time.Time,
) (int64, error) {
	_, span := r.tracer.Start(ctx, "chart-image-repo.save")
	defer span.End()

	var id int64
	err := r.pool.QueryRow(ctx, `
INSERT INTO chart_images (signal_id, mime_type, image_bytes, expires_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (signal_id) DO UPDATE SET
    mime_type = EXCLUDED.mime_type,
    image_bytes = EXCLUDED.image_bytes,
    expires_at = EXCLUDED.expires_at
RETURNING id
`, signalID, mimeType, imageBytes, expiresAt.UTC()).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *ChartImageRepository) GetBySignalID(ctx context.Context, signalID int64) (*domain.ChartImageRecord, error) {
	_, span := r.tracer.Start(ctx, "chart-image-repo.get-by-signal-id")
	defer span.End()

	var out domain.ChartImageRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, signal_id, mime_type, image_bytes, expires_at
FROM chart_images
WHERE signal_id = $1 AND expires_at > NOW()
`, signalID).Scan(&out.ID, &out.SignalID, &out.MimeType, &out.Bytes, &out.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	out.ExpiresAt = out.ExpiresAt.UTC()
	return &out, nil
}

func (r *ChartImageRepository) DeleteExpired(ctx context.Context) (int64, error) {
	_, span := r.tracer.Start(ctx, "chart-image-repo.delete-expired")
	defer span.End()

	tag, err := r.pool.Exec(ctx, `DELETE FROM chart_images WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
