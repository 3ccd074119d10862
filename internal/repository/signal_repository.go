package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chartwatch/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type SignalRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSignalRepository(pool PgxPool, tracer trace.Tracer) *SignalRepository {
	return &SignalRepository{pool: pool, tracer: tracer}
}

func (r *SignalRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "signal-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS signals (
    id BIGSERIAL PRIMARY KEY,
    ticker TEXT NOT NULL,
    direction TEXT NOT NULL,
    entry_type TEXT NOT NULL DEFAULT 'MARKET',
    entry DOUBLE PRECISION,
    stop_loss DOUBLE PRECISION,
    take_profits DOUBLE PRECISION[] NOT NULL DEFAULT '{}',
    confidence SMALLINT NOT NULL DEFAULT 0,
    strategy TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'pending_review',
    violations TEXT[] NOT NULL DEFAULT '{}',
    raw_message TEXT NOT NULL DEFAULT '',
    message_id BIGINT NOT NULL DEFAULT 0,
    author TEXT NOT NULL DEFAULT '',
    chat_id BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_signals_ticker_created ON signals (ticker, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_signals_status ON signals (status);

CREATE TABLE IF NOT EXISTS chart_images (
    id BIGSERIAL PRIMARY KEY,
    signal_id BIGINT NOT NULL REFERENCES signals(id) ON DELETE CASCADE,
    mime_type TEXT NOT NULL,
    image_bytes BYTEA NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL,
    UNIQUE (signal_id)
);
CREATE INDEX IF NOT EXISTS idx_chart_images_expires ON chart_images (expires_at);

CREATE TABLE IF NOT EXISTS reviewers (
    id BIGSERIAL PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    fingerprint TEXT NOT NULL UNIQUE,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    last_login_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
	return err
}

func (r *SignalRepository) InsertSignal(ctx context.Context, s domain.Signal) (domain.Signal, error) {
	_, span := r.tracer.Start(ctx, "signal-repo.insert-signal")
	defer span.End()

	takeProfits := s.TakeProfits
	if takeProfits == nil {
		takeProfits = []float64{}
	}
	violations := s.Violations
	if violations == nil {
		violations = []string{}
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO signals (ticker, direction, entry_type, entry, stop_loss, take_profits,
		                      confidence, strategy, status, violations, raw_message, message_id, author, chat_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id, created_at`,
		strings.ToUpper(s.Ticker),
		string(s.Direction),
		s.EntryType,
		s.Entry,
		s.StopLoss,
		takeProfits,
		int16(s.Confidence),
		s.Strategy,
		s.Status,
		violations,
		s.RawMessage,
		s.MessageID,
		s.Author,
		s.ChatID,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return domain.Signal{}, err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}

func (r *SignalRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	_, span := r.tracer.Start(ctx, "signal-repo.update-status")
	defer span.End()

	_, err := r.pool.Exec(ctx, `UPDATE signals SET status = $1 WHERE id = $2`, status, id)
	return err
}

const signalColumns = `id, ticker, direction, entry_type, entry, stop_loss, take_profits,
       confidence, strategy, status, violations, raw_message, message_id, author, chat_id, created_at`

func (r *SignalRepository) GetSignal(ctx context.Context, id int64) (*domain.Signal, error) {
	_, span := r.tracer.Start(ctx, "signal-repo.get-signal")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT `+signalColumns+` FROM signals WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	s, err := scanSignal(rows)
	if err != nil {
		return nil, err
	}
	return &s, rows.Err()
}

func (r *SignalRepository) ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.Signal, error) {
	_, span := r.tracer.Start(ctx, "signal-repo.list-signals")
	defer span.End()

	args := make([]any, 0, 4)
	var sb strings.Builder
	sb.WriteString(`SELECT ` + signalColumns + ` FROM signals WHERE 1=1`)

	if filter.Ticker != "" {
		args = append(args, strings.ToUpper(filter.Ticker))
		sb.WriteString(fmt.Sprintf(" AND ticker = $%d", len(args)))
	}
	if filter.Direction != "" {
		args = append(args, string(filter.Direction))
		sb.WriteString(fmt.Sprintf(" AND direction = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		sb.WriteString(fmt.Sprintf(" AND status = $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	args = append(args, limit)
	sb.WriteString(fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args)))

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	signals := make([]domain.Signal, 0, limit)
	for rows.Next() {
		s, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}
		signals = append(signals, s)
	}
	return signals, rows.Err()
}

// Stats summarizes signals created since the given time, excluding discarded
// ones.
func (r *SignalRepository) Stats(ctx context.Context, since time.Time) (domain.SignalStats, error) {
	_, span := r.tracer.Start(ctx, "signal-repo.stats")
	defer span.End()

	var stats domain.SignalStats
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE direction = 'LONG'),
		        COUNT(*) FILTER (WHERE direction = 'SHORT'),
		        COALESCE(AVG(confidence), 0)
		 FROM signals
		 WHERE created_at >= $1 AND status <> 'discarded'`,
		since.UTC(),
	).Scan(&stats.Total, &stats.Longs, &stats.Shorts, &stats.AvgConfidence)
	if err != nil {
		return domain.SignalStats{}, err
	}
	return stats, nil
}

// ExpireStalePending discards pending reviews older than the cutoff. Returns
// the number of signals discarded.
func (r *SignalRepository) ExpireStalePending(ctx context.Context, olderThan time.Duration) (int64, error) {
	_, span := r.tracer.Start(ctx, "signal-repo.expire-stale-pending")
	defer span.End()

	tag, err := r.pool.Exec(ctx,
		`UPDATE signals SET status = 'discarded'
		 WHERE status = 'pending_review' AND created_at < $1`,
		time.Now().UTC().Add(-olderThan),
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSignal(row rowScanner) (domain.Signal, error) {
	var s domain.Signal
	var direction string
	var confidence int16
	var createdAt time.Time
	if err := row.Scan(
		&s.ID,
		&s.Ticker,
		&direction,
		&s.EntryType,
		&s.Entry,
		&s.StopLoss,
		&s.TakeProfits,
		&confidence,
		&s.Strategy,
		&s.Status,
		&s.Violations,
		&s.RawMessage,
		&s.MessageID,
		&s.Author,
		&s.ChatID,
		&createdAt,
	); err != nil {
		return domain.Signal{}, err
	}
	s.Direction = domain.Direction(direction)
	s.Confidence = int(confidence)
	s.CreatedAt = createdAt.UTC()
	return s, nil
}
