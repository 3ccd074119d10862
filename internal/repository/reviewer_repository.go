package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

// Reviewer is an operator allowed to confirm or discard pending signals over
// the SSH review console. Auth is by public key fingerprint.
type Reviewer struct {
	ID          int64
	Username    string
	Fingerprint string
	IsActive    bool
	LastLoginAt *time.Time
	CreatedAt   time.Time
}

type ReviewerRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewReviewerRepository(pool PgxPool, tracer trace.Tracer) *ReviewerRepository {
	return &ReviewerRepository{pool: pool, tracer: tracer}
}

func (r *ReviewerRepository) FindByFingerprint(ctx context.Context, fingerprint string) (*Reviewer, error) {
	_, span := r.tracer.Start(ctx, "reviewer-repo.find-by-fingerprint")
	defer span.End()

	row := r.pool.QueryRow(ctx,
		`SELECT id, username, fingerprint, is_active, last_login_at, created_at
		 FROM reviewers
		 WHERE fingerprint = $1 AND is_active = TRUE`,
		fingerprint,
	)

	var rev Reviewer
	var lastLogin *time.Time
	err := row.Scan(&rev.ID, &rev.Username, &rev.Fingerprint, &rev.IsActive, &lastLogin, &rev.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rev.LastLoginAt = lastLogin
	return &rev, nil
}

// UpsertReviewer registers a fingerprint from configuration. Re-registering
// an existing fingerprint reactivates it.
func (r *ReviewerRepository) UpsertReviewer(ctx context.Context, username, fingerprint string) error {
	_, span := r.tracer.Start(ctx, "reviewer-repo.upsert")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO reviewers (username, fingerprint)
		 VALUES ($1, $2)
		 ON CONFLICT (fingerprint) DO UPDATE SET
		     username = EXCLUDED.username,
		     is_active = TRUE`,
		username, fingerprint,
	)
	return err
}

func (r *ReviewerRepository) UpdateLastLogin(ctx context.Context, reviewerID int64) error {
	_, span := r.tracer.Start(ctx, "reviewer-repo.update-last-login")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`UPDATE reviewers SET last_login_at = NOW() WHERE id = $1`,
		reviewerID,
	)
	return err
}

func (r *ReviewerRepository) ListActive(ctx context.Context) ([]Reviewer, error) {
	_, span := r.tracer.Start(ctx, "reviewer-repo.list-active")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id, username, fingerprint, is_active, last_login_at, created_at
		 FROM reviewers
		 WHERE is_active = TRUE
		 ORDER BY username ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviewers []Reviewer
	for rows.Next() {
		var rev Reviewer
		var lastLogin *time.Time
		if err := rows.Scan(&rev.ID, &rev.Username, &rev.Fingerprint, &rev.IsActive, &lastLogin, &rev.CreatedAt); err != nil {
			return nil, err
		}
		rev.LastLoginAt = lastLogin
		reviewers = append(reviewers, rev)
	}
	return reviewers, rows.Err()
}
