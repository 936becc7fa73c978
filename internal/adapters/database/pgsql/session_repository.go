package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vouchly/voucher_ledger/internal/apperrors"
	"github.com/vouchly/voucher_ledger/internal/core/domain"
	portsrepo "github.com/vouchly/voucher_ledger/internal/core/ports/repositories"
	"github.com/vouchly/voucher_ledger/internal/models"
	"github.com/vouchly/voucher_ledger/internal/utils/mapping"
)

type PgxSessionRepository struct {
	BaseRepository
}

// NewPgxSessionRepository creates a new repository for requester session data.
func NewPgxSessionRepository(pool *pgxpool.Pool) portsrepo.SessionRepository {
	return &PgxSessionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.SessionRepository = (*PgxSessionRepository)(nil)

func (r *PgxSessionRepository) UpsertSession(ctx context.Context, session domain.RequesterSession) error {
	m := mapping.ToModelSession(session)
	query := `
		INSERT INTO requester_sessions (requester_id, pending_amount, expires_at, created_at, last_updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (requester_id) DO UPDATE
		SET pending_amount = EXCLUDED.pending_amount,
		    expires_at = EXCLUDED.expires_at,
		    last_updated_at = now();
	`
	if _, err := r.Pool.Exec(ctx, query, m.RequesterID, m.PendingAmount, m.ExpiresAt); err != nil {
		return apperrors.NewAppError(500, "failed to upsert requester session", err)
	}
	return nil
}

func (r *PgxSessionRepository) FindSession(ctx context.Context, requesterID string) (*domain.RequesterSession, error) {
	query := `
		SELECT requester_id, pending_amount, expires_at, created_at, last_updated_at
		FROM requester_sessions WHERE requester_id = $1;
	`
	var m models.RequesterSession
	err := r.Pool.QueryRow(ctx, query, requesterID).Scan(
		&m.RequesterID,
		&m.PendingAmount,
		&m.ExpiresAt,
		&m.CreatedAt,
		&m.LastUpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to find requester session", err)
	}
	d := mapping.ToDomainSession(m)
	return &d, nil
}

func (r *PgxSessionRepository) DeleteSession(ctx context.Context, requesterID string) error {
	if _, err := r.Pool.Exec(ctx, `DELETE FROM requester_sessions WHERE requester_id = $1;`, requesterID); err != nil {
		return apperrors.NewAppError(500, "failed to delete requester session", err)
	}
	return nil
}

func (r *PgxSessionRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM requester_sessions WHERE expires_at <= now();`)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to delete expired sessions", err)
	}
	return tag.RowsAffected(), nil
}
