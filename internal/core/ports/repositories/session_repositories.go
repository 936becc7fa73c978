package repositories

import (
	"context"

	"github.com/vouchly/voucher_ledger/internal/core/domain"
)

// SessionRepository persists per-requester conversation state.
type SessionRepository interface {
	// UpsertSession stores or replaces the session for its requester.
	UpsertSession(ctx context.Context, session domain.RequesterSession) error

	// FindSession retrieves the session for a requester, or
	// apperrors.ErrNotFound. Expiry is not evaluated here; callers decide.
	FindSession(ctx context.Context, requesterID string) (*domain.RequesterSession, error)

	// DeleteSession removes the session for a requester. Deleting a missing
	// session is not an error.
	DeleteSession(ctx context.Context, requesterID string) error

	// DeleteExpiredSessions removes all sessions past their expiry and
	// returns the number removed.
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}
