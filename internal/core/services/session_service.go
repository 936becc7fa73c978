package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vouchly/voucher_ledger/internal/apperrors"
	"github.com/vouchly/voucher_ledger/internal/core/domain"
	portsrepo "github.com/vouchly/voucher_ledger/internal/core/ports/repositories"
	portssvc "github.com/vouchly/voucher_ledger/internal/core/ports/services"
	"github.com/vouchly/voucher_ledger/internal/middleware"
)

// sessionService persists per-requester conversation state so a process
// restart cannot change how the next message is interpreted.
type sessionService struct {
	sessionRepo portsrepo.SessionRepository
	ttl         time.Duration
	minAmount   int64
	maxAmount   int64
}

// NewSessionService creates the requester session service.
func NewSessionService(sessionRepo portsrepo.SessionRepository, ttl time.Duration, minAmount, maxAmount int64) portssvc.SessionSvc {
	return &sessionService{
		sessionRepo: sessionRepo,
		ttl:         ttl,
		minAmount:   minAmount,
		maxAmount:   maxAmount,
	}
}

var _ portssvc.SessionSvc = (*sessionService)(nil)

func (s *sessionService) PutPendingAmount(ctx context.Context, requesterID string, amount int64) error {
	if requesterID == "" {
		return fmt.Errorf("%w: requester id is required", apperrors.ErrValidation)
	}
	if amount < s.minAmount || amount > s.maxAmount {
		return fmt.Errorf("%w: pending amount must be between %d and %d", apperrors.ErrValidation, s.minAmount, s.maxAmount)
	}

	now := time.Now()
	session := domain.RequesterSession{
		RequesterID:   requesterID,
		PendingAmount: amount,
		ExpiresAt:     now.Add(s.ttl),
	}
	session.CreatedAt = now
	session.LastUpdatedAt = now
	if err := s.sessionRepo.UpsertSession(ctx, session); err != nil {
		return err
	}
	middleware.GetLoggerFromCtx(ctx).Info("Stored pending amount",
		slog.String("requester_id", requesterID),
		slog.Int64("amount", amount))
	return nil
}

func (s *sessionService) GetPendingAmount(ctx context.Context, requesterID string) (int64, error) {
	session, err := s.sessionRepo.FindSession(ctx, requesterID)
	if err != nil {
		return 0, err
	}
	if session.Expired(time.Now()) {
		// Lazy expiry; the row is gone by the time the caller acts on it.
		_ = s.sessionRepo.DeleteSession(ctx, requesterID)
		return 0, apperrors.ErrNotFound
	}
	return session.PendingAmount, nil
}

func (s *sessionService) ClearSession(ctx context.Context, requesterID string) error {
	return s.sessionRepo.DeleteSession(ctx, requesterID)
}

func (s *sessionService) PurgeExpired(ctx context.Context) (int64, error) {
	purged, err := s.sessionRepo.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		middleware.GetLoggerFromCtx(ctx).Info("Purged expired sessions", slog.Int64("count", purged))
	}
	return purged, nil
}
