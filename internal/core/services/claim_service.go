package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vouchly/voucher_ledger/internal/apperrors"
	"github.com/vouchly/voucher_ledger/internal/core/domain"
	portsrepo "github.com/vouchly/voucher_ledger/internal/core/ports/repositories"
	portssvc "github.com/vouchly/voucher_ledger/internal/core/ports/services"
	"github.com/vouchly/voucher_ledger/internal/middleware"
	"github.com/vouchly/voucher_ledger/internal/utils/allocation"
)

// claimRetryBase is the first backoff step after a contended attempt; each
// further attempt doubles it.
const claimRetryBase = 50 * time.Millisecond

// claimService coordinates the atomic decide-and-reserve protocol.
type claimService struct {
	voucherRepo     portsrepo.VoucherRepositoryWithTx
	minClaimAmount  int64
	maxClaimAmount  int64
	claimTimeout    time.Duration
	claimMaxRetries int
}

// NewClaimService creates the claim coordinator.
func NewClaimService(voucherRepo portsrepo.VoucherRepositoryWithTx, minAmount, maxAmount int64, claimTimeout time.Duration, maxRetries int) portssvc.ClaimSvcFacade {
	return &claimService{
		voucherRepo:     voucherRepo,
		minClaimAmount:  minAmount,
		maxClaimAmount:  maxAmount,
		claimTimeout:    claimTimeout,
		claimMaxRetries: maxRetries,
	}
}

var _ portssvc.ClaimSvcFacade = (*claimService)(nil)

// Claim validates bounds before any transaction is opened, then runs the
// selection inside the repository's single serializable transaction. On
// contention it retries with exponential backoff and finally reports Busy;
// it never degrades to a non-atomic read-then-write.
func (s *claimService) Claim(ctx context.Context, req domain.AllocationRequest) (*domain.ClaimResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.RequesterID == "" {
		return nil, fmt.Errorf("%w: requester id is required", apperrors.ErrValidation)
	}
	if req.TargetAmount < s.minClaimAmount || req.TargetAmount > s.maxClaimAmount {
		return nil, fmt.Errorf("%w: target amount must be between %d and %d", apperrors.ErrValidation, s.minClaimAmount, s.maxClaimAmount)
	}

	selector := func(available []domain.Voucher) ([]int64, error) {
		sel, err := allocation.BestSubset(available, req.TargetAmount)
		if err != nil {
			return nil, err
		}
		return sel.VoucherIDs, nil
	}

	var reserved []domain.Voucher
	var err error
	for attempt := 0; ; attempt++ {
		reserved, err = s.voucherRepo.AllocateAndReserve(ctx, req.RequesterID, req.StoreFilter, selector)
		if !errors.Is(err, apperrors.ErrBusy) {
			break
		}
		if attempt >= s.claimMaxRetries {
			logger.Warn("Claim gave up after contention",
				slog.String("requester_id", req.RequesterID),
				slog.Int("attempts", attempt+1))
			return nil, apperrors.ErrBusy
		}
		backoff := claimRetryBase << attempt
		logger.Info("Claim transaction contended, retrying",
			slog.String("requester_id", req.RequesterID),
			slog.Duration("backoff", backoff))
		select {
		case <-ctx.Done():
			// Deadline expired before commit: the aborted transaction touched
			// no inventory.
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrUnsatisfiable) {
			logger.Info("Claim unsatisfiable",
				slog.String("requester_id", req.RequesterID),
				slog.Int64("target_amount", req.TargetAmount),
				slog.String("store_filter", req.StoreFilter))
		}
		return nil, err
	}

	result := &domain.ClaimResult{
		ClaimID:  uuid.NewString(),
		OwnerID:  req.RequesterID,
		Vouchers: reserved,
	}
	for _, v := range reserved {
		result.Total += v.FaceValue
	}

	logger.Info("Claim reserved vouchers",
		slog.String("claim_id", result.ClaimID),
		slog.String("requester_id", req.RequesterID),
		slog.Int64("target_amount", req.TargetAmount),
		slog.Int64("total", result.Total),
		slog.Int("voucher_count", len(reserved)),
		slog.Any("voucher_ids", result.VoucherIDs()))
	return result, nil
}

// Confirm finalises delivery: PENDING → ASSIGNED, owner-checked.
func (s *claimService) Confirm(ctx context.Context, ownerID string, voucherIDs []int64) error {
	if ownerID == "" || len(voucherIDs) == 0 {
		return fmt.Errorf("%w: owner and voucher ids are required", apperrors.ErrValidation)
	}
	err := s.voucherRepo.TransitionStatus(ctx, voucherIDs, domain.StatusPending, domain.StatusAssigned, ownerID, "")
	if err != nil {
		return err
	}
	middleware.GetLoggerFromCtx(ctx).Info("Claim confirmed",
		slog.String("requester_id", ownerID),
		slog.Any("voucher_ids", voucherIDs))
	return nil
}

// Release returns inventory immediately after a failed delivery rather than
// waiting for the reaper: PENDING → AVAILABLE, owner-checked.
func (s *claimService) Release(ctx context.Context, ownerID string, voucherIDs []int64) error {
	if ownerID == "" || len(voucherIDs) == 0 {
		return fmt.Errorf("%w: owner and voucher ids are required", apperrors.ErrValidation)
	}
	err := s.voucherRepo.TransitionStatus(ctx, voucherIDs, domain.StatusPending, domain.StatusAvailable, ownerID, "")
	if err != nil {
		return err
	}
	middleware.GetLoggerFromCtx(ctx).Info("Claim released",
		slog.String("requester_id", ownerID),
		slog.Any("voucher_ids", voucherIDs))
	return nil
}

// ListPending returns the vouchers currently reserved by an owner.
func (s *claimService) ListPending(ctx context.Context, ownerID string) ([]domain.Voucher, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", apperrors.ErrValidation)
	}
	return s.voucherRepo.ListPendingByOwner(ctx, ownerID)
}

// SweepStaleClaims reverts claims older than the configured timeout.
func (s *claimService) SweepStaleClaims(ctx context.Context) (int64, error) {
	reverted, err := s.voucherRepo.SweepExpiredPending(ctx, s.claimTimeout)
	if err != nil {
		return 0, err
	}
	if reverted > 0 {
		middleware.GetLoggerFromCtx(ctx).Info("Reverted stale claims", slog.Int64("count", reverted))
	}
	return reverted, nil
}
