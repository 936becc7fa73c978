package services

import (
	"context"

	"github.com/vouchly/voucher_ledger/internal/core/domain"
	"github.com/vouchly/voucher_ledger/internal/dto"
)

// ClaimSvc is the claim coordinator: it makes decide-and-reserve atomic.
type ClaimSvc interface {
	// Claim validates the request, then atomically selects and reserves the
	// best voucher subset for the requester. Returns
	// apperrors.ErrValidation, ErrUnsatisfiable or ErrBusy.
	Claim(ctx context.Context, req domain.AllocationRequest) (*domain.ClaimResult, error)

	// Confirm finalises delivery: PENDING → ASSIGNED for the given ids, which
	// must all be reserved by ownerID.
	Confirm(ctx context.Context, ownerID string, voucherIDs []int64) error

	// Release returns reserved inventory immediately after a failed delivery:
	// PENDING → AVAILABLE for the given ids, which must all be reserved by
	// ownerID.
	Release(ctx context.Context, ownerID string, voucherIDs []int64) error

	// ListPending returns the vouchers currently reserved by ownerID.
	ListPending(ctx context.Context, ownerID string) ([]domain.Voucher, error)
}

// SweeperSvc reverts stale claims. Run by the background reaper.
type SweeperSvc interface {
	// SweepStaleClaims reverts PENDING vouchers older than the configured
	// claim timeout back to AVAILABLE. Returns the number reverted.
	SweepStaleClaims(ctx context.Context) (int64, error)
}

// ClaimSvcFacade combines claim coordination with stale-claim sweeping.
type ClaimSvcFacade interface {
	ClaimSvc
	SweeperSvc
}

// IngestionSvc reconciles external voucher events into the ledger.
type IngestionSvc interface {
	// Ingest parses one event and inserts the resulting draft. Every returned
	// IngestResult is terminal: the source event must be acknowledged and
	// never re-delivered. A non-nil error means the outcome is unknown
	// (storage failure) and the event must stay unacknowledged.
	Ingest(ctx context.Context, event domain.RawVoucherEvent) (domain.IngestResult, error)

	// RunIngestion drains the feed once under a single-flight guard,
	// acknowledging events per the Ingest contract. Returns
	// apperrors.ErrBusy when a run for the same source is already in flight.
	RunIngestion(ctx context.Context, feed VoucherFeed) (*domain.IngestionRunReport, error)

	// ImportSpreadsheet bulk-ingests vouchers from an uploaded workbook.
	ImportSpreadsheet(ctx context.Context, filename string, contents []byte) (*domain.IngestionRunReport, error)
}

// InventorySvc exposes the read-only inventory views used for display.
type InventorySvc interface {
	ListAvailable(ctx context.Context, storeFilter string) ([]domain.Voucher, error)
	ListAll(ctx context.Context) ([]domain.Voucher, error)
	GroupedInventory(ctx context.Context) ([]domain.InventoryLine, error)
	StoreSummaries(ctx context.Context) ([]domain.StoreSummary, error)
	StatusSummaries(ctx context.Context) ([]domain.StatusSummary, error)
	Stores(ctx context.Context) ([]string, error)
}

// SessionSvc manages persisted requester conversation state.
type SessionSvc interface {
	// PutPendingAmount records the amount a requester asked for, replacing
	// any previous session and restarting the expiry clock.
	PutPendingAmount(ctx context.Context, requesterID string, amount int64) error

	// GetPendingAmount returns the requester's pending amount, or
	// apperrors.ErrNotFound when there is no live session. Expired sessions
	// are deleted on read.
	GetPendingAmount(ctx context.Context, requesterID string) (int64, error)

	// ClearSession drops the requester's session.
	ClearSession(ctx context.Context, requesterID string) error

	// PurgeExpired removes all sessions past their expiry and returns the
	// number removed. Run by the background reaper.
	PurgeExpired(ctx context.Context) (int64, error)
}

// AuthSvc issues and validates requester tokens.
type AuthSvc interface {
	// IssueToken exchanges a requester id + access key for a signed JWT.
	IssueToken(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error)

	// IsAllowedRequester reports whether the identity is on the allowlist.
	IsAllowedRequester(requesterID string) bool
}
