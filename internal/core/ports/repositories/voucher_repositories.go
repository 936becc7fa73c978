package repositories

import (
	"context"
	"time"

	"github.com/vouchly/voucher_ledger/internal/core/domain"
)

// SelectorFunc picks a subset of the available vouchers, returning their ids
// in selection order. It runs against the in-transaction snapshot and must be
// pure: no I/O, no locks. Returns apperrors.ErrUnsatisfiable when no subset
// fits.
type SelectorFunc func(available []domain.Voucher) ([]int64, error)

// VoucherReader defines read operations for voucher data.
type VoucherReader interface {
	// FindByIDs retrieves vouchers by id, ordered by id ascending.
	FindByIDs(ctx context.Context, ids []int64) ([]domain.Voucher, error)

	// FindByExternalID retrieves the voucher ingested from the given source
	// event, or apperrors.ErrNotFound.
	FindByExternalID(ctx context.Context, externalID string) (*domain.Voucher, error)

	// ListAvailable returns a snapshot of AVAILABLE vouchers, optionally
	// filtered by store substring, ordered by id ascending.
	ListAvailable(ctx context.Context, storeFilter string) ([]domain.Voucher, error)

	// ListAll returns every voucher ordered by store, face value, id.
	ListAll(ctx context.Context) ([]domain.Voucher, error)

	// ListPendingByOwner returns the PENDING vouchers reserved for an owner.
	ListPendingByOwner(ctx context.Context, ownerID string) ([]domain.Voucher, error)

	// GroupedInventory returns (store, faceValue, status) counts.
	GroupedInventory(ctx context.Context) ([]domain.InventoryLine, error)

	// Stores returns the distinct stores that currently have AVAILABLE
	// vouchers, sorted.
	Stores(ctx context.Context) ([]string, error)
}

// VoucherWriter defines the invariant-preserving mutation primitives.
type VoucherWriter interface {
	// Insert creates a new AVAILABLE voucher keyed by the draft's external id.
	// If a row with that external id already exists, nothing is mutated and
	// apperrors.ErrDuplicate is returned.
	Insert(ctx context.Context, draft domain.VoucherDraft) (*domain.Voucher, error)

	// TransitionStatus moves all ids from one status to another,
	// compare-and-swap style: it fails with apperrors.ErrConflict (and
	// mutates nothing) if any id is not currently in `from`, or if
	// `requireOwner` is non-empty and any row is owned by someone else.
	// Transitions into PENDING record setOwner and the claim time; transitions
	// into AVAILABLE clear the owner; transitions into ASSIGNED stamp the
	// assignment time.
	TransitionStatus(ctx context.Context, ids []int64, from, to domain.VoucherStatus, requireOwner, setOwner string) error

	// SweepExpiredPending reverts PENDING vouchers whose claim predates the
	// cutoff back to AVAILABLE, clearing the owner. Returns the number of
	// rows reverted.
	SweepExpiredPending(ctx context.Context, olderThan time.Duration) (int64, error)
}

// VoucherAllocator runs the whole decide-and-reserve sequence inside a single
// write-exclusive transaction. This is the only sanctioned way to turn a read
// of AVAILABLE vouchers into a status change.
type VoucherAllocator interface {
	// AllocateAndReserve reads the AVAILABLE vouchers (optionally filtered by
	// store) under row locks, applies selectFn to that snapshot, transitions
	// the selected ids AVAILABLE → PENDING(owner) and commits. On contention
	// it returns apperrors.ErrBusy without retrying; retry policy belongs to
	// the caller. The selector's error (e.g. ErrUnsatisfiable) aborts the
	// transaction and is returned unchanged.
	AllocateAndReserve(ctx context.Context, ownerID, storeFilter string, selectFn SelectorFunc) ([]domain.Voucher, error)
}

// VoucherRepositoryFacade combines all voucher repository interfaces.
type VoucherRepositoryFacade interface {
	VoucherReader
	VoucherWriter
	VoucherAllocator
}

// VoucherRepositoryWithTx extends the facade with transaction management.
type VoucherRepositoryWithTx interface {
	VoucherRepositoryFacade
	TransactionManager
}
