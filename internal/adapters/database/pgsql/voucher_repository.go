package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vouchly/voucher_ledger/internal/apperrors"
	"github.com/vouchly/voucher_ledger/internal/core/domain"
	portsrepo "github.com/vouchly/voucher_ledger/internal/core/ports/repositories"
	"github.com/vouchly/voucher_ledger/internal/models"
	"github.com/vouchly/voucher_ledger/internal/utils/mapping"
)

type PgxVoucherRepository struct {
	BaseRepository
}

// NewPgxVoucherRepository creates a new repository for voucher ledger data.
func NewPgxVoucherRepository(pool *pgxpool.Pool) portsrepo.VoucherRepositoryWithTx {
	return &PgxVoucherRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxVoucherRepository implements portsrepo.VoucherRepositoryWithTx
var _ portsrepo.VoucherRepositoryWithTx = (*PgxVoucherRepository)(nil)

const voucherColumns = `voucher_id, external_id, store, face_value, code, image_ref, status, owner_id, claimed_at, assigned_at, created_at, last_updated_at`

func scanVoucher(row pgx.Row) (models.Voucher, error) {
	var m models.Voucher
	err := row.Scan(
		&m.VoucherID,
		&m.ExternalID,
		&m.Store,
		&m.FaceValue,
		&m.Code,
		&m.ImageRef,
		&m.Status,
		&m.OwnerID,
		&m.ClaimedAt,
		&m.AssignedAt,
		&m.CreatedAt,
		&m.LastUpdatedAt,
	)
	return m, err
}

func collectVouchers(rows pgx.Rows) ([]domain.Voucher, error) {
	defer rows.Close()
	var out []models.Voucher
	for rows.Next() {
		m, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return mapping.ToDomainVouchers(out), nil
}

// Insert creates a new AVAILABLE voucher. The unique constraints on
// external_id and code make re-ingestion of the same source event (or the
// same code through a different channel) a no-op reported as ErrDuplicate.
func (r *PgxVoucherRepository) Insert(ctx context.Context, draft domain.VoucherDraft) (*domain.Voucher, error) {
	query := `
		INSERT INTO vouchers (external_id, store, face_value, code, image_ref, status, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT DO NOTHING
		RETURNING ` + voucherColumns + `;
	`
	var imageRef *string
	if draft.ImageRef != "" {
		imageRef = &draft.ImageRef
	}
	m, err := scanVoucher(r.Pool.QueryRow(ctx, query,
		draft.ExternalID,
		draft.Store,
		draft.FaceValue,
		draft.Code,
		imageRef,
		models.Available,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrDuplicate
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrDuplicate
		}
		return nil, apperrors.NewAppError(500, "failed to insert voucher", err)
	}
	d := mapping.ToDomainVoucher(m)
	return &d, nil
}

// FindByExternalID retrieves the voucher ingested from a given source event.
func (r *PgxVoucherRepository) FindByExternalID(ctx context.Context, externalID string) (*domain.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE external_id = $1;`
	m, err := scanVoucher(r.Pool.QueryRow(ctx, query, externalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to find voucher by external id", err)
	}
	d := mapping.ToDomainVoucher(m)
	return &d, nil
}

// FindByIDs retrieves vouchers by id, ordered by id ascending.
func (r *PgxVoucherRepository) FindByIDs(ctx context.Context, ids []int64) ([]domain.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE voucher_id = ANY($1) ORDER BY voucher_id ASC;`
	rows, err := r.Pool.Query(ctx, query, ids)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query vouchers by ids", err)
	}
	return collectVouchers(rows)
}

// ListAvailable returns a snapshot of AVAILABLE vouchers ordered by id
// ascending for determinism. storeFilter, when non-empty, is matched as a
// case-insensitive substring the way the conversation layer has always
// matched store names.
func (r *PgxVoucherRepository) ListAvailable(ctx context.Context, storeFilter string) ([]domain.Voucher, error) {
	query := `
		SELECT ` + voucherColumns + ` FROM vouchers
		WHERE status = $1 AND ($2 = '' OR store ILIKE '%' || $2 || '%')
		ORDER BY voucher_id ASC;
	`
	rows, err := r.Pool.Query(ctx, query, models.Available, storeFilter)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list available vouchers", err)
	}
	return collectVouchers(rows)
}

// ListAll returns every voucher ordered the way the inventory view shows
// them.
func (r *PgxVoucherRepository) ListAll(ctx context.Context) ([]domain.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers ORDER BY store ASC, face_value ASC, voucher_id ASC;`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list vouchers", err)
	}
	return collectVouchers(rows)
}

// ListPendingByOwner returns the PENDING vouchers reserved for an owner.
func (r *PgxVoucherRepository) ListPendingByOwner(ctx context.Context, ownerID string) ([]domain.Voucher, error) {
	query := `
		SELECT ` + voucherColumns + ` FROM vouchers
		WHERE status = $1 AND owner_id = $2
		ORDER BY voucher_id ASC;
	`
	rows, err := r.Pool.Query(ctx, query, models.Pending, ownerID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list pending vouchers", err)
	}
	return collectVouchers(rows)
}

// GroupedInventory returns (store, faceValue, status) counts.
func (r *PgxVoucherRepository) GroupedInventory(ctx context.Context) ([]domain.InventoryLine, error) {
	query := `
		SELECT store, face_value, status, COUNT(*) FROM vouchers
		GROUP BY store, face_value, status
		ORDER BY store ASC, face_value ASC, status ASC;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to group inventory", err)
	}
	defer rows.Close()

	var lines []domain.InventoryLine
	for rows.Next() {
		var line domain.InventoryLine
		var status models.VoucherStatus
		if err := rows.Scan(&line.Store, &line.FaceValue, &status, &line.Count); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan inventory line", err)
		}
		line.Status = domain.VoucherStatus(status)
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to read inventory lines", err)
	}
	return lines, nil
}

// Stores returns the distinct stores that currently have AVAILABLE vouchers.
func (r *PgxVoucherRepository) Stores(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT store FROM vouchers
		WHERE status = $1 AND store <> ''
		ORDER BY store ASC;
	`
	rows, err := r.Pool.Query(ctx, query, models.Available)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list stores", err)
	}
	defer rows.Close()

	var stores []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan store", err)
		}
		stores = append(stores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to read stores", err)
	}
	return stores, nil
}

// AllocateAndReserve runs the claim protocol: one serializable transaction
// that reads the available snapshot under row locks, lets the selector
// decide, and flips the chosen rows to PENDING before committing. Contention
// (serialization failure, deadlock, lock wait) surfaces as ErrBusy so the
// coordinator can retry with backoff; it is never silently degraded to a
// two-step read/write.
func (r *PgxVoucherRepository) AllocateAndReserve(ctx context.Context, ownerID, storeFilter string, selectFn portsrepo.SelectorFunc) ([]domain.Voucher, error) {
	tx, err := r.BeginSerializable(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	snapshotQuery := `
		SELECT ` + voucherColumns + ` FROM vouchers
		WHERE status = $1 AND ($2 = '' OR store ILIKE '%' || $2 || '%')
		ORDER BY voucher_id ASC
		FOR UPDATE;
	`
	rows, err := tx.Query(ctx, snapshotQuery, models.Available, storeFilter)
	if err != nil {
		if isContentionErr(err) {
			return nil, apperrors.ErrBusy
		}
		return nil, apperrors.NewAppError(500, "failed to read available snapshot", err)
	}
	available, err := collectVouchers(rows)
	if err != nil {
		if isContentionErr(err) {
			return nil, apperrors.ErrBusy
		}
		return nil, apperrors.NewAppError(500, "failed to scan available snapshot", err)
	}

	selectedIDs, err := selectFn(available)
	if err != nil {
		// Selector errors (ErrUnsatisfiable included) abort the transaction
		// with no inventory touched.
		return nil, err
	}
	if len(selectedIDs) == 0 {
		return nil, apperrors.ErrUnsatisfiable
	}

	reserveQuery := `
		UPDATE vouchers
		SET status = $1, owner_id = $2, claimed_at = now(), last_updated_at = now()
		WHERE voucher_id = ANY($3) AND status = $4;
	`
	tag, err := tx.Exec(ctx, reserveQuery, models.Pending, ownerID, selectedIDs, models.Available)
	if err != nil {
		if isContentionErr(err) {
			return nil, apperrors.ErrBusy
		}
		return nil, apperrors.NewAppError(500, "failed to reserve selected vouchers", err)
	}
	if tag.RowsAffected() != int64(len(selectedIDs)) {
		// The selector ran against rows we hold locks on, so a mismatch is a
		// logic bug rather than a lost race.
		return nil, apperrors.NewAppError(500,
			fmt.Sprintf("reserved %d of %d selected vouchers", tag.RowsAffected(), len(selectedIDs)),
			apperrors.ErrConflict)
	}

	reserved := make([]domain.Voucher, 0, len(selectedIDs))
	byID := make(map[int64]domain.Voucher, len(available))
	for _, v := range available {
		byID[v.VoucherID] = v
	}
	now := time.Now()
	for _, id := range selectedIDs {
		v, ok := byID[id]
		if !ok {
			return nil, apperrors.NewAppError(500, fmt.Sprintf("selector returned unknown voucher id %d", id), apperrors.ErrConflict)
		}
		v.Status = domain.StatusPending
		v.OwnerID = ownerID
		v.ClaimedAt = &now
		reserved = append(reserved, v)
	}

	if err := tx.Commit(ctx); err != nil {
		if isContentionErr(err) {
			return nil, apperrors.ErrBusy
		}
		return nil, apperrors.NewAppError(500, "failed to commit claim transaction", err)
	}
	return reserved, nil
}

// TransitionStatus moves ids between statuses compare-and-swap style. If any
// id is not currently in `from` (or is held by a different owner when
// requireOwner is set) nothing is mutated and ErrConflict is returned.
func (r *PgxVoucherRepository) TransitionStatus(ctx context.Context, ids []int64, from, to domain.VoucherStatus, requireOwner, setOwner string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	var query string
	args := []any{models.VoucherStatus(to), ids, models.VoucherStatus(from)}
	switch to {
	case domain.StatusPending:
		query = `
			UPDATE vouchers
			SET status = $1, owner_id = $4, claimed_at = now(), last_updated_at = now()
			WHERE voucher_id = ANY($2) AND status = $3`
		args = append(args, setOwner)
	case domain.StatusAssigned:
		query = `
			UPDATE vouchers
			SET status = $1, assigned_at = now(), last_updated_at = now()
			WHERE voucher_id = ANY($2) AND status = $3`
	case domain.StatusAvailable:
		query = `
			UPDATE vouchers
			SET status = $1, owner_id = NULL, claimed_at = NULL, last_updated_at = now()
			WHERE voucher_id = ANY($2) AND status = $3`
	default:
		return apperrors.NewAppError(500, fmt.Sprintf("unknown target status %q", to), nil)
	}
	if requireOwner != "" {
		query += fmt.Sprintf(" AND owner_id = $%d", len(args)+1)
		args = append(args, requireOwner)
	}
	query += ";"

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return apperrors.NewAppError(500, "failed to transition voucher status", err)
	}
	if tag.RowsAffected() != int64(len(ids)) {
		// Precondition failed for at least one row: abort so no partial
		// transition is ever visible.
		return apperrors.ErrConflict
	}
	return r.Commit(ctx, tx)
}

// SweepExpiredPending reverts stale claims in one bounded transaction.
func (r *PgxVoucherRepository) SweepExpiredPending(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		UPDATE vouchers
		SET status = $1, owner_id = NULL, claimed_at = NULL, last_updated_at = now()
		WHERE status = $2 AND claimed_at < now() - $3::interval;
	`
	interval := fmt.Sprintf("%f seconds", olderThan.Seconds())
	tag, err := r.Pool.Exec(ctx, query, models.Available, models.Pending, interval)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to sweep expired pending vouchers", err)
	}
	return tag.RowsAffected(), nil
}
