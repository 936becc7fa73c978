package models

import "time"

// VoucherStatus mirrors domain.VoucherStatus at the persistence layer.
type VoucherStatus string

const (
	Available VoucherStatus = "AVAILABLE"
	Pending   VoucherStatus = "PENDING"
	Assigned  VoucherStatus = "ASSIGNED"
)

// Voucher is the persisted voucher row.
// owner_id is non-null iff status is PENDING or ASSIGNED (enforced by a
// table CHECK constraint, see migrations).
type Voucher struct {
	VoucherID  int64         `db:"voucher_id"`
	ExternalID string        `db:"external_id"`
	Store      string        `db:"store"`
	FaceValue  int64         `db:"face_value"`
	Code       string        `db:"code"`
	ImageRef   *string       `db:"image_ref"`
	Status     VoucherStatus `db:"status"`
	OwnerID    *string       `db:"owner_id"`
	ClaimedAt  *time.Time    `db:"claimed_at"`
	AssignedAt *time.Time    `db:"assigned_at"`
	AuditFields
}

// AuditFields holds the standard audit columns.
type AuditFields struct {
	CreatedAt     time.Time `db:"created_at"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
}
