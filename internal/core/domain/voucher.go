package domain

import "time"

// VoucherStatus is the lifecycle state of a voucher.
//
// Transitions are strictly forward (AVAILABLE → PENDING → ASSIGNED) except
// for the reaper and an explicit release, which revert PENDING → AVAILABLE.
// ASSIGNED is terminal.
type VoucherStatus string

const (
	StatusAvailable VoucherStatus = "AVAILABLE"
	StatusPending   VoucherStatus = "PENDING"
	StatusAssigned  VoucherStatus = "ASSIGNED"
)

// Voucher is an indivisible unit of redeemable value: a fixed face value and
// a secret redemption code. A voucher is claimed whole or not at all.
type Voucher struct {
	VoucherID  int64         `json:"voucherID"`
	ExternalID string        `json:"externalID"` // idempotency key from the ingestion source
	Store      string        `json:"store"`
	FaceValue  int64         `json:"faceValue"`
	Code       string        `json:"-"` // redemption secret, never logged
	ImageRef   string        `json:"imageRef,omitempty"`
	Status     VoucherStatus `json:"status"`
	OwnerID    string        `json:"ownerID,omitempty"` // set iff status is PENDING or ASSIGNED
	ClaimedAt  *time.Time    `json:"claimedAt,omitempty"`
	AssignedAt *time.Time    `json:"assignedAt,omitempty"`
	AuditFields
}

// VoucherDraft is the parsed form of an ingestion event, ready for insertion.
type VoucherDraft struct {
	ExternalID string
	Store      string
	FaceValue  int64
	Code       string
	ImageRef   string
}

// AllocationRequest asks for vouchers summing as close as possible to
// TargetAmount without exceeding it. Not persisted.
type AllocationRequest struct {
	RequesterID  string
	TargetAmount int64
	StoreFilter  string // optional substring match on store
}

// ClaimResult reports a successful claim: the reserved vouchers (codes
// included, for delivery) and their total face value. Persisted only as the
// PENDING status on the underlying rows.
type ClaimResult struct {
	ClaimID  string
	OwnerID  string
	Vouchers []Voucher
	Total    int64
}

// VoucherIDs returns the ids of the reserved vouchers, in selection order.
func (r ClaimResult) VoucherIDs() []int64 {
	ids := make([]int64, len(r.Vouchers))
	for i, v := range r.Vouchers {
		ids[i] = v.VoucherID
	}
	return ids
}
