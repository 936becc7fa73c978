package dto

import (
	"time"

	"github.com/vouchly/voucher_ledger/internal/core/domain"
)

// VoucherResponse is the inventory view of a voucher. The redemption code is
// deliberately absent: codes are only handed out through a claim.
type VoucherResponse struct {
	VoucherID  int64      `json:"voucherID"`
	Store      string     `json:"store"`
	FaceValue  int64      `json:"faceValue"`
	Status     string     `json:"status"`
	OwnerID    string     `json:"ownerID,omitempty"`
	ImageRef   string     `json:"imageRef,omitempty"`
	ClaimedAt  *time.Time `json:"claimedAt,omitempty"`
	AssignedAt *time.Time `json:"assignedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ClaimedVoucherResponse is a voucher as delivered to its claimant, code
// included.
type ClaimedVoucherResponse struct {
	VoucherID int64  `json:"voucherID"`
	Store     string `json:"store"`
	FaceValue int64  `json:"faceValue"`
	Code      string `json:"code"`
	ImageRef  string `json:"imageRef,omitempty"`
}

// ToVoucherResponse converts a domain Voucher to its inventory view.
func ToVoucherResponse(v domain.Voucher) VoucherResponse {
	return VoucherResponse{
		VoucherID:  v.VoucherID,
		Store:      v.Store,
		FaceValue:  v.FaceValue,
		Status:     string(v.Status),
		OwnerID:    v.OwnerID,
		ImageRef:   v.ImageRef,
		ClaimedAt:  v.ClaimedAt,
		AssignedAt: v.AssignedAt,
		CreatedAt:  v.CreatedAt,
	}
}

// ToVoucherResponses converts a slice of domain Vouchers.
func ToVoucherResponses(vs []domain.Voucher) []VoucherResponse {
	out := make([]VoucherResponse, len(vs))
	for i, v := range vs {
		out[i] = ToVoucherResponse(v)
	}
	return out
}

// ToClaimedVoucherResponse converts a reserved voucher to its delivery view.
func ToClaimedVoucherResponse(v domain.Voucher) ClaimedVoucherResponse {
	return ClaimedVoucherResponse{
		VoucherID: v.VoucherID,
		Store:     v.Store,
		FaceValue: v.FaceValue,
		Code:      v.Code,
		ImageRef:  v.ImageRef,
	}
}
