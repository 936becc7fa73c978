package dto

import "github.com/vouchly/voucher_ledger/internal/core/domain"

// CreateClaimRequest asks to reserve vouchers summing as close as possible
// to TargetAmount without exceeding it. Bounds are re-validated by the claim
// coordinator regardless of what the binding layer accepts.
type CreateClaimRequest struct {
	TargetAmount int64  `json:"targetAmount" binding:"required,gt=0"`
	StoreFilter  string `json:"storeFilter"`
}

// ClaimResponse reports a successful reservation.
type ClaimResponse struct {
	ClaimID  string                   `json:"claimID"`
	OwnerID  string                   `json:"ownerID"`
	Total    int64                    `json:"total"`
	Vouchers []ClaimedVoucherResponse `json:"vouchers"`
}

// FinalizeClaimRequest names the reserved voucher ids to confirm or release.
type FinalizeClaimRequest struct {
	VoucherIDs []int64 `json:"voucherIDs" binding:"required,min=1"`
}

// ToClaimResponse converts a domain ClaimResult to its API shape.
func ToClaimResponse(r domain.ClaimResult) ClaimResponse {
	vouchers := make([]ClaimedVoucherResponse, len(r.Vouchers))
	for i, v := range r.Vouchers {
		vouchers[i] = ToClaimedVoucherResponse(v)
	}
	return ClaimResponse{
		ClaimID:  r.ClaimID,
		OwnerID:  r.OwnerID,
		Total:    r.Total,
		Vouchers: vouchers,
	}
}
