package dto

import (
	"github.com/shopspring/decimal"

	"github.com/vouchly/voucher_ledger/internal/core/domain"
)

// InventoryLineResponse is one (store, faceValue, status) bucket.
type InventoryLineResponse struct {
	Store     string `json:"store"`
	FaceValue int64  `json:"faceValue"`
	Status    string `json:"status"`
	Count     int64  `json:"count"`
}

// StoreSummaryResponse aggregates one store's available inventory.
type StoreSummaryResponse struct {
	Store          string          `json:"store"`
	AvailableCount int64           `json:"availableCount"`
	TotalValue     decimal.Decimal `json:"totalValue"`
}

// StatusSummaryResponse is the per-face-value status breakdown.
type StatusSummaryResponse struct {
	FaceValue int64            `json:"faceValue"`
	Counts    map[string]int64 `json:"counts"`
}

// ToInventoryLineResponses converts grouped inventory lines.
func ToInventoryLineResponses(lines []domain.InventoryLine) []InventoryLineResponse {
	out := make([]InventoryLineResponse, len(lines))
	for i, l := range lines {
		out[i] = InventoryLineResponse{
			Store:     l.Store,
			FaceValue: l.FaceValue,
			Status:    string(l.Status),
			Count:     l.Count,
		}
	}
	return out
}

// ToStoreSummaryResponses converts store summaries.
func ToStoreSummaryResponses(sums []domain.StoreSummary) []StoreSummaryResponse {
	out := make([]StoreSummaryResponse, len(sums))
	for i, s := range sums {
		out[i] = StoreSummaryResponse{
			Store:          s.Store,
			AvailableCount: s.AvailableCount,
			TotalValue:     s.TotalValue,
		}
	}
	return out
}

// ToStatusSummaryResponses converts status summaries.
func ToStatusSummaryResponses(sums []domain.StatusSummary) []StatusSummaryResponse {
	out := make([]StatusSummaryResponse, len(sums))
	for i, s := range sums {
		counts := make(map[string]int64, len(s.Counts))
		for k, v := range s.Counts {
			counts[string(k)] = v
		}
		out[i] = StatusSummaryResponse{FaceValue: s.FaceValue, Counts: counts}
	}
	return out
}
