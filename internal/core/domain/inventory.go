package domain

import "github.com/shopspring/decimal"

// InventoryLine is one (store, faceValue, status) bucket of the grouped
// inventory view.
type InventoryLine struct {
	Store     string        `json:"store"`
	FaceValue int64         `json:"faceValue"`
	Status    VoucherStatus `json:"status"`
	Count     int64         `json:"count"`
}

// StoreSummary aggregates the available inventory of one store.
type StoreSummary struct {
	Store          string          `json:"store"`
	AvailableCount int64           `json:"availableCount"`
	TotalValue     decimal.Decimal `json:"totalValue"`
}

// StatusSummary is the per-face-value status breakdown ("status" command in
// the conversation layer).
type StatusSummary struct {
	FaceValue int64                   `json:"faceValue"`
	Counts    map[VoucherStatus]int64 `json:"counts"`
}
