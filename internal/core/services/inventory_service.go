package services

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vouchly/voucher_ledger/internal/core/domain"
	portsrepo "github.com/vouchly/voucher_ledger/internal/core/ports/repositories"
	portssvc "github.com/vouchly/voucher_ledger/internal/core/ports/services"
)

// inventoryService exposes the read-only inventory views.
type inventoryService struct {
	voucherRepo portsrepo.VoucherReader
}

// NewInventoryService creates the inventory read service.
func NewInventoryService(voucherRepo portsrepo.VoucherReader) portssvc.InventorySvc {
	return &inventoryService{voucherRepo: voucherRepo}
}

var _ portssvc.InventorySvc = (*inventoryService)(nil)

func (s *inventoryService) ListAvailable(ctx context.Context, storeFilter string) ([]domain.Voucher, error) {
	return s.voucherRepo.ListAvailable(ctx, storeFilter)
}

func (s *inventoryService) ListAll(ctx context.Context) ([]domain.Voucher, error) {
	return s.voucherRepo.ListAll(ctx)
}

func (s *inventoryService) GroupedInventory(ctx context.Context) ([]domain.InventoryLine, error) {
	return s.voucherRepo.GroupedInventory(ctx)
}

func (s *inventoryService) Stores(ctx context.Context) ([]string, error) {
	return s.voucherRepo.Stores(ctx)
}

// StoreSummaries aggregates the available inventory per store, with the
// total redeemable value as a decimal for display formatting.
func (s *inventoryService) StoreSummaries(ctx context.Context) ([]domain.StoreSummary, error) {
	lines, err := s.voucherRepo.GroupedInventory(ctx)
	if err != nil {
		return nil, err
	}

	byStore := make(map[string]*domain.StoreSummary)
	for _, line := range lines {
		if line.Status != domain.StatusAvailable {
			continue
		}
		sum, ok := byStore[line.Store]
		if !ok {
			sum = &domain.StoreSummary{Store: line.Store, TotalValue: decimal.Zero}
			byStore[line.Store] = sum
		}
		sum.AvailableCount += line.Count
		sum.TotalValue = sum.TotalValue.Add(decimal.NewFromInt(line.FaceValue).Mul(decimal.NewFromInt(line.Count)))
	}

	out := make([]domain.StoreSummary, 0, len(byStore))
	for _, sum := range byStore {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Store < out[j].Store })
	return out, nil
}

// StatusSummaries is the per-face-value breakdown, highest face value first,
// matching how the inventory has always been summarised.
func (s *inventoryService) StatusSummaries(ctx context.Context) ([]domain.StatusSummary, error) {
	lines, err := s.voucherRepo.GroupedInventory(ctx)
	if err != nil {
		return nil, err
	}

	byValue := make(map[int64]*domain.StatusSummary)
	for _, line := range lines {
		sum, ok := byValue[line.FaceValue]
		if !ok {
			sum = &domain.StatusSummary{FaceValue: line.FaceValue, Counts: make(map[domain.VoucherStatus]int64)}
			byValue[line.FaceValue] = sum
		}
		sum.Counts[line.Status] += line.Count
	}

	out := make([]domain.StatusSummary, 0, len(byValue))
	for _, sum := range byValue {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FaceValue > out[j].FaceValue })
	return out, nil
}
