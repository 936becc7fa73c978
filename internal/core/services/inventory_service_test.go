package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vouchly/voucher_ledger/internal/core/domain"
	"github.com/vouchly/voucher_ledger/internal/core/services"
)

func TestStoreSummaries_OnlyAvailableCounted(t *testing.T) {
	repo := new(MockVoucherRepository)
	svc := services.NewInventoryService(repo)

	repo.On("GroupedInventory", context.Background()).Return([]domain.InventoryLine{
		{Store: "רמי לוי", FaceValue: 50, Status: domain.StatusAvailable, Count: 3},
		{Store: "רמי לוי", FaceValue: 100, Status: domain.StatusAvailable, Count: 2},
		{Store: "רמי לוי", FaceValue: 100, Status: domain.StatusPending, Count: 5},
		{Store: "שופרסל", FaceValue: 30, Status: domain.StatusAvailable, Count: 1},
	}, nil).Once()

	sums, err := svc.StoreSummaries(context.Background())
	require.NoError(t, err)
	require.Len(t, sums, 2)

	// Sorted by store name; pending inventory contributes nothing.
	assert.Equal(t, "רמי לוי", sums[0].Store)
	assert.Equal(t, int64(5), sums[0].AvailableCount)
	assert.True(t, decimal.NewFromInt(350).Equal(sums[0].TotalValue))

	assert.Equal(t, "שופרסל", sums[1].Store)
	assert.Equal(t, int64(1), sums[1].AvailableCount)
	assert.True(t, decimal.NewFromInt(30).Equal(sums[1].TotalValue))
}

func TestStatusSummaries_HighestFaceValueFirst(t *testing.T) {
	repo := new(MockVoucherRepository)
	svc := services.NewInventoryService(repo)

	repo.On("GroupedInventory", context.Background()).Return([]domain.InventoryLine{
		{Store: "רמי לוי", FaceValue: 50, Status: domain.StatusAvailable, Count: 3},
		{Store: "שופרסל", FaceValue: 50, Status: domain.StatusAssigned, Count: 2},
		{Store: "רמי לוי", FaceValue: 100, Status: domain.StatusAvailable, Count: 1},
	}, nil).Once()

	sums, err := svc.StatusSummaries(context.Background())
	require.NoError(t, err)
	require.Len(t, sums, 2)

	assert.Equal(t, int64(100), sums[0].FaceValue)
	assert.Equal(t, int64(1), sums[0].Counts[domain.StatusAvailable])

	// Same face value across stores is folded into one line.
	assert.Equal(t, int64(50), sums[1].FaceValue)
	assert.Equal(t, int64(3), sums[1].Counts[domain.StatusAvailable])
	assert.Equal(t, int64(2), sums[1].Counts[domain.StatusAssigned])
}
