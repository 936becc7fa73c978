// Package allocation implements the pure voucher selection algorithm: a
// bounded 0/1 knapsack that maximises the selected face-value sum without
// exceeding the target. It performs no I/O and holds no locks; callers are
// responsible for running it against a consistent snapshot.
package allocation

import (
	"sort"

	"github.com/vouchly/voucher_ledger/internal/apperrors"
	"github.com/vouchly/voucher_ledger/internal/core/domain"
)

// Selection is the chosen voucher subset: ids in ascending order and their
// total face value.
type Selection struct {
	VoucherIDs []int64
	Total      int64
}

// candidate is one DP cell: the best known subset reaching a given sum.
type candidate struct {
	ids []int64
}

// BestSubset picks the subset of vouchers whose face values sum to the
// maximum value not exceeding target.
//
// Ties on the sum are broken deterministically: fewest vouchers first, then
// the lexicographically lowest id sequence. Returns
// apperrors.ErrUnsatisfiable when no subset sums to a positive value within
// the target (including an empty pool or a non-positive target).
func BestSubset(vouchers []domain.Voucher, target int64) (Selection, error) {
	if target <= 0 || len(vouchers) == 0 {
		return Selection{}, apperrors.ErrUnsatisfiable
	}

	// Vouchers arrive ordered by id ascending (repository guarantee), which
	// makes every DP cell's id list sorted and the lexicographic tie-break a
	// plain element-wise comparison. Enforce the precondition cheaply rather
	// than trust callers.
	for i := 1; i < len(vouchers); i++ {
		if vouchers[i].VoucherID < vouchers[i-1].VoucherID {
			vouchers = sortedByID(vouchers)
			break
		}
	}

	// dp[s] holds the best subset summing exactly to s, nil if unreachable.
	dp := make([]*candidate, target+1)
	dp[0] = &candidate{ids: nil}

	for _, v := range vouchers {
		fv := v.FaceValue
		if fv <= 0 || fv > target {
			continue
		}
		// Descending sums so each voucher is used at most once.
		for s := target - fv; s >= 0; s-- {
			prev := dp[s]
			if prev == nil {
				continue
			}
			next := append(append(make([]int64, 0, len(prev.ids)+1), prev.ids...), v.VoucherID)
			if better(next, dp[s+fv]) {
				dp[s+fv] = &candidate{ids: next}
			}
		}
	}

	for s := target; s > 0; s-- {
		if dp[s] != nil {
			return Selection{VoucherIDs: dp[s].ids, Total: s}, nil
		}
	}
	return Selection{}, apperrors.ErrUnsatisfiable
}

// better reports whether ids beats the current cell: fewer vouchers wins,
// then the lexicographically lower id sequence.
func better(ids []int64, cur *candidate) bool {
	if cur == nil {
		return true
	}
	if len(ids) != len(cur.ids) {
		return len(ids) < len(cur.ids)
	}
	for i := range ids {
		if ids[i] != cur.ids[i] {
			return ids[i] < cur.ids[i]
		}
	}
	return false
}

func sortedByID(vouchers []domain.Voucher) []domain.Voucher {
	out := make([]domain.Voucher, len(vouchers))
	copy(out, vouchers)
	sort.Slice(out, func(i, j int) bool { return out[i].VoucherID < out[j].VoucherID })
	return out
}
