package usecase

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ioko18/magflow-erp-sub002/internal/domain"
)

// buildComparison produces the per-group price-comparison payload: the
// savings between the cheapest and the most expensive member, and the
// members ranked ascending by price.
//
// A zero max price is a valid degenerate case (free listing), not an error:
// the percent is reported as 0 instead of dividing by zero.
func buildComparison(group domain.MatchingGroup) domain.PriceComparison {
	comparison := domain.PriceComparison{
		SavingsAbsolute: group.MaxPrice.Sub(group.MinPrice),
	}
	if group.MaxPrice.IsPositive() {
		comparison.SavingsPercent, _ = comparison.SavingsAbsolute.
			Div(group.MaxPrice).
			Mul(decimal.NewFromInt(100)).
			Float64()
	}

	ranked := make([]domain.RawProduct, len(group.Members))
	copy(ranked, group.Members)
	sort.Slice(ranked, func(i, j int) bool {
		if cmp := ranked[i].Price.Amount.Cmp(ranked[j].Price.Amount); cmp != 0 {
			return cmp < 0
		}
		if ranked[i].SupplierID != ranked[j].SupplierID {
			return ranked[i].SupplierID < ranked[j].SupplierID
		}
		return ranked[i].ID < ranked[j].ID
	})

	comparison.Members = make([]domain.RankedMember, len(ranked))
	for i, m := range ranked {
		comparison.Members[i] = domain.RankedMember{
			Rank:       i + 1,
			ProductID:  m.ID,
			SupplierID: m.SupplierID,
			Name:       m.Name,
			Price:      m.Price,
			URL:        m.URL,
		}
	}
	return comparison
}
