package usecase

import (
	"sort"

	"github.com/ioko18/magflow-erp-sub002/internal/domain"
)

// candidatePair references two products by index into the run's
// ID-sorted product slice, a < b.
type candidatePair struct {
	a, b int
}

// generateCandidates emits the pairs worth scoring for a batch. Products
// must already be sorted by ID so the output order is deterministic.
//
// Same-supplier pairs are excluded: a supplier never needs matching against
// itself. Without blocking this is every cross-supplier pair, O(n^2), which
// is fine for batches up to a few thousand products.
//
// With blocking enabled, products are bucketed by the first bigram of their
// normalized name and only pairs sharing a bucket are emitted. Blocking
// trades recall for speed: two listings whose names start differently are
// never compared, even if they would have scored above the threshold. It is
// an explicit opt-in for large batches, not a default.
func generateCandidates(products []domain.RawProduct, blocking bool) []candidatePair {
	if len(products) < 2 {
		return nil
	}

	if !blocking {
		pairs := make([]candidatePair, 0, len(products)*(len(products)-1)/2)
		for i := 0; i < len(products); i++ {
			for j := i + 1; j < len(products); j++ {
				if products[i].SupplierID == products[j].SupplierID {
					continue
				}
				pairs = append(pairs, candidatePair{a: i, b: j})
			}
		}
		return pairs
	}

	buckets := make(map[string][]int)
	for i, p := range products {
		buckets[blockingKey(p.NormalizedName)] = append(buckets[blockingKey(p.NormalizedName)], i)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pairs []candidatePair
	for _, k := range keys {
		idx := buckets[k]
		for i := 0; i < len(idx); i++ {
			for j := i + 1; j < len(idx); j++ {
				if products[idx[i]].SupplierID == products[idx[j]].SupplierID {
					continue
				}
				pairs = append(pairs, candidatePair{a: idx[i], b: idx[j]})
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].a != pairs[j].a {
			return pairs[i].a < pairs[j].a
		}
		return pairs[i].b < pairs[j].b
	})
	return pairs
}

// blockingKey buckets a normalized name by its first two runes. Names too
// short to produce a bigram share a single bucket so they still get compared
// with each other.
func blockingKey(normalized string) string {
	runes := []rune(normalized)
	if len(runes) < 2 {
		return ""
	}
	return string(runes[:2])
}
