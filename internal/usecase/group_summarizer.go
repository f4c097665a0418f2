package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ioko18/magflow-erp-sub002/internal/domain"
)

// summarizeGroup fills the derived fields of a matching group: price
// aggregates, best member, representative name, and the group confidence.
//
// directScores are the pair scores actually computed between members of
// this group, matched or not. Confidence is their mean, so it measures the
// strength of the direct evidence rather than the transitive membership:
// a chained group whose end members were never compared directly does not
// get credit for pairs that were never scored. A singleton group is
// trivially confident (1.0).
func summarizeGroup(members []domain.RawProduct, directScores []domain.PairScore) (domain.MatchingGroup, []string) {
	group := domain.MatchingGroup{
		Members:            members,
		RepresentativeName: representativeName(members),
		ConfidenceScore:    groupConfidence(len(members), directScores),
	}

	var warnings []string

	currency := members[0].Price.Currency
	for _, m := range members[1:] {
		if m.Price.Currency != currency {
			currency = ""
			break
		}
	}
	group.Currency = currency
	if currency == "" {
		warnings = append(warnings, fmt.Sprintf(
			"mixed currencies within group led by %s: %s; price aggregates use raw amounts", members[0].ID, currencyList(members)))
	}

	group.MinPrice = members[0].Price.Amount
	group.MaxPrice = members[0].Price.Amount
	group.BestMemberID = members[0].ID
	sum := decimal.Zero
	for _, m := range members {
		sum = sum.Add(m.Price.Amount)
		if m.Price.Amount.LessThan(group.MinPrice) {
			group.MinPrice = m.Price.Amount
			group.BestMemberID = m.ID
		}
		if m.Price.Amount.GreaterThan(group.MaxPrice) {
			group.MaxPrice = m.Price.Amount
		}
	}
	group.AvgPrice = sum.Div(decimal.NewFromInt(int64(len(members))))

	group.Comparison = buildComparison(group)
	return group, warnings
}

// groupConfidence averages the hybrid scores of the directly scored pairs.
func groupConfidence(size int, directScores []domain.PairScore) float64 {
	if size <= 1 {
		return 1.0
	}
	if len(directScores) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range directScores {
		total += s.HybridScore
	}
	return total / float64(len(directScores))
}

// representativeName picks the member name whose normalized form has the
// smallest total edit distance to the other members' normalized forms.
// Ties go to the longer normalized name, then the smaller product ID, so
// the choice is stable across runs on identical input.
func representativeName(members []domain.RawProduct) string {
	if len(members) == 1 {
		return members[0].Name
	}

	best := 0
	bestDist := -1
	for i := range members {
		dist := 0
		for j := range members {
			if i == j {
				continue
			}
			dist += levenshteinDistance(members[i].NormalizedName, members[j].NormalizedName)
		}
		if bestDist == -1 || dist < bestDist {
			best, bestDist = i, dist
			continue
		}
		if dist == bestDist && betterRepresentative(members[i], members[best]) {
			best = i
		}
	}
	return members[best].Name
}

func betterRepresentative(a, b domain.RawProduct) bool {
	la := len([]rune(a.NormalizedName))
	lb := len([]rune(b.NormalizedName))
	if la != lb {
		return la > lb
	}
	return a.ID < b.ID
}

// levenshteinDistance calculates the edit distance between two strings
// using two rolling rows instead of the full matrix.
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len([]rune(s2))
	}
	if len(s2) == 0 {
		return len([]rune(s1))
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

// currencyList renders the distinct currencies of a group, sorted.
func currencyList(members []domain.RawProduct) string {
	seen := make(map[string]bool)
	var currencies []string
	for _, m := range members {
		if !seen[m.Price.Currency] {
			seen[m.Price.Currency] = true
			currencies = append(currencies, m.Price.Currency)
		}
	}
	sort.Strings(currencies)
	return strings.Join(currencies, ", ")
}
