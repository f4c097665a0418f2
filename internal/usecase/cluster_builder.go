package usecase

import (
	"sort"

	"github.com/ioko18/magflow-erp-sub002/internal/domain"
)

// unionFind is a classic disjoint-set structure with path compression and
// union by rank. The final partition is independent of the order in which
// unions are applied, which is what makes the run deterministic regardless
// of scoring-worker interleaving.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	u := &unionFind{
		parent: make([]int, n),
		rank:   make([]int, n),
	}
	for i := range u.parent {
		u.parent[i] = i
	}
	return u
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}

// scoredPair couples a candidate pair's indices with its computed score.
type scoredPair struct {
	candidatePair
	score domain.PairScore
}

// buildClusters unions every matched pair (hybrid >= threshold; the boundary
// is inclusive) and returns the resulting connected components as sorted
// index slices, ordered by their smallest member. A product with no
// qualifying pair comes back as a singleton cluster.
//
// Union-find is transitive by construction: if A matches B and B matches C,
// then A and C share a group even when A vs C alone would score below the
// threshold. That chaining is a deliberate recall-over-precision tradeoff
// and is pinned down by tests; switching to clique-style clustering would be
// a behavior change, not a cleanup.
func buildClusters(n int, pairs []scoredPair) [][]int {
	uf := newUnionFind(n)
	for _, p := range pairs {
		if p.score.IsMatch {
			uf.union(p.a, p.b)
		}
	}

	byRoot := make(map[int][]int, n)
	for i := 0; i < n; i++ {
		root := uf.find(i)
		byRoot[root] = append(byRoot[root], i)
	}

	clusters := make([][]int, 0, len(byRoot))
	for _, members := range byRoot {
		sort.Ints(members)
		clusters = append(clusters, members)
	}
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i][0] < clusters[j][0]
	})
	return clusters
}
