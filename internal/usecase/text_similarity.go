package usecase

// TextBlend holds the weights of the three measures blended into the text
// similarity score. Character-level Jaccard is robust to word reordering
// (common in transliterated supplier listings with bolted-on keywords);
// bigrams and trigrams capture order-sensitive substring similarity.
// Trigrams get the lowest weight because short CJK terms produce very few
// of them, which makes the measure noisy.
type TextBlend struct {
	CharWeight    float64
	BigramWeight  float64
	TrigramWeight float64
}

// DefaultTextBlend returns the tuned default weights. They are empirical
// starting points, not derived constants; callers may override per deployment.
func DefaultTextBlend() TextBlend {
	return TextBlend{CharWeight: 0.4, BigramWeight: 0.4, TrigramWeight: 0.2}
}

// TextScorer computes similarity between two normalized product names.
type TextScorer struct {
	blend TextBlend
}

// NewTextScorer creates a text scorer with the given blend weights. Weights
// that are all zero or negative fall back to the defaults.
func NewTextScorer(blend TextBlend) *TextScorer {
	if blend.CharWeight <= 0 && blend.BigramWeight <= 0 && blend.TrigramWeight <= 0 {
		blend = DefaultTextBlend()
	}
	return &TextScorer{blend: blend}
}

// Similarity returns a similarity in [0,1] between two normalized strings.
// It is symmetric, and 1.0 for any non-empty string compared with itself.
func (s *TextScorer) Similarity(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)

	char := charJaccard(ra, rb)
	bigram := ngramSimilarity(ra, rb, 2)
	trigram := ngramSimilarity(ra, rb, 3)

	total := s.blend.CharWeight + s.blend.BigramWeight + s.blend.TrigramWeight
	score := (s.blend.CharWeight*char + s.blend.BigramWeight*bigram + s.blend.TrigramWeight*trigram) / total
	return clamp01(score)
}

// charJaccard is Jaccard similarity over the rune sets of both strings.
// Two empty strings score 0, not 1, so empty input cannot produce a
// spurious match.
func charJaccard(a, b []rune) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	set := make(map[rune]uint8, len(a)+len(b))
	for _, r := range a {
		set[r] |= 1
	}
	for _, r := range b {
		set[r] |= 2
	}
	inter := 0
	for _, mask := range set {
		if mask == 3 {
			inter++
		}
	}
	return float64(inter) / float64(len(set))
}

// ngramSimilarity is Jaccard similarity over the multisets of overlapping
// n-rune substrings (sliding window, step 1). When both strings are too
// short to produce any n-gram, identical non-empty strings score 1 and
// everything else 0.
func ngramSimilarity(a, b []rune, n int) float64 {
	if len(a) < n && len(b) < n {
		if len(a) > 0 && string(a) == string(b) {
			return 1
		}
		return 0
	}

	freqA := ngramCounts(a, n)
	freqB := ngramCounts(b, n)

	inter := 0
	union := 0
	for g, ca := range freqA {
		cb := freqB[g]
		inter += minInt(ca, cb)
		union += maxInt(ca, cb)
	}
	for g, cb := range freqB {
		if _, ok := freqA[g]; !ok {
			union += cb
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// ngramCounts returns the multiset of n-rune windows as a frequency map.
func ngramCounts(runes []rune, n int) map[string]int {
	if len(runes) < n {
		return nil
	}
	counts := make(map[string]int, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		counts[string(runes[i:i+n])]++
	}
	return counts
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
