package usecase

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTextSimilarity(t *testing.T) {
	scorer := NewTextScorer(DefaultTextBlend())

	t.Run("identical non-empty strings score 1", func(t *testing.T) {
		for _, s := range []string{"鼠标", "wirelessmouse24g", "a"} {
			if got := scorer.Similarity(s, s); !almostEqual(got, 1.0) {
				t.Errorf("Similarity(%q, %q) = %v, want 1.0", s, s, got)
			}
		}
	})

	t.Run("both empty strings score 0, not 1", func(t *testing.T) {
		if got := scorer.Similarity("", ""); got != 0 {
			t.Errorf("Similarity of two empty strings = %v, want 0", got)
		}
	})

	t.Run("empty versus non-empty scores 0", func(t *testing.T) {
		if got := scorer.Similarity("", "鼠标"); got != 0 {
			t.Errorf("Similarity = %v, want 0", got)
		}
	})

	t.Run("disjoint strings score 0", func(t *testing.T) {
		if got := scorer.Similarity("无线鼠标", "蓝牙耳机"); got != 0 {
			t.Errorf("Similarity = %v, want 0", got)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		pairs := [][2]string{
			{"无线鼠标24g", "无线鼠标24g黑色"},
			{"usbhub", "usbchub4k"},
			{"a", "ab"},
			{"", "x"},
		}
		for _, p := range pairs {
			ab := scorer.Similarity(p[0], p[1])
			ba := scorer.Similarity(p[1], p[0])
			if !almostEqual(ab, ba) {
				t.Errorf("Similarity(%q,%q)=%v but Similarity(%q,%q)=%v", p[0], p[1], ab, p[1], p[0], ba)
			}
		}
	})

	t.Run("bounded in [0,1] for arbitrary input", func(t *testing.T) {
		inputs := []string{"", "a", "ab", "abc", "无", "无线", "无线鼠标24g黑色", "aaaaaaaaaa", "xyzxyzxyz"}
		for _, a := range inputs {
			for _, b := range inputs {
				got := scorer.Similarity(a, b)
				if got < 0 || got > 1 {
					t.Errorf("Similarity(%q,%q) = %v, outside [0,1]", a, b, got)
				}
			}
		}
	})

	t.Run("similar CJK listings score above dissimilar ones", func(t *testing.T) {
		similar := scorer.Similarity("无线鼠标24g", "无线鼠标24g黑色")
		dissimilar := scorer.Similarity("无线鼠标24g", "蓝牙耳机")
		if similar <= dissimilar {
			t.Errorf("similar pair %v should outscore dissimilar pair %v", similar, dissimilar)
		}
		if similar < 0.70 {
			t.Errorf("near-identical listings scored %v, want >= 0.70", similar)
		}
	})

	t.Run("known blend value", func(t *testing.T) {
		// 无线鼠标24g vs 无线鼠标24g黑色:
		// char Jaccard 7/9, bigram 6/8, trigram 5/7
		want := 0.4*(7.0/9.0) + 0.4*(6.0/8.0) + 0.2*(5.0/7.0)
		got := scorer.Similarity("无线鼠标24g", "无线鼠标24g黑色")
		if !almostEqual(got, want) {
			t.Errorf("Similarity = %v, want %v", got, want)
		}
	})
}

func TestTextSimilarityShortStrings(t *testing.T) {
	scorer := NewTextScorer(DefaultTextBlend())

	t.Run("identical single characters score 1", func(t *testing.T) {
		// Both too short for any n-gram; identity is the documented edge case.
		if got := scorer.Similarity("鼠", "鼠"); !almostEqual(got, 1.0) {
			t.Errorf("Similarity = %v, want 1.0", got)
		}
	})

	t.Run("different single characters score 0", func(t *testing.T) {
		if got := scorer.Similarity("鼠", "标"); got != 0 {
			t.Errorf("Similarity = %v, want 0", got)
		}
	})

	t.Run("identical two-rune strings score 1", func(t *testing.T) {
		// Too short for trigrams; edge case rule applies there.
		if got := scorer.Similarity("鼠标", "鼠标"); !almostEqual(got, 1.0) {
			t.Errorf("Similarity = %v, want 1.0", got)
		}
	})
}

func TestNgramSimilarityMultiset(t *testing.T) {
	// Repeated bigrams must count by multiplicity, not set membership.
	a := []rune("aaa") // bigrams: aa x2
	b := []rune("aa")  // bigrams: aa x1
	got := ngramSimilarity(a, b, 2)
	if !almostEqual(got, 0.5) {
		t.Errorf("ngramSimilarity = %v, want 0.5 (multiset intersection 1, union 2)", got)
	}
}

func TestTextScorerCustomBlend(t *testing.T) {
	t.Run("zero blend falls back to defaults", func(t *testing.T) {
		scorer := NewTextScorer(TextBlend{})
		if scorer.blend != DefaultTextBlend() {
			t.Errorf("blend = %+v, want defaults", scorer.blend)
		}
	})

	t.Run("char-only blend ignores ordering entirely", func(t *testing.T) {
		scorer := NewTextScorer(TextBlend{CharWeight: 1})
		if got := scorer.Similarity("abc", "cba"); !almostEqual(got, 1.0) {
			t.Errorf("Similarity = %v, want 1.0 under char-only blend", got)
		}
	})
}
