package domain

import (
	"encoding/hex"
	"fmt"
	"math/bits"

	"github.com/shopspring/decimal"
)

// Money is a price amount tagged with its supplier's currency code.
// The engine never converts currencies; mixed currencies inside a group
// are surfaced as a data-quality warning.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// RawProduct represents one supplier listing as delivered by the import layer.
// The engine treats it as immutable; derived fields (NormalizedName,
// PerceptualHash) are computed once per run and may be cached back by the caller.
type RawProduct struct {
	ID             string     `json:"id"`
	SupplierID     string     `json:"supplierId"`
	Name           string     `json:"name"`
	NormalizedName string     `json:"normalizedName,omitempty"`
	Price          Money      `json:"price"`
	URL            string     `json:"url,omitempty"`
	ImageRef       string     `json:"imageRef,omitempty"`
	PerceptualHash *ImageHash `json:"perceptualHash,omitempty"`
}

// ImageHash is a fixed-length perceptual hash bit-vector. Hashes are only
// comparable when produced by the same algorithm at the same bit length.
type ImageHash struct {
	Algorithm string `json:"algorithm"`
	Bits      []byte `json:"bits"`
}

// BitLen returns the number of bits in the hash.
func (h ImageHash) BitLen() int {
	return len(h.Bits) * 8
}

// Hamming returns the number of differing bits between two hashes.
// Comparing hashes of different bit lengths is a version mismatch, as is
// a zero-length hash: no hasher produces one, so it can only be a decoding
// or transport artifact, and the normalized distance would divide by zero.
func (h ImageHash) Hamming(other ImageHash) (int, error) {
	if len(h.Bits) == 0 || len(other.Bits) == 0 {
		return 0, fmt.Errorf("%w: zero-length hash", ErrHashVersionMismatch)
	}
	if len(h.Bits) != len(other.Bits) {
		return 0, fmt.Errorf("%w: %d bits vs %d bits", ErrHashVersionMismatch, h.BitLen(), other.BitLen())
	}
	dist := 0
	for i := range h.Bits {
		dist += bits.OnesCount8(h.Bits[i] ^ other.Bits[i])
	}
	return dist, nil
}

// String renders the hash as hex, e.g. for logging and transport.
func (h ImageHash) String() string {
	return hex.EncodeToString(h.Bits)
}

// ParseImageHash decodes a hex-encoded hash produced by ImageHash.String.
func ParseImageHash(algorithm, s string) (ImageHash, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return ImageHash{}, fmt.Errorf("invalid perceptual hash %q: %w", s, err)
	}
	if len(raw) == 0 {
		return ImageHash{}, fmt.Errorf("invalid perceptual hash: empty")
	}
	return ImageHash{Algorithm: algorithm, Bits: raw}, nil
}

// PairScore is the scored relation between two products. The pair is
// unordered; by convention ProductA < ProductB so each pair appears once.
type PairScore struct {
	ProductA        string   `json:"productA"`
	ProductB        string   `json:"productB"`
	TextSimilarity  float64  `json:"textSimilarity"`
	ImageSimilarity *float64 `json:"imageSimilarity,omitempty"`
	HybridScore     float64  `json:"hybridScore"`
	IsMatch         bool     `json:"isMatch"`
}

// MatchingGroup is a cluster of products believed to be the same physical
// item. Singleton groups are valid: a product that matched nothing is its
// own group.
type MatchingGroup struct {
	Members            []RawProduct    `json:"members"`
	RepresentativeName string          `json:"representativeName"`
	MinPrice           decimal.Decimal `json:"minPrice"`
	MaxPrice           decimal.Decimal `json:"maxPrice"`
	AvgPrice           decimal.Decimal `json:"avgPrice"`
	Currency           string          `json:"currency,omitempty"` // empty when members disagree
	BestMemberID       string          `json:"bestMemberId"`
	ConfidenceScore    float64         `json:"confidenceScore"`
	Comparison         PriceComparison `json:"comparison"`
}

// RankedMember is one group member in the price-comparison ranking.
type RankedMember struct {
	Rank       int    `json:"rank"`
	ProductID  string `json:"productId"`
	SupplierID string `json:"supplierId"`
	Name       string `json:"name"`
	Price      Money  `json:"price"`
	URL        string `json:"url,omitempty"`
}

// PriceComparison is the per-group savings payload.
type PriceComparison struct {
	SavingsAbsolute decimal.Decimal `json:"savingsAbsolute"`
	SavingsPercent  float64         `json:"savingsPercent"`
	Members         []RankedMember  `json:"members"`
}

// MatchReport is the full result of one matching run.
type MatchReport struct {
	Groups   []MatchingGroup `json:"groups"`
	Warnings []string        `json:"warnings,omitempty"`
	Stats    RunStats        `json:"stats"`
}

// RunStats summarizes the work a run performed.
type RunStats struct {
	Products       int `json:"products"`
	CandidatePairs int `json:"candidatePairs"`
	MatchedPairs   int `json:"matchedPairs"`
	Groups         int `json:"groups"`
}
