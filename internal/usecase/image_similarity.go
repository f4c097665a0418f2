package usecase

import "github.com/ioko18/magflow-erp-sub002/internal/domain"

// ImageSimilarity returns a similarity in [0,1] between two perceptual
// hashes: 1 minus the normalized Hamming distance. It is symmetric.
// Hashes of differing bit length are a version mismatch, which surfaces as
// domain.ErrHashVersionMismatch so callers can degrade the pair to
// text-only scoring instead of silently miscomparing.
func ImageSimilarity(a, b domain.ImageHash) (float64, error) {
	dist, err := a.Hamming(b)
	if err != nil {
		return 0, err
	}
	return 1 - float64(dist)/float64(a.BitLen()), nil
}
