package usecase

// HybridWeights holds the weights combining text and image similarity into
// one matching score. Text is the primary, always-available signal; image
// is a confirming signal weighted lower because perceptual hashing is
// coarse and prone to false negatives (backgrounds, watermarks).
type HybridWeights struct {
	TextWeight  float64
	ImageWeight float64
}

// DefaultHybridWeights returns the tuned 0.6/0.4 default split.
func DefaultHybridWeights() HybridWeights {
	return HybridWeights{TextWeight: 0.6, ImageWeight: 0.4}
}

// hybridScore combines the two signals. A missing image score means "no
// signal", not "mismatch": the pair falls back to text similarity alone so
// products without images are not penalized.
func hybridScore(textSim float64, imageSim *float64, w HybridWeights) float64 {
	if imageSim == nil {
		return clamp01(textSim)
	}
	total := w.TextWeight + w.ImageWeight
	return clamp01((w.TextWeight*textSim + w.ImageWeight**imageSim) / total)
}
