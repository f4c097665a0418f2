package domain

import (
	"context"
	"image"
	"time"
)

// PerceptualHasher turns an image into a fixed-length hash bit-vector.
// A single algorithm version must be used consistently across a batch;
// mixing versions surfaces as ErrHashVersionMismatch at comparison time.
type PerceptualHasher interface {
	Algorithm() string
	Hash(img image.Image) (ImageHash, error)
}

// DerivationCache memoizes values derived from product content (perceptual
// hashes, normalized names) keyed by a content digest. It is owned by the
// caller side of the engine boundary so scoring stays pure.
type DerivationCache interface {
	Get(ctx context.Context, key string) (ImageHash, error)
	Set(ctx context.Context, key string, hash ImageHash, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
