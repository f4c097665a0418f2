package domain

import "errors"

var (
	// ErrMalformedProduct is returned when an input record is missing a
	// required field. The whole run aborts rather than silently dropping
	// records, since group counts would otherwise be misleading.
	ErrMalformedProduct = errors.New("malformed product record")

	// ErrHashVersionMismatch is returned when two perceptual hashes of
	// incompatible bit length are compared. The affected pair falls back
	// to text-only scoring; the run continues.
	ErrHashVersionMismatch = errors.New("perceptual hash version mismatch")

	// ErrInvalidRequest is returned when request parameters are invalid.
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrRateLimited is returned when the per-client rate limit is exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when a derived value is not found in cache.
	ErrCacheMiss = errors.New("cache miss")

	// ErrUnsupportedImage is returned when image bytes cannot be decoded
	// into a format the hasher understands.
	ErrUnsupportedImage = errors.New("unsupported image data")
)
