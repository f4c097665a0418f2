package imagehash

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uniformImage returns a w x h image filled with one gray level.
func uniformImage(w, h int, level uint8) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: level})
		}
	}
	return img
}

// gradientImage returns a w x h image whose luminance strictly increases
// left to right.
func gradientImage(w, h int) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 255 / (w - 1))})
		}
	}
	return img
}

func TestDifferenceHasher(t *testing.T) {
	hasher := NewDifferenceHasher(8)

	t.Run("produces a 64-bit hash", func(t *testing.T) {
		hash, err := hasher.Hash(gradientImage(100, 80))
		require.NoError(t, err)
		assert.Equal(t, 64, hash.BitLen())
		assert.Equal(t, "dhash-8", hash.Algorithm)
	})

	t.Run("deterministic for the same image", func(t *testing.T) {
		img := gradientImage(100, 80)
		first, err := hasher.Hash(img)
		require.NoError(t, err)
		second, err := hasher.Hash(img)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("flat image has no gradient bits", func(t *testing.T) {
		hash, err := hasher.Hash(uniformImage(64, 64, 128))
		require.NoError(t, err)
		assert.Equal(t, make([]byte, 8), hash.Bits)
	})

	t.Run("rising gradient sets every bit", func(t *testing.T) {
		hash, err := hasher.Hash(gradientImage(64, 64))
		require.NoError(t, err)
		assert.Equal(t, bytes.Repeat([]byte{0xFF}, 8), hash.Bits)
	})

	t.Run("robust to resizing", func(t *testing.T) {
		small, err := hasher.Hash(gradientImage(50, 40))
		require.NoError(t, err)
		large, err := hasher.Hash(gradientImage(400, 300))
		require.NoError(t, err)

		dist, err := small.Hamming(large)
		require.NoError(t, err)
		assert.LessOrEqual(t, dist, 4, "rescaled image should hash almost identically")
	})

	t.Run("distinct structures produce distant hashes", func(t *testing.T) {
		grad, err := hasher.Hash(gradientImage(64, 64))
		require.NoError(t, err)
		flat, err := hasher.Hash(uniformImage(64, 64, 200))
		require.NoError(t, err)

		dist, err := grad.Hamming(flat)
		require.NoError(t, err)
		assert.Equal(t, 64, dist)
	})

	t.Run("nil image is rejected", func(t *testing.T) {
		_, err := hasher.Hash(nil)
		assert.Error(t, err)
	})
}

func TestAverageHasher(t *testing.T) {
	hasher := NewAverageHasher(8)

	t.Run("produces a 64-bit hash", func(t *testing.T) {
		hash, err := hasher.Hash(gradientImage(100, 80))
		require.NoError(t, err)
		assert.Equal(t, 64, hash.BitLen())
		assert.Equal(t, "ahash-8", hash.Algorithm)
	})

	t.Run("gradient splits bits around the mean", func(t *testing.T) {
		hash, err := hasher.Hash(gradientImage(64, 64))
		require.NoError(t, err)

		ones := 0
		for _, b := range hash.Bits {
			for i := 0; i < 8; i++ {
				if b&(1<<i) != 0 {
					ones++
				}
			}
		}
		// Roughly half the grid is brighter than the mean.
		assert.InDelta(t, 32, ones, 8)
	})

	t.Run("different algorithms are not comparable", func(t *testing.T) {
		a, err := NewAverageHasher(8).Hash(gradientImage(64, 64))
		require.NoError(t, err)
		d, err := NewDifferenceHasher(8).Hash(gradientImage(64, 64))
		require.NoError(t, err)
		assert.NotEqual(t, a.Algorithm, d.Algorithm)
	})
}

func TestHasherDefaults(t *testing.T) {
	assert.Equal(t, "dhash-8", NewDifferenceHasher(0).Algorithm())
	assert.Equal(t, "ahash-8", NewAverageHasher(-1).Algorithm())
	assert.Equal(t, "dhash-16", NewDifferenceHasher(16).Algorithm())
}

func TestDecodeBytes(t *testing.T) {
	t.Run("decodes png", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, gradientImage(16, 16)))

		img, err := DecodeBytes(buf.Bytes())
		require.NoError(t, err)
		assert.Equal(t, 16, img.Bounds().Dx())
	})

	t.Run("rejects junk bytes", func(t *testing.T) {
		_, err := DecodeBytes([]byte("definitely not an image"))
		assert.Error(t, err)
	})
}
