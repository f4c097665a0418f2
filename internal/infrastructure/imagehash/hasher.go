// Package imagehash implements coarse perceptual hashing of product images.
// The hashes are compared by Hamming distance upstream; this is a cheap
// duplicate filter, not visual search.
package imagehash

import (
	"bytes"
	"fmt"
	"image"

	// Register the decoders for the formats suppliers actually deliver.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	"github.com/ioko18/magflow-erp-sub002/internal/domain"
)

// DefaultGridSize is the downsampling grid used when no size is configured.
// An 8x8 grid yields the conventional 64-bit hash.
const DefaultGridSize = 8

// DifferenceHasher produces a difference hash (dHash): the image is scaled
// to a (size+1) x size grayscale grid and each bit records whether luminance
// increases between horizontal neighbours. Robust to resizing and
// compression, sensitive to actual structure changes.
type DifferenceHasher struct {
	size int
}

// NewDifferenceHasher creates a dHash hasher with the given grid size.
// Non-positive sizes fall back to DefaultGridSize.
func NewDifferenceHasher(size int) *DifferenceHasher {
	if size <= 0 {
		size = DefaultGridSize
	}
	return &DifferenceHasher{size: size}
}

// Algorithm identifies the hash variant and grid size. Hashes from
// different algorithm strings must not be compared.
func (h *DifferenceHasher) Algorithm() string {
	return fmt.Sprintf("dhash-%d", h.size)
}

// Hash computes the perceptual hash of an image.
func (h *DifferenceHasher) Hash(img image.Image) (domain.ImageHash, error) {
	if img == nil {
		return domain.ImageHash{}, fmt.Errorf("%w: nil image", domain.ErrUnsupportedImage)
	}
	gray := downscaleGray(img, h.size+1, h.size)

	bits := newBitWriter(h.size * h.size)
	for y := 0; y < h.size; y++ {
		for x := 0; x < h.size; x++ {
			bits.write(gray.GrayAt(x+1, y).Y > gray.GrayAt(x, y).Y)
		}
	}
	return domain.ImageHash{Algorithm: h.Algorithm(), Bits: bits.bytes()}, nil
}

// AverageHasher produces an average hash (aHash): the image is scaled to a
// size x size grayscale grid and each bit records whether the pixel is
// brighter than the grid mean. Simpler and slightly more tolerant than
// dHash, at the cost of more false positives on flat images.
type AverageHasher struct {
	size int
}

// NewAverageHasher creates an aHash hasher with the given grid size.
func NewAverageHasher(size int) *AverageHasher {
	if size <= 0 {
		size = DefaultGridSize
	}
	return &AverageHasher{size: size}
}

// Algorithm identifies the hash variant and grid size.
func (h *AverageHasher) Algorithm() string {
	return fmt.Sprintf("ahash-%d", h.size)
}

// Hash computes the perceptual hash of an image.
func (h *AverageHasher) Hash(img image.Image) (domain.ImageHash, error) {
	if img == nil {
		return domain.ImageHash{}, fmt.Errorf("%w: nil image", domain.ErrUnsupportedImage)
	}
	gray := downscaleGray(img, h.size, h.size)

	total := 0
	for y := 0; y < h.size; y++ {
		for x := 0; x < h.size; x++ {
			total += int(gray.GrayAt(x, y).Y)
		}
	}
	mean := uint8(total / (h.size * h.size))

	bits := newBitWriter(h.size * h.size)
	for y := 0; y < h.size; y++ {
		for x := 0; x < h.size; x++ {
			bits.write(gray.GrayAt(x, y).Y > mean)
		}
	}
	return domain.ImageHash{Algorithm: h.Algorithm(), Bits: bits.bytes()}, nil
}

// DecodeBytes decodes raw image bytes using the registered decoders.
func DecodeBytes(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnsupportedImage, err)
	}
	return img, nil
}

// downscaleGray scales the source image onto a w x h grayscale grid with
// bilinear interpolation, which also performs the color conversion.
func downscaleGray(src image.Image, w, h int) *image.Gray {
	gray := image.NewGray(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(gray, gray.Bounds(), src, src.Bounds(), draw.Src, nil)
	return gray
}

// bitWriter packs bits MSB-first into a byte slice. Trailing bits of the
// last byte stay zero when the bit count is not byte-aligned, which is
// consistent for any two hashes of the same algorithm.
type bitWriter struct {
	buf []byte
	pos int
}

func newBitWriter(nbits int) *bitWriter {
	return &bitWriter{buf: make([]byte, (nbits+7)/8)}
}

func (w *bitWriter) write(bit bool) {
	if bit {
		w.buf[w.pos/8] |= 1 << (7 - w.pos%8)
	}
	w.pos++
}

func (w *bitWriter) bytes() []byte {
	return w.buf
}
