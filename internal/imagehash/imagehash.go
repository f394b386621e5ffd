package imagehash

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math/bits"

	"github.com/corona10/goimagehash"
	_ "golang.org/x/image/webp"
)

// DefaultSimilarityThreshold is the maximum Hamming distance below which
// two fingerprints are considered near-duplicates.
const DefaultSimilarityThreshold = 5

// Fingerprint is a 64-bit perceptual hash of an image's content. Two
// fingerprints compare equal only when the underlying images hashed to
// exactly the same bits; near-duplicate detection uses Distance.
type Fingerprint struct {
	bits uint64
}

// String returns the fingerprint in fixed-width hex form, used as the
// cache key and in log records.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", f.bits)
}

// FromBits builds a fingerprint from raw hash bits, e.g. when replaying
// a logged fingerprint.
func FromBits(bits uint64) Fingerprint {
	return Fingerprint{bits: bits}
}

// IsZero reports whether the fingerprint is the zero value.
func (f Fingerprint) IsZero() bool {
	return f.bits == 0
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b Fingerprint) int {
	return bits.OnesCount64(a.bits ^ b.bits)
}

// Near reports whether two fingerprints are within threshold bits of
// each other.
func Near(a, b Fingerprint, threshold int) bool {
	return Distance(a, b) < threshold
}

// Hasher computes perceptual fingerprints. It is stateless and safe for
// concurrent use.
type Hasher struct{}

// NewHasher creates a Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// Hash reduces an image to its fingerprint. The result depends only on
// pixel content, so recompressed or lightly resized copies of the same
// image hash to the same or nearby values.
func (h *Hasher) Hash(img image.Image) (Fingerprint, error) {
	ah, err := goimagehash.AverageHash(img)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("imagehash: hashing image: %w", err)
	}
	return Fingerprint{bits: ah.GetHash()}, nil
}

// Decode parses raw image bytes into an image. PNG, JPEG, GIF and WebP
// are registered via blank imports above.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imagehash: decoding image: %w", err)
	}
	return img, nil
}
