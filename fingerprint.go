package artcatalog

import (
	"fmt"
	"image"
	"math/bits"
	"os"
	"strconv"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// FingerprintBits is the fixed length of a perceptual fingerprint.
const FingerprintBits = 64

// Fingerprint is a 64-bit perceptual hash (pHash) of an image: a DCT over a
// down-sampled grayscale version of the pixels. Visually similar images,
// including re-encodes and minor resizes, land within a small Hamming distance
// of each other. The hex form is compatible with catalogs written by the
// Python imagehash library.
type Fingerprint uint64

// String returns the 16-character lowercase hex form stored in the catalog.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// ParseFingerprint parses the 16-character hex form. Any other length is an
// error: fingerprints of different lengths are not comparable.
func ParseFingerprint(s string) (Fingerprint, error) {
	if len(s) != FingerprintBits/4 {
		return 0, fmt.Errorf("fingerprint %q: want %d hex chars, got %d", s, FingerprintBits/4, len(s))
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("fingerprint %q: %w", s, err)
	}
	return Fingerprint(v), nil
}

// Distance returns the Hamming distance to other. It is symmetric, and zero
// for identical fingerprints.
func (f Fingerprint) Distance(other Fingerprint) int {
	return bits.OnesCount64(uint64(f) ^ uint64(other))
}

// ComputeFingerprint hashes already-decoded pixels. Pure: identical pixels
// always yield an identical fingerprint.
func ComputeFingerprint(img image.Image) (Fingerprint, error) {
	h, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return 0, err
	}
	return Fingerprint(h.GetHash()), nil
}

// DecodeImage decodes a raster file, applying EXIF auto-orientation so that
// rotated camera output hashes the same as its upright rendering. Corrupt or
// unsupported input yields a *DecodeError.
func DecodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return img, nil
}

// FingerprintFile decodes and hashes a file in one step.
func FingerprintFile(path string) (Fingerprint, error) {
	img, err := DecodeImage(path)
	if err != nil {
		return 0, err
	}
	return ComputeFingerprint(img)
}
