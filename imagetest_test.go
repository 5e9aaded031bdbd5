package artcatalog

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// makeGradient returns pixels with enough structure that perceptual hashes of
// different fixtures do not collide: a diagonal gradient with a contrasting
// block whose position depends on variant.
func makeGradient(w, h, variant int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / w),
				G: uint8((y * 255) / h),
				B: uint8(((x + y) * 255) / (w + h)),
				A: 255,
			})
		}
	}
	bx := (variant * w / 4) % (w / 2)
	for y := h / 8; y < h/3; y++ {
		for x := bx; x < bx+w/4; x++ {
			img.Set(x, y, color.RGBA{R: 240, G: 240, B: 240, A: 255})
		}
	}
	return img
}

// makeNoise returns deterministic pseudo-random pixels, visually unrelated to
// any gradient fixture.
func makeNoise(w, h int, seed uint32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	state := seed | 1
	next := func() uint8 {
		state = state*1664525 + 1013904223
		return uint8(state >> 24)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: next(), G: next(), B: next(), A: 255})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, img image.Image, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// writeJPEG writes a fixture image under dir and returns its path.
func writeJPEG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, encodeJPEG(t, img, 90), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// writeExifJPEG writes a JPEG whose EXIF DateTimeOriginal is the given
// "2006:01:02 15:04:05" string. The APP1 segment is assembled by hand: a
// little-endian TIFF with IFD0 pointing at an Exif IFD holding tag 0x9003.
func writeExifJPEG(t *testing.T, dir, name string, img image.Image, exifDate string) string {
	t.Helper()
	if len(exifDate) != 19 {
		t.Fatalf("exif date must be 19 chars, got %q", exifDate)
	}

	var tiff bytes.Buffer
	le := binary.LittleEndian
	tiff.WriteString("II")
	binary.Write(&tiff, le, uint16(42))
	binary.Write(&tiff, le, uint32(8)) // IFD0 offset

	// IFD0: one entry, the Exif IFD pointer (0x8769).
	binary.Write(&tiff, le, uint16(1))
	binary.Write(&tiff, le, uint16(0x8769)) // tag
	binary.Write(&tiff, le, uint16(4))      // LONG
	binary.Write(&tiff, le, uint32(1))      // count
	binary.Write(&tiff, le, uint32(26))     // Exif IFD offset: 8 + 2 + 12 + 4
	binary.Write(&tiff, le, uint32(0))      // no next IFD

	// Exif IFD: one entry, DateTimeOriginal (0x9003), ASCII, 20 bytes.
	binary.Write(&tiff, le, uint16(1))
	binary.Write(&tiff, le, uint16(0x9003))
	binary.Write(&tiff, le, uint16(2))
	binary.Write(&tiff, le, uint32(20))
	binary.Write(&tiff, le, uint32(44)) // value offset: 26 + 2 + 12 + 4
	binary.Write(&tiff, le, uint32(0))
	tiff.WriteString(exifDate)
	tiff.WriteByte(0)

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)

	base := encodeJPEG(t, img, 90)
	var out bytes.Buffer
	out.Write(base[:2]) // SOI
	out.Write([]byte{0xFF, 0xE1})
	binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(base[2:])

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// writeGarbage writes bytes no decoder accepts.
func writeGarbage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("not an image at all"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
