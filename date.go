package artcatalog

import (
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/bep/imagemeta"
)

// DateSource identifies which rung of the priority chain produced a resolved
// timestamp.
type DateSource string

const (
	SourceEXIF       DateSource = "exif"
	SourceFilename   DateSource = "filename"
	SourceFilesystem DateSource = "filesystem"
	SourceFallback   DateSource = "fallback"
)

// exifDateLayout is the timestamp format EXIF uses for DateTimeOriginal.
const exifDateLayout = "2006:01:02 15:04:05"

// filenameDateRe matches a leading YYYY[-_]MM[-_]DD or compact YYYYMMDD.
var filenameDateRe = regexp.MustCompile(`^(\d{4})[-_]?(\d{2})[-_]?(\d{2})`)

// ResolveDate derives a best-effort original-creation timestamp for a file.
// Priority chain, first success wins:
//
//  1. embedded EXIF capture date (DateTimeOriginal, then DateTime),
//  2. a date pattern at the start of the file name,
//  3. filesystem creation time (stat ctime where the platform exposes one,
//     modification time elsewhere).
//
// If all three fail, for example because the file vanished between discovery
// and processing, it returns the current time with SourceFallback. Callers
// should log that case as a data-quality warning, not an error.
func ResolveDate(path string) (time.Time, DateSource) {
	if t, ok := exifCaptureDate(path); ok {
		return t, SourceEXIF
	}
	if t, ok := filenameDate(filepath.Base(path)); ok {
		return t, SourceFilename
	}
	if fi, err := os.Stat(path); err == nil {
		return fileCreationTime(fi), SourceFilesystem
	}
	return time.Now(), SourceFallback
}

// exifCaptureDate reads the EXIF capture timestamp from an image file.
// DateTimeOriginal wins over the generic DateTime, matching the tag order the
// original catalog was built with.
func exifCaptureDate(path string) (time.Time, bool) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	var original, generic time.Time
	err = imagemeta.Decode(imagemeta.Options{
		R:       f,
		Sources: imagemeta.EXIF,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return ti.Tag == "DateTimeOriginal" || ti.Tag == "DateTime"
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			t, ok := tagTime(ti.Value)
			if !ok {
				return nil
			}
			switch ti.Tag {
			case "DateTimeOriginal":
				original = t
			case "DateTime":
				generic = t
			}
			return nil
		},
	})
	if err != nil {
		return time.Time{}, false
	}
	if !original.IsZero() {
		return original, true
	}
	if !generic.IsZero() {
		return generic, true
	}
	return time.Time{}, false
}

// tagTime extracts a timestamp from an EXIF tag value. Depending on the
// decoder version the value arrives as time.Time or as the raw
// "2006:01:02 15:04:05" string.
func tagTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		if val.IsZero() {
			return time.Time{}, false
		}
		return val, true
	case string:
		t, err := time.ParseInLocation(exifDateLayout, val, time.Local)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		return time.Time{}, false
	}
}

// filenameDate parses a date prefix like "2021-03-14 title.png" or
// "20210314_title.png". Implausible month or day values are rejected.
func filenameDate(name string) (time.Time, bool) {
	m := filenameDateRe.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	year := atoi(m[1])
	month := atoi(m[2])
	day := atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
	// time.Date normalizes overflow (Feb 30 -> Mar 2); reject such inputs.
	if t.Day() != day || t.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
