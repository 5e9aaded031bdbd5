package artcatalog

import (
	"testing"
	"time"
)

func TestFilenameDatePatterns(t *testing.T) {
	cases := []struct {
		name string
		want time.Time
		ok   bool
	}{
		{"2021-03-14 sketch.png", time.Date(2021, 3, 14, 0, 0, 0, 0, time.Local), true},
		{"2021_03_14_sketch.png", time.Date(2021, 3, 14, 0, 0, 0, 0, time.Local), true},
		{"20210314.jpg", time.Date(2021, 3, 14, 0, 0, 0, 0, time.Local), true},
		{"2021-0314.jpg", time.Date(2021, 3, 14, 0, 0, 0, 0, time.Local), true},
		{"sketch-2021.png", time.Time{}, false},
		{"20211341.jpg", time.Time{}, false}, // month 13
		{"20210230.jpg", time.Time{}, false}, // Feb 30
		{"draft.png", time.Time{}, false},
	}
	for _, tc := range cases {
		got, ok := filenameDate(tc.name)
		if ok != tc.ok {
			t.Errorf("filenameDate(%q) ok = %v, want %v", tc.name, ok, tc.ok)
			continue
		}
		if ok && !got.Equal(tc.want) {
			t.Errorf("filenameDate(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestResolveDatePrefersEXIFOverFilename(t *testing.T) {
	dir := t.TempDir()
	// Filename claims 2019, EXIF says 2020: embedded metadata wins.
	path := writeExifJPEG(t, dir, "2019-01-01_pic.jpg", makeGradient(64, 64, 0), "2020:05:17 10:30:00")

	got, source := ResolveDate(path)
	if source != SourceEXIF {
		t.Fatalf("source = %s, want %s", source, SourceEXIF)
	}
	if got.Year() != 2020 || got.Month() != time.May || got.Day() != 17 {
		t.Errorf("resolved %v, want 2020-05-17", got)
	}
}

func TestResolveDateFilenameBeatsFilesystem(t *testing.T) {
	dir := t.TempDir()
	path := writeJPEG(t, dir, "2018-11-02_pic.jpg", makeGradient(64, 64, 0))

	got, source := ResolveDate(path)
	if source != SourceFilename {
		t.Fatalf("source = %s, want %s", source, SourceFilename)
	}
	want := time.Date(2018, 11, 2, 0, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("resolved %v, want %v", got, want)
	}
}

func TestResolveDateFilesystemFallback(t *testing.T) {
	dir := t.TempDir()
	path := writeJPEG(t, dir, "pic.jpg", makeGradient(64, 64, 0))

	got, source := ResolveDate(path)
	if source != SourceFilesystem {
		t.Fatalf("source = %s, want %s", source, SourceFilesystem)
	}
	if time.Since(got) > time.Minute {
		t.Errorf("filesystem date %v is implausibly old for a fresh file", got)
	}
}

func TestResolveDateMissingFile(t *testing.T) {
	before := time.Now()
	got, source := ResolveDate(t.TempDir() + "/vanished.jpg")
	if source != SourceFallback {
		t.Fatalf("source = %s, want %s", source, SourceFallback)
	}
	if got.Before(before) || time.Since(got) > time.Minute {
		t.Errorf("fallback date %v not close to now", got)
	}
}

func TestExifCaptureDateAbsent(t *testing.T) {
	dir := t.TempDir()
	path := writeJPEG(t, dir, "plain.jpg", makeGradient(64, 64, 0))

	if _, ok := exifCaptureDate(path); ok {
		t.Error("found a capture date in a JPEG without EXIF")
	}
}
