package mediastore

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileName(t *testing.T) {
	ts := time.Date(2024, 3, 7, 9, 5, 2, 45*int(time.Millisecond), time.Local)
	if got, want := FileName(Picture, ts), "InvisCam_20240307_090502045.jpg"; got != want {
		t.Errorf("picture = %q, want %q", got, want)
	}
	if got, want := FileName(Video, ts), "InvisCam_20240307_090502045.mp4"; got != want {
		t.Errorf("video = %q, want %q", got, want)
	}
}

func TestStore_NewPathAndList(t *testing.T) {
	root := t.TempDir()
	s := New(root)

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	p1, err := s.NewPath(Picture, ts)
	if err != nil {
		t.Fatalf("NewPath: %v", err)
	}
	if filepath.Dir(p1) != filepath.Join(root, "DCIM", "InvisCam") {
		t.Fatalf("unexpected dir %q", filepath.Dir(p1))
	}
	p2, _ := s.NewPath(Video, ts.Add(time.Second))
	for _, p := range []string{p1, p2} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), nil, 0o644)

	got, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].Kind != Video || got[1].Kind != Picture {
		t.Fatalf("unexpected order %+v", got)
	}
}

func TestStore_ListMissingDir(t *testing.T) {
	got, err := New(t.TempDir()).List()
	if err != nil || got != nil {
		t.Fatalf("got %v, %v", got, err)
	}
}
