// Package mediastore names and places captured photos and videos.
package mediastore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// RelativeDir is where captures live under the media root.
const RelativeDir = "DCIM/InvisCam"

// Kind is the type of capture.
type Kind uint8

const (
	// Picture is a still JPEG.
	Picture Kind = iota + 1
	// Video is an MP4 recording.
	Video
)

// Ext returns the file extension without the dot.
func (k Kind) Ext() string {
	if k == Video {
		return "mp4"
	}
	return "jpg"
}

// FileName returns InvisCam_<yyyyMMdd_HHmmssSSS>.<ext> for t in local time.
func FileName(k Kind, t time.Time) string {
	t = t.Local()
	return fmt.Sprintf("InvisCam_%s%03d.%s", t.Format("20060102_150405"), t.Nanosecond()/int(time.Millisecond), k.Ext())
}

// Store hands out capture paths under a media root.
type Store struct {
	root string
}

// New creates a Store rooted at root, typically the user's home directory.
func New(root string) *Store {
	return &Store{root: root}
}

// Dir returns the capture directory.
func (s *Store) Dir() string {
	return filepath.Join(s.root, filepath.FromSlash(RelativeDir))
}

// NewPath creates the capture directory if needed and returns the path for
// a capture of kind k taken at t.
func (s *Store) NewPath(k Kind, t time.Time) (string, error) {
	dir := s.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating media dir: %w", err)
	}
	return filepath.Join(dir, FileName(k, t)), nil
}

// Entry is one capture on disk.
type Entry struct {
	Name    string
	Kind    Kind
	Size    int64
	ModTime time.Time
}

// List returns existing captures, newest first.
func (s *Store) List() ([]Entry, error) {
	ents, err := os.ReadDir(s.Dir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading media dir: %w", err)
	}
	var out []Entry
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "InvisCam_") {
			continue
		}
		var k Kind
		switch filepath.Ext(name) {
		case ".jpg":
			k = Picture
		case ".mp4":
			k = Video
		default:
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{Name: name, Kind: k, Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}
