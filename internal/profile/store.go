package profile

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/phinze/inviscam/internal/loop"
	"github.com/phinze/inviscam/internal/reactive"
)

// fileFormat is the on-disk layout. Only values that differ from their
// profile default are written.
type fileFormat struct {
	Selected string                    `yaml:"selected,omitempty"`
	Fab      map[string]any            `yaml:"fab,omitempty"`
	Profiles map[string]map[string]any `yaml:"profiles,omitempty"`
}

type fileInput struct {
	Selected string                          `yaml:"selected"`
	Fab      map[string]yaml.Node            `yaml:"fab"`
	Profiles map[string]map[string]yaml.Node `yaml:"profiles"`
}

// Store owns every profile's settings plus the shared FAB settings and the
// selected profile. It is confined to the session loop.
type Store struct {
	path   string
	logger *slog.Logger

	sched     loop.Scheduler
	saveDelay time.Duration
	saveTimer loop.Timer
	loading   bool

	profiles map[ID]*Settings
	fab      *Fab
	selected *reactive.Cell[ID]
}

// NewStore creates a store backed by path with every field at its default.
// With a non-nil scheduler, changes are saved automatically after a short
// delay.
func NewStore(path string, sched loop.Scheduler, logger *slog.Logger) *Store {
	s := &Store{
		path:      path,
		logger:    logger.With("component", "profile"),
		sched:     sched,
		saveDelay: 500 * time.Millisecond,
		profiles:  make(map[ID]*Settings, len(defaults)),
		selected:  reactive.NewCell(IDs()[0]),
	}
	for _, id := range IDs() {
		s.profiles[id] = newSettings(id, defaults[id], s.changed)
	}
	s.fab = newFab(s.changed)
	return s
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Profile returns the settings of id.
func (s *Store) Profile(id ID) *Settings { return s.profiles[id] }

// Fab returns the shared floating button settings.
func (s *Store) Fab() *Fab { return s.fab }

// Selected is the observable selected profile.
func (s *Store) Selected() reactive.Observable[ID] { return s.selected }

// Current returns the selected profile's settings.
func (s *Store) Current() *Settings { return s.profiles[s.selected.Get()] }

// Select makes id the selected profile.
func (s *Store) Select(id ID) error {
	if _, ok := s.profiles[id]; !ok {
		return fmt.Errorf("%w %d", ErrUnknownProfile, uint8(id))
	}
	if id != s.selected.Get() {
		s.selected.Set(id)
		s.changed()
	}
	return nil
}

// Load reads the backing file. A missing file leaves the defaults in place;
// unknown keys and bad values are logged and skipped.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading profiles: %w", err)
	}

	var in fileInput
	if err := yaml.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("parsing profiles: %w", err)
	}

	s.loading = true
	defer func() { s.loading = false }()

	if in.Selected != "" {
		id, err := ParseID(in.Selected)
		if err != nil {
			s.logger.Warn("ignoring selected profile", "error", err)
		} else {
			s.selected.Set(id)
		}
	}
	s.loadEntries("fab", s.fab.Entry, in.Fab)
	for name, values := range in.Profiles {
		id, err := ParseID(name)
		if err != nil {
			s.logger.Warn("ignoring profile", "error", err)
			continue
		}
		s.loadEntries(name, s.profiles[id].Entry, values)
	}
	return nil
}

func (s *Store) loadEntries(section string, lookup func(string) (Entry, bool), values map[string]yaml.Node) {
	for key, node := range values {
		e, ok := lookup(key)
		if !ok {
			s.logger.Warn("ignoring unknown setting", "section", section, "key", key)
			continue
		}
		if e.Locked() {
			continue
		}
		if err := e.decode(&node); err != nil {
			s.logger.Warn("ignoring bad setting", "section", section, "error", err)
		}
	}
}

// Save writes the backing file atomically.
func (s *Store) Save() error {
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}

	out := fileFormat{
		Selected: s.selected.Get().String(),
		Fab:      modifiedValues(s.fab.entries),
		Profiles: make(map[string]map[string]any),
	}
	for _, id := range IDs() {
		if m := modifiedValues(s.profiles[id].entries); len(m) > 0 {
			out.Profiles[id.String()] = m
		}
	}

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("encoding profiles: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating profiles directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing profiles: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing profiles: %w", err)
	}
	return nil
}

func modifiedValues(entries []Entry) map[string]any {
	m := make(map[string]any)
	for _, e := range entries {
		if e.modified() {
			m[e.Key()] = e.encode()
		}
	}
	return m
}

func (s *Store) changed() {
	if s.loading || s.sched == nil {
		return
	}
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = s.sched.AfterFunc(s.saveDelay, func() {
		s.saveTimer = nil
		if err := s.Save(); err != nil {
			s.logger.Error("saving profiles", "error", err)
		}
	})
}
