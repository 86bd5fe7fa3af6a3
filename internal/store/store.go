// Package store keeps the timer configuration and user settings in a YAML
// file. The engine never touches it directly: the daemon hands Configs to
// the scheduler and writes fired reminders back through MarkReminderTriggered.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/timely/internal/logic"
)

var (
	// ErrNotFound is returned when a timer, reminder or marker id is unknown.
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig is returned when a document fails validation.
	ErrInvalidConfig = errors.New("invalid config")
)

// Document is the on-disk layout.
type Document struct {
	Settings Settings            `yaml:"settings"`
	Timers   []logic.TimerConfig `yaml:"timers"`
}

// Store is a mutex-guarded Document, optionally backed by a file.
// Every successful mutation is saved when a path is set.
type Store struct {
	mu      sync.RWMutex
	path    string
	doc     Document
	lastRaw []byte
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now, used for default start times.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an in-memory store holding doc. Nothing is persisted.
func New(doc Document, opts ...Option) (*Store, error) {
	s := &Store{now: time.Now}
	for _, o := range opts {
		o(s)
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}
	s.doc = doc
	return s, nil
}

// Open loads path. A missing file yields the example document, which is
// written on the first mutation or Save.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{path: filepath.Clean(path), now: time.Now}
	for _, o := range opts {
		o(s)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.doc = ExampleDocument(s.now())
			return s, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	doc, err := decode(data)
	if err != nil {
		return nil, err
	}
	s.doc = doc
	s.lastRaw = data
	return s, nil
}

func decode(data []byte) (Document, error) {
	doc := Document{Settings: DefaultSettings()}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parse config: %w", err)
	}
	if err := validateDocument(doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Path returns the backing file, or "" for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the backing file. An unchanged file is a no-op; an
// invalid one leaves the current document in place.
func (s *Store) Reload() (bool, error) {
	if s.path == "" {
		return false, nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return false, fmt.Errorf("read config: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if bytes.Equal(data, s.lastRaw) {
		return false, nil
	}
	doc, err := decode(data)
	if err != nil {
		return false, err
	}
	s.doc = doc
	s.lastRaw = data
	return true, nil
}

// Save writes the document to the backing file.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// saveLocked writes through a temp file and rename so readers and the file
// watcher never see a half-written document.
func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	data, err := yaml.Marshal(&s.doc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	s.lastRaw = data
	return nil
}

// mutate applies fn to a copy of the document, validates and commits it.
func (s *Store) mutate(fn func(doc *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneDocument(s.doc)
	if err := fn(&next); err != nil {
		return err
	}
	if err := validateDocument(next); err != nil {
		return err
	}
	prev := s.doc
	s.doc = next
	if err := s.saveLocked(); err != nil {
		s.doc = prev
		return err
	}
	return nil
}

// Configs returns a deep copy of the timers ordered by Order.
func (s *Store) Configs() []logic.TimerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]logic.TimerConfig, len(s.doc.Timers))
	for i, t := range s.doc.Timers {
		out[i] = cloneTimer(t)
	}
	sortByOrder(out)
	return out
}

// Timer returns one timer by id.
func (s *Store) Timer(id string) (logic.TimerConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := indexOfTimer(s.doc.Timers, id)
	if i < 0 {
		return logic.TimerConfig{}, fmt.Errorf("timer %s: %w", id, ErrNotFound)
	}
	return cloneTimer(s.doc.Timers[i]), nil
}

// Settings returns the current settings.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Settings
}

// UpdateSettings applies fn to the settings.
func (s *Store) UpdateSettings(fn func(*Settings)) error {
	return s.mutate(func(doc *Document) error {
		fn(&doc.Settings)
		return nil
	})
}

func indexOfTimer(timers []logic.TimerConfig, id string) int {
	for i := range timers {
		if timers[i].ID == id {
			return i
		}
	}
	return -1
}

func newID() string {
	return uuid.NewString()
}

func cloneDocument(doc Document) Document {
	out := Document{Settings: doc.Settings, Timers: make([]logic.TimerConfig, len(doc.Timers))}
	for i, t := range doc.Timers {
		out.Timers[i] = cloneTimer(t)
	}
	return out
}

func cloneTimer(t logic.TimerConfig) logic.TimerConfig {
	out := t
	out.FixedStartTime = cloneTime(t.FixedStartTime)
	if t.Reminders != nil {
		out.Reminders = make([]logic.Reminder, len(t.Reminders))
		for i, r := range t.Reminders {
			r.LastTriggered = cloneTime(r.LastTriggered)
			out.Reminders[i] = r
		}
	}
	if t.Markers != nil {
		out.Markers = append([]logic.Marker(nil), t.Markers...)
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
