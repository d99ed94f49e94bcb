// Package staging holds the candidate record a clinician is reviewing, and
// scopes it to the active patient.
package staging

import (
	"sync"

	"github.com/Veraticus/scribe/internal/model"
)

// Snapshot is the state observers see after each change.
type Snapshot struct {
	Record  model.CandidateRecord
	Version uint64
	Present bool
}

// Store is the single-owner staging area for one review session.
// Every mutation replaces the staged record with a new value and bumps the
// version, so readers can detect change by comparing versions.
type Store struct {
	current   *model.CandidateRecord
	note      string
	observers []func(Snapshot)
	version   uint64
	mu        sync.Mutex
	applying  bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Seed stages a record, replacing whatever was staged.
func (s *Store) Seed(record model.CandidateRecord) {
	staged := record.Clone()
	s.mu.Lock()
	s.current = &staged
	snap := s.bumpLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// Current returns a copy of the staged record.
func (s *Store) Current() (model.CandidateRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return model.CandidateRecord{}, false
	}
	return s.current.Clone(), true
}

// HasRecord reports whether a record is staged.
func (s *Store) HasRecord() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Version returns the change counter.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Discard drops the staged record. The note buffer is kept.
func (s *Store) Discard() {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return
	}
	s.current = nil
	snap := s.bumpLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// Reset clears the staged record, the note buffer and the applying flag.
func (s *Store) Reset() {
	s.notify(s.clear())
}

// clear empties the store without notifying observers.
func (s *Store) clear() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.note = ""
	s.applying = false
	return s.bumpLocked()
}

// OnChange registers fn to be called after every change.
func (s *Store) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Note returns the pending free-text note.
func (s *Store) Note() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.note
}

// SetNote replaces the pending free-text note.
func (s *Store) SetNote(note string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.note = note
}

// ClearNote empties the pending free-text note.
func (s *Store) ClearNote() {
	s.SetNote("")
}

// Applying reports whether a commit is in flight.
func (s *Store) Applying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applying
}

// BeginApply marks a commit as in flight. It returns false when one already is.
func (s *Store) BeginApply() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applying {
		return false
	}
	s.applying = true
	return true
}

// EndApply clears the in-flight marker.
func (s *Store) EndApply() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applying = false
}

// SetSummary replaces the staged summary.
func (s *Store) SetSummary(summary string) bool {
	return s.mutate(func(r *model.CandidateRecord) bool {
		r.Summary = summary
		return true
	})
}

// mutate applies fn to a copy of the staged record and installs the copy when
// fn reports a change. It is a no-op when nothing is staged.
func (s *Store) mutate(fn func(*model.CandidateRecord) bool) bool {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return false
	}
	next := s.current.Clone()
	if !fn(&next) {
		s.mu.Unlock()
		return false
	}
	s.current = &next
	snap := s.bumpLocked()
	s.mu.Unlock()
	s.notify(snap)
	return true
}

func (s *Store) bumpLocked() Snapshot {
	s.version++
	snap := Snapshot{Version: s.version, Present: s.current != nil}
	if s.current != nil {
		snap.Record = s.current.Clone()
	}
	return snap
}

func (s *Store) notify(snap Snapshot) {
	s.mu.Lock()
	observers := append([]func(Snapshot){}, s.observers...)
	s.mu.Unlock()
	for _, fn := range observers {
		fn(snap)
	}
}

func removeAt[T any](items []T, index int) ([]T, bool) {
	if index < 0 || index >= len(items) {
		return items, false
	}
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:index]...)
	return append(out, items[index+1:]...), true
}

func inRange[T any](items []T, index int) bool {
	return index >= 0 && index < len(items)
}
