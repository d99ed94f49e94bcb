package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/scribe/internal/common"
	"github.com/Veraticus/scribe/internal/model"
	"github.com/Veraticus/scribe/internal/service"
	"github.com/Veraticus/scribe/internal/staging"
)

// Session ties the staging area of one clinician to extraction and commit.
// It owns the applying flag and drops results that arrive after the active
// patient changed.
type Session struct {
	guard     *staging.Guard
	store     *staging.Store
	extractor service.Extractor
	committer *Committer
	reporter  *Reporter
	logger    *slog.Logger
}

// NewSession creates a session. extractor may be nil when records are only
// ever seeded directly.
func NewSession(guard *staging.Guard, extractor service.Extractor, committer *Committer, reporter *Reporter) *Session {
	if reporter == nil {
		reporter = NewReporter()
	}
	return &Session{
		guard:     guard,
		store:     guard.Store(),
		extractor: extractor,
		committer: committer,
		reporter:  reporter,
		logger:    slog.Default(),
	}
}

// Store returns the staging store.
func (s *Session) Store() *staging.Store {
	return s.store
}

// Guard returns the patient-scope guard.
func (s *Session) Guard() *staging.Guard {
	return s.guard
}

// SetActivePatient switches the patient, clearing staged state on change.
func (s *Session) SetActivePatient(id model.PatientID) bool {
	return s.guard.SetActivePatient(id)
}

// Extract runs the extraction service on text and stages the normalized
// result. The result is dropped with ErrStaleScope when the patient changed
// during the call.
func (s *Session) Extract(ctx context.Context, text string) error {
	if s.extractor == nil {
		return fmt.Errorf("%w: no extraction service configured", common.ErrMissingConfig)
	}
	scope := s.guard.Scope()
	if scope.Patient.IsZero() {
		return common.ErrNoActivePatient
	}
	if strings.TrimSpace(text) == "" {
		return common.ErrEmptyTranscript
	}

	record, err := s.extractor.Extract(ctx, text)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrExtractionFailed, err)
	}

	if !s.guard.IsCurrent(scope) {
		s.logger.Warn("Discarding extraction for previous patient",
			"patient", scope.Patient.String())
		return common.ErrStaleScope
	}

	s.store.Seed(record)
	s.logger.Info("Extraction staged",
		"patient", scope.Patient.String(),
		"diagnoses", len(record.Diagnoses),
		"comorbidities", len(record.Comorbidities),
		"medications", len(record.Medications),
		"allergies", len(record.Allergies),
		"surgeries", len(record.Surgeries))
	return nil
}

// ExtractNote extracts from the pending free-text note buffer.
func (s *Session) ExtractNote(ctx context.Context) error {
	return s.Extract(ctx, s.store.Note())
}

// Stage seeds the store directly for the active patient.
func (s *Session) Stage(record model.CandidateRecord) error {
	if s.guard.Active().IsZero() {
		return common.ErrNoActivePatient
	}
	s.store.Seed(record)
	return nil
}

// Apply commits the staged record for the active patient. It returns false
// without doing anything when nothing is staged, no patient is active, a
// commit is already in flight, or the patient changed before the commit
// began. After a commit the staged record and note are cleared whatever the
// outcome, unless the patient changed meanwhile, in which case the outcome is
// marked Stale and staging is left to the new patient.
func (s *Session) Apply(ctx context.Context) (Outcome, bool) {
	scope := s.guard.Scope()
	if scope.Patient.IsZero() {
		return Outcome{}, false
	}
	if !s.store.BeginApply() {
		return Outcome{}, false
	}

	record, ok := s.store.Current()
	if !ok || !s.guard.IsCurrent(scope) {
		s.store.EndApply()
		return Outcome{}, false
	}

	report, err := s.committer.Commit(ctx, record, scope.Patient)

	if !s.guard.IsCurrent(scope) {
		s.logger.Warn("Discarding commit result for previous patient",
			"patient", scope.Patient.String())
		return Outcome{Report: report, Err: err, Stale: true}, true
	}

	outcome := s.reporter.Report(report, err)
	s.store.Discard()
	s.store.ClearNote()
	s.store.EndApply()
	return outcome, true
}

// Discard drops the staged record without committing.
func (s *Session) Discard() {
	s.store.Discard()
}
