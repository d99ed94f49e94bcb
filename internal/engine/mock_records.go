package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Veraticus/scribe/internal/model"
)

// ErrMockCreate is returned by MockRecordWriter for configured failures.
var ErrMockCreate = errors.New("mock create failed")

// MockCall records one create call in the order it was issued.
type MockCall struct {
	Record   any
	Category model.Category
	CIDCode  string
}

// MockRecordWriter is an in-memory RecordWriter for tests. It records every
// call and can fail the Nth call of a category.
type MockRecordWriter struct {
	failOn      map[model.Category]map[int]bool
	counts      map[model.Category]int
	calls       []MockCall
	Diagnoses   []model.DiagnosisRecord
	Medications []model.MedicationRecord
	Allergies   []model.AllergyRecord
	Surgeries   []model.SurgeryRecord
	mu          sync.Mutex
}

// NewMockRecordWriter creates an empty mock writer.
func NewMockRecordWriter() *MockRecordWriter {
	return &MockRecordWriter{
		failOn: make(map[model.Category]map[int]bool),
		counts: make(map[model.Category]int),
	}
}

// FailOn makes the nth (zero-based) create call for category fail.
// Comorbidities are created through CreateDiagnosis and count as diagnoses.
func (m *MockRecordWriter) FailOn(category model.Category, nth int) *MockRecordWriter {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn[category] == nil {
		m.failOn[category] = make(map[int]bool)
	}
	m.failOn[category][nth] = true
	return m
}

// Calls returns a copy of the recorded calls.
func (m *MockRecordWriter) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall{}, m.calls...)
}

func (m *MockRecordWriter) record(category model.Category, rec any, code string) error {
	n := m.counts[category]
	m.counts[category] = n + 1
	m.calls = append(m.calls, MockCall{Category: category, Record: rec, CIDCode: code})
	if m.failOn[category][n] {
		return fmt.Errorf("%w: %s #%d", ErrMockCreate, category, n)
	}
	return nil
}

// CreateDiagnosis implements service.DiagnosisWriter.
func (m *MockRecordWriter) CreateDiagnosis(_ context.Context, rec *model.DiagnosisRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(model.CategoryDiagnoses, *rec, rec.CIDCode); err != nil {
		return err
	}
	rec.ID = uuid.New()
	m.Diagnoses = append(m.Diagnoses, *rec)
	return nil
}

// CreateMedication implements service.MedicationWriter.
func (m *MockRecordWriter) CreateMedication(_ context.Context, rec *model.MedicationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(model.CategoryMedications, *rec, ""); err != nil {
		return err
	}
	rec.ID = uuid.New()
	m.Medications = append(m.Medications, *rec)
	return nil
}

// CreateAllergy implements service.AllergyWriter.
func (m *MockRecordWriter) CreateAllergy(_ context.Context, rec *model.AllergyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(model.CategoryAllergies, *rec, ""); err != nil {
		return err
	}
	rec.ID = uuid.New()
	m.Allergies = append(m.Allergies, *rec)
	return nil
}

// CreateSurgery implements service.SurgeryWriter.
func (m *MockRecordWriter) CreateSurgery(_ context.Context, rec *model.SurgeryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(model.CategorySurgeries, *rec, ""); err != nil {
		return err
	}
	rec.ID = uuid.New()
	m.Surgeries = append(m.Surgeries, *rec)
	return nil
}

// ListDiagnoses implements service.RecordReader.
func (m *MockRecordWriter) ListDiagnoses(_ context.Context, patientID model.PatientID) ([]model.DiagnosisRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return forPatient(m.Diagnoses, patientID, func(r model.DiagnosisRecord) model.PatientID { return r.PatientID }), nil
}

// ListMedications implements service.RecordReader.
func (m *MockRecordWriter) ListMedications(_ context.Context, patientID model.PatientID) ([]model.MedicationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return forPatient(m.Medications, patientID, func(r model.MedicationRecord) model.PatientID { return r.PatientID }), nil
}

// ListAllergies implements service.RecordReader.
func (m *MockRecordWriter) ListAllergies(_ context.Context, patientID model.PatientID) ([]model.AllergyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return forPatient(m.Allergies, patientID, func(r model.AllergyRecord) model.PatientID { return r.PatientID }), nil
}

// ListSurgeries implements service.RecordReader.
func (m *MockRecordWriter) ListSurgeries(_ context.Context, patientID model.PatientID) ([]model.SurgeryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return forPatient(m.Surgeries, patientID, func(r model.SurgeryRecord) model.PatientID { return r.PatientID }), nil
}

func forPatient[T any](records []T, patientID model.PatientID, owner func(T) model.PatientID) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if owner(r) == patientID {
			out = append(out, r)
		}
	}
	return out
}

// InvalidationCall records one cache invalidation.
type InvalidationCall struct {
	Category  model.Category
	PatientID model.PatientID
}

// MockInvalidator records invalidations and can be told to fail.
type MockInvalidator struct {
	Err   error
	calls []InvalidationCall
	mu    sync.Mutex
}

// Invalidate implements service.CacheInvalidator.
func (m *MockInvalidator) Invalidate(_ context.Context, category model.Category, patientID model.PatientID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, InvalidationCall{Category: category, PatientID: patientID})
	return m.Err
}

// Calls returns a copy of the recorded invalidations.
func (m *MockInvalidator) Calls() []InvalidationCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]InvalidationCall{}, m.calls...)
}

// MockExtractor returns a fixed record, or blocks until released when Gate is set.
type MockExtractor struct {
	Err    error
	Gate   chan struct{}
	Record model.CandidateRecord
	texts  []string
	mu     sync.Mutex
}

// Extract implements service.Extractor.
func (m *MockExtractor) Extract(ctx context.Context, text string) (model.CandidateRecord, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()

	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return model.CandidateRecord{}, ctx.Err()
		}
	}
	if m.Err != nil {
		return model.CandidateRecord{}, m.Err
	}
	return m.Record.Clone(), nil
}

// Texts returns the texts passed to Extract.
func (m *MockExtractor) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.texts...)
}
