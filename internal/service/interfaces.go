// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/scribe/internal/model"
)

// Extractor turns free clinical text into a candidate record.
type Extractor interface {
	Extract(ctx context.Context, text string) (model.CandidateRecord, error)
}

// DiagnosisWriter persists diagnoses. Implementations assign the record ID.
type DiagnosisWriter interface {
	CreateDiagnosis(ctx context.Context, record *model.DiagnosisRecord) error
}

// MedicationWriter persists medications. Implementations assign the record ID.
type MedicationWriter interface {
	CreateMedication(ctx context.Context, record *model.MedicationRecord) error
}

// AllergyWriter persists allergies. Implementations assign the record ID.
type AllergyWriter interface {
	CreateAllergy(ctx context.Context, record *model.AllergyRecord) error
}

// SurgeryWriter persists surgeries. Implementations assign the record ID.
type SurgeryWriter interface {
	CreateSurgery(ctx context.Context, record *model.SurgeryRecord) error
}

// RecordWriter groups the per-category create operations used by a commit.
type RecordWriter interface {
	DiagnosisWriter
	MedicationWriter
	AllergyWriter
	SurgeryWriter
}

// RecordReader reads a patient's persisted records.
type RecordReader interface {
	ListDiagnoses(ctx context.Context, patientID model.PatientID) ([]model.DiagnosisRecord, error)
	ListMedications(ctx context.Context, patientID model.PatientID) ([]model.MedicationRecord, error)
	ListAllergies(ctx context.Context, patientID model.PatientID) ([]model.AllergyRecord, error)
	ListSurgeries(ctx context.Context, patientID model.PatientID) ([]model.SurgeryRecord, error)
}

// CacheInvalidator drops cached reads of one category for one patient.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, category model.Category, patientID model.PatientID) error
}

// AuditLog keeps the count-only history of commit attempts.
type AuditLog interface {
	SaveCommitLog(ctx context.Context, entry *model.CommitLogEntry) error
	ListCommitLogs(ctx context.Context, patientID model.PatientID, limit int) ([]model.CommitLogEntry, error)
}

// Storage is the full persistence layer.
type Storage interface {
	RecordWriter
	RecordReader
	CacheInvalidator
	AuditLog

	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
