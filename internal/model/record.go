package model

import (
	"time"

	"github.com/google/uuid"
)

// DiagnosisRecord is a diagnosis persisted in the patient's record.
// Comorbidities accepted at commit time are stored as diagnoses too.
type DiagnosisRecord struct {
	CreatedAt     time.Time `json:"created_at"`
	Notes         *string   `json:"notes,omitempty"`
	PatientID     PatientID `json:"patient_id" validate:"required"`
	CIDCode       string    `json:"cid_code" validate:"required,max=255"`
	DiagnosisDate string    `json:"diagnosis_date" validate:"required"`
	Status        string    `json:"status" validate:"required,max=64"`
	ID            uuid.UUID `json:"id"`
}

// MedicationRecord is a medication persisted in the patient's record.
type MedicationRecord struct {
	CreatedAt time.Time `json:"created_at"`
	PatientID PatientID `json:"patient_id" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Dosage    string    `json:"dosage" validate:"required"`
	Frequency string    `json:"frequency" validate:"required"`
	Format    string    `json:"format" validate:"required"`
	StartDate string    `json:"start_date" validate:"required"`
	Notes     string    `json:"notes,omitempty"`
	ID        uuid.UUID `json:"id"`
	IsActive  bool      `json:"is_active"`
}

// AllergyRecord is an allergy persisted in the patient's record.
type AllergyRecord struct {
	CreatedAt    time.Time `json:"created_at"`
	PatientID    PatientID `json:"patient_id" validate:"required"`
	Allergen     string    `json:"allergen" validate:"required"`
	AllergenType string    `json:"allergen_type" validate:"required"`
	Reaction     string    `json:"reaction,omitempty"`
	Severity     string    `json:"severity,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	ID           uuid.UUID `json:"id"`
}

// SurgeryRecord is a surgical history entry persisted in the patient's record.
type SurgeryRecord struct {
	CreatedAt     time.Time `json:"created_at"`
	PatientID     PatientID `json:"patient_id" validate:"required"`
	ProcedureName string    `json:"procedure_name" validate:"required"`
	SurgeryDate   string    `json:"surgery_date" validate:"required"`
	HospitalName  string    `json:"hospital_name,omitempty"`
	SurgeonName   string    `json:"surgeon_name,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	ID            uuid.UUID `json:"id"`
}

// PatientRecords is everything persisted for one patient.
type PatientRecords struct {
	PatientID   PatientID          `json:"patient_id"`
	Diagnoses   []DiagnosisRecord  `json:"diagnoses"`
	Medications []MedicationRecord `json:"medications"`
	Allergies   []AllergyRecord    `json:"allergies"`
	Surgeries   []SurgeryRecord    `json:"surgeries"`
}

// CommitLogEntry is the audit trail of one commit attempt. It holds counts
// only, never clinical text.
type CommitLogEntry struct {
	CreatedAt time.Time    `json:"created_at"`
	PatientID PatientID    `json:"patient_id"`
	Source    string       `json:"source"`
	Error     string       `json:"error,omitempty"`
	Report    CommitReport `json:"report"`
	ID        uuid.UUID    `json:"id"`
	Success   bool         `json:"success"`
}
