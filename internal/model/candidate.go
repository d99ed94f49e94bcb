// Package model defines the core domain models used throughout the application.
package model

// CandidateRecord is the structured result of an extraction, staged for
// clinician review before any part of it is written to the patient's record.
// All five collections are non-nil once a record has been normalized.
type CandidateRecord struct {
	Summary       string       `json:"summary"`
	Diagnoses     []Diagnosis  `json:"diagnoses"`
	Medications   []Medication `json:"medications"`
	Allergies     []Allergy    `json:"allergies"`
	Comorbidities []string     `json:"comorbidities"`
	Surgeries     []Surgery    `json:"surgeries"`
}

// Diagnosis is a staged coded diagnosis.
type Diagnosis struct {
	DiagnosisDate *string `json:"diagnosisDate,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	CIDCode       string  `json:"cidCode,omitempty"`
	Status        string  `json:"status,omitempty"`
}

// Medication is a staged medication. IsActive is nil when the extraction did not say.
type Medication struct {
	IsActive  *bool  `json:"isActive,omitempty"`
	Name      string `json:"name,omitempty"`
	Dosage    string `json:"dosage,omitempty"`
	Frequency string `json:"frequency,omitempty"`
	Format    string `json:"format,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// Allergy is a staged allergy.
type Allergy struct {
	Allergen     string `json:"allergen,omitempty"`
	AllergenType string `json:"allergenType,omitempty"`
	Reaction     string `json:"reaction,omitempty"`
	Severity     string `json:"severity,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// Surgery is a staged surgical history entry.
type Surgery struct {
	ProcedureName string `json:"procedureName,omitempty"`
	SurgeryDate   string `json:"surgeryDate,omitempty"`
	HospitalName  string `json:"hospitalName,omitempty"`
	SurgeonName   string `json:"surgeonName,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// EmptyCandidate returns a record with every collection present and empty.
func EmptyCandidate() CandidateRecord {
	return CandidateRecord{
		Diagnoses:     []Diagnosis{},
		Medications:   []Medication{},
		Allergies:     []Allergy{},
		Comorbidities: []string{},
		Surgeries:     []Surgery{},
	}
}

// Clone returns a deep copy that shares no slices or pointers with r.
func (r CandidateRecord) Clone() CandidateRecord {
	out := CandidateRecord{
		Summary:       r.Summary,
		Diagnoses:     make([]Diagnosis, len(r.Diagnoses)),
		Medications:   make([]Medication, len(r.Medications)),
		Allergies:     append([]Allergy{}, r.Allergies...),
		Comorbidities: append([]string{}, r.Comorbidities...),
		Surgeries:     append([]Surgery{}, r.Surgeries...),
	}
	for i, d := range r.Diagnoses {
		d.DiagnosisDate = cloneString(d.DiagnosisDate)
		d.Notes = cloneString(d.Notes)
		out.Diagnoses[i] = d
	}
	for i, m := range r.Medications {
		if m.IsActive != nil {
			active := *m.IsActive
			m.IsActive = &active
		}
		out.Medications[i] = m
	}
	return out
}

// IsEmpty reports whether the record carries nothing a clinician could commit.
func (r CandidateRecord) IsEmpty() bool {
	return r.Summary == "" &&
		len(r.Diagnoses) == 0 &&
		len(r.Medications) == 0 &&
		len(r.Allergies) == 0 &&
		len(r.Comorbidities) == 0 &&
		len(r.Surgeries) == 0
}

// Len returns the number of items staged in the given category.
func (r CandidateRecord) Len(c Category) int {
	switch c {
	case CategoryDiagnoses:
		return len(r.Diagnoses)
	case CategoryComorbidities:
		return len(r.Comorbidities)
	case CategoryMedications:
		return len(r.Medications)
	case CategoryAllergies:
		return len(r.Allergies)
	case CategorySurgeries:
		return len(r.Surgeries)
	default:
		return 0
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}
