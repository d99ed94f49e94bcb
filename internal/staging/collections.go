package staging

import (
	"github.com/Veraticus/scribe/internal/model"
)

// DiagnosisPatch holds the diagnosis fields to change. Nil fields are left alone.
// An empty DiagnosisDate or Notes clears the field.
type DiagnosisPatch struct {
	CIDCode       *string
	Status        *string
	DiagnosisDate *string
	Notes         *string
}

// MedicationPatch holds the medication fields to change. Nil fields are left alone.
type MedicationPatch struct {
	Name      *string
	Dosage    *string
	Frequency *string
	Format    *string
	StartDate *string
	Notes     *string
	IsActive  *bool
}

// AllergyPatch holds the allergy fields to change. Nil fields are left alone.
type AllergyPatch struct {
	Allergen     *string
	AllergenType *string
	Reaction     *string
	Severity     *string
	Notes        *string
}

// SurgeryPatch holds the surgery fields to change. Nil fields are left alone.
type SurgeryPatch struct {
	ProcedureName *string
	SurgeryDate   *string
	HospitalName  *string
	SurgeonName   *string
	Notes         *string
}

// AddDiagnosis appends a blank active diagnosis.
func (s *Store) AddDiagnosis() bool {
	return s.mutate(func(r *model.CandidateRecord) bool {
		r.Diagnoses = append(r.Diagnoses, model.Diagnosis{Status: "ativo"})
		return true
	})
}

// UpdateDiagnosis merges patch into the diagnosis at index.
func (s *Store) UpdateDiagnosis(index int, patch DiagnosisPatch) bool {
	return s.mutate(func(r *model.CandidateRecord) bool {
		if !inRange(r.Diagnoses, index) {
			return false
		}
		d := &r.Diagnoses[index]
		setString(&d.CIDCode, patch.CIDCode)
		setString(&d.Status, patch.Status)
		setNullable(&d.DiagnosisDate, patch.DiagnosisDate)
		setNullable(&d.Notes, patch.Notes)
		return true
	})
}

// RemoveDiagnosis deletes the diagnosis at index.
func (s *Store) RemoveDiagnosis(index int) bool {
	return s.mutate(func(r *model.CandidateRecord) bool {
		var ok bool
		r.Diagnoses, ok = removeAt(r.Diagnoses, index)
		return ok
	})
}

// AddMedication appends a blank active medication.
func (s *Store) AddMedication() bool {
	return s.mutate(func(r *model.CandidateRecord) bool {
		r.Medications = append(r.Medications, model.Medication{IsActive: model.BoolPtr(true)})
		return true
	})
}

// UpdateMedication merges patch into the medication at index.
func (s *Store) UpdateMedication(index int, patch MedicationPatch) bool {
	return s.mutate(func(r *model.CandidateRecord) bool {
		if !inRange(r.Medications, index) {
			return false
		}
		m := &r.Medications[index]
		setString(&m.Name, patch.Name)
		setString(&m.Dosage, patch.Dosage)
		setString(&m.Frequency, patch.Frequency)
		setString(&m.Format, patch.Format)
		setString(&m.StartDate, patch.StartDate)
		setString(&m.Notes, patch.Notes)
		if patch.IsActive != nil {
			m.IsActive = model.BoolPtr(*patch.IsActive)
		}
		return true
	})
}

// RemoveMedication deletes the medication at index.
func (s *Store) RemoveMedication(index int) bool {
	return s.mutate(func(r *model.CandidateRecord) bool {
		var ok bool
		r.Medications, ok = removeAt(r.Medications, index)
		return ok
	})
}

// AddAllergy appends a blank medication allergy.
func (s *Store) AddAllergy() bool {
	return s.mutate(func(r *model.CandidateRecord) bool {
		r.Allergies = append(r.Allergies, model.Allergy{AllergenType: "medication"})
		return true
	})
}

// UpdateAllergy merges patch into the allergy at index.
func (s *Store) UpdateAllergy(index int, patch AllergyPatch) bool {
	return s.mutate(func(r *model.CandidateRecord) bool {
		if !inRange(r.Allergies, index) {
			return false
		}
		a := &r.Allergies[index]
		setString(&a.Allergen, patch.Allergen)
		setString(&a.AllergenType, patch.AllergenType)
		setString(&a.Reaction, patch.Reaction)
		setString(&a.Severity, patch.Severity)
		setString(&a.Notes, patch.Notes)
		return true
	})
}

// RemoveAllergy deletes the allergy at index.
func (s *Store) RemoveAllergy(index int) bool {
	return s.mutate(func(r *model.CandidateRecord) bool {
		var ok bool
		r.Allergies, ok = removeAt(r.Allergies, index)
		return ok
	})
}

// AddComorbidity appends an empty comorbidity label.
func (s *Store) AddComorbidity() bool {
	return s.mutate(func(r *model.CandidateRecord) bool {
		r.Comorbidities = append(r.Comorbidities, "")
		return true
	})
}

// UpdateComorbidity replaces the comorbidity label at index.
func (s *Store) UpdateComorbidity(index int, value string) bool {
	return s.mutate(func(r *model.CandidateRecord) bool {
		if !inRange(r.Comorbidities, index) {
			return false
		}
		r.Comorbidities[index] = value
		return true
	})
}

// RemoveComorbidity deletes the comorbidity at index.
func (s *Store) RemoveComorbidity(index int) bool {
	return s.mutate(func(r *model.CandidateRecord) bool {
		var ok bool
		r.Comorbidities, ok = removeAt(r.Comorbidities, index)
		return ok
	})
}

// AddSurgery appends a blank surgery.
func (s *Store) AddSurgery() bool {
	return s.mutate(func(r *model.CandidateRecord) bool {
		r.Surgeries = append(r.Surgeries, model.Surgery{})
		return true
	})
}

// UpdateSurgery merges patch into the surgery at index.
func (s *Store) UpdateSurgery(index int, patch SurgeryPatch) bool {
	return s.mutate(func(r *model.CandidateRecord) bool {
		if !inRange(r.Surgeries, index) {
			return false
		}
		sg := &r.Surgeries[index]
		setString(&sg.ProcedureName, patch.ProcedureName)
		setString(&sg.SurgeryDate, patch.SurgeryDate)
		setString(&sg.HospitalName, patch.HospitalName)
		setString(&sg.SurgeonName, patch.SurgeonName)
		setString(&sg.Notes, patch.Notes)
		return true
	})
}

// RemoveSurgery deletes the surgery at index.
func (s *Store) RemoveSurgery(index int) bool {
	return s.mutate(func(r *model.CandidateRecord) bool {
		var ok bool
		r.Surgeries, ok = removeAt(r.Surgeries, index)
		return ok
	})
}

// Add appends a blank item to the named category.
func (s *Store) Add(c model.Category) bool {
	switch c {
	case model.CategoryDiagnoses:
		return s.AddDiagnosis()
	case model.CategoryComorbidities:
		return s.AddComorbidity()
	case model.CategoryMedications:
		return s.AddMedication()
	case model.CategoryAllergies:
		return s.AddAllergy()
	case model.CategorySurgeries:
		return s.AddSurgery()
	default:
		return false
	}
}

// Remove deletes the item at index from the named category.
func (s *Store) Remove(c model.Category, index int) bool {
	switch c {
	case model.CategoryDiagnoses:
		return s.RemoveDiagnosis(index)
	case model.CategoryComorbidities:
		return s.RemoveComorbidity(index)
	case model.CategoryMedications:
		return s.RemoveMedication(index)
	case model.CategoryAllergies:
		return s.RemoveAllergy(index)
	case model.CategorySurgeries:
		return s.RemoveSurgery(index)
	default:
		return false
	}
}

func setString(dst *string, value *string) {
	if value != nil {
		*dst = *value
	}
}

func setNullable(dst **string, value *string) {
	if value == nil {
		return
	}
	if *value == "" {
		*dst = nil
		return
	}
	*dst = model.StringPtr(*value)
}
