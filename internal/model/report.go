package model

// Tally counts items per report category.
type Tally struct {
	Diagnoses     int `json:"diagnoses"`
	Comorbidities int `json:"comorbidities"`
	Medications   int `json:"medications"`
	Allergies     int `json:"allergies"`
	Surgeries     int `json:"surgeries"`
}

// CommitReport is the outcome of committing a candidate record.
// Created counts persisted items; Skipped counts items rejected for missing required fields.
type CommitReport struct {
	Created Tally `json:"created"`
	Skipped Tally `json:"skipped"`
}

// Count returns the tally for a category.
func (t Tally) Count(c Category) int {
	switch c {
	case CategoryDiagnoses:
		return t.Diagnoses
	case CategoryComorbidities:
		return t.Comorbidities
	case CategoryMedications:
		return t.Medications
	case CategoryAllergies:
		return t.Allergies
	case CategorySurgeries:
		return t.Surgeries
	default:
		return 0
	}
}

// Increment adds one to the tally for a category.
func (t *Tally) Increment(c Category) {
	switch c {
	case CategoryDiagnoses:
		t.Diagnoses++
	case CategoryComorbidities:
		t.Comorbidities++
	case CategoryMedications:
		t.Medications++
	case CategoryAllergies:
		t.Allergies++
	case CategorySurgeries:
		t.Surgeries++
	}
}

// Total returns the sum over all categories.
func (t Tally) Total() int {
	return t.Diagnoses + t.Comorbidities + t.Medications + t.Allergies + t.Surgeries
}

// Add returns the element-wise sum of two tallies.
func (t Tally) Add(other Tally) Tally {
	return Tally{
		Diagnoses:     t.Diagnoses + other.Diagnoses,
		Comorbidities: t.Comorbidities + other.Comorbidities,
		Medications:   t.Medications + other.Medications,
		Allergies:     t.Allergies + other.Allergies,
		Surgeries:     t.Surgeries + other.Surgeries,
	}
}
