package model

// PatientID identifies the patient a staged record and its committed items belong to.
// The zero value means no patient is active.
type PatientID string

// IsZero reports whether no patient is selected.
func (p PatientID) IsZero() bool {
	return p == ""
}

func (p PatientID) String() string {
	return string(p)
}

// Category names a record collection. Comorbidities are persisted as diagnoses
// but are counted separately when reporting a commit.
type Category string

// Record categories.
const (
	CategoryDiagnoses     Category = "diagnoses"
	CategoryComorbidities Category = "comorbidities"
	CategoryMedications   Category = "medications"
	CategoryAllergies     Category = "allergies"
	CategorySurgeries     Category = "surgeries"
)

// PersistedCategories lists the categories backed by a record store, in commit order.
func PersistedCategories() []Category {
	return []Category{
		CategoryDiagnoses,
		CategoryMedications,
		CategoryAllergies,
		CategorySurgeries,
	}
}

// ReportCategories lists every category that appears in a commit report, in display order.
func ReportCategories() []Category {
	return []Category{
		CategoryDiagnoses,
		CategoryComorbidities,
		CategoryMedications,
		CategoryAllergies,
		CategorySurgeries,
	}
}
