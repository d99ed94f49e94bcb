// Package candidates provides a fluent builder for candidate records used
// across tests.
//
// Example usage:
//
//	record := candidates.New().
//		WithFixture(candidates.FixtureHypertension).
//		WithAllergy("Dipirona", "medication").
//		Build()
package candidates

import "github.com/Veraticus/scribe/internal/model"

// Builder assembles a model.CandidateRecord. The zero value is not usable;
// call New.
type Builder struct {
	record model.CandidateRecord
}

// New starts an empty, normalized record.
func New() *Builder {
	return &Builder{record: model.EmptyCandidate()}
}

// WithSummary sets the summary.
func (b *Builder) WithSummary(summary string) *Builder {
	b.record.Summary = summary
	return b
}

// WithDiagnosis appends a diagnosis with the given code and status.
func (b *Builder) WithDiagnosis(cidCode, status string) *Builder {
	b.record.Diagnoses = append(b.record.Diagnoses, model.Diagnosis{CIDCode: cidCode, Status: status})
	return b
}

// WithComorbidities appends comorbidity labels.
func (b *Builder) WithComorbidities(labels ...string) *Builder {
	b.record.Comorbidities = append(b.record.Comorbidities, labels...)
	return b
}

// WithMedication appends a medication with the given name and dosage.
func (b *Builder) WithMedication(name, dosage string) *Builder {
	b.record.Medications = append(b.record.Medications, model.Medication{Name: name, Dosage: dosage})
	return b
}

// WithAllergy appends an allergy.
func (b *Builder) WithAllergy(allergen, allergenType string) *Builder {
	b.record.Allergies = append(b.record.Allergies, model.Allergy{Allergen: allergen, AllergenType: allergenType})
	return b
}

// WithSurgery appends a surgery.
func (b *Builder) WithSurgery(procedure, date string) *Builder {
	b.record.Surgeries = append(b.record.Surgeries, model.Surgery{ProcedureName: procedure, SurgeryDate: date})
	return b
}

// WithFixture appends every item of fixture.
func (b *Builder) WithFixture(fixture Fixture) *Builder {
	f := fixture.Record()
	if b.record.Summary == "" {
		b.record.Summary = f.Summary
	}
	b.record.Diagnoses = append(b.record.Diagnoses, f.Diagnoses...)
	b.record.Comorbidities = append(b.record.Comorbidities, f.Comorbidities...)
	b.record.Medications = append(b.record.Medications, f.Medications...)
	b.record.Allergies = append(b.record.Allergies, f.Allergies...)
	b.record.Surgeries = append(b.record.Surgeries, f.Surgeries...)
	return b
}

// Build returns a copy of the assembled record.
func (b *Builder) Build() model.CandidateRecord {
	return b.record.Clone()
}
