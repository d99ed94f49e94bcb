package candidates

import "github.com/Veraticus/scribe/internal/model"

// Fixture is a predefined candidate record for a common consultation.
type Fixture interface {
	Name() string
	Record() model.CandidateRecord
}

type fixture struct {
	build func() model.CandidateRecord
	name  string
}

func (f *fixture) Name() string                  { return f.name }
func (f *fixture) Record() model.CandidateRecord { return f.build() }

// Predefined fixtures.
var (
	// FixtureHypertension is a follow-up with one diagnosis, one comorbidity
	// and one medication.
	FixtureHypertension Fixture = &fixture{
		name: "Hypertension follow-up",
		build: func() model.CandidateRecord {
			r := model.EmptyCandidate()
			r.Summary = "Retorno de hipertensão arterial sistêmica."
			r.Diagnoses = []model.Diagnosis{{CIDCode: "I10", Status: "ativo"}}
			r.Comorbidities = []string{"Obesidade"}
			r.Medications = []model.Medication{{Name: "Losartana", Dosage: "50mg", Frequency: "1x ao dia", IsActive: model.BoolPtr(true)}}
			return r
		},
	}

	// FixtureFullChart touches every category.
	FixtureFullChart Fixture = &fixture{
		name: "Full chart",
		build: func() model.CandidateRecord {
			r := model.EmptyCandidate()
			r.Summary = "Primeira consulta com histórico completo."
			r.Diagnoses = []model.Diagnosis{
				{CIDCode: "E11", Status: "ativo", DiagnosisDate: model.StringPtr("2020-03-01")},
				{CIDCode: "J45", Status: "controlado"},
			}
			r.Comorbidities = []string{"Dislipidemia"}
			r.Medications = []model.Medication{
				{Name: "Metformina", Dosage: "850mg", Frequency: "2x ao dia"},
				{Name: "Salbutamol", Format: "spray"},
			}
			r.Allergies = []model.Allergy{{Allergen: "Penicilina", AllergenType: "medication", Reaction: "urticária"}}
			r.Surgeries = []model.Surgery{{ProcedureName: "Colecistectomia", SurgeryDate: "2015-06-10"}}
			return r
		},
	}

	// FixtureIncomplete has one item per category that lacks a required field.
	FixtureIncomplete Fixture = &fixture{
		name: "Incomplete items",
		build: func() model.CandidateRecord {
			r := model.EmptyCandidate()
			r.Diagnoses = []model.Diagnosis{{Status: "ativo"}}
			r.Comorbidities = []string{"  "}
			r.Medications = []model.Medication{{Dosage: "10mg"}}
			r.Allergies = []model.Allergy{{Reaction: "edema"}}
			r.Surgeries = []model.Surgery{{SurgeryDate: "2001-01-01"}}
			return r
		},
	}
)
