package candidates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/scribe/internal/model"
)

func TestBuilder(t *testing.T) {
	record := New().
		WithSummary("Consulta").
		WithDiagnosis("I10", "ativo").
		WithComorbidities("Asma", "Obesidade").
		WithMedication("Losartana", "50mg").
		WithAllergy("Dipirona", "medication").
		WithSurgery("Apendicectomia", "2010-01-01").
		Build()

	assert.Equal(t, "Consulta", record.Summary)
	assert.Equal(t, 1, record.Len(model.CategoryDiagnoses))
	assert.Equal(t, 2, record.Len(model.CategoryComorbidities))
	assert.Equal(t, 1, record.Len(model.CategoryMedications))
	assert.Equal(t, 1, record.Len(model.CategoryAllergies))
	assert.Equal(t, 1, record.Len(model.CategorySurgeries))
}

func TestBuilder_EmptyIsNormalized(t *testing.T) {
	record := New().Build()

	assert.NotNil(t, record.Diagnoses)
	assert.NotNil(t, record.Comorbidities)
	assert.NotNil(t, record.Medications)
	assert.NotNil(t, record.Allergies)
	assert.NotNil(t, record.Surgeries)
	assert.True(t, record.IsEmpty())
}

func TestBuilder_WithFixture(t *testing.T) {
	tests := []struct {
		fixture Fixture
		name    string
		summary string
	}{
		{name: "keeps fixture summary", fixture: FixtureHypertension, summary: "Retorno de hipertensão arterial sistêmica."},
		{name: "explicit summary wins", fixture: FixtureFullChart, summary: "Mine"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New()
			if tt.summary == "Mine" {
				b.WithSummary("Mine")
			}
			record := b.WithFixture(tt.fixture).WithDiagnosis("Z00", "ativo").Build()

			assert.Equal(t, tt.summary, record.Summary)
			require.NotEmpty(t, record.Diagnoses)
			assert.Equal(t, "Z00", record.Diagnoses[len(record.Diagnoses)-1].CIDCode)
		})
	}
}

func TestBuilder_BuildReturnsCopies(t *testing.T) {
	b := New().WithComorbidities("Asma")
	first := b.Build()
	first.Comorbidities[0] = "changed"

	assert.Equal(t, []string{"Asma"}, b.Build().Comorbidities)
}

func TestFixtures_AreIndependent(t *testing.T) {
	a := FixtureFullChart.Record()
	a.Medications[0].Name = "changed"

	assert.Equal(t, "Metformina", FixtureFullChart.Record().Medications[0].Name)
	assert.NotEmpty(t, FixtureIncomplete.Name())
}
