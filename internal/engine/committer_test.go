package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/scribe/internal/common"
	"github.com/Veraticus/scribe/internal/extraction"
	"github.com/Veraticus/scribe/internal/model"
	"github.com/Veraticus/scribe/internal/service"
)

const testPatient = model.PatientID("patient-123")

var fixedNow = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

func newTestCommitter(writer *MockRecordWriter, invalidator *MockInvalidator, policy FailurePolicy) *Committer {
	var inv service.CacheInvalidator
	if invalidator != nil {
		inv = invalidator
	}
	return NewCommitterWithConfig(writer, inv, Config{
		Policy: policy,
		Now:    func() time.Time { return fixedNow },
	})
}

func TestCommitter_EndToEndScenario(t *testing.T) {
	record := extraction.Normalize(map[string]any{
		"diagnoses":     []any{map[string]any{"cidCode": "I10", "status": "ativo"}},
		"comorbidities": []any{"I10", "J45"},
		"medications":   []any{map[string]any{"name": "Losartana", "dosage": "50mg"}},
		"allergies":     []any{map[string]any{"allergen": ""}},
		"surgeries":     []any{},
	})

	writer := NewMockRecordWriter()
	invalidator := &MockInvalidator{}
	report, err := newTestCommitter(writer, invalidator, StopOnFirstFailure).Commit(context.Background(), record, testPatient)
	require.NoError(t, err)

	assert.Equal(t, model.Tally{Diagnoses: 1, Comorbidities: 1, Medications: 1}, report.Created)
	assert.Equal(t, model.Tally{Allergies: 1}, report.Skipped)

	require.Len(t, writer.Diagnoses, 2)
	assert.Equal(t, "I10", writer.Diagnoses[0].CIDCode)
	assert.Equal(t, "J45", writer.Diagnoses[1].CIDCode)
	assert.Equal(t, ComorbidityStatus, writer.Diagnoses[1].Status)

	assert.Equal(t, []InvalidationCall{
		{Category: model.CategoryDiagnoses, PatientID: testPatient},
		{Category: model.CategoryMedications, PatientID: testPatient},
		{Category: model.CategoryAllergies, PatientID: testPatient},
		{Category: model.CategorySurgeries, PatientID: testPatient},
	}, invalidator.Calls())
}

func TestCommitter_DiagnosisDefaults(t *testing.T) {
	writer := NewMockRecordWriter()
	record := model.CandidateRecord{
		Diagnoses: []model.Diagnosis{
			{CIDCode: "  E11  "},
			{CIDCode: "I10", Status: "resolvido", DiagnosisDate: model.StringPtr("2020-02-02"), Notes: model.StringPtr("controlada")},
			{CIDCode: "K21", Notes: model.StringPtr("  ")},
		},
	}

	report, err := newTestCommitter(writer, nil, StopOnFirstFailure).Commit(context.Background(), record, testPatient)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Created.Diagnoses)

	require.Len(t, writer.Diagnoses, 3)
	first := writer.Diagnoses[0]
	assert.Equal(t, "E11", first.CIDCode)
	assert.Equal(t, "2026-03-14", first.DiagnosisDate)
	assert.Equal(t, DefaultDiagnosisStatus, first.Status)
	assert.Nil(t, first.Notes)
	assert.Equal(t, testPatient, first.PatientID)

	second := writer.Diagnoses[1]
	assert.Equal(t, "2020-02-02", second.DiagnosisDate)
	assert.Equal(t, "resolvido", second.Status)
	require.NotNil(t, second.Notes)
	assert.Equal(t, "controlada", *second.Notes)

	assert.Nil(t, writer.Diagnoses[2].Notes)
}

func TestCommitter_ComorbidityDefaultsAndDedup(t *testing.T) {
	tests := []struct {
		name          string
		diagnoses     []model.Diagnosis
		comorbidities []string
		wantCodes     []string
		wantCreated   model.Tally
		wantSkipped   model.Tally
	}{
		{
			name:          "comorbidity matching diagnosis is dropped",
			diagnoses:     []model.Diagnosis{{CIDCode: "E11"}},
			comorbidities: []string{"E11"},
			wantCodes:     []string{"E11"},
			wantCreated:   model.Tally{Diagnoses: 1},
		},
		{
			name:          "match is on trimmed values",
			diagnoses:     []model.Diagnosis{{CIDCode: " E11"}},
			comorbidities: []string{"E11 "},
			wantCodes:     []string{"E11"},
			wantCreated:   model.Tally{Diagnoses: 1},
		},
		{
			name:          "repeated comorbidity created once",
			comorbidities: []string{"J45", "J45", " J45 "},
			wantCodes:     []string{"J45"},
			wantCreated:   model.Tally{Comorbidities: 1},
		},
		{
			name:          "empty comorbidities are skipped",
			comorbidities: []string{"", "   ", "Hipotireoidismo"},
			wantCodes:     []string{"Hipotireoidismo"},
			wantCreated:   model.Tally{Comorbidities: 1},
			wantSkipped:   model.Tally{Comorbidities: 2},
		},
		{
			name:          "skipped diagnosis does not seed dedup set",
			diagnoses:     []model.Diagnosis{{CIDCode: ""}},
			comorbidities: []string{"I10"},
			wantCodes:     []string{"I10"},
			wantCreated:   model.Tally{Comorbidities: 1},
			wantSkipped:   model.Tally{Diagnoses: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := NewMockRecordWriter()
			record := model.CandidateRecord{Diagnoses: tt.diagnoses, Comorbidities: tt.comorbidities}

			report, err := newTestCommitter(writer, nil, StopOnFirstFailure).Commit(context.Background(), record, testPatient)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCreated, report.Created)
			assert.Equal(t, tt.wantSkipped, report.Skipped)

			codes := make([]string, 0, len(writer.Diagnoses))
			for _, d := range writer.Diagnoses {
				codes = append(codes, d.CIDCode)
			}
			assert.Equal(t, tt.wantCodes, codes)
		})
	}
}

func TestCommitter_ComorbidityRecordShape(t *testing.T) {
	writer := NewMockRecordWriter()
	record := model.CandidateRecord{Comorbidities: []string{" J45 "}}

	_, err := newTestCommitter(writer, nil, StopOnFirstFailure).Commit(context.Background(), record, testPatient)
	require.NoError(t, err)

	require.Len(t, writer.Diagnoses, 1)
	got := writer.Diagnoses[0]
	assert.Equal(t, "J45", got.CIDCode)
	assert.Equal(t, "2026-03-14", got.DiagnosisDate)
	assert.Equal(t, ComorbidityStatus, got.Status)
	require.NotNil(t, got.Notes)
	assert.Equal(t, ComorbidityNotes, *got.Notes)
}

func TestCommitter_MedicationDefaults(t *testing.T) {
	writer := NewMockRecordWriter()
	record := model.CandidateRecord{
		Medications: []model.Medication{
			{Name: "Losartana"},
			{Name: "Metformina", Dosage: "850mg", Frequency: "2x ao dia", Format: "comprimido revestido", StartDate: "2021-01-01", IsActive: model.BoolPtr(false)},
			{Name: "AAS", IsActive: model.BoolPtr(true)},
			{Name: "   "},
			{Dosage: "10mg"},
		},
	}

	report, err := newTestCommitter(writer, nil, StopOnFirstFailure).Commit(context.Background(), record, testPatient)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Created.Medications)
	assert.Equal(t, 2, report.Skipped.Medications)

	require.Len(t, writer.Medications, 3)
	defaults := writer.Medications[0]
	assert.Equal(t, DefaultMedicationFormat, defaults.Format)
	assert.Equal(t, DefaultMedicationDosage, defaults.Dosage)
	assert.Equal(t, DefaultMedicationFreq, defaults.Frequency)
	assert.Equal(t, "2026-03-14", defaults.StartDate)
	assert.True(t, defaults.IsActive)

	explicit := writer.Medications[1]
	assert.Equal(t, "850mg", explicit.Dosage)
	assert.Equal(t, "2x ao dia", explicit.Frequency)
	assert.Equal(t, "comprimido revestido", explicit.Format)
	assert.Equal(t, "2021-01-01", explicit.StartDate)
	assert.False(t, explicit.IsActive)

	assert.True(t, writer.Medications[2].IsActive)
}

func TestCommitter_AllergiesAndSurgeries(t *testing.T) {
	writer := NewMockRecordWriter()
	record := model.CandidateRecord{
		Allergies: []model.Allergy{
			{Allergen: "Dipirona"},
			{Allergen: "Látex", AllergenType: "environmental", Reaction: "dermatite"},
			{Allergen: " ", Reaction: "edema"},
		},
		Surgeries: []model.Surgery{
			{ProcedureName: "Colecistectomia", SurgeryDate: "2015-06-10", HospitalName: "HC"},
			{ProcedureName: "Apendicectomia"},
			{SurgeryDate: "2001-01-01"},
			{ProcedureName: "Hernioplastia", SurgeryDate: "  "},
		},
	}

	report, err := newTestCommitter(writer, nil, StopOnFirstFailure).Commit(context.Background(), record, testPatient)
	require.NoError(t, err)

	assert.Equal(t, model.Tally{Allergies: 2, Surgeries: 1}, report.Created)
	assert.Equal(t, model.Tally{Allergies: 1, Surgeries: 3}, report.Skipped)

	require.Len(t, writer.Allergies, 2)
	assert.Equal(t, DefaultAllergenType, writer.Allergies[0].AllergenType)
	assert.Equal(t, "environmental", writer.Allergies[1].AllergenType)
	assert.Equal(t, "dermatite", writer.Allergies[1].Reaction)

	require.Len(t, writer.Surgeries, 1)
	assert.Equal(t, "Colecistectomia", writer.Surgeries[0].ProcedureName)
	assert.Equal(t, "HC", writer.Surgeries[0].HospitalName)
}

func TestCommitter_CallOrderIsFixed(t *testing.T) {
	writer := NewMockRecordWriter()
	record := model.CandidateRecord{
		Surgeries:     []model.Surgery{{ProcedureName: "Artroscopia", SurgeryDate: "2019"}},
		Allergies:     []model.Allergy{{Allergen: "Penicilina"}},
		Medications:   []model.Medication{{Name: "Omeprazol"}},
		Comorbidities: []string{"K21"},
		Diagnoses:     []model.Diagnosis{{CIDCode: "I10"}},
	}

	_, err := newTestCommitter(writer, nil, StopOnFirstFailure).Commit(context.Background(), record, testPatient)
	require.NoError(t, err)

	var order []model.Category
	var codes []string
	for _, call := range writer.Calls() {
		order = append(order, call.Category)
		codes = append(codes, call.CIDCode)
	}
	assert.Equal(t, []model.Category{
		model.CategoryDiagnoses,
		model.CategoryDiagnoses,
		model.CategoryMedications,
		model.CategoryAllergies,
		model.CategorySurgeries,
	}, order)
	assert.Equal(t, []string{"I10", "K21", "", "", ""}, codes)
}

func TestCommitter_StopOnFirstFailure(t *testing.T) {
	writer := NewMockRecordWriter().FailOn(model.CategoryMedications, 0)
	invalidator := &MockInvalidator{}
	record := model.CandidateRecord{
		Diagnoses:   []model.Diagnosis{{CIDCode: "I10"}},
		Medications: []model.Medication{{Name: "Losartana"}, {Name: "AAS"}},
		Allergies:   []model.Allergy{{Allergen: "Dipirona"}},
	}

	report, err := newTestCommitter(writer, invalidator, StopOnFirstFailure).Commit(context.Background(), record, testPatient)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMockCreate)

	assert.Len(t, writer.Diagnoses, 1, "items created before the failure stay persisted")
	assert.Empty(t, writer.Medications)
	assert.Empty(t, writer.Allergies, "no create calls after the failure")
	assert.Len(t, writer.Calls(), 2)
	assert.Equal(t, model.Tally{Diagnoses: 1}, report.Created)
	assert.Empty(t, invalidator.Calls())
}

func TestCommitter_ContinueBestEffort(t *testing.T) {
	writer := NewMockRecordWriter().FailOn(model.CategoryMedications, 0)
	invalidator := &MockInvalidator{}
	record := model.CandidateRecord{
		Diagnoses:   []model.Diagnosis{{CIDCode: "I10"}},
		Medications: []model.Medication{{Name: "Losartana"}, {Name: "AAS"}},
		Allergies:   []model.Allergy{{Allergen: "Dipirona"}},
	}

	report, err := newTestCommitter(writer, invalidator, ContinueBestEffort).Commit(context.Background(), record, testPatient)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMockCreate)

	assert.Equal(t, model.Tally{Diagnoses: 1, Medications: 1, Allergies: 1}, report.Created)
	require.Len(t, writer.Medications, 1)
	assert.Equal(t, "AAS", writer.Medications[0].Name)
	assert.Len(t, invalidator.Calls(), 4)
}

func TestCommitter_BestEffortRetriesFailedComorbidityDuplicate(t *testing.T) {
	writer := NewMockRecordWriter().FailOn(model.CategoryDiagnoses, 0)
	record := model.CandidateRecord{Comorbidities: []string{"J45", "J45"}}

	report, err := newTestCommitter(writer, nil, ContinueBestEffort).Commit(context.Background(), record, testPatient)
	require.Error(t, err)
	assert.Equal(t, 1, report.Created.Comorbidities)
	require.Len(t, writer.Diagnoses, 1)
	assert.Equal(t, "J45", writer.Diagnoses[0].CIDCode)
}

func TestCommitter_InvalidationFailureFailsCommit(t *testing.T) {
	writer := NewMockRecordWriter()
	invalidator := &MockInvalidator{Err: errors.New("redis down")}
	record := model.CandidateRecord{Diagnoses: []model.Diagnosis{{CIDCode: "I10"}}}

	report, err := newTestCommitter(writer, invalidator, StopOnFirstFailure).Commit(context.Background(), record, testPatient)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
	assert.Equal(t, 1, report.Created.Diagnoses)
	assert.Len(t, invalidator.Calls(), 4)
}

func TestCommitter_RequiresPatient(t *testing.T) {
	writer := NewMockRecordWriter()
	_, err := newTestCommitter(writer, nil, StopOnFirstFailure).Commit(context.Background(), model.CandidateRecord{
		Diagnoses: []model.Diagnosis{{CIDCode: "I10"}},
	}, "")
	assert.ErrorIs(t, err, common.ErrNoActivePatient)
	assert.Empty(t, writer.Calls())
}

func TestCommitter_CanceledContext(t *testing.T) {
	for _, policy := range []FailurePolicy{StopOnFirstFailure, ContinueBestEffort} {
		t.Run(policy.String(), func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			writer := NewMockRecordWriter()
			_, err := newTestCommitter(writer, nil, policy).Commit(ctx, model.CandidateRecord{
				Diagnoses: []model.Diagnosis{{CIDCode: "I10"}},
			}, testPatient)
			assert.ErrorIs(t, err, context.Canceled)
			assert.Empty(t, writer.Calls())
		})
	}
}

func TestCommitter_SequentialConsistency(t *testing.T) {
	record := model.CandidateRecord{
		Diagnoses:     []model.Diagnosis{{CIDCode: "E11"}, {}},
		Comorbidities: []string{"E11", "J45", ""},
		Medications:   []model.Medication{{Name: "Metformina"}, {}},
		Allergies:     []model.Allergy{{Allergen: "Sulfa"}},
		Surgeries:     []model.Surgery{{ProcedureName: "Cesárea"}},
	}
	committer := newTestCommitter(NewMockRecordWriter(), nil, StopOnFirstFailure)

	first, err := committer.Commit(context.Background(), record, testPatient)
	require.NoError(t, err)
	second, err := committer.Commit(context.Background(), record, testPatient)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, model.Tally{Diagnoses: 1, Comorbidities: 1, Medications: 1, Allergies: 1}, first.Created)
	assert.Equal(t, model.Tally{Diagnoses: 1, Comorbidities: 1, Medications: 1, Surgeries: 1}, first.Skipped)
}

func TestParseFailurePolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    FailurePolicy
		wantErr bool
	}{
		{input: "", want: StopOnFirstFailure},
		{input: "stop", want: StopOnFirstFailure},
		{input: "Continue", want: ContinueBestEffort},
		{input: "best-effort", want: ContinueBestEffort},
		{input: "rollback", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseFailurePolicy(tt.input)
		if tt.wantErr {
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	assert.Equal(t, "FailurePolicy(7)", FailurePolicy(7).String())
}
