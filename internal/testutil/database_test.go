package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/scribe/internal/engine"
	"github.com/Veraticus/scribe/internal/model"
	"github.com/Veraticus/scribe/internal/service"
	"github.com/Veraticus/scribe/internal/testutil/candidates"
)

func TestSetupTestDB_CommitRoundTrip(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()
	patient := model.PatientID("p-1")

	committer := engine.NewCommitter(db.Storage, db.Storage)
	report, err := committer.Commit(ctx, candidates.New().WithFixture(candidates.FixtureFullChart).Build(), patient)
	require.NoError(t, err)
	assert.Equal(t, model.Tally{Diagnoses: 2, Comorbidities: 1, Medications: 2, Allergies: 1, Surgeries: 1}, report.Created)

	chart := db.Chart(patient)
	assert.Len(t, chart.Diagnoses, 3)
	assert.Len(t, chart.Medications, 2)
	assert.Len(t, chart.Allergies, 1)
	assert.Len(t, chart.Surgeries, 1)

	entry := engine.Outcome{Success: true, Report: report}.LogEntry(patient, "test")
	require.NoError(t, db.Storage.SaveCommitLog(ctx, &entry))
	logs := db.CommitLogs(patient)
	require.Len(t, logs, 1)
	assert.Equal(t, report, logs[0].Report)
}

func TestSetupTestDBWithOptions_CustomSetup(t *testing.T) {
	called := false
	db := SetupTestDBWithOptions(t, TestDBOptions{
		CustomSetup: func(ctx context.Context, s service.Storage) error {
			called = true
			return s.CreateDiagnosis(ctx, &model.DiagnosisRecord{
				PatientID:     "p-2",
				CIDCode:       "I10",
				DiagnosisDate: "2024-01-01",
				Status:        "ativo",
			})
		},
	})

	assert.True(t, called)
	assert.Len(t, db.Chart("p-2").Diagnoses, 1)
	assert.Empty(t, db.Chart("p-3").Diagnoses)
}
