package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/scribe/internal/cli"
	"github.com/Veraticus/scribe/internal/common"
	"github.com/Veraticus/scribe/internal/engine"
	"github.com/Veraticus/scribe/internal/model"
	"github.com/Veraticus/scribe/internal/tui"
)

const hypertensionNote = "Paciente hipertenso em uso de losartana 50mg, obeso."

func TestExtract_AutoApplyFromStdin(t *testing.T) {
	env := setupCommandEnv(t)

	out, err := execute(t, extractCmd(), strings.NewReader(hypertensionNote), "--patient", "p-1", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, cli.SuccessIcon)

	assert.Equal(t, []string{hypertensionNote}, env.extractor.Texts())

	chart, logs := env.chart(t, "p-1")
	assert.Len(t, chart.Diagnoses, 2, "diagnosis plus comorbidity")
	assert.Len(t, chart.Medications, 1)
	require.Len(t, logs, 1)
	assert.True(t, logs[0].Success)
	assert.Equal(t, "extract", logs[0].Source)
}

func TestExtract_FromFile(t *testing.T) {
	env := setupCommandEnv(t)
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte(hypertensionNote), 0o600))

	_, err := execute(t, extractCmd(), nil, "--patient", "p-1", "--file", path, "-y")
	require.NoError(t, err)

	chart, _ := env.chart(t, "p-1")
	assert.Len(t, chart.Medications, 1)
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name       string
		note       string
		extractErr error
		wantIs     error
		wantMsg    string
	}{
		{
			name:    "empty note",
			note:    "   \n",
			wantIs:  common.ErrEmptyTranscript,
			wantMsg: "A nota está vazia.",
		},
		{
			name:       "service failure",
			note:       hypertensionNote,
			extractErr: errors.New("boom"),
			wantIs:     common.ErrExtractionFailed,
			wantMsg:    "Não foi possível extrair os dados da nota.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupCommandEnv(t)
			env.extractor.Err = tt.extractErr

			_, err := execute(t, extractCmd(), strings.NewReader(tt.note), "--patient", "p-1", "--yes")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantIs)
			assert.Equal(t, tt.wantMsg, common.UserMessage(err, ""))

			chart, logs := env.chart(t, "p-1")
			assert.Empty(t, chart.Diagnoses)
			assert.Empty(t, logs)
		})
	}
}

func TestExtract_RequiresPatient(t *testing.T) {
	setupCommandEnv(t)

	_, err := execute(t, extractCmd(), strings.NewReader(hypertensionNote), "--yes")
	assert.Error(t, err)
}

func TestExtract_ReviewDiscarded(t *testing.T) {
	env := setupCommandEnv(t)
	runReview = func(_ context.Context, session *engine.Session, _ ...tui.Option) (tui.Result, error) {
		assert.True(t, session.Store().HasRecord())
		session.Discard()
		return tui.Result{Discarded: true}, nil
	}

	out, err := execute(t, extractCmd(), strings.NewReader(hypertensionNote), "--patient", "p-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Extração descartada")

	chart, logs := env.chart(t, "p-1")
	assert.Empty(t, chart.Diagnoses)
	assert.Empty(t, logs)
}

func TestExtract_ReviewEditsBeforeApply(t *testing.T) {
	env := setupCommandEnv(t)
	runReview = func(ctx context.Context, session *engine.Session, _ ...tui.Option) (tui.Result, error) {
		session.Store().Remove(model.CategoryComorbidities, 0)
		outcome, applied := session.Apply(ctx)
		return tui.Result{Outcome: outcome, Applied: applied}, nil
	}

	_, err := execute(t, extractCmd(), strings.NewReader(hypertensionNote), "--patient", "p-1")
	require.NoError(t, err)

	chart, logs := env.chart(t, "p-1")
	require.Len(t, chart.Diagnoses, 1)
	assert.Equal(t, "I10", chart.Diagnoses[0].CIDCode)
	require.Len(t, logs, 1)
	assert.Equal(t, model.Tally{Diagnoses: 1, Medications: 1}, logs[0].Report.Created)
}
