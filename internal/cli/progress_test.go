package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/scribe/internal/model"
)

func TestBatchStats_Record(t *testing.T) {
	var stats BatchStats

	stats.Record(model.CommitReport{Created: model.Tally{Diagnoses: 2}, Skipped: model.Tally{Allergies: 1}}, true)
	stats.Record(model.CommitReport{Created: model.Tally{Medications: 1}}, false)

	assert.Equal(t, 1, stats.Applied)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, model.Tally{Diagnoses: 2, Medications: 1}, stats.Created)
	assert.Equal(t, 1, stats.Skipped.Total())
}

func TestBatchProgress(t *testing.T) {
	var out bytes.Buffer
	p := NewBatchProgress(&out, 2)

	p.Advance()
	p.Advance()
	p.Finish()

	assert.Contains(t, out.String(), "2/2")
}

func TestRenderBatchSummary(t *testing.T) {
	got := RenderBatchSummary(BatchStats{
		Files:    3,
		Applied:  2,
		Failed:   1,
		Created:  model.Tally{Diagnoses: 4},
		Duration: 2 * time.Second,
	})

	for _, want := range []string{"Lote concluído", "Arquivos: 3", "Aplicados: 2", "Com erro: 1", "Itens criados: 4", "2s"} {
		assert.Contains(t, got, want)
	}
}
