package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/scribe/internal/model"
)

type countingReader struct {
	err   error
	calls map[model.Category]int
}

func (c *countingReader) hit(category model.Category) {
	if c.calls == nil {
		c.calls = make(map[model.Category]int)
	}
	c.calls[category]++
}

func (c *countingReader) ListDiagnoses(_ context.Context, id model.PatientID) ([]model.DiagnosisRecord, error) {
	c.hit(model.CategoryDiagnoses)
	if c.err != nil {
		return nil, c.err
	}
	return []model.DiagnosisRecord{{PatientID: id, CIDCode: "I10", DiagnosisDate: "2026-03-14", Status: "ativo"}}, nil
}

func (c *countingReader) ListMedications(_ context.Context, id model.PatientID) ([]model.MedicationRecord, error) {
	c.hit(model.CategoryMedications)
	return []model.MedicationRecord{{PatientID: id, Name: "Losartana", IsActive: true}}, c.err
}

func (c *countingReader) ListAllergies(_ context.Context, _ model.PatientID) ([]model.AllergyRecord, error) {
	c.hit(model.CategoryAllergies)
	return nil, c.err
}

func (c *countingReader) ListSurgeries(_ context.Context, _ model.PatientID) ([]model.SurgeryRecord, error) {
	c.hit(model.CategorySurgeries)
	return nil, c.err
}

func TestReader_ReadThrough(t *testing.T) {
	ctx := context.Background()
	inner := &countingReader{}
	fake := newFakeRedis()
	reader := NewReader(inner, NewRedis(fake, time.Minute, nil))

	first, err := reader.ListDiagnoses(ctx, "p-1")
	require.NoError(t, err)
	second, err := reader.ListDiagnoses(ctx, "p-1")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls[model.CategoryDiagnoses])
	assert.Equal(t, first[0].CIDCode, second[0].CIDCode)

	meds, err := reader.ListMedications(ctx, "p-1")
	require.NoError(t, err)
	assert.True(t, meds[0].IsActive)

	require.NoError(t, NewRedis(fake, time.Minute, nil).Invalidate(ctx, model.CategoryDiagnoses, "p-1"))
	_, err = reader.ListDiagnoses(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls[model.CategoryDiagnoses])
}

func TestReader_CacheFailureFallsBack(t *testing.T) {
	fake := newFakeRedis()
	fake.failErr = errors.New("connection refused")
	inner := &countingReader{}
	reader := NewReader(inner, NewRedis(fake, time.Minute, nil))

	got, err := reader.ListDiagnoses(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestReader_LoadErrorNotCached(t *testing.T) {
	fake := newFakeRedis()
	boom := errors.New("db down")
	inner := &countingReader{err: boom}
	reader := NewReader(inner, NewRedis(fake, time.Minute, nil))

	_, err := reader.ListDiagnoses(context.Background(), "p-1")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, fake.data)
}
