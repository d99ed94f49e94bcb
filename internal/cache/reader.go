package cache

import (
	"context"

	"github.com/Veraticus/scribe/internal/model"
	"github.com/Veraticus/scribe/internal/service"
)

// Reader serves record lists from Redis and falls back to the wrapped reader.
// Cache failures are logged and never fail a read.
type Reader struct {
	inner service.RecordReader
	cache *Redis
}

// NewReader wraps inner with a Redis read-through cache.
func NewReader(inner service.RecordReader, cache *Redis) *Reader {
	return &Reader{inner: inner, cache: cache}
}

// ListDiagnoses implements service.RecordReader.
func (r *Reader) ListDiagnoses(ctx context.Context, patientID model.PatientID) ([]model.DiagnosisRecord, error) {
	return readThrough(ctx, r.cache, model.CategoryDiagnoses, patientID, r.inner.ListDiagnoses)
}

// ListMedications implements service.RecordReader.
func (r *Reader) ListMedications(ctx context.Context, patientID model.PatientID) ([]model.MedicationRecord, error) {
	return readThrough(ctx, r.cache, model.CategoryMedications, patientID, r.inner.ListMedications)
}

// ListAllergies implements service.RecordReader.
func (r *Reader) ListAllergies(ctx context.Context, patientID model.PatientID) ([]model.AllergyRecord, error) {
	return readThrough(ctx, r.cache, model.CategoryAllergies, patientID, r.inner.ListAllergies)
}

// ListSurgeries implements service.RecordReader.
func (r *Reader) ListSurgeries(ctx context.Context, patientID model.PatientID) ([]model.SurgeryRecord, error) {
	return readThrough(ctx, r.cache, model.CategorySurgeries, patientID, r.inner.ListSurgeries)
}

func readThrough[T any](
	ctx context.Context,
	c *Redis,
	category model.Category,
	patientID model.PatientID,
	load func(context.Context, model.PatientID) ([]T, error),
) ([]T, error) {
	var cached []T
	hit, err := c.Get(ctx, category, patientID, &cached)
	if err != nil {
		c.logger.Warn("Record cache read failed", "category", category, "error", err)
	}
	if hit {
		return cached, nil
	}

	items, err := load(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if err := c.Set(ctx, category, patientID, items); err != nil {
		c.logger.Warn("Record cache write failed", "category", category, "error", err)
	}
	return items, nil
}

var _ service.RecordReader = (*Reader)(nil)
