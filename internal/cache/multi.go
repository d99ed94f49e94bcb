package cache

import (
	"context"
	"errors"

	"github.com/Veraticus/scribe/internal/model"
	"github.com/Veraticus/scribe/internal/service"
)

// Multi fans one invalidation out to several caches. Every cache is
// attempted and the failures are joined.
type Multi []service.CacheInvalidator

// NewMulti drops nil entries.
func NewMulti(invalidators ...service.CacheInvalidator) Multi {
	m := make(Multi, 0, len(invalidators))
	for _, inv := range invalidators {
		if inv != nil {
			m = append(m, inv)
		}
	}
	return m
}

// Invalidate implements service.CacheInvalidator.
func (m Multi) Invalidate(ctx context.Context, category model.Category, patientID model.PatientID) error {
	var errs []error
	for _, inv := range m {
		if err := inv.Invalidate(ctx, category, patientID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
