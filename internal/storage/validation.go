// Package storage provides the data persistence layer for patient records.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Veraticus/scribe/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrInvalidRecord  = errors.New("invalid record")
	ErrInvalidPatient = errors.New("invalid patient id")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validatePatientID ensures a patient is named.
func validatePatientID(id model.PatientID) error {
	if strings.TrimSpace(id.String()) == "" {
		return ErrInvalidPatient
	}
	return nil
}

// validateRecord checks the struct tags of a record about to be written.
func validateRecord(record any) error {
	if record == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if err := validate.Struct(record); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			first := fieldErrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrInvalidRecord, first.Field(), first.Tag())
		}
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return nil
}
