package engine

import (
	"context"
	"fmt"

	"github.com/Veraticus/scribe/internal/model"
	"github.com/Veraticus/scribe/internal/service"
)

// LoadChart reads every persisted collection of a patient.
func LoadChart(ctx context.Context, reader service.RecordReader, patientID model.PatientID) (model.PatientRecords, error) {
	chart := model.PatientRecords{PatientID: patientID}

	var err error
	if chart.Diagnoses, err = reader.ListDiagnoses(ctx, patientID); err != nil {
		return chart, fmt.Errorf("failed to list diagnoses: %w", err)
	}
	if chart.Medications, err = reader.ListMedications(ctx, patientID); err != nil {
		return chart, fmt.Errorf("failed to list medications: %w", err)
	}
	if chart.Allergies, err = reader.ListAllergies(ctx, patientID); err != nil {
		return chart, fmt.Errorf("failed to list allergies: %w", err)
	}
	if chart.Surgeries, err = reader.ListSurgeries(ctx, patientID); err != nil {
		return chart, fmt.Errorf("failed to list surgeries: %w", err)
	}
	return chart, nil
}
