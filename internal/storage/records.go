package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/Veraticus/scribe/internal/model"
)

// CreateDiagnosis inserts a diagnosis and assigns its ID.
func (s *SQLiteStorage) CreateDiagnosis(ctx context.Context, rec *model.DiagnosisRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%w: diagnosis", ErrNilParameter)
	}
	if err := validateRecord(rec); err != nil {
		return err
	}

	id, createdAt := uuid.New(), s.now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO diagnoses (id, patient_id, cid_code, diagnosis_date, status, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id.String(), rec.PatientID.String(), rec.CIDCode, rec.DiagnosisDate, rec.Status, nullString(rec.Notes), createdAt)
	if err != nil {
		return fmt.Errorf("failed to create diagnosis: %w", err)
	}

	rec.ID, rec.CreatedAt = id, createdAt
	return nil
}

// CreateMedication inserts a medication and assigns its ID.
func (s *SQLiteStorage) CreateMedication(ctx context.Context, rec *model.MedicationRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%w: medication", ErrNilParameter)
	}
	if err := validateRecord(rec); err != nil {
		return err
	}

	id, createdAt := uuid.New(), s.now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO medications (id, patient_id, name, dosage, frequency, format, start_date, notes, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), rec.PatientID.String(), rec.Name, rec.Dosage, rec.Frequency, rec.Format,
		rec.StartDate, rec.Notes, rec.IsActive, createdAt)
	if err != nil {
		return fmt.Errorf("failed to create medication: %w", err)
	}

	rec.ID, rec.CreatedAt = id, createdAt
	return nil
}

// CreateAllergy inserts an allergy and assigns its ID.
func (s *SQLiteStorage) CreateAllergy(ctx context.Context, rec *model.AllergyRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%w: allergy", ErrNilParameter)
	}
	if err := validateRecord(rec); err != nil {
		return err
	}

	id, createdAt := uuid.New(), s.now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO allergies (id, patient_id, allergen, allergen_type, reaction, severity, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), rec.PatientID.String(), rec.Allergen, rec.AllergenType, rec.Reaction, rec.Severity, rec.Notes, createdAt)
	if err != nil {
		return fmt.Errorf("failed to create allergy: %w", err)
	}

	rec.ID, rec.CreatedAt = id, createdAt
	return nil
}

// CreateSurgery inserts a surgery and assigns its ID.
func (s *SQLiteStorage) CreateSurgery(ctx context.Context, rec *model.SurgeryRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%w: surgery", ErrNilParameter)
	}
	if err := validateRecord(rec); err != nil {
		return err
	}

	id, createdAt := uuid.New(), s.now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO surgeries (id, patient_id, procedure_name, surgery_date, hospital_name, surgeon_name, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), rec.PatientID.String(), rec.ProcedureName, rec.SurgeryDate, rec.HospitalName, rec.SurgeonName, rec.Notes, createdAt)
	if err != nil {
		return fmt.Errorf("failed to create surgery: %w", err)
	}

	rec.ID, rec.CreatedAt = id, createdAt
	return nil
}

// ListDiagnoses returns a patient's diagnoses, oldest first.
func (s *SQLiteStorage) ListDiagnoses(ctx context.Context, patientID model.PatientID) ([]model.DiagnosisRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validatePatientID(patientID); err != nil {
		return nil, err
	}
	return cachedList(s.cache, model.CategoryDiagnoses, patientID, func() ([]model.DiagnosisRecord, error) {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, patient_id, cid_code, diagnosis_date, status, notes, created_at
			FROM diagnoses WHERE patient_id = ? ORDER BY created_at, rowid`, patientID.String())
		if err != nil {
			return nil, fmt.Errorf("failed to query diagnoses: %w", err)
		}
		defer func() { _ = rows.Close() }()

		out := []model.DiagnosisRecord{}
		for rows.Next() {
			var rec model.DiagnosisRecord
			var id, patient string
			var notes sql.NullString
			if err := rows.Scan(&id, &patient, &rec.CIDCode, &rec.DiagnosisDate, &rec.Status, &notes, &rec.CreatedAt); err != nil {
				return nil, fmt.Errorf("failed to scan diagnosis: %w", err)
			}
			if rec.ID, err = uuid.Parse(id); err != nil {
				return nil, fmt.Errorf("failed to parse diagnosis id: %w", err)
			}
			rec.PatientID = model.PatientID(patient)
			if notes.Valid {
				rec.Notes = model.StringPtr(notes.String)
			}
			out = append(out, rec)
		}
		return out, rows.Err()
	})
}

// ListMedications returns a patient's medications, oldest first.
func (s *SQLiteStorage) ListMedications(ctx context.Context, patientID model.PatientID) ([]model.MedicationRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validatePatientID(patientID); err != nil {
		return nil, err
	}
	return cachedList(s.cache, model.CategoryMedications, patientID, func() ([]model.MedicationRecord, error) {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, patient_id, name, dosage, frequency, format, start_date, notes, is_active, created_at
			FROM medications WHERE patient_id = ? ORDER BY created_at, rowid`, patientID.String())
		if err != nil {
			return nil, fmt.Errorf("failed to query medications: %w", err)
		}
		defer func() { _ = rows.Close() }()

		out := []model.MedicationRecord{}
		for rows.Next() {
			var rec model.MedicationRecord
			var id, patient string
			if err := rows.Scan(&id, &patient, &rec.Name, &rec.Dosage, &rec.Frequency, &rec.Format,
				&rec.StartDate, &rec.Notes, &rec.IsActive, &rec.CreatedAt); err != nil {
				return nil, fmt.Errorf("failed to scan medication: %w", err)
			}
			if rec.ID, err = uuid.Parse(id); err != nil {
				return nil, fmt.Errorf("failed to parse medication id: %w", err)
			}
			rec.PatientID = model.PatientID(patient)
			out = append(out, rec)
		}
		return out, rows.Err()
	})
}

// ListAllergies returns a patient's allergies, oldest first.
func (s *SQLiteStorage) ListAllergies(ctx context.Context, patientID model.PatientID) ([]model.AllergyRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validatePatientID(patientID); err != nil {
		return nil, err
	}
	return cachedList(s.cache, model.CategoryAllergies, patientID, func() ([]model.AllergyRecord, error) {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, patient_id, allergen, allergen_type, reaction, severity, notes, created_at
			FROM allergies WHERE patient_id = ? ORDER BY created_at, rowid`, patientID.String())
		if err != nil {
			return nil, fmt.Errorf("failed to query allergies: %w", err)
		}
		defer func() { _ = rows.Close() }()

		out := []model.AllergyRecord{}
		for rows.Next() {
			var rec model.AllergyRecord
			var id, patient string
			if err := rows.Scan(&id, &patient, &rec.Allergen, &rec.AllergenType, &rec.Reaction,
				&rec.Severity, &rec.Notes, &rec.CreatedAt); err != nil {
				return nil, fmt.Errorf("failed to scan allergy: %w", err)
			}
			if rec.ID, err = uuid.Parse(id); err != nil {
				return nil, fmt.Errorf("failed to parse allergy id: %w", err)
			}
			rec.PatientID = model.PatientID(patient)
			out = append(out, rec)
		}
		return out, rows.Err()
	})
}

// ListSurgeries returns a patient's surgeries, oldest first.
func (s *SQLiteStorage) ListSurgeries(ctx context.Context, patientID model.PatientID) ([]model.SurgeryRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validatePatientID(patientID); err != nil {
		return nil, err
	}
	return cachedList(s.cache, model.CategorySurgeries, patientID, func() ([]model.SurgeryRecord, error) {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, patient_id, procedure_name, surgery_date, hospital_name, surgeon_name, notes, created_at
			FROM surgeries WHERE patient_id = ? ORDER BY created_at, rowid`, patientID.String())
		if err != nil {
			return nil, fmt.Errorf("failed to query surgeries: %w", err)
		}
		defer func() { _ = rows.Close() }()

		out := []model.SurgeryRecord{}
		for rows.Next() {
			var rec model.SurgeryRecord
			var id, patient string
			if err := rows.Scan(&id, &patient, &rec.ProcedureName, &rec.SurgeryDate, &rec.HospitalName,
				&rec.SurgeonName, &rec.Notes, &rec.CreatedAt); err != nil {
				return nil, fmt.Errorf("failed to scan surgery: %w", err)
			}
			if rec.ID, err = uuid.Parse(id); err != nil {
				return nil, fmt.Errorf("failed to parse surgery id: %w", err)
			}
			rec.PatientID = model.PatientID(patient)
			out = append(out, rec)
		}
		return out, rows.Err()
	})
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
