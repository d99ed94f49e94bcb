// Package engine reconciles a reviewed candidate record into the patient's
// permanent record.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/scribe/internal/common"
	"github.com/Veraticus/scribe/internal/model"
	"github.com/Veraticus/scribe/internal/service"
)

// Values filled in for fields a clinician left blank.
const (
	DefaultDiagnosisStatus  = "ativo"
	ComorbidityStatus       = "cronico"
	ComorbidityNotes        = "Comorbidade identificada pela IA"
	DefaultMedicationFormat = "comprimido"
	DefaultMedicationDosage = "dose a confirmar"
	DefaultMedicationFreq   = "1x ao dia"
	DefaultAllergenType     = "medication"
	dateLayout              = "2006-01-02"
)

// FailurePolicy decides what a commit does when a create call fails.
type FailurePolicy int

const (
	// StopOnFirstFailure aborts at the first failing create. Items created
	// before it stay persisted and caches are not invalidated.
	StopOnFirstFailure FailurePolicy = iota
	// ContinueBestEffort attempts every item, invalidates caches, and returns
	// all failures joined.
	ContinueBestEffort
)

func (p FailurePolicy) String() string {
	switch p {
	case StopOnFirstFailure:
		return "stop"
	case ContinueBestEffort:
		return "continue"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

// ParseFailurePolicy reads a policy from its config name.
func ParseFailurePolicy(name string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "stop":
		return StopOnFirstFailure, nil
	case "continue", "best-effort":
		return ContinueBestEffort, nil
	default:
		return StopOnFirstFailure, fmt.Errorf("%w: unknown commit policy %q", common.ErrInvalidConfig, name)
	}
}

// Config holds configuration options for the committer.
type Config struct {
	Now    func() time.Time
	Logger *slog.Logger
	Policy FailurePolicy
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Policy: StopOnFirstFailure,
		Now:    time.Now,
	}
}

// Committer writes the accepted parts of a candidate record, one create call
// per item, in a fixed category order.
type Committer struct {
	writer      service.RecordWriter
	invalidator service.CacheInvalidator
	now         func() time.Time
	logger      *slog.Logger
	policy      FailurePolicy
}

// NewCommitter creates a committer with the default configuration.
// A nil invalidator skips cache invalidation.
func NewCommitter(writer service.RecordWriter, invalidator service.CacheInvalidator) *Committer {
	return NewCommitterWithConfig(writer, invalidator, DefaultConfig())
}

// NewCommitterWithConfig creates a committer with custom configuration.
func NewCommitterWithConfig(writer service.RecordWriter, invalidator service.CacheInvalidator, config Config) *Committer {
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Committer{
		writer:      writer,
		invalidator: invalidator,
		now:         config.Now,
		logger:      config.Logger,
		policy:      config.Policy,
	}
}

// Policy returns the configured failure policy.
func (c *Committer) Policy() FailurePolicy {
	return c.policy
}

// commitRun carries the state of one Commit call.
type commitRun struct {
	committer *Committer
	seenCodes map[string]struct{}
	patient   model.PatientID
	today     string
	failures  []error
	report    model.CommitReport
}

// Commit persists record for patientID and reports what was created and skipped.
// Items with missing required fields are skipped, not failed. The returned
// report reflects everything attempted even when an error is returned.
func (c *Committer) Commit(ctx context.Context, record model.CandidateRecord, patientID model.PatientID) (model.CommitReport, error) {
	if patientID.IsZero() {
		return model.CommitReport{}, common.ErrNoActivePatient
	}

	run := &commitRun{
		committer: c,
		patient:   patientID,
		today:     c.now().Format(dateLayout),
		seenCodes: make(map[string]struct{}),
	}

	for _, d := range record.Diagnoses {
		if code := strings.TrimSpace(d.CIDCode); code != "" {
			run.seenCodes[code] = struct{}{}
		}
	}

	steps := []func(context.Context, model.CandidateRecord) error{
		run.diagnoses,
		run.comorbidities,
		run.medications,
		run.allergies,
		run.surgeries,
	}
	for _, step := range steps {
		if err := step(ctx, record); err != nil {
			c.logger.Warn("Commit aborted",
				"patient", patientID.String(),
				"created", run.report.Created.Total(),
				"error", err)
			return run.report, err
		}
	}

	if err := c.invalidate(ctx, patientID); err != nil {
		run.failures = append(run.failures, err)
	}

	c.logger.Info("Commit finished",
		"patient", patientID.String(),
		"policy", c.policy.String(),
		"created", run.report.Created.Total(),
		"skipped", run.report.Skipped.Total(),
		"failures", len(run.failures))

	if len(run.failures) > 0 {
		return run.report, errors.Join(run.failures...)
	}
	return run.report, nil
}

func (c *Committer) invalidate(ctx context.Context, patientID model.PatientID) error {
	if c.invalidator == nil {
		return nil
	}
	var errs []error
	for _, category := range model.PersistedCategories() {
		if err := c.invalidator.Invalidate(ctx, category, patientID); err != nil {
			errs = append(errs, fmt.Errorf("invalidating %s cache: %w", category, err))
		}
	}
	return errors.Join(errs...)
}

// create runs one create call and applies the failure policy. A non-nil
// return aborts the commit.
func (r *commitRun) create(ctx context.Context, category model.Category, index int, fn func() error) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := fn(); err != nil {
		err = fmt.Errorf("creating %s #%d: %w", category, index, err)
		if r.committer.policy == StopOnFirstFailure {
			return false, err
		}
		r.committer.logger.Warn("Create failed, continuing",
			"patient", r.patient.String(),
			"category", string(category),
			"index", index,
			"error", err)
		r.failures = append(r.failures, err)
		return false, nil
	}
	r.report.Created.Increment(category)
	return true, nil
}

func (r *commitRun) diagnoses(ctx context.Context, record model.CandidateRecord) error {
	for i, d := range record.Diagnoses {
		code := strings.TrimSpace(d.CIDCode)
		if code == "" {
			r.report.Skipped.Diagnoses++
			continue
		}
		rec := &model.DiagnosisRecord{
			PatientID:     r.patient,
			CIDCode:       code,
			DiagnosisDate: orDefault(deref(d.DiagnosisDate), r.today),
			Status:        orDefault(d.Status, DefaultDiagnosisStatus),
			Notes:         nonEmpty(d.Notes),
		}
		if _, err := r.create(ctx, model.CategoryDiagnoses, i, func() error {
			return r.committer.writer.CreateDiagnosis(ctx, rec)
		}); err != nil {
			return err
		}
	}
	return nil
}

// comorbidities persists free-text comorbidities as chronic diagnoses. A
// comorbidity equal to a diagnosis code or an earlier comorbidity is dropped
// without being counted.
func (r *commitRun) comorbidities(ctx context.Context, record model.CandidateRecord) error {
	for i, raw := range record.Comorbidities {
		value := strings.TrimSpace(raw)
		if value == "" {
			r.report.Skipped.Comorbidities++
			continue
		}
		if _, seen := r.seenCodes[value]; seen {
			r.committer.logger.Debug("Dropping duplicate comorbidity", "index", i)
			continue
		}
		rec := &model.DiagnosisRecord{
			PatientID:     r.patient,
			CIDCode:       value,
			DiagnosisDate: r.today,
			Status:        ComorbidityStatus,
			Notes:         model.StringPtr(ComorbidityNotes),
		}
		created, err := r.create(ctx, model.CategoryComorbidities, i, func() error {
			return r.committer.writer.CreateDiagnosis(ctx, rec)
		})
		if err != nil {
			return err
		}
		if created {
			r.seenCodes[value] = struct{}{}
		}
	}
	return nil
}

func (r *commitRun) medications(ctx context.Context, record model.CandidateRecord) error {
	for i, m := range record.Medications {
		if strings.TrimSpace(m.Name) == "" {
			r.report.Skipped.Medications++
			continue
		}
		rec := &model.MedicationRecord{
			PatientID: r.patient,
			Name:      m.Name,
			Dosage:    orDefault(m.Dosage, DefaultMedicationDosage),
			Frequency: orDefault(m.Frequency, DefaultMedicationFreq),
			Format:    orDefault(m.Format, DefaultMedicationFormat),
			StartDate: orDefault(m.StartDate, r.today),
			Notes:     m.Notes,
			IsActive:  m.IsActive == nil || *m.IsActive,
		}
		if _, err := r.create(ctx, model.CategoryMedications, i, func() error {
			return r.committer.writer.CreateMedication(ctx, rec)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (r *commitRun) allergies(ctx context.Context, record model.CandidateRecord) error {
	for i, a := range record.Allergies {
		if strings.TrimSpace(a.Allergen) == "" {
			r.report.Skipped.Allergies++
			continue
		}
		rec := &model.AllergyRecord{
			PatientID:    r.patient,
			Allergen:     a.Allergen,
			AllergenType: orDefault(a.AllergenType, DefaultAllergenType),
			Reaction:     a.Reaction,
			Severity:     a.Severity,
			Notes:        a.Notes,
		}
		if _, err := r.create(ctx, model.CategoryAllergies, i, func() error {
			return r.committer.writer.CreateAllergy(ctx, rec)
		}); err != nil {
			return err
		}
	}
	return nil
}

// surgeries requires both the procedure and its date.
func (r *commitRun) surgeries(ctx context.Context, record model.CandidateRecord) error {
	for i, s := range record.Surgeries {
		if strings.TrimSpace(s.ProcedureName) == "" || strings.TrimSpace(s.SurgeryDate) == "" {
			r.report.Skipped.Surgeries++
			continue
		}
		rec := &model.SurgeryRecord{
			PatientID:     r.patient,
			ProcedureName: s.ProcedureName,
			SurgeryDate:   s.SurgeryDate,
			HospitalName:  s.HospitalName,
			SurgeonName:   s.SurgeonName,
			Notes:         s.Notes,
		}
		if _, err := r.create(ctx, model.CategorySurgeries, i, func() error {
			return r.committer.writer.CreateSurgery(ctx, rec)
		}); err != nil {
			return err
		}
	}
	return nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return model.StringPtr(*s)
}
