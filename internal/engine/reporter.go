package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/scribe/internal/model"
)

// FailureMessage is shown for any commit that returned an error. Partial
// results are never itemized.
const FailureMessage = "Erro ao aplicar os dados extraídos ao prontuário. Verifique o prontuário antes de tentar novamente."

var categoryLabels = map[model.Category]string{
	model.CategoryDiagnoses:     "diagnóstico(s)",
	model.CategoryComorbidities: "comorbidade(s)",
	model.CategoryMedications:   "medicamento(s)",
	model.CategoryAllergies:     "alergia(s)",
	model.CategorySurgeries:     "cirurgia(s)",
}

// Outcome is the single user-facing result of a commit attempt.
type Outcome struct {
	Err     error
	Message string
	Report  model.CommitReport
	Success bool
	// Stale is set when the patient changed while the commit was in flight
	// and the result was discarded.
	Stale bool
}

// Reporter turns a commit result into an Outcome.
type Reporter struct {
	logger *slog.Logger
}

// NewReporter creates a reporter logging through the default logger.
func NewReporter() *Reporter {
	return &Reporter{logger: slog.Default()}
}

// Report builds the outcome for a commit that returned report and err.
func (r *Reporter) Report(report model.CommitReport, err error) Outcome {
	if err != nil {
		r.logger.Error("Commit failed", "error", err)
		return Outcome{
			Success: false,
			Message: FailureMessage,
			Err:     err,
			Report:  report,
		}
	}
	return Outcome{
		Success: true,
		Message: SuccessMessage(report),
		Report:  report,
	}
}

// SuccessMessage names the created count of every category, followed by the
// non-zero skip counts when anything was skipped.
func SuccessMessage(report model.CommitReport) string {
	created := make([]string, 0, len(model.ReportCategories()))
	for _, c := range model.ReportCategories() {
		created = append(created, fmt.Sprintf("%d %s", report.Created.Count(c), categoryLabels[c]))
	}

	var b strings.Builder
	b.WriteString("Prontuário atualizado: ")
	b.WriteString(strings.Join(created, ", "))
	b.WriteString(".")

	if clause := skipClause(report.Skipped); clause != "" {
		b.WriteString(" ")
		b.WriteString(clause)
	}
	return b.String()
}

func skipClause(skipped model.Tally) string {
	var parts []string
	for _, c := range model.ReportCategories() {
		if n := skipped.Count(c); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, categoryLabels[c]))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "Ignorados por falta de dados: " + strings.Join(parts, ", ") + "."
}

// LogEntry builds the audit entry for o. Only counts and the error text are
// kept.
func (o Outcome) LogEntry(patientID model.PatientID, source string) model.CommitLogEntry {
	entry := model.CommitLogEntry{
		PatientID: patientID,
		Source:    source,
		Report:    o.Report,
		Success:   o.Success,
	}
	if o.Err != nil {
		entry.Error = o.Err.Error()
	}
	return entry
}
