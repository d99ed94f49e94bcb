package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/Veraticus/scribe/internal/cli"
	"github.com/Veraticus/scribe/internal/engine"
	"github.com/Veraticus/scribe/internal/model"
)

func recordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List a patient's persisted chart entries",
		RunE:  runRecords,
	}

	cmd.Flags().String("patient", "", "patient identifier (required)")
	cmd.Flags().Int("history", 0, "also show the last N commit attempts")
	cmd.Flags().Bool("json", false, "print as JSON")
	_ = cmd.MarkFlagRequired("patient")

	return cmd
}

func runRecords(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	rawPatient, _ := cmd.Flags().GetString("patient")
	history, _ := cmd.Flags().GetInt("history")
	asJSON, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	patient, err := parsePatient(rawPatient)
	if err != nil {
		return err
	}

	a, err := openApp(ctx, appConfig)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	chart, err := engine.LoadChart(ctx, a.reader, patient)
	if err != nil {
		return err
	}

	var logs []model.CommitLogEntry
	if history > 0 {
		if logs, err = a.store.ListCommitLogs(ctx, patient, history); err != nil {
			return err
		}
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Chart   model.PatientRecords   `json:"chart"`
			History []model.CommitLogEntry `json:"history,omitempty"`
		}{Chart: chart, History: logs})
	}

	printChart(out, chart)
	if history > 0 {
		printHistory(out, logs)
	}
	return nil
}

func printChart(w io.Writer, chart model.PatientRecords) {
	fmt.Fprintln(w, cli.FormatTitle("Prontuário de "+chart.PatientID.String()))

	section(w, "Diagnósticos", len(chart.Diagnoses), func(i int) string {
		d := chart.Diagnoses[i]
		line := fmt.Sprintf("%s · %s · %s", d.CIDCode, d.Status, d.DiagnosisDate)
		if d.Notes != nil && *d.Notes != "" {
			line += " · " + *d.Notes
		}
		return line
	})
	section(w, "Medicamentos", len(chart.Medications), func(i int) string {
		m := chart.Medications[i]
		state := "inativo"
		if m.IsActive {
			state = "ativo"
		}
		return fmt.Sprintf("%s %s · %s · %s · desde %s · %s", m.Name, m.Dosage, m.Frequency, m.Format, m.StartDate, state)
	})
	section(w, "Alergias", len(chart.Allergies), func(i int) string {
		a := chart.Allergies[i]
		return joinNonEmpty(a.Allergen, a.AllergenType, a.Reaction, a.Severity)
	})
	section(w, "Cirurgias", len(chart.Surgeries), func(i int) string {
		s := chart.Surgeries[i]
		return joinNonEmpty(s.ProcedureName, s.SurgeryDate, s.HospitalName, s.SurgeonName)
	})
}

func section(w io.Writer, title string, n int, line func(int) string) {
	fmt.Fprintln(w, cli.TableHeaderStyle.Render(fmt.Sprintf("%s (%d)", title, n)))
	if n == 0 {
		fmt.Fprintln(w, cli.SubtleStyle.Render("  nenhum registro"))
	}
	for i := 0; i < n; i++ {
		fmt.Fprintf(w, "  %d. %s\n", i+1, line(i))
	}
	fmt.Fprintln(w)
}

func printHistory(w io.Writer, logs []model.CommitLogEntry) {
	fmt.Fprintln(w, cli.TableHeaderStyle.Render(fmt.Sprintf("Histórico (%d)", len(logs))))
	for _, entry := range logs {
		status := cli.SuccessStyle.Render("ok")
		if !entry.Success {
			status = cli.ErrorStyle.Render("erro")
		}
		fmt.Fprintf(w, "  %s  %-8s %s  criados %d, ignorados %d\n",
			entry.CreatedAt.Local().Format("2006-01-02 15:04"),
			entry.Source,
			status,
			entry.Report.Created.Total(),
			entry.Report.Skipped.Total())
	}
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " · ")
}
