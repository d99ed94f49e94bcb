package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/scribe/internal/cli"
	"github.com/Veraticus/scribe/internal/common"
	"github.com/Veraticus/scribe/internal/config"
	"github.com/Veraticus/scribe/internal/engine"
	"github.com/Veraticus/scribe/internal/model"
)

const noteExt = ".txt"

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Extract and apply a directory of consultation notes",
		Long: `Process every <patient-id>.txt file in a directory: each note is
extracted and applied to the chart of the patient named by the file.

Without --yes every extraction is reviewed before it is applied. A failing
file is reported and the batch moves on to the next one.`,
		RunE: runBatch,
	}

	cmd.Flags().String("dir", "", "directory of notes (required)")
	cmd.Flags().BoolP("yes", "y", false, "apply without review")
	_ = cmd.MarkFlagRequired("dir")

	return cmd
}

// noteFile is one note of a batch.
type noteFile struct {
	patient model.PatientID
	path    string
}

// listNotes returns the .txt notes of dir in patient order.
func listNotes(dir string) ([]noteFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var notes []noteFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), noteExt) {
			continue
		}
		patient := model.PatientID(strings.TrimSpace(strings.TrimSuffix(name, filepath.Ext(name))))
		if patient.IsZero() {
			continue
		}
		notes = append(notes, noteFile{patient: patient, path: filepath.Join(dir, name)})
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].patient < notes[j].patient })
	return notes, nil
}

func runBatch(cmd *cobra.Command, _ []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	yes, _ := cmd.Flags().GetBool("yes")
	out := cmd.OutOrStdout()

	notes, err := listNotes(config.ExpandPath(dir))
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("Nenhuma nota (*.txt) encontrada."))
		return nil
	}

	extractor, err := newExtractor(appConfig.LLM)
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context(), appConfig)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := interrupts.HandleInterrupts(cmd.Context(), "As notas já processadas foram gravadas.")

	session := a.newSession(extractor, "")
	stats := cli.BatchStats{Files: len(notes)}
	start := time.Now()

	var progress *cli.BatchProgress
	if yes {
		progress = cli.NewBatchProgress(cmd.ErrOrStderr(), len(notes))
	}

	for _, note := range notes {
		if ctx.Err() != nil {
			break
		}

		result, err := processNote(ctx, a, session, note, yes)
		switch {
		case result.applied:
			stats.Record(result.outcome.Report, result.outcome.Success)
			if !result.outcome.Success {
				slog.Warn("Commit failed", "patient", note.patient.String(), "error", result.outcome.Err)
			}
		case err != nil:
			stats.Failed++
			slog.Warn("Failed to process note", "patient", note.patient.String(), "error", err)
		case result.discarded:
			stats.Discarded++
		}

		if progress != nil {
			progress.Advance()
		}
	}
	if progress != nil {
		progress.Finish()
	}

	stats.Duration = time.Since(start)
	fmt.Fprintln(out, cli.RenderBatchSummary(stats))

	if interrupts.WasInterrupted() {
		return context.Canceled
	}
	if stats.Failed > 0 {
		return common.NewUserError(fmt.Sprintf("%d nota(s) não foram aplicadas.", stats.Failed), common.ErrCommitFailed)
	}
	return nil
}

// processNote switches the session to the note's patient, extracts and
// applies. The guard clears whatever the previous patient left staged.
func processNote(ctx context.Context, a *app, session *engine.Session, note noteFile, yes bool) (reviewResult, error) {
	session.SetActivePatient(note.patient)

	data, err := os.ReadFile(note.path)
	if err != nil {
		return reviewResult{}, fmt.Errorf("failed to read note: %w", err)
	}
	if err := session.Extract(ctx, string(data)); err != nil {
		return reviewResult{}, err
	}

	return reviewAndApply(ctx, a, session, yes, "batch")
}
