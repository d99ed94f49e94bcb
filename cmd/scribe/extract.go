package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Veraticus/scribe/internal/common"
)

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract chart entries from a consultation note",
		Long: `Send a consultation note to the extraction service, review the
extracted entries and apply the accepted ones to the patient's chart.

The note is read from --file, or from stdin when no file is given.
With --yes the extraction is applied without review.`,
		RunE: runExtract,
	}

	cmd.Flags().String("patient", "", "patient identifier (required)")
	cmd.Flags().StringP("file", "f", "", "note file (default: stdin)")
	cmd.Flags().BoolP("yes", "y", false, "apply without review")
	_ = cmd.MarkFlagRequired("patient")

	return cmd
}

func runExtract(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	rawPatient, _ := cmd.Flags().GetString("patient")
	file, _ := cmd.Flags().GetString("file")
	yes, _ := cmd.Flags().GetBool("yes")

	patient, err := parsePatient(rawPatient)
	if err != nil {
		return err
	}

	note, err := readInput(ctx, cmd.InOrStdin(), file)
	if err != nil {
		return err
	}

	extractor, err := newExtractor(appConfig.LLM)
	if err != nil {
		return err
	}

	a, err := openApp(ctx, appConfig)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	session := a.newSession(extractor, patient)
	session.Store().SetNote(note)
	if err := session.ExtractNote(ctx); err != nil {
		return common.NewUserError(extractionMessage(err), err)
	}

	result, err := reviewAndApply(ctx, a, session, yes, "extract")
	if err != nil {
		return err
	}
	return result.report(cmd.OutOrStdout(), patient)
}

func extractionMessage(err error) string {
	switch {
	case errors.Is(err, common.ErrEmptyTranscript):
		return "A nota está vazia."
	case errors.Is(err, common.ErrStaleScope):
		return "O paciente foi alterado durante a extração."
	default:
		return "Não foi possível extrair os dados da nota."
	}
}
