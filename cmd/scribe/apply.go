package main

import (
	"github.com/spf13/cobra"

	"github.com/Veraticus/scribe/internal/common"
	"github.com/Veraticus/scribe/internal/extraction"
)

func applyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a saved extraction payload to a patient's chart",
		Long: `Normalize a JSON extraction payload saved earlier and apply it to the
patient's chart without calling the extraction service.

By default the payload is applied directly; --review opens the review
screen first.`,
		RunE: runApply,
	}

	cmd.Flags().String("patient", "", "patient identifier (required)")
	cmd.Flags().StringP("file", "f", "", "payload file (default: stdin)")
	cmd.Flags().Bool("review", false, "review before applying")
	_ = cmd.MarkFlagRequired("patient")

	return cmd
}

func runApply(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	rawPatient, _ := cmd.Flags().GetString("patient")
	file, _ := cmd.Flags().GetString("file")
	review, _ := cmd.Flags().GetBool("review")

	patient, err := parsePatient(rawPatient)
	if err != nil {
		return err
	}

	raw, err := readInput(ctx, cmd.InOrStdin(), file)
	if err != nil {
		return err
	}
	record, err := extraction.DecodeStrict([]byte(raw))
	if err != nil {
		return common.NewUserError("O arquivo não contém um JSON de extração válido.", err)
	}

	a, err := openApp(ctx, appConfig)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	session := a.newSession(nil, patient)
	if err := session.Stage(record); err != nil {
		return err
	}

	result, err := reviewAndApply(ctx, a, session, !review, "apply")
	if err != nil {
		return err
	}
	return result.report(cmd.OutOrStdout(), patient)
}
