package main

import (
	"context"
	"fmt"
	"io"

	"github.com/Veraticus/scribe/internal/cli"
	"github.com/Veraticus/scribe/internal/engine"
	"github.com/Veraticus/scribe/internal/model"
	"github.com/Veraticus/scribe/internal/tui"
)

// runReview shows the review screen. Tests replace it.
var runReview = tui.Run

// reviewResult is how one staged record ended.
type reviewResult struct {
	outcome   engine.Outcome
	applied   bool
	discarded bool
}

// reviewAndApply commits the staged record, after clinician review unless
// autoApply is set, and records the audit entry.
func reviewAndApply(ctx context.Context, a *app, session *engine.Session, autoApply bool, source string) (reviewResult, error) {
	patient := session.Guard().Active()

	if autoApply {
		outcome, applied := session.Apply(ctx)
		if applied && !outcome.Stale {
			a.audit(ctx, patient, source, outcome)
		}
		return reviewResult{outcome: outcome, applied: applied}, nil
	}

	result, err := runReview(ctx, session)
	if err != nil {
		return reviewResult{}, err
	}
	if result.Applied && !result.Outcome.Stale {
		a.audit(ctx, patient, source, result.Outcome)
	}
	return reviewResult{outcome: result.Outcome, applied: result.Applied, discarded: result.Discarded}, nil
}

// report prints the result of one review for patient.
func (r reviewResult) report(w io.Writer, patient model.PatientID) error {
	switch {
	case r.applied:
		return printOutcome(w, r.outcome)
	case r.discarded:
		fmt.Fprintln(w, cli.FormatWarning(fmt.Sprintf("Extração descartada para %s. Nada foi gravado.", patient)))
	default:
		fmt.Fprintln(w, cli.FormatInfo(fmt.Sprintf("Nada foi gravado para %s.", patient)))
	}
	return nil
}
