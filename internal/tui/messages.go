package tui

import (
	"github.com/Veraticus/scribe/internal/engine"
	"github.com/Veraticus/scribe/internal/model"
)

// PatientSwitchedMsg tells the review that the clinician opened another
// patient. Staged state of the previous patient is dropped.
type PatientSwitchedMsg struct {
	Patient model.PatientID
}

// applyResultMsg carries the result of a commit started from the review.
type applyResultMsg struct {
	outcome engine.Outcome
	applied bool
}

// statusKind selects the style of the status line.
type statusKind int

const (
	statusInfo statusKind = iota
	statusSuccess
	statusWarning
	statusError
)
