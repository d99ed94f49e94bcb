package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/scribe/internal/common"
	"github.com/Veraticus/scribe/internal/model"
	"github.com/Veraticus/scribe/internal/staging"
)

type sessionFixture struct {
	session   *Session
	writer    *MockRecordWriter
	extractor *MockExtractor
}

func newSessionFixture(t *testing.T, patient model.PatientID) sessionFixture {
	t.Helper()
	writer := NewMockRecordWriter()
	extractor := &MockExtractor{Record: model.CandidateRecord{
		Diagnoses:     []model.Diagnosis{{CIDCode: "I10", Status: "ativo"}},
		Comorbidities: []string{"I10", "J45"},
		Medications:   []model.Medication{{Name: "Losartana", Dosage: "50mg"}},
		Allergies:     []model.Allergy{{Allergen: ""}},
		Surgeries:     []model.Surgery{},
	}}
	committer := newTestCommitter(writer, nil, StopOnFirstFailure)
	guard := staging.NewGuard(staging.NewStore(), patient)
	return sessionFixture{
		session:   NewSession(guard, extractor, committer, nil),
		writer:    writer,
		extractor: extractor,
	}
}

func TestSession_ExtractEditApply(t *testing.T) {
	f := newSessionFixture(t, testPatient)
	ctx := context.Background()

	require.NoError(t, f.session.Extract(ctx, "Paciente hipertensa, asmática, em uso de losartana."))
	store := f.session.Store()
	require.True(t, store.HasRecord())

	require.True(t, store.UpdateAllergy(0, staging.AllergyPatch{Allergen: model.StringPtr("Dipirona")}))

	outcome, ran := f.session.Apply(ctx)
	require.True(t, ran)
	assert.True(t, outcome.Success)
	assert.Equal(t, model.Tally{Diagnoses: 1, Comorbidities: 1, Medications: 1, Allergies: 1}, outcome.Report.Created)
	assert.False(t, store.HasRecord(), "staging is cleared after commit")
	assert.False(t, store.Applying())
	require.Len(t, f.writer.Allergies, 1)
	assert.Equal(t, "Dipirona", f.writer.Allergies[0].Allergen)
}

func TestSession_ApplyFailureClearsStaging(t *testing.T) {
	f := newSessionFixture(t, testPatient)
	f.writer.FailOn(model.CategoryMedications, 0)
	ctx := context.Background()
	require.NoError(t, f.session.Extract(ctx, "transcrição"))

	outcome, ran := f.session.Apply(ctx)
	require.True(t, ran)
	assert.False(t, outcome.Success)
	assert.Equal(t, FailureMessage, outcome.Message)
	assert.False(t, f.session.Store().HasRecord())
	assert.False(t, f.session.Store().Applying())
}

func TestSession_ApplyGuards(t *testing.T) {
	t.Run("nothing staged", func(t *testing.T) {
		f := newSessionFixture(t, testPatient)
		_, ran := f.session.Apply(context.Background())
		assert.False(t, ran)
		assert.False(t, f.session.Store().Applying())
	})

	t.Run("no active patient", func(t *testing.T) {
		f := newSessionFixture(t, "")
		f.session.Store().Seed(model.EmptyCandidate())
		_, ran := f.session.Apply(context.Background())
		assert.False(t, ran)
	})

	t.Run("commit already in flight", func(t *testing.T) {
		f := newSessionFixture(t, testPatient)
		f.session.Store().Seed(model.CandidateRecord{Diagnoses: []model.Diagnosis{{CIDCode: "I10"}}})
		require.True(t, f.session.Store().BeginApply())

		_, ran := f.session.Apply(context.Background())
		assert.False(t, ran)
		assert.Empty(t, f.writer.Calls())
		assert.True(t, f.session.Store().HasRecord())
	})
}

// switchingWriter changes the active patient during the first create call.
type switchingWriter struct {
	*MockRecordWriter
	session *Session
	next    model.PatientID
}

func (w *switchingWriter) CreateDiagnosis(ctx context.Context, rec *model.DiagnosisRecord) error {
	w.session.SetActivePatient(w.next)
	return w.MockRecordWriter.CreateDiagnosis(ctx, rec)
}

func TestSession_LateCommitResultIsDiscarded(t *testing.T) {
	guard := staging.NewGuard(staging.NewStore(), "patient-a")
	writer := &switchingWriter{MockRecordWriter: NewMockRecordWriter(), next: "patient-b"}
	session := NewSession(guard, nil, NewCommitter(writer, nil), nil)
	writer.session = session

	require.NoError(t, session.Stage(model.CandidateRecord{Diagnoses: []model.Diagnosis{{CIDCode: "I10"}}}))

	outcome, ran := session.Apply(context.Background())
	require.True(t, ran)
	assert.True(t, outcome.Stale)
	assert.Empty(t, outcome.Message)

	require.Len(t, writer.Diagnoses, 1)
	assert.Equal(t, model.PatientID("patient-a"), writer.Diagnoses[0].PatientID, "commit targets the patient it started for")

	// Patient B can stage and edit without interference.
	require.NoError(t, session.Stage(model.EmptyCandidate()))
	assert.True(t, session.Store().AddDiagnosis())
	assert.False(t, session.Store().Applying())
}

func TestSession_LateExtractionIsDiscarded(t *testing.T) {
	f := newSessionFixture(t, "patient-a")
	f.extractor.Gate = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- f.session.Extract(context.Background(), "transcrição do paciente A")
	}()

	require.Eventually(t, func() bool { return len(f.extractor.Texts()) == 1 }, time.Second, time.Millisecond)
	f.session.SetActivePatient("patient-b")
	close(f.extractor.Gate)

	err := <-done
	assert.ErrorIs(t, err, common.ErrStaleScope)
	assert.False(t, f.session.Store().HasRecord(), "patient B must not see patient A's extraction")
}

func TestSession_ExtractErrors(t *testing.T) {
	f := newSessionFixture(t, testPatient)
	ctx := context.Background()

	assert.ErrorIs(t, f.session.Extract(ctx, "   "), common.ErrEmptyTranscript)

	f.extractor.Err = errors.New("upstream 500")
	err := f.session.Extract(ctx, "texto")
	assert.ErrorIs(t, err, common.ErrExtractionFailed)
	assert.False(t, f.session.Store().HasRecord())

	noPatient := newSessionFixture(t, "")
	assert.ErrorIs(t, noPatient.session.Extract(ctx, "texto"), common.ErrNoActivePatient)
	assert.ErrorIs(t, noPatient.session.Stage(model.EmptyCandidate()), common.ErrNoActivePatient)

	withoutService := NewSession(staging.NewGuard(staging.NewStore(), testPatient), nil, nil, nil)
	assert.ErrorIs(t, withoutService.Extract(ctx, "texto"), common.ErrMissingConfig)
}

func TestSession_ExtractNoteUsesBuffer(t *testing.T) {
	f := newSessionFixture(t, testPatient)
	f.session.Store().SetNote("Refere alergia a dipirona.")

	require.NoError(t, f.session.ExtractNote(context.Background()))
	assert.Equal(t, []string{"Refere alergia a dipirona."}, f.extractor.Texts())

	_, ran := f.session.Apply(context.Background())
	require.True(t, ran)
	assert.Empty(t, f.session.Store().Note())
}

func TestSession_Discard(t *testing.T) {
	f := newSessionFixture(t, testPatient)
	require.NoError(t, f.session.Stage(model.EmptyCandidate()))
	f.session.Discard()
	assert.False(t, f.session.Store().HasRecord())
	assert.Same(t, f.session.Guard().Store(), f.session.Store())
}
