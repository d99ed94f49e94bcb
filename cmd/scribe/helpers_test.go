package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/scribe/internal/common"
	"github.com/Veraticus/scribe/internal/config"
	"github.com/Veraticus/scribe/internal/engine"
	"github.com/Veraticus/scribe/internal/model"
	"github.com/Veraticus/scribe/internal/service"
	"github.com/Veraticus/scribe/internal/storage"
	"github.com/Veraticus/scribe/internal/testutil/candidates"
	"github.com/Veraticus/scribe/internal/tui"
)

// commandEnv points the commands at a temporary SQLite file and a mock
// extraction service for one test.
type commandEnv struct {
	extractor *engine.MockExtractor
	dbPath    string
}

func setupCommandEnv(t *testing.T) *commandEnv {
	t.Helper()

	env := &commandEnv{
		extractor: &engine.MockExtractor{Record: candidates.New().WithFixture(candidates.FixtureHypertension).Build()},
		dbPath:    filepath.Join(t.TempDir(), "scribe.db"),
	}

	prevConfig, prevExtractor, prevReview := appConfig, newExtractor, runReview
	t.Cleanup(func() {
		appConfig, newExtractor, runReview = prevConfig, prevExtractor, prevReview
	})

	appConfig = config.Config{
		Logging:  config.LoggingConfig{Level: "error", Format: "console"},
		Database: config.DatabaseConfig{Driver: "sqlite", Path: env.dbPath},
		LLM:      config.LLMConfig{Provider: "anthropic"},
		Commit:   config.CommitConfig{Policy: "stop"},
	}
	newExtractor = func(config.LLMConfig) (service.Extractor, error) {
		return env.extractor, nil
	}
	runReview = func(context.Context, *engine.Session, ...tui.Option) (tui.Result, error) {
		t.Fatal("review screen opened unexpectedly")
		return tui.Result{}, nil
	}
	return env
}

// chart reads back what the commands persisted.
func (e *commandEnv) chart(t *testing.T, patient model.PatientID) (model.PatientRecords, []model.CommitLogEntry) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(e.dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	require.NoError(t, store.Migrate(context.Background()))

	chart, err := engine.LoadChart(context.Background(), store, patient)
	require.NoError(t, err)
	logs, err := store.ListCommitLogs(context.Background(), patient, 10)
	require.NoError(t, err)
	return chart, logs
}

func execute(t *testing.T, cmd *cobra.Command, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	cmd.SetIn(stdin)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestOpenStorage_CreatesDirectory(t *testing.T) {
	cfg := config.Config{Database: config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "nested", "dir", "scribe.db"),
	}}

	store, err := openStorage(context.Background(), cfg, true)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	version, err := store.(schemaVersioner).SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, storage.ExpectedSchemaVersion, version)
}

func TestOpenApp_RejectsUnknownPolicy(t *testing.T) {
	cfg := config.Config{
		Database: config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"},
		Commit:   config.CommitConfig{Policy: "sometimes"},
	}

	_, err := openApp(context.Background(), cfg)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestDefaultExtractor_RequiresAPIKey(t *testing.T) {
	setupCommandEnv(t)

	_, err := createExtractor(config.LLMConfig{Provider: "anthropic"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
	assert.Contains(t, common.UserMessage(err, ""), "ANTHROPIC_API_KEY")
}

func TestParsePatient(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    model.PatientID
		wantErr bool
	}{
		{name: "plain", raw: "p-1", want: "p-1"},
		{name: "trimmed", raw: "  p-2 ", want: "p-2"},
		{name: "blank", raw: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePatient(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrNoActivePatient)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
