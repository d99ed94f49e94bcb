package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/scribe/internal/model"
)

// BatchStats summarizes a batch run.
type BatchStats struct {
	Created   model.Tally
	Skipped   model.Tally
	Duration  time.Duration
	Files     int
	Applied   int
	Failed    int
	Discarded int
}

// Record adds one commit outcome to the stats.
func (s *BatchStats) Record(report model.CommitReport, success bool) {
	s.Created = s.Created.Add(report.Created)
	s.Skipped = s.Skipped.Add(report.Skipped)
	if success {
		s.Applied++
	} else {
		s.Failed++
	}
}

// BatchProgress shows progress over a directory of consultation notes.
type BatchProgress struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
}

// NewBatchProgress creates a progress bar for total files.
func NewBatchProgress(w io.Writer, total int) *BatchProgress {
	p := &BatchProgress{writer: w}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Processando consultas...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return p
}

// Advance marks one file as processed.
func (p *BatchProgress) Advance() {
	if err := p.bar.Add(1); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Finish completes the bar.
func (p *BatchProgress) Finish() {
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}

// RenderBatchSummary renders the end-of-run box.
func RenderBatchSummary(stats BatchStats) string {
	summary := fmt.Sprintf("  • Arquivos: %d\n", stats.Files) +
		fmt.Sprintf("  • Aplicados: %d\n", stats.Applied) +
		fmt.Sprintf("  • Com erro: %d\n", stats.Failed) +
		fmt.Sprintf("  • Descartados: %d\n", stats.Discarded) +
		fmt.Sprintf("  • Itens criados: %d\n", stats.Created.Total()) +
		fmt.Sprintf("  • Itens ignorados: %d\n", stats.Skipped.Total()) +
		fmt.Sprintf("  • Tempo: %s", stats.Duration.Round(time.Second))

	return RenderBox("Lote concluído", summary)
}
