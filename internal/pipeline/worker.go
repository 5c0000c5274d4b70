package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/headfix/internal/heal"
	"github.com/dgallion1/headfix/internal/metrics"
	"github.com/dgallion1/headfix/internal/outline"
	"github.com/dgallion1/headfix/internal/parser"
)

// Worker processes a single heal job.
type Worker struct {
	healer     *heal.Healer
	metrics    *metrics.Metrics
	log        *slog.Logger
	parserOpts parser.Options
}

func NewWorker(healer *heal.Healer, m *metrics.Metrics, log *slog.Logger, parserOpts parser.Options) *Worker {
	return &Worker{
		healer:     healer,
		metrics:    m,
		log:        log,
		parserOpts: parserOpts,
	}
}

// Process parses the job's upload, heals it and renders the result.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.parserOpts)
	if err != nil {
		w.fail(log, job, "parsing", err)
		return
	}
	doc, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		w.fail(log, job, "parsing", fmt.Errorf("parse: %w", err))
		return
	}
	job.SetTitle(doc.Title)

	// Phase 2: Heal
	job.SetStatus(StatusHealing, "healing")
	rep := w.healer.Fix(ctx, doc.Root, job.Selector, job.Options)
	if rep.Err != nil {
		w.fail(log, job, "healing", fmt.Errorf("heal %s: %w", rep.Outcome, rep.Err))
		return
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		w.fail(log, job, "rendering", fmt.Errorf("render: %w", err))
		return
	}

	violations := outline.Check(rep.Root)
	if violations == nil {
		violations = []outline.Violation{}
	}
	job.Complete(&Result{
		JobID:      job.ID,
		Title:      doc.Title,
		Outcome:    rep.Outcome,
		Replaced:   rep.Replaced,
		HTML:       buf.String(),
		Outline:    outline.Build(rep.Root),
		Violations: violations,
	})
	w.metrics.IncJob(string(StatusCompleted))
	log.Info("heal job complete", "outcome", rep.Outcome, "replaced", rep.Replaced)
}

func (w *Worker) fail(log *slog.Logger, job *Job, phase string, err error) {
	log.Error("heal job failed", "phase", phase, "error", err)
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, phase)
	w.metrics.IncJob(string(StatusFailed))
}
