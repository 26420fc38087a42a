// Package pipeline runs a reconciliation end to end: load the ledgers,
// reconcile them, render the workbook, optionally upload it and record the
// run in the warehouse.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/engine"
	infra "github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/infra/bigquery"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/jobs"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Run statuses written to the runs table.
const (
	RunStatusSuccess = "SUCCESS"
	RunStatusFailed  = "FAILED"
)

// Options configures where reports go.
type Options struct {
	ReportBucket string
	ReportPrefix string
}

// Runner owns the reconciliation pipeline and its collaborators. Storage and
// Repo are optional.
type Runner struct {
	engine   *engine.Engine
	storage  StorageService
	repo     LedgerRepository
	opts     Options
	log      zerolog.Logger
	pipeline *Pipeline
}

// NewRunner wires the standard four-step pipeline.
func NewRunner(eng *engine.Engine, storage StorageService, repo LedgerRepository, opts Options, log zerolog.Logger) *Runner {
	r := &Runner{
		engine:  eng,
		storage: storage,
		repo:    repo,
		opts:    opts,
		log:     log,
	}
	r.pipeline = NewPipeline(
		&LoadLedgersStep{Storage: storage, Repo: repo},
		&ReconcileStep{Engine: eng},
		&ExportStep{},
		&UploadReportStep{Storage: storage, Bucket: opts.ReportBucket, Prefix: opts.ReportPrefix},
	)
	return r
}

// NewState starts the state of a fresh run.
func NewState(source string) *PipelineState {
	return &PipelineState{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Source:    source,
	}
}

// Run executes the pipeline and records its outcome. A failure to record is
// logged, never returned.
func (r *Runner) Run(ctx context.Context, state *PipelineState) error {
	if state.RunID == "" {
		state.RunID = uuid.NewString()
	}
	if state.StartedAt.IsZero() {
		state.StartedAt = time.Now()
	}

	log := r.log.With().Str("run_id", state.RunID).Str("source", state.Source).Logger()
	ctx = logger.WithContext(ctx, log)

	log.Info().Msg("Reconciliation started")
	err := r.pipeline.Execute(ctx, state)
	r.record(ctx, state, err)
	if err != nil {
		log.Error().Err(err).Msg("Reconciliation failed")
		return err
	}

	log.Info().Str("report", state.ReportName).Dur("duration", time.Since(state.StartedAt)).Msg("Reconciliation succeeded")
	return nil
}

// HandleJob adapts Run to the job queue.
func (r *Runner) HandleJob(ctx context.Context, job jobs.Job) error {
	rj, ok := job.(*jobs.ReconcileJob)
	if !ok {
		return fmt.Errorf("HandleJob: unsupported job type %s", job.GetType())
	}

	state := &PipelineState{
		RunID:  rj.JobID,
		Source: rj.Source,
		Period: rj.Period,
		Input:  rj.Input,
	}
	if rj.StartedAt != nil {
		state.StartedAt = *rj.StartedAt
	}
	if err := r.Run(ctx, state); err != nil {
		return err
	}

	summary := state.Result.Summary()
	rj.Summary = &summary
	rj.Report = state.Report
	rj.ReportName = state.ReportName
	rj.ReportURI = state.ReportURI
	return nil
}

func (r *Runner) record(ctx context.Context, state *PipelineState, runErr error) {
	if r.repo == nil {
		return
	}

	row := RunRow(state, runErr)
	if err := r.repo.InsertRun(ctx, row); err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Recording run failed")
	}
}

// RunRow builds the runs table record of a finished run.
func RunRow(state *PipelineState, runErr error) *infra.RunRow {
	row := &infra.RunRow{
		RunID:      state.RunID,
		Period:     state.Period,
		Source:     state.Source,
		StartedTS:  state.StartedAt,
		FinishedTS: time.Now(),
		Status:     RunStatusSuccess,
	}
	if state.ReportURI != "" {
		row.ReportURI = bigquery.NullString{StringVal: state.ReportURI, Valid: true}
	}
	if runErr != nil {
		row.Status = RunStatusFailed
		row.ErrorMessage = bigquery.NullString{StringVal: runErr.Error(), Valid: true}
	}
	if state.Result != nil {
		row.OffsetRows = int64(len(state.Result.Offset.Offset))
		row.PendingRows = int64(len(state.Result.Offset.Pending))
		row.Warnings = state.Result.Warnings
	}
	return row
}
