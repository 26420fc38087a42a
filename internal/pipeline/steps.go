package pipeline

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/domain"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/engine"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/export/xlsx"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/gcsstore"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/ledgercsv"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/logger"
)

// Sources a run's ledgers can come from.
const (
	SourceUpload   = "upload"
	SourceFile     = "file"
	SourceGCS      = "gcs"
	SourceBigQuery = "bigquery"
)

// PipelineStep represents a single step in the reconciliation pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// LedgerRef names where one input ledger is read from.
type LedgerRef struct {
	Direction domain.Direction
	// Pending marks a ledger of previously pending rows.
	Pending bool
	// Location is a local path or a gs:// URI.
	Location string
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	RunID     string
	StartedAt time.Time
	Source    string

	// Period selects warehouse ledgers (YYYY-MM); Refs select files.
	Period string
	Refs   []LedgerRef

	Input      engine.Input
	Result     *engine.Result
	Report     []byte
	ReportName string
	ReportURI  string
}

// Step 1: LoadLedgersStep fills Input from the warehouse period or the refs.
// Ledgers already present in Input are kept.
type LoadLedgersStep struct {
	Storage StorageService
	Repo    LedgerRepository
}

func (s *LoadLedgersStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	if state.Input.Ledgers == nil {
		state.Input.Ledgers = make(map[domain.Direction]domain.Ledger)
	}
	if state.Input.Pending == nil {
		state.Input.Pending = make(map[domain.Direction]domain.Ledger)
	}

	if state.Period != "" {
		if s.Repo == nil {
			return fmt.Errorf("LoadLedgersStep: period %s requested but no warehouse is configured", state.Period)
		}
		for _, d := range domain.Directions {
			if _, ok := state.Input.Ledgers[d]; ok {
				continue
			}
			ledger, err := s.Repo.LoadLedger(ctx, state.Period, d)
			if err != nil {
				return fmt.Errorf("LoadLedgersStep: %w", err)
			}
			state.Input.Ledgers[d] = ledger
			log.Info().Str("direction", string(d)).Str("period", state.Period).Int("rows", ledger.Len()).Msg("Ledger loaded from warehouse")
		}
	}

	for _, ref := range state.Refs {
		data, err := s.read(ctx, ref.Location)
		if err != nil {
			return fmt.Errorf("LoadLedgersStep: %w", err)
		}
		ledger, err := ledgercsv.ReadNamed(ref.Location, data, ref.Direction)
		if err != nil {
			return fmt.Errorf("LoadLedgersStep: %s: %w", ref.Location, err)
		}
		if ref.Pending {
			state.Input.Pending[ref.Direction] = ledger
		} else {
			state.Input.Ledgers[ref.Direction] = ledger
		}
		log.Info().Str("direction", string(ref.Direction)).Bool("pending", ref.Pending).Str("location", ref.Location).Int("rows", ledger.Len()).Msg("Ledger loaded")
	}
	return nil
}

func (s *LoadLedgersStep) read(ctx context.Context, location string) ([]byte, error) {
	if !gcsstore.IsURI(location) {
		return os.ReadFile(location)
	}
	if s.Storage == nil {
		return nil, fmt.Errorf("%s: no storage client configured", location)
	}
	return s.Storage.Fetch(ctx, location)
}

// Step 2: ReconcileStep runs the engine over the loaded input.
type ReconcileStep struct {
	Engine *engine.Engine
}

func (s *ReconcileStep) Execute(ctx context.Context, state *PipelineState) error {
	res, err := s.Engine.Run(state.Input)
	if err != nil {
		return err
	}
	state.Result = res
	log := logger.FromContext(ctx)
	for _, w := range res.Warnings {
		log.Warn().Str("run_id", state.RunID).Msg(w)
	}
	return nil
}

// Step 3: ExportStep renders the report workbook.
type ExportStep struct{}

func (s *ExportStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Result == nil {
		return fmt.Errorf("ExportStep: no reconciliation result")
	}
	data, err := xlsx.Bytes(state.Result.Tables())
	if err != nil {
		return err
	}
	state.Report = data
	state.ReportName = xlsx.FileName(state.StartedAt)
	return nil
}

// Step 4: UploadReportStep stores the workbook in a bucket. Without a bucket
// it does nothing.
type UploadReportStep struct {
	Storage StorageService
	Bucket  string
	Prefix  string
}

func (s *UploadReportStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Bucket == "" || s.Storage == nil {
		return nil
	}
	uri := gcsstore.URI(s.Bucket, path.Join(s.Prefix, state.RunID, state.ReportName))
	if err := s.Storage.Upload(ctx, uri, state.Report, xlsx.ContentType); err != nil {
		return fmt.Errorf("UploadReportStep: %w", err)
	}
	state.ReportURI = uri
	log := logger.FromContext(ctx)
	log.Info().Str("run_id", state.RunID).Str("uri", uri).Msg("Report uploaded")
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}
