package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/api/middleware"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/domain"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/engine"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/export/xlsx"
	infraBQ "github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/infra/bigquery"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/jobs"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/ledgercsv"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/logger"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/pipeline"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/rules"
	"github.com/rs/zerolog"
)

const (
	// PendingFieldPrefix prefixes the optional pending-ledger form fields,
	// e.g. gantungan_cabang_sby.
	PendingFieldPrefix = "gantungan_"
	// CarryOverField carries the prior-period difference.
	CarryOverField = "selisih"

	defaultMaxUpload int64 = 32 << 20
	maxPeriodBody    int64 = 1 << 20
)

// PeriodRequest asks for a reconciliation of a warehouse period.
type PeriodRequest struct {
	Period  string `json:"period"`
	Selisih string `json:"selisih,omitempty"`
}

// ReconciliationsHandler handles reconciliation endpoints.
type ReconciliationsHandler struct {
	publisher jobs.Publisher
	store     jobs.JobStore
	maxUpload int64
	warehouse bool
	log       zerolog.Logger
}

// NewReconciliationsHandler creates a new reconciliations handler. maxUpload
// bounds the multipart body in bytes; zero picks the default.
func NewReconciliationsHandler(publisher jobs.Publisher, store jobs.JobStore, maxUpload int64, log zerolog.Logger) *ReconciliationsHandler {
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	return &ReconciliationsHandler{
		publisher: publisher,
		store:     store,
		maxUpload: maxUpload,
		log:       log,
	}
}

// EnableWarehouse accepts period requests, whose ledgers are read from the
// warehouse by the job runner.
func (h *ReconciliationsHandler) EnableWarehouse() *ReconciliationsHandler {
	h.warehouse = true
	return h
}

// CreateReconciliation handles POST /api/reconciliations
//
// A multipart body uploads both ledgers; they are parsed before the job is
// queued so malformed input is rejected synchronously: 400 for missing
// input, 422 for unreadable files. A JSON PeriodRequest reconciles a
// warehouse period instead.
func (h *ReconciliationsHandler) CreateReconciliation(w http.ResponseWriter, r *http.Request) {
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/json" {
		h.createFromPeriod(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	in := engine.Input{
		Ledgers: make(map[domain.Direction]domain.Ledger),
		Pending: make(map[domain.Direction]domain.Ledger),
	}
	files := make(map[string]string)

	for _, d := range domain.Directions {
		ledger, name, err := readLedger(r, string(d), d)
		if err != nil {
			h.writeInputError(w, err)
			return
		}
		if name == "" {
			middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Missing required ledger %s", d))
			return
		}
		in.Ledgers[d] = ledger
		files[string(d)] = name

		field := PendingFieldPrefix + string(d)
		pending, name, err := readLedger(r, field, d)
		if err != nil {
			h.writeInputError(w, err)
			return
		}
		if name != "" {
			in.Pending[d] = pending
			files[field] = name
		}
	}

	carry, err := ledgercsv.ParseAmount(r.FormValue(CarryOverField))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s value", CarryOverField))
		return
	}
	in.CarryOver = carry

	h.enqueue(w, r, &jobs.ReconcileJob{
		Source: pipeline.SourceUpload,
		Files:  files,
		Input:  in,
	})
}

func (h *ReconciliationsHandler) createFromPeriod(w http.ResponseWriter, r *http.Request) {
	var req PeriodRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPeriodBody)).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Period == "" {
		middleware.WriteError(w, http.StatusBadRequest, "period is required")
		return
	}
	if _, _, err := infraBQ.ParsePeriod(req.Period); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "period must be YYYY-MM")
		return
	}
	carry, err := ledgercsv.ParseAmount(req.Selisih)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s value", CarryOverField))
		return
	}
	if !h.warehouse {
		middleware.WriteError(w, http.StatusNotImplemented, "Warehouse source is not configured")
		return
	}

	h.enqueue(w, r, &jobs.ReconcileJob{
		Source: pipeline.SourceBigQuery,
		Period: req.Period,
		Input:  engine.Input{CarryOver: carry},
	})
}

// enqueue publishes job and answers 202 with its ID.
func (h *ReconciliationsHandler) enqueue(w http.ResponseWriter, r *http.Request, job *jobs.ReconcileJob) {
	log := logger.FromContext(r.Context())

	if err := h.publisher.PublishReconcile(r.Context(), job); err != nil {
		log.Error().Err(err).Msg("Failed to enqueue reconciliation job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue reconciliation")
		return
	}

	log.Info().
		Str("job_id", job.JobID).
		Str("source", job.Source).
		Str("period", job.Period).
		Int("cabang_sby_rows", job.Input.Ledgers[domain.BranchToHub].Len()).
		Int("sby_cabang_rows", job.Input.Ledgers[domain.HubToBranch].Len()).
		Str("carry_over", job.Input.CarryOver.String()).
		Msg("Reconciliation job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(jobs.JobStatusPending),
	})
}

// readLedger parses an optional file field. An absent field yields an empty name.
func readLedger(r *http.Request, field string, d domain.Direction) (domain.Ledger, string, error) {
	f, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return domain.Ledger{}, "", nil
	}
	if err != nil {
		return domain.Ledger{}, "", fmt.Errorf("%s: %w", field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return domain.Ledger{}, "", fmt.Errorf("%s: %w", field, err)
	}
	ledger, err := ledgercsv.ReadNamed(header.Filename, data, d)
	if err != nil {
		return domain.Ledger{}, "", fmt.Errorf("%s: %w", field, err)
	}
	return ledger, header.Filename, nil
}

func (h *ReconciliationsHandler) writeInputError(w http.ResponseWriter, err error) {
	var fe *ledgercsv.FieldError
	switch {
	case errors.As(err, &fe),
		errors.Is(err, ledgercsv.ErrMissingColumn),
		errors.Is(err, ledgercsv.ErrEmptyFile):
		middleware.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	}
}

// GetReconciliation handles GET /api/reconciliations/{id}
func (h *ReconciliationsHandler) GetReconciliation(w http.ResponseWriter, r *http.Request, jobID string) {
	job, ok := h.lookup(w, r, jobID)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// DownloadReport handles GET /api/reconciliations/{id}/report
func (h *ReconciliationsHandler) DownloadReport(w http.ResponseWriter, r *http.Request, jobID string) {
	job, ok := h.lookup(w, r, jobID)
	if !ok {
		return
	}
	if job.Status != jobs.JobStatusCompleted || len(job.Report) == 0 {
		middleware.WriteJSON(w, http.StatusConflict, map[string]string{
			"error":  "Report not ready",
			"status": string(job.Status),
		})
		return
	}

	name := job.ReportName
	if name == "" {
		name = xlsx.FileName(job.CreatedAt)
	}
	w.Header().Set("Content-Type", xlsx.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(job.Report)))
	w.WriteHeader(http.StatusOK)
	w.Write(job.Report)
}

func (h *ReconciliationsHandler) lookup(w http.ResponseWriter, r *http.Request, jobID string) (*jobs.ReconcileJob, bool) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if errors.Is(err, jobs.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Reconciliation not found")
		return nil, false
	}
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get reconciliation")
		return nil, false
	}
	return job, true
}

// RulesHandler exposes the effective rule set.
type RulesHandler struct {
	rules rules.Config
	log   zerolog.Logger
}

// NewRulesHandler creates a new rules handler.
func NewRulesHandler(cfg rules.Config, log zerolog.Logger) *RulesHandler {
	return &RulesHandler{rules: cfg, log: log}
}

// GetRules handles GET /api/rules and answers with the YAML rule file.
func (h *RulesHandler) GetRules(w http.ResponseWriter, r *http.Request) {
	data, err := rules.Encode(h.rules)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to encode rules")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to encode rules")
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		Period: query.Get("period"),
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

