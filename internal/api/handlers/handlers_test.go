package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/domain"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/export/xlsx"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/jobs"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/jobs/inmemory"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/logger"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/rules"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePublisher records published jobs and stores them like the queue does.
type fakePublisher struct {
	store     jobs.JobStore
	published []*jobs.ReconcileJob
}

func (p *fakePublisher) PublishReconcile(ctx context.Context, job *jobs.ReconcileJob) error {
	job.JobID = "job-1"
	job.Status = jobs.JobStatusPending
	job.CreatedAt = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	p.published = append(p.published, job)
	return p.store.SaveJob(ctx, job)
}

func (p *fakePublisher) Close() error { return nil }

var _ jobs.Publisher = (*fakePublisher)(nil)

type server struct {
	mux       *http.ServeMux
	store     *inmemory.Store
	publisher *fakePublisher
}

func newServer() *server {
	return newServerWith(false)
}

func newServerWith(warehouse bool) *server {
	log := logger.NewWithWriter(io.Discard)
	store := inmemory.NewStore()
	pub := &fakePublisher{store: store}

	rec := NewReconciliationsHandler(pub, store, 0, log)
	if warehouse {
		rec.EnableWarehouse()
	}

	mux := http.NewServeMux()
	Register(mux,
		rec,
		NewJobsHandler(store, log),
		NewRulesHandler(rules.Default(), log))
	return &server{mux: mux, store: store, publisher: pub}
}

func (s *server) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func multipartRequest(t *testing.T, files map[string]string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for field, content := range files {
		fw, err := mw.CreateFormFile(field, field+".csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/reconciliations", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

const (
	branchCSV = "Keperluan,Debet,Kredit\nSETORAN,500,0\n"
	hubCSV    = "Keperluan;Debet;Kredit\nPENARIKAN;0;500\n"
)

func TestCreateReconciliation(t *testing.T) {
	s := newServer()

	rec := s.do(multipartRequest(t,
		map[string]string{
			"cabang_sby":           branchCSV,
			"sby_cabang":           hubCSV,
			"gantungan_sby_cabang": "Keperluan,Debet,Kredit\nSISA,0,7\n",
		},
		map[string]string{"selisih": "1,000"}))

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "job-1", resp["job_id"])
	assert.Equal(t, "pending", resp["status"])

	require.Len(t, s.publisher.published, 1)
	job := s.publisher.published[0]
	assert.Equal(t, "upload", job.Source)
	assert.Equal(t, 1, job.Input.Ledgers[domain.BranchToHub].Len())
	assert.Equal(t, 1, job.Input.Ledgers[domain.HubToBranch].Len())
	assert.Equal(t, 1, job.Input.Pending[domain.HubToBranch].Len())
	_, hasBranchPending := job.Input.Pending[domain.BranchToHub]
	assert.False(t, hasBranchPending)
	assert.True(t, job.Input.CarryOver.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, "gantungan_sby_cabang.csv", job.Files["gantungan_sby_cabang"])
}

func TestCreateReconciliationInputErrors(t *testing.T) {
	tests := []struct {
		name       string
		files      map[string]string
		fields     map[string]string
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "missing hub ledger",
			files:      map[string]string{"cabang_sby": branchCSV},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "sby_cabang",
		},
		{
			name:       "malformed amount",
			files:      map[string]string{"cabang_sby": "Keperluan,Debet,Kredit\nA,satu,0\n", "sby_cabang": hubCSV},
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    "Debet",
		},
		{
			name:       "missing column",
			files:      map[string]string{"cabang_sby": branchCSV, "sby_cabang": "Keperluan,Debet\nA,1\n"},
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    "Kredit",
		},
		{
			name:       "bad carry-over",
			files:      map[string]string{"cabang_sby": branchCSV, "sby_cabang": hubCSV},
			fields:     map[string]string{"selisih": "abc"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "selisih",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer()
			rec := s.do(multipartRequest(t, tt.files, tt.fields))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantMsg)
			assert.Empty(t, s.publisher.published)
		})
	}
}

func TestCreateReconciliationNotMultipart(t *testing.T) {
	s := newServer()
	req := httptest.NewRequest(http.MethodPost, "/api/reconciliations", strings.NewReader("cabang_sby=a.csv"))
	req.Header.Set("Content-Type", "text/plain")

	rec := s.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetReconciliationAndReport(t *testing.T) {
	s := newServer()
	ctx := context.Background()

	require.NoError(t, s.store.SaveJob(ctx, &jobs.ReconcileJob{JobID: "running", Status: jobs.JobStatusRunning}))
	require.NoError(t, s.store.SaveJob(ctx, &jobs.ReconcileJob{
		JobID:      "done",
		Status:     jobs.JobStatusCompleted,
		ReportName: "hasil_RK_20240501_0800.xlsx",
		Report:     []byte("PK-workbook"),
	}))

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"status", "/api/reconciliations/done", http.StatusOK},
		{"unknown", "/api/reconciliations/nope", http.StatusNotFound},
		{"report ready", "/api/reconciliations/done/report", http.StatusOK},
		{"report not ready", "/api/reconciliations/running/report", http.StatusConflict},
		{"report unknown", "/api/reconciliations/nope/report", http.StatusNotFound},
		{"missing id", "/api/reconciliations/", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/reconciliations/done/report", nil))
	assert.Equal(t, xlsx.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "hasil_RK_20240501_0800.xlsx")
	assert.Equal(t, "PK-workbook", rec.Body.String())

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/reconciliations/done", nil))
	assert.NotContains(t, rec.Body.String(), "PK-workbook", "report bytes stay out of the status JSON")
}

func TestListJobs(t *testing.T) {
	s := newServer()
	ctx := context.Background()
	require.NoError(t, s.store.SaveJob(ctx, &jobs.ReconcileJob{JobID: "a", Period: "2024-04", Status: jobs.JobStatusCompleted}))
	require.NoError(t, s.store.SaveJob(ctx, &jobs.ReconcileJob{JobID: "b", Period: "2024-05", Status: jobs.JobStatusFailed}))

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/jobs?status=failed&limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Jobs  []jobs.ReconcileJob `json:"jobs"`
		Count int                 `json:"count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "b", resp.Jobs[0].JobID)
}

func TestRulesAndHealth(t *testing.T) {
	s := newServer()

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/rules", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cfg, err := rules.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, rules.Default(), cfg)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")

	rec = s.do(httptest.NewRequest(http.MethodDelete, "/api/jobs", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func periodRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/reconciliations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	return req
}

func TestCreateReconciliationFromPeriod(t *testing.T) {
	s := newServerWith(true)

	rec := s.do(periodRequest(`{"period":"2024-05","selisih":"2,500"}`))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	require.Len(t, s.publisher.published, 1)
	job := s.publisher.published[0]
	assert.Equal(t, "bigquery", job.Source)
	assert.Equal(t, "2024-05", job.Period)
	assert.True(t, job.Input.CarryOver.Equal(decimal.NewFromInt(2500)))
	assert.Empty(t, job.Files)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/jobs?period=2024-05", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Jobs  []jobs.ReconcileJob `json:"jobs"`
		Count int                 `json:"count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "job-1", resp.Jobs[0].JobID)
}

func TestCreateReconciliationFromPeriodErrors(t *testing.T) {
	tests := []struct {
		name       string
		warehouse  bool
		body       string
		wantStatus int
	}{
		{"not json", true, "period=2024-05", http.StatusBadRequest},
		{"missing period", true, `{}`, http.StatusBadRequest},
		{"bad period", true, `{"period":"05/2024"}`, http.StatusBadRequest},
		{"bad carry-over", true, `{"period":"2024-05","selisih":"abc"}`, http.StatusBadRequest},
		{"no warehouse", false, `{"period":"2024-05"}`, http.StatusNotImplemented},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServerWith(tt.warehouse)
			rec := s.do(periodRequest(tt.body))

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Empty(t, s.publisher.published)
		})
	}
}

// TestCreateReconciliationWithQueue runs uploads through the real queue while
// its workers pick the jobs up; run with -race.
func TestCreateReconciliationWithQueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logger.NewWithWriter(io.Discard)
	store := inmemory.NewStore()
	queue := inmemory.NewQueue(inmemory.Options{BufferSize: 8, Workers: 4}, store, log)
	require.NoError(t, queue.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		rj := job.(*jobs.ReconcileJob)
		rj.ReportName = "hasil_RK.xlsx"
		return nil
	}))
	defer queue.Stop(context.Background())

	mux := http.NewServeMux()
	Register(mux,
		NewReconciliationsHandler(queue, store, 0, log),
		NewJobsHandler(store, log),
		NewRulesHandler(rules.Default(), log))

	const uploads = 20
	ids := make(chan string, uploads)
	var wg sync.WaitGroup
	for i := 0; i < uploads; i++ {
		req := multipartRequest(t, map[string]string{"cabang_sby": branchCSV, "sby_cabang": hubCSV}, nil)
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			var resp map[string]string
			if rec.Code != http.StatusAccepted || json.NewDecoder(rec.Body).Decode(&resp) != nil {
				ids <- ""
				return
			}
			if resp["status"] != "pending" {
				ids <- ""
				return
			}
			ids <- resp["job_id"]
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		require.NotEmpty(t, id, "every upload is accepted as pending")
		seen[id] = true
	}
	require.Len(t, seen, uploads)

	for id := range seen {
		assert.Eventually(t, func() bool {
			job, err := store.GetJob(ctx, id)
			return err == nil && job.Status == jobs.JobStatusCompleted && job.ReportName == "hasil_RK.xlsx"
		}, 5*time.Second, 10*time.Millisecond)
	}
}
