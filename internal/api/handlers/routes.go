package handlers

import (
	"net/http"
	"strings"

	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/api/middleware"
)

const (
	reconciliationsPath = "/api/reconciliations"
	reportSuffix        = "/report"
)

// Register mounts every endpoint on mux.
func Register(mux *http.ServeMux, rec *ReconciliationsHandler, jobsHandler *JobsHandler, rulesHandler *RulesHandler) {
	mux.HandleFunc(reconciliationsPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			rec.CreateReconciliation(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc(reconciliationsPath+"/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		rest := strings.TrimPrefix(r.URL.Path, reconciliationsPath+"/")
		if id, ok := strings.CutSuffix(rest, reportSuffix); ok {
			if id == "" || strings.Contains(id, "/") {
				middleware.WriteError(w, http.StatusNotFound, "Not found")
				return
			}
			rec.DownloadReport(w, r, id)
			return
		}
		if rest == "" || strings.Contains(rest, "/") {
			middleware.WriteError(w, http.StatusBadRequest, "Reconciliation ID is required")
			return
		}
		rec.GetReconciliation(w, r, rest)
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/rules", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			rulesHandler.GetRules(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", Health)
}
