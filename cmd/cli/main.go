package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/config"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/domain"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/engine"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/gcsstore"
	infraBQ "github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/infra/bigquery"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/logger"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/offset"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/pipeline"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/rules"
	"github.com/rs/zerolog"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "reconcile":
		runReconcile(log)
	case "rules":
		runRules(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("RK Depo Surabaya reconciliation CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  reconcile  Reconcile the cabang_sby and sby_cabang ledgers into an xlsx report")
	fmt.Println("  rules      Print the effective rule set as YAML")
	fmt.Println("  help       Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func runReconcile(log zerolog.Logger) {
	fs := flag.NewFlagSet("reconcile", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	branch := fs.String("cabang-sby", "", "cabang_sby ledger (csv/xlsx path or gs:// URI)")
	hub := fs.String("sby-cabang", "", "sby_cabang ledger (csv/xlsx path or gs:// URI)")
	branchPending := fs.String("gantungan-cabang-sby", "", "Optional pending rows for cabang_sby")
	hubPending := fs.String("gantungan-sby-cabang", "", "Optional pending rows for sby_cabang")
	carryOver := fs.String("selisih", "0", "Prior-period difference carried into the VA/RI group")
	out := fs.String("out", "", "Output workbook path (default: hasil_RK_<timestamp>.xlsx)")
	source := fs.String("source", pipeline.SourceFile, "Ledger source: file or bigquery")
	period := fs.String("period", "", "Warehouse period YYYY-MM (with -source bigquery)")
	upload := fs.Bool("upload", false, "Upload the report to the configured bucket")
	fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	log = log.Level(logger.ParseLevel(cfg.Log.Level))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	carry, err := parseCarryOver(*carryOver)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -selisih")
	}

	state := pipeline.NewState(*source)
	state.Input.CarryOver = carry

	switch *source {
	case pipeline.SourceFile:
		refs, err := ledgerRefs(*branch, *hub, *branchPending, *hubPending)
		if err != nil {
			log.Fatal().Err(err).Msg("Usage: cli reconcile -cabang-sby PATH -sby-cabang PATH")
		}
		state.Refs = refs
	case pipeline.SourceBigQuery:
		if *period == "" {
			log.Fatal().Msg("Error: -period is required with -source bigquery")
		}
		if !cfg.BigQuery.Enabled() {
			log.Fatal().Msg("Error: bigquery.project, bigquery.dataset and bigquery.ledger_table must be configured")
		}
		state.Period = *period
	default:
		log.Fatal().Str("source", *source).Msg("Error: -source must be file or bigquery")
	}

	if *upload && cfg.Storage.ReportBucket == "" {
		log.Fatal().Msg("Error: -upload needs storage.report_bucket (or RK_STORAGE_REPORT_BUCKET)")
	}

	eng := buildEngine(log, cfg)

	var storage pipeline.StorageService
	if *upload || hasGCSRef(state.Refs) {
		client, err := gcsstore.NewClient(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create storage client")
		}
		defer client.Close()
		storage = client
	}

	var repo pipeline.LedgerRepository
	if cfg.BigQuery.Enabled() {
		bq, err := infraBQ.NewBigQueryLedgerRepository(ctx, infraBQ.TableRef{
			Project: cfg.BigQuery.Project,
			Dataset: cfg.BigQuery.Dataset,
			Ledgers: cfg.BigQuery.LedgerTable,
			Runs:    cfg.BigQuery.RunsTable,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create ledger repository")
		}
		defer bq.Close()
		repo = bq
	}

	opts := pipeline.Options{ReportPrefix: cfg.Storage.ReportPrefix}
	if *upload {
		opts.ReportBucket = cfg.Storage.ReportBucket
	}
	runner := pipeline.NewRunner(eng, storage, repo, opts, log)

	if err := runner.Run(ctx, state); err != nil {
		log.Fatal().Err(err).Msg("Reconciliation failed")
	}

	path := *out
	if path == "" {
		path = state.ReportName
	}
	if err := os.WriteFile(path, state.Report, 0o644); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to write report")
	}

	printSummary(state.Result.Summary())
	fmt.Printf("\nReport written to %s\n", path)
	if state.ReportURI != "" {
		fmt.Printf("Report uploaded to %s\n", state.ReportURI)
	}
}

func runRules(log zerolog.Logger) {
	fs := flag.NewFlagSet("rules", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	file := fs.String("file", "", "Rule file (default: rules.file from config, else built-in)")
	fs.Parse(os.Args[2:])

	path := *file
	if path == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load config")
		}
		path = cfg.Rules.File
	}

	set, err := rules.Load(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to load rules")
	}
	data, err := rules.Encode(set)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode rules")
	}
	os.Stdout.Write(data)
}

func buildEngine(log zerolog.Logger, cfg config.Config) *engine.Engine {
	set, err := rules.Load(cfg.Rules.File)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.Rules.File).Msg("Failed to load rules")
	}
	tolerance, err := cfg.OffsetTolerance()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid offset tolerance")
	}
	eng, err := engine.New(set, offset.New(offset.WithTolerance(tolerance)), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build engine")
	}
	return eng
}

func printSummary(s engine.Summary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, side := range s.Sides {
		fmt.Fprintf(w, "\n=== %s ===\t\t\t\t\t\n", side.Direction)
		fmt.Fprintln(w, "Grup\tGroup\tRows\tDebet\tKredit\tSelisih\t")
		for _, g := range side.Groups {
			diff := ""
			if g.Subtotal.HasDifference {
				diff = g.Subtotal.Difference.StringFixed(2)
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t\n",
				g.Code, g.Name, g.Rows, g.Subtotal.Debet.StringFixed(2), g.Subtotal.Kredit.StringFixed(2), diff)
		}
	}
	w.Flush()

	fmt.Printf("\nOffset rows: %d (exact pairs %d, greedy groups %d), pending rows: %d\n",
		s.OffsetRows, s.ExactPairs, s.GreedyGroups, s.PendingRows)
	for _, warning := range s.Warnings {
		fmt.Printf("Warning: %s\n", warning)
	}
}

// ledgerRefs turns the file flags into pipeline refs. Both main ledgers are required.
func ledgerRefs(branch, hub, branchPending, hubPending string) ([]pipeline.LedgerRef, error) {
	if branch == "" || hub == "" {
		return nil, fmt.Errorf("-cabang-sby and -sby-cabang are required: %w", engine.ErrMissingLedger)
	}
	refs := []pipeline.LedgerRef{
		{Direction: domain.BranchToHub, Location: clean(branch)},
		{Direction: domain.HubToBranch, Location: clean(hub)},
	}
	if branchPending != "" {
		refs = append(refs, pipeline.LedgerRef{Direction: domain.BranchToHub, Pending: true, Location: clean(branchPending)})
	}
	if hubPending != "" {
		refs = append(refs, pipeline.LedgerRef{Direction: domain.HubToBranch, Pending: true, Location: clean(hubPending)})
	}
	return refs, nil
}

func clean(location string) string {
	if gcsstore.IsURI(location) {
		return location
	}
	return filepath.Clean(location)
}

func hasGCSRef(refs []pipeline.LedgerRef) bool {
	for _, r := range refs {
		if gcsstore.IsURI(r.Location) {
			return true
		}
	}
	return false
}
