package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/subcommands"

	"github.com/joseph-ayodele/payslip-tracker/internal/export"
	"github.com/joseph-ayodele/payslip-tracker/internal/ingest"
	"github.com/joseph-ayodele/payslip-tracker/internal/pdftext"
	"github.com/joseph-ayodele/payslip-tracker/internal/pipeline"
	repo "github.com/joseph-ayodele/payslip-tracker/internal/repository"
	"github.com/joseph-ayodele/payslip-tracker/internal/services/slips"
)

type ingestCmd struct {
	dir        string
	skipHidden bool
}

func (*ingestCmd) Name() string     { return "ingest" }
func (*ingestCmd) Synopsis() string { return "store and extract every PDF in a directory" }
func (*ingestCmd) Usage() string {
	return `payslip ingest -dir <directory> [-skip-hidden=false]

  Copies each PDF under the directory into the upload store, runs extraction
  and saves slips that carry an employee id and payment date. Slips already
  saved for the same employee and payment date are left alone.
`
}

func (c *ingestCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "Directory to scan recursively (required).")
	f.BoolVar(&c.skipHidden, "skip-hidden", true, "Skip dot files and dot directories.")
}

func (c *ingestCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.dir == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	cfg, logger, err := loadConfig()
	if err != nil {
		return fail(err)
	}
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	ingestor := ingest.NewFSIngestor(cfg.Storage.UploadDir, repo.NewFileRepository(store, logger), logger)
	p := pipeline.New(pipeline.Config{}, nil, logger, pdftext.DefaultChain(cfg.Extraction.Pdftotext, logger)...)
	svc := slips.NewService(ingestor, p, repo.NewSalarySlipRepository(store, logger), logger, slips.Options{
		Timeout:  cfg.Extraction.Timeout.Std(),
		AutoSave: true,
		Jobs:     repo.NewExtractJobRepository(store, logger),
	})

	results, stats, err := ingestor.IngestDirectory(ctx, c.dir, c.skipHidden)
	if err != nil {
		return fail(err)
	}
	failed := 0
	for _, r := range results {
		if r.Err != "" {
			fmt.Printf("SKIP  %s: %s\n", r.SourcePath, r.Err)
			continue
		}
		if _, err := svc.ProcessFile(ctx, r.FileID); err != nil {
			failed++
			fmt.Printf("FAIL  %s: %v\n", r.SourcePath, err)
			continue
		}
		fmt.Printf("OK    %s\n", r.SourcePath)
	}
	fmt.Printf("\nscanned=%d matched=%d stored=%d deduplicated=%d failed=%d extract_failed=%d\n",
		stats.Scanned, stats.Matched, stats.Succeeded, stats.Deduplicated, stats.Failed, failed)
	if failed > 0 || stats.Failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type exportCmd struct {
	out        string
	employeeID string
	from       string
	to         string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write saved salary slips to an XLSX workbook" }
func (*exportCmd) Usage() string {
	return `payslip export [-out slips.xlsx] [-employee <id>] [-from YYYY-MM-DD] [-to YYYY-MM-DD]
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "out", "salary_slips.xlsx", "Output XLSX path.")
	f.StringVar(&c.employeeID, "employee", "", "Only slips of this employee id.")
	f.StringVar(&c.from, "from", "", "Earliest payment date, inclusive.")
	f.StringVar(&c.to, "to", "", "Latest payment date, inclusive.")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, logger, err := loadConfig()
	if err != nil {
		return fail(err)
	}
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	svc := export.NewService(repo.NewSalarySlipRepository(store, logger), logger)
	b, err := svc.ExportSlipsXLSX(ctx, repo.ListFilter{EmployeeID: c.employeeID, From: c.from, To: c.to})
	if err != nil {
		return fail(err)
	}
	if dir := filepath.Dir(c.out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fail(err)
		}
	}
	if err := os.WriteFile(c.out, b, 0o644); err != nil {
		return fail(err)
	}
	fmt.Printf("wrote %s (%d bytes)\n", c.out, len(b))
	return subcommands.ExitSuccess
}

type dbhealthCmd struct {
	timeout time.Duration
}

func (*dbhealthCmd) Name() string     { return "dbhealth" }
func (*dbhealthCmd) Synopsis() string { return "check database connectivity" }
func (*dbhealthCmd) Usage() string {
	return `payslip dbhealth [-timeout 1s]

  Connects with DB_DRIVER / DB_URL, pings, and prints the server time.
`
}

func (c *dbhealthCmd) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&c.timeout, "timeout", time.Second, "Ping timeout.")
}

func (c *dbhealthCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, logger, err := loadConfig()
	if err != nil {
		return fail(err)
	}
	if err := cfg.Validate(); err != nil {
		return fail(err)
	}
	store, err := repo.Open(ctx, repo.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN, MaxConns: 1, DialTimeout: cfg.Database.DialTimeout.Std()}, logger)
	if err != nil {
		return fail(fmt.Errorf("opening DB: %w", err))
	}
	defer store.Close()

	if err := store.HealthCheck(ctx, c.timeout); err != nil {
		fmt.Printf("DB health: FAIL (%v)\n", err)
		return subcommands.ExitFailure
	}
	now, err := store.Now(ctx)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("DB health: OK (driver=%s, server time %s)\n", store.Dialect(), now.Format(time.RFC3339))
	return subcommands.ExitSuccess
}
