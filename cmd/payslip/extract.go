package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"

	"github.com/joseph-ayodele/payslip-tracker/internal/common"
	"github.com/joseph-ayodele/payslip-tracker/internal/pdftext"
	"github.com/joseph-ayodele/payslip-tracker/internal/pipeline"
	"github.com/joseph-ayodele/payslip-tracker/internal/report"
)

type extractCmd struct {
	format         string
	style          string
	width          int
	devPlaceholder bool
}

func (*extractCmd) Name() string     { return "extract" }
func (*extractCmd) Synopsis() string { return "extract a salary slip from a PDF and print it" }
func (*extractCmd) Usage() string {
	return `payslip extract [-format json|md] [-dev-placeholder] <file.pdf>

  Runs the text backends in order (pdf-plaintext, pdf-contentstream,
  pdftotext) and prints the assembled salary slip. The database is not used.
`
}

func (c *extractCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "md", "Output format: json or md.")
	f.StringVar(&c.style, "style", "auto", "Glamour style for md output (auto, dark, light, notty).")
	f.IntVar(&c.width, "width", 100, "Word wrap width for md output.")
	f.BoolVar(&c.devPlaceholder, "dev-placeholder", false, "Return sample data when every backend fails.")
}

func (c *extractCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	if c.format != "json" && c.format != "md" {
		fmt.Fprintf(os.Stderr, "unknown format %q\n", c.format)
		return subcommands.ExitUsageError
	}
	cfg, logger, err := loadConfig()
	if err != nil {
		return fail(err)
	}

	src := f.Arg(0)
	pdf, err := os.ReadFile(src)
	if err != nil {
		return fail(err)
	}

	p := pipeline.New(
		pipeline.Config{DevPlaceholder: c.devPlaceholder || cfg.Extraction.DevPlaceholder},
		nil,
		logger,
		pdftext.DefaultChain(cfg.Extraction.Pdftotext, logger)...,
	)
	ctx, cancel := common.WithTimeout(ctx, cfg.Extraction.Timeout.Std())
	defer cancel()
	res, err := p.ExtractSalarySlip(ctx, pdf)
	if err != nil {
		return fail(err)
	}

	switch c.format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fail(err)
		}
	default:
		out, err := report.Render(report.Markdown(res, filepath.Base(src)), c.style, c.width)
		if err != nil {
			return fail(err)
		}
		fmt.Print(out)
	}

	if !res.Success {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
