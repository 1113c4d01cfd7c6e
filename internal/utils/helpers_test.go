package utils

import (
	"testing"

	"github.com/joseph-ayodele/payslip-tracker/internal/pipeline"
	"github.com/joseph-ayodele/payslip-tracker/internal/salary"
)

func TestResultThroughStruct(t *testing.T) {
	t.Parallel()

	conf := 0.75
	in := pipeline.ExtractionResult{
		Success:    true,
		Slip:       &salary.SalarySlip{EmployeeID: "A1", PaymentDate: "2025-01-25", NetPay: 240500},
		Confidence: &conf,
		Warnings:   []string{"netPay: mismatch"},
		Method:     "pdf-plaintext",
		Attempts:   []pipeline.Attempt{{State: pipeline.StateSecondary, Backend: "pdf-contentstream", Fields: 4}},
	}
	s, err := ToPBResult(in)
	if err != nil {
		t.Fatalf("to struct: %v", err)
	}
	if got := s.GetFields()["method"].GetStringValue(); got != "pdf-plaintext" {
		t.Fatalf("want=pdf-plaintext got=%q", got)
	}

	out, err := FromPBResult(s)
	if err != nil {
		t.Fatalf("from struct: %v", err)
	}
	if out.Slip.NetPay != 240500 || *out.Confidence != 0.75 || out.Attempts[0].State != pipeline.StateSecondary {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}
