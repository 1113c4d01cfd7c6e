package pipeline

import (
	"time"

	"github.com/joseph-ayodele/payslip-tracker/internal/salary"
)

// ExtractionResult is the single response shape of ExtractSalarySlip.
type ExtractionResult struct {
	Success       bool                        `json:"success"`
	ExtractedData *salary.ExtractedSalaryData `json:"extractedData,omitempty"`
	Slip          *salary.SalarySlip          `json:"slip,omitempty"`
	Confidence    *float64                    `json:"confidence,omitempty"`
	Errors        []string                    `json:"errors,omitempty"`
	Warnings      []string                    `json:"warnings,omitempty"`
	Method        string                      `json:"method,omitempty"`
	Placeholder   bool                        `json:"placeholder,omitempty"`
	Message       string                      `json:"message,omitempty"`
	Attempts      []Attempt                   `json:"attempts,omitempty"`
}

// Attempt records one state of the fallback chain.
type Attempt struct {
	State    State         `json:"state"`
	Backend  string        `json:"backend"`
	Error    string        `json:"error,omitempty"`
	Fields   int           `json:"fields"`
	Duration time.Duration `json:"durationNs"`
}
