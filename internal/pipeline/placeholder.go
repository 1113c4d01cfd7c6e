package pipeline

import (
	"github.com/joseph-ayodele/payslip-tracker/constants"
	"github.com/joseph-ayodele/payslip-tracker/internal/salary"
)

// PlaceholderMessage marks data that did not come from the uploaded document.
const PlaceholderMessage = "Test data (not from actual PDF)"

// Placeholder returns the fixed sample record served when every backend
// failed and Config.DevPlaceholder is set.
func Placeholder() ExtractionResult {
	i := func(v int64) *int64 { return &v }
	date := "2025-01-01"
	data := salary.ExtractedSalaryData{
		PaymentDate:         &date,
		BasicSalary:         i(250000),
		OvertimePay:         i(35000),
		CommutingAllowance:  i(15000),
		HealthInsurance:     i(12500),
		WelfareInsurance:    i(25000),
		EmploymentInsurance: i(1500),
		IncomeTax:           i(8500),
		ResidentTax:         i(12000),
		TotalPayment:        i(300000),
		TotalDeductions:     i(59500),
		NetPayment:          i(240500),
	}
	slip := salary.Assemble(data)
	conf := 1.0
	return ExtractionResult{
		Success:       true,
		ExtractedData: &data,
		Slip:          &slip,
		Confidence:    &conf,
		Method:        constants.BackendPlaceholder,
		Placeholder:   true,
		Message:       PlaceholderMessage,
	}
}
