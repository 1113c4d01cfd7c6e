package extract

import "github.com/joseph-ayodele/payslip-tracker/internal/salary"

// RuleExtractor adapts the salary rule table to FieldExtractor.
type RuleExtractor struct{}

func NewRuleExtractor() RuleExtractor { return RuleExtractor{} }

func (RuleExtractor) ExtractFields(text string) salary.ExtractedSalaryData {
	return salary.Extract(text)
}
