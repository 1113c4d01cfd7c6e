package salary

import (
	"github.com/joseph-ayodele/payslip-tracker/internal/common"
)

// Backfill fills derivable totals that were not printed on the slip, in
// dependency order:
//  0. totalPayment from the earnings lines, when basicSalary is present;
//  1. totalDeductions from the five statutory deductions, when healthInsurance
//     is present (taken as the sign that the deductions block exists);
//  2. netPayment as totalPayment - totalDeductions, when both are known.
//
// Values that were matched directly are never overwritten.
func Backfill(d ExtractedSalaryData) ExtractedSalaryData {
	if d.TotalPayment == nil && d.BasicSalary != nil {
		total := sum(d.BasicSalary, d.OvertimePay, d.OvertimePayOver60, d.LateNightPay,
			d.FixedOvertimeAllowance, d.ExpenseReimbursement, d.CommutingAllowance, d.StockPurchaseIncentive)
		d.TotalPayment = &total
	}
	if d.TotalDeductions == nil && d.HealthInsurance != nil {
		total := sum(d.HealthInsurance, d.WelfareInsurance, d.EmploymentInsurance, d.IncomeTax, d.ResidentTax)
		d.TotalDeductions = &total
	}
	if d.NetPayment == nil && d.TotalPayment != nil && d.TotalDeductions != nil {
		d.NetPayment = ptr(*d.TotalPayment - *d.TotalDeductions)
	}
	return d
}

func sum(vs ...*int64) int64 {
	var total int64
	for _, v := range vs {
		total += val(v)
	}
	return total
}

// Assemble groups extracted fields into a SalarySlip; absent fields become zero values.
func Assemble(d ExtractedSalaryData) SalarySlip {
	return SalarySlip{
		CompanyName:  val(d.CompanyName),
		EmployeeName: val(d.EmployeeName),
		EmployeeID:   val(d.EmployeeID),
		PaymentDate:  val(d.PaymentDate),
		TargetPeriod: Period{Start: val(d.PeriodStart), End: val(d.PeriodEnd)},
		Attendance: Attendance{
			OvertimeHours:       val(d.OvertimeHours),
			OvertimeHoursOver60: val(d.OvertimeHoursOver60),
			LateNightHours:      val(d.LateNightHours),
			PaidLeaveDays:       val(d.PaidLeaveDays),
		},
		Earnings: Earnings{
			BaseSalary:              val(d.BasicSalary),
			OvertimePay:             val(d.OvertimePay),
			OvertimePayOver60:       val(d.OvertimePayOver60),
			LateNightPay:            val(d.LateNightPay),
			FixedOvertimeAllowance:  val(d.FixedOvertimeAllowance),
			ExpenseReimbursement:    val(d.ExpenseReimbursement),
			TransportationAllowance: val(d.CommutingAllowance),
			StockPurchaseIncentive:  val(d.StockPurchaseIncentive),
			Total:                   val(d.TotalPayment),
		},
		Deductions: Deductions{
			HealthInsurance:     val(d.HealthInsurance),
			WelfareInsurance:    val(d.WelfareInsurance),
			EmploymentInsurance: val(d.EmploymentInsurance),
			IncomeTax:           val(d.IncomeTax),
			ResidentTax:         val(d.ResidentTax),
			OtherDeductions:     val(d.OtherDeductions),
			Total:               val(d.TotalDeductions),
		},
		NetPay: val(d.NetPayment),
	}
}

// Validate reports consistency problems in s. Slips in the wild do not always
// balance, so callers decide whether a finding is fatal.
func (s SalarySlip) Validate() []common.ValidationError {
	v := common.NewValidator()
	v.Field("employeeId", s.EmployeeID, common.Alphanumeric, common.MaxLength(64)).
		Field("paymentDate", s.PaymentDate, common.ISODate).
		Field("targetPeriod.start", s.TargetPeriod.Start, common.ISODate).
		Field("targetPeriod.end", s.TargetPeriod.End, common.ISODate)

	a := s.Attendance
	v.Field("attendance.overtimeHours", a.OvertimeHours, common.NonNegative).
		Field("attendance.overtimeHoursOver60", a.OvertimeHoursOver60, common.NonNegative).
		Field("attendance.lateNightHours", a.LateNightHours, common.NonNegative).
		Field("attendance.paidLeaveDays", a.PaidLeaveDays, common.NonNegative).
		Check(a.OvertimeHoursOver60 <= a.OvertimeHours, "attendance.overtimeHoursOver60", a.OvertimeHoursOver60,
			"must not exceed overtimeHours")

	e, d := s.Earnings, s.Deductions
	for _, f := range []struct {
		name string
		amt  int64
	}{
		{"earnings.baseSalary", e.BaseSalary},
		{"earnings.overtimePay", e.OvertimePay},
		{"earnings.overtimePayOver60", e.OvertimePayOver60},
		{"earnings.lateNightPay", e.LateNightPay},
		{"earnings.fixedOvertimeAllowance", e.FixedOvertimeAllowance},
		{"earnings.expenseReimbursement", e.ExpenseReimbursement},
		{"earnings.transportationAllowance", e.TransportationAllowance},
		{"earnings.stockPurchaseIncentive", e.StockPurchaseIncentive},
		{"earnings.total", e.Total},
		{"deductions.healthInsurance", d.HealthInsurance},
		{"deductions.welfareInsurance", d.WelfareInsurance},
		{"deductions.employmentInsurance", d.EmploymentInsurance},
		{"deductions.incomeTax", d.IncomeTax},
		{"deductions.residentTax", d.ResidentTax},
		{"deductions.otherDeductions", d.OtherDeductions},
		{"deductions.total", d.Total},
	} {
		v.Field(f.name, f.amt, common.NonNegative)
	}

	v.Check(s.NetPay == e.Total-d.Total, "netPay", s.NetPay,
		"must equal earnings.total - deductions.total")
	if s.TargetPeriod.Start != "" && s.TargetPeriod.End != "" {
		v.Check(s.TargetPeriod.Start <= s.TargetPeriod.End, "targetPeriod.end", s.TargetPeriod.End,
			"must not be before targetPeriod.start")
	}
	return v.Errors()
}
