package salary

// FieldKey names one scalar field of a salary slip.
type FieldKey string

const (
	FieldCompanyName  FieldKey = "companyName"
	FieldEmployeeName FieldKey = "employeeName"
	FieldEmployeeID   FieldKey = "employeeId"
	FieldPaymentDate  FieldKey = "paymentDate"

	FieldOvertimeHours       FieldKey = "overtimeHours"
	FieldOvertimeHoursOver60 FieldKey = "overtimeHoursOver60"
	FieldLateNightHours      FieldKey = "lateNightHours"
	FieldPaidLeaveDays       FieldKey = "paidLeaveDays"

	FieldBasicSalary            FieldKey = "basicSalary"
	FieldOvertimePay            FieldKey = "overtimePay"
	FieldOvertimePayOver60      FieldKey = "overtimePayOver60"
	FieldLateNightPay           FieldKey = "lateNightPay"
	FieldFixedOvertimeAllowance FieldKey = "fixedOvertimeAllowance"
	FieldExpenseReimbursement   FieldKey = "expenseReimbursement"
	FieldCommutingAllowance     FieldKey = "commutingAllowance"
	FieldStockPurchaseIncentive FieldKey = "stockPurchaseIncentive"
	FieldTotalPayment           FieldKey = "totalPayment"

	FieldHealthInsurance     FieldKey = "healthInsurance"
	FieldWelfareInsurance    FieldKey = "welfareInsurance"
	FieldEmploymentInsurance FieldKey = "employmentInsurance"
	FieldIncomeTax           FieldKey = "incomeTax"
	FieldResidentTax         FieldKey = "residentTax"
	FieldOtherDeductions     FieldKey = "otherDeductions"
	FieldTotalDeductions     FieldKey = "totalDeductions"

	FieldNetPayment FieldKey = "netPayment"
)

// ExtractedSalaryData is what one extraction pass recovered. Nil means the
// field was not found in the text.
type ExtractedSalaryData struct {
	CompanyName  *string `json:"companyName,omitempty"`
	EmployeeName *string `json:"employeeName,omitempty"`
	EmployeeID   *string `json:"employeeId,omitempty"`
	PaymentDate  *string `json:"paymentDate,omitempty"`
	PeriodStart  *string `json:"periodStart,omitempty"`
	PeriodEnd    *string `json:"periodEnd,omitempty"`

	OvertimeHours       *float64 `json:"overtimeHours,omitempty"`
	OvertimeHoursOver60 *float64 `json:"overtimeHoursOver60,omitempty"`
	LateNightHours      *float64 `json:"lateNightHours,omitempty"`
	PaidLeaveDays       *float64 `json:"paidLeaveDays,omitempty"`

	BasicSalary            *int64 `json:"basicSalary,omitempty"`
	OvertimePay            *int64 `json:"overtimePay,omitempty"`
	OvertimePayOver60      *int64 `json:"overtimePayOver60,omitempty"`
	LateNightPay           *int64 `json:"lateNightPay,omitempty"`
	FixedOvertimeAllowance *int64 `json:"fixedOvertimeAllowance,omitempty"`
	ExpenseReimbursement   *int64 `json:"expenseReimbursement,omitempty"`
	CommutingAllowance     *int64 `json:"commutingAllowance,omitempty"`
	StockPurchaseIncentive *int64 `json:"stockPurchaseIncentive,omitempty"`
	TotalPayment           *int64 `json:"totalPayment,omitempty"`

	HealthInsurance     *int64 `json:"healthInsurance,omitempty"`
	WelfareInsurance    *int64 `json:"welfareInsurance,omitempty"`
	EmploymentInsurance *int64 `json:"employmentInsurance,omitempty"`
	IncomeTax           *int64 `json:"incomeTax,omitempty"`
	ResidentTax         *int64 `json:"residentTax,omitempty"`
	OtherDeductions     *int64 `json:"otherDeductions,omitempty"`
	TotalDeductions     *int64 `json:"totalDeductions,omitempty"`

	NetPayment *int64 `json:"netPayment,omitempty"`
}

// Period is the pay period a slip covers.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Attendance struct {
	OvertimeHours       float64 `json:"overtimeHours"`
	OvertimeHoursOver60 float64 `json:"overtimeHoursOver60"`
	LateNightHours      float64 `json:"lateNightHours"`
	PaidLeaveDays       float64 `json:"paidLeaveDays"`
}

type Earnings struct {
	BaseSalary              int64 `json:"baseSalary"`
	OvertimePay             int64 `json:"overtimePay"`
	OvertimePayOver60       int64 `json:"overtimePayOver60"`
	LateNightPay            int64 `json:"lateNightPay"`
	FixedOvertimeAllowance  int64 `json:"fixedOvertimeAllowance"`
	ExpenseReimbursement    int64 `json:"expenseReimbursement"`
	TransportationAllowance int64 `json:"transportationAllowance"`
	StockPurchaseIncentive  int64 `json:"stockPurchaseIncentive"`
	Total                   int64 `json:"total"`
}

type Deductions struct {
	HealthInsurance     int64 `json:"healthInsurance"`
	WelfareInsurance    int64 `json:"welfareInsurance"`
	EmploymentInsurance int64 `json:"employmentInsurance"`
	IncomeTax           int64 `json:"incomeTax"`
	ResidentTax         int64 `json:"residentTax"`
	OtherDeductions     int64 `json:"otherDeductions"`
	Total               int64 `json:"total"`
}

// SalarySlip is the assembled record handed to persistence and export.
type SalarySlip struct {
	CompanyName  string     `json:"companyName"`
	EmployeeName string     `json:"employeeName"`
	EmployeeID   string     `json:"employeeId"`
	PaymentDate  string     `json:"paymentDate"`
	TargetPeriod Period     `json:"targetPeriod"`
	Attendance   Attendance `json:"attendance"`
	Earnings     Earnings   `json:"earnings"`
	Deductions   Deductions `json:"deductions"`
	NetPay       int64      `json:"netPay"`
}

func (d *ExtractedSalaryData) amount(k FieldKey) **int64 {
	switch k {
	case FieldBasicSalary:
		return &d.BasicSalary
	case FieldOvertimePay:
		return &d.OvertimePay
	case FieldOvertimePayOver60:
		return &d.OvertimePayOver60
	case FieldLateNightPay:
		return &d.LateNightPay
	case FieldFixedOvertimeAllowance:
		return &d.FixedOvertimeAllowance
	case FieldExpenseReimbursement:
		return &d.ExpenseReimbursement
	case FieldCommutingAllowance:
		return &d.CommutingAllowance
	case FieldStockPurchaseIncentive:
		return &d.StockPurchaseIncentive
	case FieldTotalPayment:
		return &d.TotalPayment
	case FieldHealthInsurance:
		return &d.HealthInsurance
	case FieldWelfareInsurance:
		return &d.WelfareInsurance
	case FieldEmploymentInsurance:
		return &d.EmploymentInsurance
	case FieldIncomeTax:
		return &d.IncomeTax
	case FieldResidentTax:
		return &d.ResidentTax
	case FieldOtherDeductions:
		return &d.OtherDeductions
	case FieldTotalDeductions:
		return &d.TotalDeductions
	case FieldNetPayment:
		return &d.NetPayment
	}
	return nil
}

func (d *ExtractedSalaryData) decimal(k FieldKey) **float64 {
	switch k {
	case FieldOvertimeHours:
		return &d.OvertimeHours
	case FieldOvertimeHoursOver60:
		return &d.OvertimeHoursOver60
	case FieldLateNightHours:
		return &d.LateNightHours
	case FieldPaidLeaveDays:
		return &d.PaidLeaveDays
	}
	return nil
}

func (d *ExtractedSalaryData) text(k FieldKey) **string {
	switch k {
	case FieldCompanyName:
		return &d.CompanyName
	case FieldEmployeeName:
		return &d.EmployeeName
	case FieldEmployeeID:
		return &d.EmployeeID
	case FieldPaymentDate:
		return &d.PaymentDate
	}
	return nil
}

// Has reports whether field k was recovered.
func (d ExtractedSalaryData) Has(k FieldKey) bool {
	if p := d.amount(k); p != nil {
		return *p != nil
	}
	if p := d.decimal(k); p != nil {
		return *p != nil
	}
	if p := d.text(k); p != nil {
		return *p != nil
	}
	return false
}

// IsEmpty reports whether no field at all was recovered.
func (d ExtractedSalaryData) IsEmpty() bool {
	return d.Count() == 0
}

// Count returns the number of recovered fields, the pay period counting once.
func (d ExtractedSalaryData) Count() int {
	n := 0
	for _, k := range allFields {
		if d.Has(k) {
			n++
		}
	}
	if d.PeriodStart != nil {
		n++
	}
	return n
}

var allFields = []FieldKey{
	FieldCompanyName, FieldEmployeeName, FieldEmployeeID, FieldPaymentDate,
	FieldOvertimeHours, FieldOvertimeHoursOver60, FieldLateNightHours, FieldPaidLeaveDays,
	FieldBasicSalary, FieldOvertimePay, FieldOvertimePayOver60, FieldLateNightPay,
	FieldFixedOvertimeAllowance, FieldExpenseReimbursement, FieldCommutingAllowance,
	FieldStockPurchaseIncentive, FieldTotalPayment,
	FieldHealthInsurance, FieldWelfareInsurance, FieldEmploymentInsurance,
	FieldIncomeTax, FieldResidentTax, FieldOtherDeductions, FieldTotalDeductions,
	FieldNetPayment,
}

func ptr[T any](v T) *T { return &v }

func val[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
