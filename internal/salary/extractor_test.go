package salary

import (
	"reflect"
	"testing"
)

const fullSlip = `株式会社サンプル商事
給与明細書
氏名：山田 太郎
社員番号：A12345
2025年1月25日支給
対象期間 12月1日〜12月31日
固定外残業時間 45:30
固定外残業時間(60時間超) 5:00
深夜割増時間 2:15
有休残日数 12.5
基本給：326,767
固定時間外手当：114,900
残業手当(60時間超)：12,500
深夜割増額：3,200
立替経費：4,600
持株会奨励金：1,000
非課税通勤費：15,000
支給合計：478,000
健康保険料：20,900
厚生年金保険料：40,260
雇用保険料：3,120
所得税：28,910
住民税：17,600
持株会拠出金：10,000
控除合計：120,790
差引支給額：357,210
`

func TestExtractSampleBlock(t *testing.T) {
	t.Parallel()

	got := Extract("基本給：326,767\n固定時間外手当：114,900\n差引支給額：429,677\n")
	if got.BasicSalary == nil || *got.BasicSalary != 326767 {
		t.Fatalf("basicSalary want=326767 got=%v", got.BasicSalary)
	}
	if got.FixedOvertimeAllowance == nil || *got.FixedOvertimeAllowance != 114900 {
		t.Fatalf("fixedOvertimeAllowance want=114900 got=%v", got.FixedOvertimeAllowance)
	}
	if got.NetPayment == nil || *got.NetPayment != 429677 {
		t.Fatalf("netPayment want=429677 got=%v", got.NetPayment)
	}
	if got.OvertimePay != nil {
		t.Fatalf("overtimePay must not match inside 固定時間外手当, got=%d", *got.OvertimePay)
	}
	if n := got.Count(); n != 3 {
		t.Fatalf("want=3 fields got=%d", n)
	}

	slip := Assemble(got)
	if slip.Earnings.BaseSalary != 326767 || slip.Earnings.FixedOvertimeAllowance != 114900 || slip.NetPay != 429677 {
		t.Fatalf("assembled slip mismatch: %+v", slip)
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	t.Parallel()

	a, b := Extract(fullSlip), Extract(fullSlip)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("extraction not deterministic:\n%+v\n%+v", a, b)
	}
}

func TestExtractFullSlip(t *testing.T) {
	t.Parallel()

	d := Extract(fullSlip)

	texts := map[string]*string{
		"株式会社サンプル商事": d.CompanyName,
		"山田 太郎":      d.EmployeeName,
		"A12345":     d.EmployeeID,
		"2025-01-25": d.PaymentDate,
		"2024-12-01": d.PeriodStart,
		"2024-12-31": d.PeriodEnd,
	}
	for want, got := range texts {
		if got == nil || *got != want {
			t.Fatalf("want=%q got=%v", want, got)
		}
	}

	hours := []struct {
		name string
		got  *float64
		want float64
	}{
		{"overtimeHours", d.OvertimeHours, 45.5},
		{"overtimeHoursOver60", d.OvertimeHoursOver60, 5},
		{"lateNightHours", d.LateNightHours, 2.25},
		{"paidLeaveDays", d.PaidLeaveDays, 12.5},
	}
	for _, h := range hours {
		if h.got == nil || *h.got != h.want {
			t.Fatalf("%s want=%v got=%v", h.name, h.want, h.got)
		}
	}

	amounts := []struct {
		name string
		got  *int64
		want int64
	}{
		{"basicSalary", d.BasicSalary, 326767},
		{"fixedOvertimeAllowance", d.FixedOvertimeAllowance, 114900},
		{"overtimePayOver60", d.OvertimePayOver60, 12500},
		{"lateNightPay", d.LateNightPay, 3200},
		{"expenseReimbursement", d.ExpenseReimbursement, 4600},
		{"stockPurchaseIncentive", d.StockPurchaseIncentive, 1000},
		{"commutingAllowance", d.CommutingAllowance, 15000},
		{"totalPayment", d.TotalPayment, 478000},
		{"healthInsurance", d.HealthInsurance, 20900},
		{"welfareInsurance", d.WelfareInsurance, 40260},
		{"employmentInsurance", d.EmploymentInsurance, 3120},
		{"incomeTax", d.IncomeTax, 28910},
		{"residentTax", d.ResidentTax, 17600},
		{"otherDeductions", d.OtherDeductions, 10000},
		{"totalDeductions", d.TotalDeductions, 120790},
		{"netPayment", d.NetPayment, 357210},
	}
	for _, a := range amounts {
		if a.got == nil || *a.got != a.want {
			t.Fatalf("%s want=%d got=%v", a.name, a.want, a.got)
		}
	}
	if d.OvertimePay != nil {
		t.Fatalf("plain overtimePay should be absent, got=%d", *d.OvertimePay)
	}
}

func TestExtractSeparatorsAndWidths(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		want int64
	}{
		{"half colon", "基本給:250,000", 250000},
		{"full colon", "基本給：250,000", 250000},
		{"half equals", "基本給=250,000円", 250000},
		{"full equals", "基本給＝２５０，０００ 円", 250000},
		{"whitespace", "基本給    250,000", 250000},
		{"newline", "基本給\n250,000", 250000},
		{"spaced glyphs", "基 本 給 250,000", 250000},
	}
	for _, c := range cases {
		d := Extract(c.text)
		if d.BasicSalary == nil || *d.BasicSalary != c.want {
			t.Fatalf("%s: want=%d got=%v", c.name, c.want, d.BasicSalary)
		}
	}
}

func TestExtractPaymentDateVariants(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want string
	}{
		{"2024(令和6)年3月25日支給", "2024-03-25"},
		{"支給日：2025/02/25", "2025-02-25"},
		{"支給年月日 2025年4月10日", "2025-04-10"},
		{"支給年月：2025年1月", "2025-01-01"},
		{"２０２５年６月２５日 支給", "2025-06-25"},
	}
	for _, c := range cases {
		d := Extract(c.text)
		if d.PaymentDate == nil || *d.PaymentDate != c.want {
			t.Fatalf("%q: want=%s got=%v", c.text, c.want, d.PaymentDate)
		}
	}
}

func TestExtractPeriodResolution(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		text       string
		start, end string
	}{
		{"same month", "2025年2月25日支給\n2月1日〜2月28日", "2025-02-01", "2025-02-28"},
		{"previous year", "2025年1月25日支給\n12月1日～12月31日", "2024-12-01", "2024-12-31"},
		{"wrapping", "2025年1月25日支給\n12月16日〜1月15日", "2024-12-16", "2025-01-15"},
		{"explicit years", "2024年12月1日〜2024年12月31日", "2024-12-01", "2024-12-31"},
	}
	for _, c := range cases {
		d := Extract(c.text)
		if d.PeriodStart == nil || d.PeriodEnd == nil || *d.PeriodStart != c.start || *d.PeriodEnd != c.end {
			t.Fatalf("%s: want=%s..%s got=%v..%v", c.name, c.start, c.end, d.PeriodStart, d.PeriodEnd)
		}
	}

	if d := Extract("12月1日〜12月31日"); d.PeriodStart != nil {
		t.Fatalf("period without any year must stay absent, got=%s", *d.PeriodStart)
	}
}

func TestExtractOver60WithoutParentheses(t *testing.T) {
	t.Parallel()

	d := Extract("残業時間 60時間超 5:00\n残業手当 60時間超 12,500\n")
	if d.OvertimePay != nil {
		t.Fatalf("overtimePay must not take the 60 of the label, got=%d", *d.OvertimePay)
	}
	if d.OvertimePayOver60 == nil || *d.OvertimePayOver60 != 12500 {
		t.Fatalf("overtimePayOver60 want=12500 got=%v", d.OvertimePayOver60)
	}
	if d.OvertimeHours != nil {
		t.Fatalf("overtimeHours must stay absent, got=%v", *d.OvertimeHours)
	}
	if d.OvertimeHoursOver60 == nil || *d.OvertimeHoursOver60 != 5 {
		t.Fatalf("overtimeHoursOver60 want=5 got=%v", d.OvertimeHoursOver60)
	}

	d = Extract("残業手当 60 時間超\n")
	if d.OvertimePay != nil {
		t.Fatalf("spaced label: overtimePay must stay absent, got=%d", *d.OvertimePay)
	}
}

func TestExtractGenericFallback(t *testing.T) {
	t.Parallel()

	d := Extract("お支払い 300,000円\n振込 240,500円\n調整 1,000円")
	if d.TotalPayment == nil || *d.TotalPayment != 300000 {
		t.Fatalf("totalPayment want=300000 got=%v", d.TotalPayment)
	}
	if d.NetPayment == nil || *d.NetPayment != 240500 {
		t.Fatalf("netPayment want=240500 got=%v", d.NetPayment)
	}
}

func TestExtractGenericFallbackSkippedWhenNamedRuleMatches(t *testing.T) {
	t.Parallel()

	d := Extract("基本給：200,000\nその他 999,999円")
	if d.TotalPayment != nil || d.NetPayment != nil {
		t.Fatalf("fallback must not run after a named match: total=%v net=%v", d.TotalPayment, d.NetPayment)
	}
}

func TestExtractNothing(t *testing.T) {
	t.Parallel()

	if d := Extract("lorem ipsum"); !d.IsEmpty() {
		t.Fatalf("want empty extraction, got %d fields", d.Count())
	}
	if d := Extract(""); !d.IsEmpty() {
		t.Fatalf("want empty extraction for empty text")
	}
}
