package salary

import "regexp"

// ValueKind selects how a rule's capture group is normalized.
type ValueKind int

const (
	KindAmount ValueKind = iota // integer yen
	KindHours                   // HH:MM -> fractional hours
	KindDays                    // decimal days
	KindText                    // trimmed string
	KindCode                    // alphanumeric identifier, full-width folded
	KindDate                    // groups: year, month, optional day
)

// PatternRule maps one compiled pattern onto one field. The value is the first
// capture group, or groups 1-3 for KindDate.
type PatternRule struct {
	Field   FieldKey
	Pattern *regexp.Regexp
	Kind    ValueKind
	// NotAfter rejects a match immediately preceded by this text.
	NotAfter string
	// NotBefore rejects a match followed by this text, ignoring spaces.
	NotBefore string
}

const (
	sep    = `[：:＝=\s]*`
	num    = `[0-9０-９]`
	amount = `(` + num + `[0-9,，０-９]*)`
	clock  = `(` + num + `{1,3}\s*[:：]\s*` + num + `{1,2})`
	days   = `(` + num + `+(?:[.．]` + num + `+)?)`
	ymSep  = `\s*[年/\-.．／]\s*`
	mdSep  = `\s*[月/\-.．／]\s*`
	over60 = `\s*[（(]?\s*[6６][0０]\s*時間超\s*[）)]?`

	overLimit = "時間超"
)

func money(field FieldKey, label, notAfter string) PatternRule {
	return PatternRule{Field: field, Pattern: regexp.MustCompile(label + sep + amount), Kind: KindAmount, NotAfter: notAfter}
}

func hours(field FieldKey, label string) PatternRule {
	return PatternRule{Field: field, Pattern: regexp.MustCompile(label + sep + clock), Kind: KindHours}
}

func (r PatternRule) notBefore(s string) PatternRule {
	r.NotBefore = s
	return r
}

// Rules is the label table, grouped the way a slip prints its sections.
// Rules for the same field are tried in order; the first hit wins.
var Rules = []PatternRule{
	{Field: FieldCompanyName, Kind: KindText, Pattern: regexp.MustCompile(`(?:会社名|事業所名)[：:＝= \t　]*([^\n]+)`)},
	{Field: FieldCompanyName, Kind: KindText, Pattern: regexp.MustCompile(`(?m)^[ \t　]*([^\n]*?(?:株式会社|有限会社|合同会社)[^\n]*?)[ \t　]*$`)},
	{Field: FieldEmployeeName, Kind: KindText, Pattern: regexp.MustCompile(`(?m)(?:氏名|従業員名|社員名)[：:＝= \t　]*(\S+(?:[ 　]\S+)?)[ \t　]*(?:様|殿)?[ \t　]*$`)},
	{Field: FieldEmployeeName, Kind: KindText, Pattern: regexp.MustCompile(`(?m)^[ \t　]*(\S+(?:[ 　]\S+)?)[ \t　]*(?:様|殿)[ \t　]*$`)},
	{Field: FieldEmployeeID, Kind: KindCode, Pattern: regexp.MustCompile(`(?:社員番号|従業員番号|社員コード|従業員コード|社員No\.?)` + sep + `([A-Za-z0-9Ａ-Ｚａ-ｚ０-９]+)`)},

	{Field: FieldPaymentDate, Kind: KindDate, Pattern: regexp.MustCompile(`(` + num + `{4})\s*(?:[（(][^）)\n]*[）)])?\s*年\s*(` + num + `{1,2})\s*月\s*(` + num + `{1,2})\s*日\s*支給`)},
	{Field: FieldPaymentDate, Kind: KindDate, Pattern: regexp.MustCompile(`(?:支給年月日|支払年月日|支給日|支払日)` + sep + `(` + num + `{4})` + ymSep + `(` + num + `{1,2})` + mdSep + `(` + num + `{1,2})`)},
	{Field: FieldPaymentDate, Kind: KindDate, Pattern: regexp.MustCompile(`(?:支給年月|支払年月|給与年月|対象年月)` + sep + `(` + num + `{4})` + ymSep + `(` + num + `{1,2})()`)},

	hours(FieldOvertimeHours, `(?:固定外残業時間|残業時間|時間外労働時間)`).notBefore(overLimit),
	hours(FieldOvertimeHoursOver60, `(?:残業時間|時間外労働時間)`+over60),
	hours(FieldLateNightHours, `深夜(?:割増|労働)?時間`),
	{Field: FieldPaidLeaveDays, Kind: KindDays, Pattern: regexp.MustCompile(`有[給休](?:休暇)?残(?:日数)?` + sep + days)},

	money(FieldBasicSalary, `基本給`, ""),
	money(FieldFixedOvertimeAllowance, `固定(?:時間外|残業)手当`, ""),
	money(FieldOvertimePay, `(?:残業手当|時間外(?:勤務)?手当|超過勤務手当)`, "固定").notBefore(overLimit),
	money(FieldOvertimePayOver60, `(?:残業|時間外)手当`+over60, ""),
	money(FieldLateNightPay, `深夜(?:割増)?(?:手当|額)`, ""),
	money(FieldExpenseReimbursement, `立替(?:経費|金)`, ""),
	money(FieldCommutingAllowance, `(?:非課税)?(?:通勤|交通)(?:手当|費)`, ""),
	money(FieldStockPurchaseIncentive, `持株会?奨励金`, ""),
	money(FieldTotalPayment, `(?:総支給額?|支給合計額?|支給額合計|支給額計)`, ""),

	money(FieldHealthInsurance, `健康保険料?`, ""),
	money(FieldWelfareInsurance, `厚生年金(?:保険料?)?`, ""),
	money(FieldEmploymentInsurance, `雇用保険料?`, ""),
	money(FieldIncomeTax, `所得税`, ""),
	money(FieldResidentTax, `住民税`, ""),
	money(FieldOtherDeductions, `(?:持株会?拠出金|その他控除)`, ""),
	money(FieldTotalDeductions, `(?:控除合計額?|控除額合計|控除額計|総控除額?|控除計)`, ""),

	money(FieldNetPayment, `(?:差引支給額?|差引額|実支給額|手取り?額?)`, ""),
}

// anyAmount is the generic fallback used only when no named rule matched.
var anyAmount = regexp.MustCompile(amount + `\s*円`)

// periodPattern captures an optional start year, start month/day, optional end
// year, end month/day: "12月1日〜12月31日", "2024年12月1日～2024年12月31日".
var periodPattern = regexp.MustCompile(
	`(?:(` + num + `{4})\s*年\s*)?(` + num + `{1,2})\s*月\s*(` + num + `{1,2})\s*日[^0-9０-９\n]{0,4}?[〜～~－\-][^0-9０-９\n]{0,4}?` +
		`(?:(` + num + `{4})\s*年\s*)?(` + num + `{1,2})\s*月\s*(` + num + `{1,2})\s*日`)
