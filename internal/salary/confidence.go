package salary

// scoredFields are the minimum a consumer needs to treat an extraction as usable.
var scoredFields = []FieldKey{FieldBasicSalary, FieldTotalPayment, FieldNetPayment, FieldPaymentDate}

// Score returns the fraction of scoredFields present in d. Advisory only.
func Score(d ExtractedSalaryData) float64 {
	n := 0
	for _, k := range scoredFields {
		if d.Has(k) {
			n++
		}
	}
	return float64(n) / float64(len(scoredFields))
}
