package evaluation

// LeadPrecisionRecall treats "a lead was produced" as the positive prediction.
// Precision is 0 when nothing was predicted and recall is 0 when nothing was expected.
func LeadPrecisionRecall(results []EvalResult) (precision, recall float64) {
	var truePositive, predicted, expected int
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		if r.GotLead {
			predicted++
		}
		if r.ExpectLead {
			expected++
		}
		if r.GotLead && r.ExpectLead {
			truePositive++
		}
	}

	if predicted > 0 {
		precision = float64(truePositive) / float64(predicted)
	}
	if expected > 0 {
		recall = float64(truePositive) / float64(expected)
	}
	return precision, recall
}

// Rate returns count/total, or 0 when total is 0.
func Rate(count, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(count) / float64(total)
}
