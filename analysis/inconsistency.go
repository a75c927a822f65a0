package analysis

import (
	"fmt"

	"otodom_analyzer/models"
)

// DetectInconsistencies compares the structured fields with the extracted
// signals. Absence alone never produces an entry.
func DetectInconsistencies(fields models.StructuredFields, ext *Extraction, flags models.PolicyFlags) []models.Inconsistency {
	out := []models.Inconsistency{}

	if fields.Deposit != nil && ext.Deposit != nil && depositMismatch(*fields.Deposit, ext.Deposit.Value) {
		d, e := *fields.Deposit, ext.Deposit.Value
		out = append(out, models.Inconsistency{
			Kind:     models.InconsistencyDepositMismatch,
			Severity: models.SeverityHigh,
			Message:  fmt.Sprintf("Deposit in listing data is %d PLN but the description says %d PLN", d, e),
			Values:   &models.InconsistencyValues{Structured: intPtr(d), Extracted: intPtr(e)},
		})
	}

	if util := ext.UtilityEstimate(); util != nil && adminUnset(fields.AdminFee) {
		msg := fmt.Sprintf("No admin fee listed, but the description mentions utilities of %d-%d PLN per person", util.Min, util.Max)
		if fields.AdminFee != nil && *fields.AdminFee > 0 {
			msg = fmt.Sprintf("Admin fee of %d PLN is implausibly low, but the description mentions utilities of %d-%d PLN per person",
				*fields.AdminFee, util.Min, util.Max)
		}
		out = append(out, models.Inconsistency{
			Kind:     models.InconsistencyHiddenUtilities,
			Severity: models.SeverityMedium,
			Message:  msg,
			Values:   &models.InconsistencyValues{Structured: fields.AdminFee, Extracted: intPtr(util.Avg)},
		})
	}

	if flags.Registration == models.No {
		out = append(out, models.Inconsistency{
			Kind:     models.InconsistencyNoRegistration,
			Severity: models.SeverityMedium,
			Message:  "Address registration (zameldowanie) is not possible",
		})
	}
	return out
}

// depositMismatch reports |e-d| > 20% of d without floating point
func depositMismatch(d, e int) bool {
	diff := e - d
	if diff < 0 {
		diff = -diff
	}
	return 5*diff > d
}
