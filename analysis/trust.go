package analysis

import (
	"fmt"

	"otodom_analyzer/models"
)

// BuildTrust evaluates the trust checklist. Checks that cannot be computed
// from the available data are left out rather than failed.
func BuildTrust(s Signals) *models.TrustBreakdown {
	checks := []models.TrustCheck{
		pricingClarity(s),
		depositSpecified(s),
		{
			Category: "consistency",
			Label:    "No price contradiction",
			Passed:   !s.hasInconsistency(models.InconsistencyDepositMismatch),
			Detail:   "Deposit in listing data matches the description",
		},
		{
			Category: "description",
			Label:    "Detailed description",
			Passed:   s.DescriptionLength >= minDescriptionLength,
			Detail:   fmt.Sprintf("%d characters", s.DescriptionLength),
		},
		{
			Category: "availability",
			Label:    "Availability date specified",
			Passed:   s.AvailableFrom != "",
			Detail:   availabilityDetail(s.AvailableFrom),
		},
	}

	if s.Rent != nil && s.Deposit != nil {
		checks = append(checks, models.TrustCheck{
			Category: "pricing",
			Label:    "Reasonable deposit",
			Passed:   *s.Deposit <= 2*(*s.Rent),
			Detail:   fmt.Sprintf("Deposit %d PLN vs rent %d PLN", *s.Deposit, *s.Rent),
		})
	}

	if ppa := s.PricePerArea(); ppa != nil {
		checks = append(checks, models.TrustCheck{
			Category: "pricing",
			Label:    "Price per m² within market range",
			Passed:   *ppa >= minPricePerArea && *ppa <= maxPricePerArea,
			Detail:   fmt.Sprintf("%.0f PLN/m² (expected %d-%d)", *ppa, minPricePerArea, maxPricePerArea),
		})
	}

	if s.RegistrationNoted {
		checks = append(checks, models.TrustCheck{
			Category: "legal",
			Label:    "Registration allowed",
			Passed:   s.Registration != models.No,
			Detail:   registrationDetail(s.Registration),
		})
	}

	tb := &models.TrustBreakdown{Checks: checks, Total: len(checks)}
	for _, c := range checks {
		if c.Passed {
			tb.Passed++
		}
	}
	tb.Percentage = roundHalfUp(100*tb.Passed, tb.Total)
	tb.Level = trustLevel(tb.Percentage)
	return tb
}

func pricingClarity(s Signals) models.TrustCheck {
	c := models.TrustCheck{Category: "pricing", Label: "Clear pricing"}
	switch {
	case s.Rent == nil:
		c.Detail = "Rent not specified"
	case s.AdminFee != nil:
		c.Passed = true
		c.Detail = fmt.Sprintf("Rent %d PLN + admin %d PLN", *s.Rent, *s.AdminFee)
	case s.Utilities != nil:
		c.Passed = true
		c.Detail = fmt.Sprintf("Rent %d PLN, utilities %d-%d PLN per person", *s.Rent, s.Utilities.Min, s.Utilities.Max)
	default:
		c.Detail = "Admin fee and utilities not specified"
	}
	return c
}

func depositSpecified(s Signals) models.TrustCheck {
	c := models.TrustCheck{Category: "pricing", Label: "Deposit specified", Passed: s.Deposit != nil}
	if c.Passed {
		c.Detail = fmt.Sprintf("%d PLN", *s.Deposit)
	} else {
		c.Detail = "Deposit not specified"
	}
	return c
}

func availabilityDetail(from string) string {
	if from == "" {
		return "Not specified"
	}
	return "Available from " + from
}

func registrationDetail(t models.Tristate) string {
	switch t {
	case models.Yes:
		return "Registration possible"
	case models.No:
		return "Registration not possible"
	}
	return "Registration mentioned, terms unclear"
}

func trustLevel(pct int) string {
	switch {
	case pct < 50:
		return models.TrustLow
	case pct < 75:
		return models.TrustMedium
	default:
		return models.TrustHigh
	}
}
