package analysis

import (
	"fmt"

	"otodom_analyzer/models"
)

const (
	minDescriptionLength = 200
	maxPricePerArea      = 150
	minPricePerArea      = 40
	minConfidence        = 40
)

// Signals is the flattened view of a listing that both scorers read
type Signals struct {
	Rent              *int
	Deposit           *int
	AdminFee          *int
	Total             *int
	Area              *float64
	Utilities         *models.UtilityEstimate
	DescriptionLength int
	AvailableFrom     string
	NotaryRequired    bool
	Registration      models.Tristate
	RegistrationNoted bool
	Inconsistencies   []models.Inconsistency
}

// PricePerArea is the total monthly cost per square metre, nil when it cannot be computed
func (s Signals) PricePerArea() *float64 {
	if s.Total == nil || s.Area == nil || *s.Area <= 0 {
		return nil
	}
	v := float64(*s.Total) / *s.Area
	return &v
}

func (s Signals) hasInconsistency(kind string) bool {
	for _, inc := range s.Inconsistencies {
		if inc.Kind == kind {
			return true
		}
	}
	return false
}

type riskRule struct {
	points int
	check  func(s Signals) (string, bool)
}

// Risk rules, each triggered independently. Points accumulate.
var riskRules = []riskRule{
	{2, func(s Signals) (string, bool) {
		if s.Rent == nil || s.Deposit == nil || *s.Deposit <= 2*(*s.Rent) {
			return "", false
		}
		return fmt.Sprintf("Deposit of %d PLN is more than twice the rent", *s.Deposit), true
	}},
	{1, func(s Signals) (string, bool) {
		// admin > 0.6 * rent
		if s.Rent == nil || s.AdminFee == nil || 5*(*s.AdminFee) <= 3*(*s.Rent) {
			return "", false
		}
		return fmt.Sprintf("Admin fee of %d PLN is high relative to the rent", *s.AdminFee), true
	}},
	{2, func(s Signals) (string, bool) {
		ppa := s.PricePerArea()
		if ppa == nil || *ppa <= maxPricePerArea {
			return "", false
		}
		return fmt.Sprintf("Price per m² (%.0f PLN) is well above the market range", *ppa), true
	}},
	{2, func(s Signals) (string, bool) {
		ppa := s.PricePerArea()
		if ppa == nil || *ppa >= minPricePerArea {
			return "", false
		}
		return fmt.Sprintf("Price per m² (%.0f PLN) is suspiciously low", *ppa), true
	}},
	{1, func(s Signals) (string, bool) {
		return "Admin fee not specified and no utility costs mentioned", s.AdminFee == nil && s.Utilities == nil
	}},
	{1, func(s Signals) (string, bool) {
		return "Deposit not specified", s.Deposit == nil
	}},
	{1, func(s Signals) (string, bool) {
		return "Description is very short", s.DescriptionLength < minDescriptionLength
	}},
	{1, func(s Signals) (string, bool) {
		return "Availability date not specified", s.AvailableFrom == ""
	}},
	{1, func(s Signals) (string, bool) {
		return "Notarial deed required (najem okazjonalny)", s.NotaryRequired
	}},
	{2, func(s Signals) (string, bool) {
		return "Registration explicitly not allowed", s.Registration == models.No
	}},
}

// ScoreRisk turns the signals into a weighted risk assessment
func ScoreRisk(s Signals) models.RiskAssessment {
	score := 0
	notes := []string{}

	for _, inc := range s.Inconsistencies {
		switch inc.Severity {
		case models.SeverityHigh:
			score += 3
		case models.SeverityMedium:
			score += 2
		}
		notes = append(notes, inc.Message)
	}

	for _, rule := range riskRules {
		if note, ok := rule.check(s); ok {
			score += rule.points
			notes = append(notes, note)
		}
	}

	return models.RiskAssessment{
		Level:      riskLevel(score),
		Score:      score,
		Confidence: max(minConfidence, 100-5*score),
		Notes:      notes,
	}
}

func riskLevel(score int) string {
	switch {
	case score >= 6:
		return models.RiskHigh
	case score >= 3:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}
