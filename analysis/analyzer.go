package analysis

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"otodom_analyzer/models"
)

// Analyzer runs the description-mining and scoring pipeline. It holds no
// per-request state and is safe for concurrent use.
type Analyzer struct {
	policy AdminFeePolicy
}

// NewAnalyzer creates an analyzer using the given admin fee policy
func NewAnalyzer(policy AdminFeePolicy) *Analyzer {
	if policy.Resolve == nil {
		policy = TrustStructured
	}
	return &Analyzer{policy: policy}
}

// Analyze produces the enriched summary for one listing
func (a *Analyzer) Analyze(in models.ListingInput) *models.Summary {
	buf := ScanBuffer(in.Text)
	ext := ExtractAmounts(buf)
	flags := ClassifyPolicies(buf)
	rec := Reconcile(in.Fields, ext, flags, a.policy)
	incs := DetectInconsistencies(in.Fields, ext, flags)
	util := ext.UtilityEstimate()

	sig := Signals{
		Rent:              in.Fields.Rent,
		Deposit:           rec.Deposit,
		AdminFee:          rec.AdminFee,
		Total:             rec.Total,
		Area:              in.Fields.Area,
		Utilities:         util,
		DescriptionLength: descriptionLength(in.Text),
		AvailableFrom:     strings.TrimSpace(in.Fields.AvailableFrom),
		NotaryRequired:    flags.NotaryRequired,
		Registration:      flags.Registration,
		RegistrationNoted: flags.RegistrationMentioned,
		Inconsistencies:   incs,
	}

	fees := additionalFees(ext)
	summary := &models.Summary{
		TrueDepositPLN:      rec.Deposit,
		TrueAdminPLN:        rec.AdminFee,
		TrueTotalPLN:        rec.Total,
		PricePerArea:        roundedPricePerArea(sig),
		HiddenUtilities:     util,
		AdditionalFees:      fees,
		AdditionalFeesTotal: ext.FeesTotal(),
		HasMeteredFees:      ext.Metered,
		MeteredFeeTypes:     nonNil(ext.MeteredCategories),
		AdvertiserType:      rec.AdvertiserType,
		AdminFeePolicy:      a.policy.Name,
		DescriptionAnalysis: models.DescriptionAnalysis{
			Inconsistencies:     incs,
			ImportantNotes:      importantNotes(flags, ext),
			ContractTerms:       models.ContractTerms{MinimumMonths: flags.ContractMinimumMonths},
			NotaryInfo:          models.NotaryInfo{Required: flags.NotaryRequired, OwnerSharePercent: flags.NotaryOwnerSharePercent},
			RegistrationAllowed: flags.Registration.Bool(),
			ExtractedAmounts:    ext.Amounts(),
		},
		Risk:           ScoreRisk(sig),
		TrustBreakdown: BuildTrust(sig),
	}
	summary.Insights = insights(in.Fields, summary)
	return summary
}

func descriptionLength(text models.ListingText) int {
	s := strings.TrimSpace(text.Source)
	if s == "" {
		s = strings.TrimSpace(text.Target)
	}
	return utf8.RuneCountInString(s)
}

func roundedPricePerArea(s Signals) *float64 {
	ppa := s.PricePerArea()
	if ppa == nil {
		return nil
	}
	v := math.Round(*ppa*100) / 100
	return &v
}

func additionalFees(ext *Extraction) []models.AdditionalFee {
	fees := make([]models.AdditionalFee, 0, len(ext.Fees))
	for _, f := range ext.Fees {
		fees = append(fees, models.AdditionalFee{
			Type:    string(f.Kind),
			Label:   feeLabel(f.Kind),
			Amount:  f.Value,
			Context: f.RawContext,
		})
	}
	return fees
}

func feeLabel(kind models.AmountKind) string {
	for _, r := range feeRules {
		if r.kind == kind {
			return r.label
		}
	}
	return string(kind)
}

func importantNotes(flags models.PolicyFlags, ext *Extraction) []string {
	notes := []string{}

	if flags.ContractMinimumMonths != nil {
		notes = append(notes, fmt.Sprintf("Minimum contract length: %d months", *flags.ContractMinimumMonths))
	}
	if flags.NotaryRequired {
		if flags.NotaryOwnerSharePercent != nil {
			notes = append(notes, fmt.Sprintf("Notarial deed required, owner covers %d%% of the cost", *flags.NotaryOwnerSharePercent))
		} else {
			notes = append(notes, "Notarial deed required (najem okazjonalny), tenant may bear the cost")
		}
	}
	switch flags.Registration {
	case models.Yes:
		notes = append(notes, "Address registration (zameldowanie) is possible")
	case models.No:
		notes = append(notes, "Address registration (zameldowanie) is not possible")
	}
	if ext.Metered {
		if len(ext.MeteredCategories) > 0 {
			notes = append(notes, "Billed by meter: "+strings.Join(ext.MeteredCategories, ", "))
		} else {
			notes = append(notes, "Some utilities are billed by meter")
		}
	}
	for _, n := range []string{flags.PetPolicy, flags.SmokingPolicy, flags.StudentPolicy} {
		if n != "" {
			notes = append(notes, n)
		}
	}
	return notes
}

func insights(fields models.StructuredFields, s *models.Summary) []string {
	out := []string{}

	if s.TrueDepositPLN != nil && fields.Deposit != nil && *s.TrueDepositPLN > *fields.Deposit {
		out = append(out, fmt.Sprintf("Description states a higher deposit (%d PLN) than the listing data (%d PLN)", *s.TrueDepositPLN, *fields.Deposit))
	}
	if s.TrueDepositPLN != nil && fields.Deposit == nil {
		out = append(out, fmt.Sprintf("Deposit of %d PLN found only in the description", *s.TrueDepositPLN))
	}
	if u := s.HiddenUtilities; u != nil {
		if u.Min == u.Max {
			out = append(out, fmt.Sprintf("Utilities of about %d PLN per person are not included in the price", u.Avg))
		} else {
			out = append(out, fmt.Sprintf("Utilities of %d-%d PLN per person (avg %d) are not included in the price", u.Min, u.Max, u.Avg))
		}
	}
	if s.AdditionalFeesTotal > 0 {
		out = append(out, fmt.Sprintf("Additional monthly fees of %d PLN mentioned in the description", s.AdditionalFeesTotal))
	}
	if s.TrueTotalPLN != nil {
		out = append(out, fmt.Sprintf("Total monthly cost: %d PLN", *s.TrueTotalPLN))
	}
	if s.PricePerArea != nil {
		out = append(out, fmt.Sprintf("Price per m²: %.0f PLN", *s.PricePerArea))
	}
	switch s.AdvertiserType {
	case models.AdvertiserAgency:
		out = append(out, "Listed by an agency, a commission may apply")
	case models.AdvertiserPrivate:
		out = append(out, "Listed by a private owner")
	}
	if s.DescriptionAnalysis.NotaryInfo.Required {
		out = append(out, "A notarial deed adds a one-off cost at signing")
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
