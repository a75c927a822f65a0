package analysis

import (
	"fmt"
	"sort"

	"otodom_analyzer/models"
)

// adminFeeFloor is the structured admin fee below which the field is treated as effectively unset
const adminFeeFloor = 10

// AdminFeePolicy decides the true admin fee from the structured value and the
// utility band found in the description.
type AdminFeePolicy struct {
	Name    string
	Resolve func(structured *int, utilities *models.UtilityEstimate) *int
}

// Admin fee policies
var (
	// TrustStructured keeps the structured admin fee and reports utilities separately
	TrustStructured = AdminFeePolicy{
		Name: "structured",
		Resolve: func(structured *int, _ *models.UtilityEstimate) *int {
			return structured
		},
	}

	// SubstituteMissing uses the utility average only when no admin fee is published
	SubstituteMissing = AdminFeePolicy{
		Name: "substitute_missing",
		Resolve: func(structured *int, utilities *models.UtilityEstimate) *int {
			if structured == nil && utilities != nil {
				return intPtr(utilities.Avg)
			}
			return structured
		},
	}

	// SubstituteBelowFloor also replaces a published admin fee that is trivially small
	SubstituteBelowFloor = AdminFeePolicy{
		Name: "substitute_below_floor",
		Resolve: func(structured *int, utilities *models.UtilityEstimate) *int {
			if utilities != nil && adminUnset(structured) {
				return intPtr(utilities.Avg)
			}
			return structured
		},
	}
)

var adminFeePolicies = map[string]AdminFeePolicy{
	TrustStructured.Name:      TrustStructured,
	SubstituteMissing.Name:    SubstituteMissing,
	SubstituteBelowFloor.Name: SubstituteBelowFloor,
}

// PolicyByName looks up an admin fee policy. An empty name selects TrustStructured.
func PolicyByName(name string) (AdminFeePolicy, error) {
	if name == "" {
		return TrustStructured, nil
	}
	p, ok := adminFeePolicies[name]
	if !ok {
		return AdminFeePolicy{}, fmt.Errorf("unknown admin fee policy %q (known: %v)", name, PolicyNames())
	}
	return p, nil
}

// PolicyNames lists the registered admin fee policies
func PolicyNames() []string {
	names := make([]string, 0, len(adminFeePolicies))
	for name := range adminFeePolicies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reconciled holds the best-estimate figures exposed to the consumer
type Reconciled struct {
	Deposit        *int
	AdminFee       *int
	Total          *int
	AdvertiserType string
}

// Reconcile merges structured fields with what the description says.
// Description-only fees never enter the total.
func Reconcile(fields models.StructuredFields, ext *Extraction, flags models.PolicyFlags, policy AdminFeePolicy) Reconciled {
	r := Reconciled{
		Deposit:        trueDeposit(fields.Deposit, ext.Deposit),
		AdminFee:       policy.Resolve(fields.AdminFee, ext.UtilityEstimate()),
		AdvertiserType: flags.AdvertiserType,
	}

	if fields.Rent != nil {
		total := *fields.Rent
		if r.AdminFee != nil {
			total += *r.AdminFee
		}
		r.Total = &total
	}

	if fields.AdvertiserType != "" && fields.AdvertiserType != models.AdvertiserUnknown {
		r.AdvertiserType = fields.AdvertiserType
	}
	return r
}

// trueDeposit prefers the description figure only when it is higher than the structured one
func trueDeposit(structured *int, extracted *models.ExtractedAmount) *int {
	base := 0
	if structured != nil {
		base = *structured
	}
	if extracted != nil && extracted.Value > base {
		return intPtr(extracted.Value)
	}
	return structured
}

func adminUnset(admin *int) bool {
	return admin == nil || *admin < adminFeeFloor
}
