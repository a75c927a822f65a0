package models

// AmountKind identifies what a number found in the description stands for
type AmountKind string

const (
	AmountDeposit     AmountKind = "deposit"
	AmountUtility     AmountKind = "utility"
	AmountFeeInternet AmountKind = "fee-internet"
	AmountFeeTV       AmountKind = "fee-tv"
	AmountFeeParking  AmountKind = "fee-parking"
	AmountFeeCombo    AmountKind = "fee-combo"
)

// Utility categories billed by meter
const (
	MeteredElectricity = "electricity"
	MeteredGas         = "gas"
	MeteredWater       = "water"
)

// ExtractedAmount is a monetary mention pulled out of free text
type ExtractedAmount struct {
	Kind       AmountKind `json:"kind"`
	Value      int        `json:"value"`
	RawContext string     `json:"rawContext"`
}

// UtilityEstimate is the per-person utility band stated in the description
type UtilityEstimate struct {
	Min               int      `json:"min"`
	Max               int      `json:"max"`
	Avg               int      `json:"avg"`
	IsMetered         bool     `json:"isMetered"`
	MeteredCategories []string `json:"meteredCategories,omitempty"`
}

// Tristate is a yes/no answer that may be unknown
type Tristate string

const (
	Unknown Tristate = "unknown"
	Yes     Tristate = "true"
	No      Tristate = "false"
)

// Bool returns the value as a nullable bool for JSON output
func (t Tristate) Bool() *bool {
	switch t {
	case Yes:
		v := true
		return &v
	case No:
		v := false
		return &v
	}
	return nil
}

// PolicyFlags are the binary listing attributes stated in prose
type PolicyFlags struct {
	AdvertiserType          string   `json:"advertiserType"`
	Registration            Tristate `json:"registration"`
	RegistrationMentioned   bool     `json:"registrationMentioned"`
	NotaryRequired          bool     `json:"notaryRequired"`
	NotaryOwnerSharePercent *int     `json:"notaryOwnerSharePercent,omitempty"`
	ContractMinimumMonths   *int     `json:"contractMinimumMonths,omitempty"`
	PetPolicy               string   `json:"petPolicy,omitempty"`
	SmokingPolicy           string   `json:"smokingPolicy,omitempty"`
	StudentPolicy           string   `json:"studentPolicy,omitempty"`
}

// Inconsistency kinds
const (
	InconsistencyDepositMismatch = "deposit_mismatch"
	InconsistencyHiddenUtilities = "hidden_utilities"
	InconsistencyNoRegistration  = "no_registration"
)

// Severity levels
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
)

// InconsistencyValues carries the conflicting figures, when there are any
type InconsistencyValues struct {
	Structured *int `json:"structured,omitempty"`
	Extracted  *int `json:"extracted,omitempty"`
}

// Inconsistency is a concrete conflict between structured data and the description
type Inconsistency struct {
	Kind     string               `json:"type"`
	Severity string               `json:"severity"`
	Message  string               `json:"message"`
	Values   *InconsistencyValues `json:"values,omitempty"`
}

// Risk levels
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// RiskAssessment is the weighted risk score for a listing
type RiskAssessment struct {
	Level      string   `json:"level"`
	Score      int      `json:"score"`
	Confidence int      `json:"confidence"`
	Notes      []string `json:"notes"`
}

// Trust levels
const (
	TrustLow    = "low"
	TrustMedium = "medium"
	TrustHigh   = "high"
)

// TrustCheck is one line of the trust checklist
type TrustCheck struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Passed   bool   `json:"passed"`
	Detail   string `json:"detail"`
}

// TrustBreakdown is the pass/fail checklist view of the same signals
type TrustBreakdown struct {
	Checks     []TrustCheck `json:"checks"`
	Passed     int          `json:"passed"`
	Total      int          `json:"total"`
	Percentage int          `json:"percentage"`
	Level      string       `json:"level"`
}

// AdditionalFee is a recurring fee mentioned only in the description
type AdditionalFee struct {
	Type    string `json:"type"`
	Label   string `json:"label"`
	Amount  int    `json:"amount"`
	Context string `json:"context"`
}

// NotaryInfo describes a notarial deed requirement
type NotaryInfo struct {
	Required          bool `json:"required"`
	OwnerSharePercent *int `json:"ownerPaysPercent,omitempty"`
}

// ContractTerms are the lease terms stated in the description
type ContractTerms struct {
	MinimumMonths *int `json:"minimumMonths,omitempty"`
}

// DescriptionAnalysis groups everything mined from the description
type DescriptionAnalysis struct {
	Inconsistencies     []Inconsistency   `json:"inconsistencies"`
	ImportantNotes      []string          `json:"importantNotes"`
	ContractTerms       ContractTerms     `json:"contractTerms"`
	NotaryInfo          NotaryInfo        `json:"notaryInfo"`
	RegistrationAllowed *bool             `json:"registrationAllowed"`
	ExtractedAmounts    []ExtractedAmount `json:"extractedAmounts"`
}

// Summary is the enriched output of the analysis engine
type Summary struct {
	TrueDepositPLN      *int                `json:"trueDepositPLN"`
	TrueAdminPLN        *int                `json:"trueAdminPLN"`
	TrueTotalPLN        *int                `json:"trueTotalPLN"`
	PricePerArea        *float64            `json:"pricePerM2,omitempty"`
	HiddenUtilities     *UtilityEstimate    `json:"hiddenUtilities"`
	AdditionalFees      []AdditionalFee     `json:"additionalFees"`
	AdditionalFeesTotal int                 `json:"additionalFeesTotal"`
	HasMeteredFees      bool                `json:"hasMeteredFees"`
	MeteredFeeTypes     []string            `json:"meteredFeeTypes"`
	AdvertiserType      string              `json:"advertiserType"`
	AdminFeePolicy      string              `json:"adminFeePolicy"`
	DescriptionAnalysis DescriptionAnalysis `json:"descriptionAnalysis"`
	Insights            []string            `json:"insights"`
	Risk                RiskAssessment      `json:"risk"`
	TrustBreakdown      *TrustBreakdown     `json:"trustBreakdown,omitempty"`
}
