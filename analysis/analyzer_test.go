package analysis

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
	"testing"

	"otodom_analyzer/models"
)

func analyze(pl string, fields models.StructuredFields) *models.Summary {
	return NewAnalyzer(TrustStructured).Analyze(models.ListingInput{
		Text:   models.ListingText{Source: pl},
		Fields: fields,
	})
}

func TestAnalyze_DepositMismatch(t *testing.T) {
	s := analyze("Deposit: 4500 PLN, refundable.", models.StructuredFields{
		Rent:    intPtr(3000),
		Deposit: intPtr(3000),
	})

	if s.TrueDepositPLN == nil || *s.TrueDepositPLN != 4500 {
		t.Fatalf("expected true deposit 4500, got %v", deref(s.TrueDepositPLN))
	}
	incs := s.DescriptionAnalysis.Inconsistencies
	if len(incs) != 1 {
		t.Fatalf("expected 1 inconsistency, got %+v", incs)
	}
	if incs[0].Kind != models.InconsistencyDepositMismatch || incs[0].Severity != models.SeverityHigh {
		t.Fatalf("unexpected inconsistency %+v", incs[0])
	}
	if !strings.Contains(incs[0].Message, "3000") || !strings.Contains(incs[0].Message, "4500") {
		t.Fatalf("message should cite both deposits: %q", incs[0].Message)
	}
	// mismatch 3, admin unset 1, short description 1, availability unset 1
	if s.Risk.Score != 6 || s.Risk.Level != models.RiskHigh || s.Risk.Confidence != 70 {
		t.Fatalf("unexpected risk %+v", s.Risk)
	}
	if s.TrueTotalPLN == nil || *s.TrueTotalPLN != 3000 {
		t.Fatalf("expected total 3000, got %v", deref(s.TrueTotalPLN))
	}
}

func TestAnalyze_HiddenUtilities(t *testing.T) {
	s := analyze("Media ok. 100-150 zł na osobę miesięcznie", models.StructuredFields{
		Rent:    intPtr(2800),
		Deposit: intPtr(2800),
	})

	want := &models.UtilityEstimate{Min: 100, Max: 150, Avg: 125}
	if !reflect.DeepEqual(s.HiddenUtilities, want) {
		t.Fatalf("expected %+v, got %+v", want, s.HiddenUtilities)
	}
	incs := s.DescriptionAnalysis.Inconsistencies
	if len(incs) != 1 || incs[0].Kind != models.InconsistencyHiddenUtilities || incs[0].Severity != models.SeverityMedium {
		t.Fatalf("expected hidden_utilities, got %+v", incs)
	}
	if s.TrueAdminPLN != nil {
		t.Fatalf("structured policy must not fold utilities into admin, got %d", *s.TrueAdminPLN)
	}
	if s.AdminFeePolicy != TrustStructured.Name {
		t.Fatalf("unexpected policy %q", s.AdminFeePolicy)
	}
}

func TestAnalyze_NoRegistration(t *testing.T) {
	base := analyze("Mieszkanie na wynajem", models.StructuredFields{})
	s := analyze("Mieszkanie bez zameldowania", models.StructuredFields{})

	ra := s.DescriptionAnalysis.RegistrationAllowed
	if ra == nil || *ra {
		t.Fatalf("expected registrationAllowed=false, got %v", ra)
	}
	incs := s.DescriptionAnalysis.Inconsistencies
	if len(incs) != 1 || incs[0].Kind != models.InconsistencyNoRegistration {
		t.Fatalf("expected no_registration, got %+v", incs)
	}
	// Both rules fire: the medium no_registration inconsistency (+2) and the
	// disallowed-registration rule (+2). See DESIGN.md, Open Question 2.
	if s.Risk.Score != base.Risk.Score+4 {
		t.Fatalf("expected score %d, got %d", base.Risk.Score+4, s.Risk.Score)
	}
}

func TestAnalyze_NoRegistrationInTranslation(t *testing.T) {
	s := NewAnalyzer(TrustStructured).Analyze(models.ListingInput{
		Text: models.ListingText{Target: "The apartment is rented without the possibility of registration."},
	})

	ra := s.DescriptionAnalysis.RegistrationAllowed
	if ra == nil || *ra {
		t.Fatalf("expected registrationAllowed=false, got %v", ra)
	}
	incs := s.DescriptionAnalysis.Inconsistencies
	if len(incs) != 1 || incs[0].Kind != models.InconsistencyNoRegistration {
		t.Fatalf("expected no_registration, got %+v", incs)
	}
}

func TestAnalyze_Empty(t *testing.T) {
	s := analyze("", models.StructuredFields{})

	if len(s.DescriptionAnalysis.Inconsistencies) != 0 {
		t.Fatalf("expected no inconsistencies, got %+v", s.DescriptionAnalysis.Inconsistencies)
	}
	if s.Risk.Score != 4 || s.Risk.Level != models.RiskMedium || s.Risk.Confidence != 80 {
		t.Fatalf("unexpected risk %+v", s.Risk)
	}
	if s.TrueDepositPLN != nil || s.TrueAdminPLN != nil || s.TrueTotalPLN != nil || s.HiddenUtilities != nil {
		t.Fatalf("expected no true values, got %+v", s)
	}
	if s.AdvertiserType != models.AdvertiserUnknown {
		t.Fatalf("expected unknown advertiser, got %s", s.AdvertiserType)
	}
	if s.DescriptionAnalysis.RegistrationAllowed != nil {
		t.Fatalf("expected unknown registration")
	}
}

func TestAnalyze_EmptyJSONShape(t *testing.T) {
	data, err := json.Marshal(analyze("", models.StructuredFields{}))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		`"trueDepositPLN":null`,
		`"additionalFees":[]`,
		`"meteredFeeTypes":[]`,
		`"inconsistencies":[]`,
		`"registrationAllowed":null`,
		`"insights":[]`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestAnalyze_FeesStayOutOfTotal(t *testing.T) {
	s := analyze("Internet + TV 100 zł. Miejsce parkingowe 250 zł. Prąd i woda według liczników.", models.StructuredFields{
		Rent:     intPtr(3000),
		AdminFee: intPtr(600),
	})

	if s.TrueTotalPLN == nil || *s.TrueTotalPLN != 3600 {
		t.Fatalf("expected total 3600, got %v", deref(s.TrueTotalPLN))
	}
	if len(s.AdditionalFees) != 2 || s.AdditionalFeesTotal != 350 {
		t.Fatalf("unexpected fees %+v (total %d)", s.AdditionalFees, s.AdditionalFeesTotal)
	}
	if s.AdditionalFees[0].Label != "Internet + TV" || s.AdditionalFees[1].Label != "Parking" {
		t.Fatalf("unexpected fee labels %+v", s.AdditionalFees)
	}
	if !s.HasMeteredFees {
		t.Fatalf("expected metered fees")
	}
	want := []string{models.MeteredElectricity, models.MeteredWater}
	if !reflect.DeepEqual(s.MeteredFeeTypes, want) {
		t.Fatalf("expected metered types %v, got %v", want, s.MeteredFeeTypes)
	}
}

func TestAnalyze_SubstitutePolicy(t *testing.T) {
	a := NewAnalyzer(SubstituteMissing)
	s := a.Analyze(models.ListingInput{
		Text:   models.ListingText{Source: "Media ok. 100-150 zł na osobę miesięcznie"},
		Fields: models.StructuredFields{Rent: intPtr(3000)},
	})
	if s.TrueAdminPLN == nil || *s.TrueAdminPLN != 125 {
		t.Fatalf("expected substituted admin 125, got %v", deref(s.TrueAdminPLN))
	}
	if s.TrueTotalPLN == nil || *s.TrueTotalPLN != 3125 {
		t.Fatalf("expected total 3125, got %v", deref(s.TrueTotalPLN))
	}
	// the inconsistency is reported regardless of policy
	if len(s.DescriptionAnalysis.Inconsistencies) != 1 {
		t.Fatalf("expected hidden_utilities, got %+v", s.DescriptionAnalysis.Inconsistencies)
	}
}

func TestAnalyze_ImportantNotes(t *testing.T) {
	s := analyze("Najem okazjonalny. Umowa na minimum 12 miesięcy. Zameldowanie możliwe. Bez zwierząt.", models.StructuredFields{})

	notes := s.DescriptionAnalysis.ImportantNotes
	want := []string{
		"Minimum contract length: 12 months",
		"Notarial deed required (najem okazjonalny), tenant may bear the cost",
		"Address registration (zameldowanie) is possible",
		"No pets allowed",
	}
	if !reflect.DeepEqual(notes, want) {
		t.Fatalf("expected notes %v, got %v", want, notes)
	}
	if !s.DescriptionAnalysis.NotaryInfo.Required {
		t.Fatalf("expected notary info")
	}
	if m := s.DescriptionAnalysis.ContractTerms.MinimumMonths; m == nil || *m != 12 {
		t.Fatalf("expected 12 month minimum, got %v", deref(m))
	}
}

func TestAnalyze_TranslationOnly(t *testing.T) {
	s := NewAnalyzer(TrustStructured).Analyze(models.ListingInput{
		Text:   models.ListingText{Target: "Deposit 5000 PLN. No registration."},
		Fields: models.StructuredFields{Rent: intPtr(2500)},
	})
	if s.TrueDepositPLN == nil || *s.TrueDepositPLN != 5000 {
		t.Fatalf("expected deposit from the English text, got %v", deref(s.TrueDepositPLN))
	}
	if ra := s.DescriptionAnalysis.RegistrationAllowed; ra == nil || *ra {
		t.Fatalf("expected registration disallowed")
	}
}

func TestAnalyze_Concurrent(t *testing.T) {
	a := NewAnalyzer(TrustStructured)
	in := models.ListingInput{
		Text:   models.ListingText{Source: "Kaucja 4000 zł. Media ok. 100-150 zł na osobę miesięcznie. Bez zameldowania."},
		Fields: models.StructuredFields{Rent: intPtr(3000), Deposit: intPtr(3000)},
	}
	want := a.Analyze(in)

	var wg sync.WaitGroup
	results := make([]*models.Summary, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = a.Analyze(in)
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("result %d differs from sequential run", i)
		}
	}
}
