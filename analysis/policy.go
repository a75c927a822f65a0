package analysis

import (
	"regexp"
	"strconv"

	"otodom_analyzer/models"
)

const (
	contractMinMonths = 1
	contractMaxMonths = 36
	notaryShareWindow = 120
)

var (
	agencyRegex  = regexp.MustCompile(`\bbiur[oa]\b|agency|agencj\w*|pośrednik\w*|posrednik\w*|commission|prowizj[aeę]`)
	privateRegex = regexp.MustCompile(`private|prywatn\w*|owner|właściciel\w*|wlasciciel\w*|no commission|bez prowizji|bezpośrednio|bezposrednio`)

	registrationMention = regexp.MustCompile(`zameldow\w*|zamelduj\w*|meldun\w*|meldunk\w*|registration|register`)
	registrationDenied  = regexp.MustCompile(`bez (?:możliwości )?zameldowania|brak (?:możliwości )?zameldowania|nie ma (?:możliwości )?zameldowania|` +
		`zameldowanie (?:nie jest możliwe|niemożliwe|nie jest dostępne|wykluczone)|nie ma możliwości meldunku|` +
		`no registration|without registration|registration (?:is )?not (?:possible|allowed|available)|` +
		`(?:no|without (?:the |any )?)possibility of registration|` +
		`(?:cannot|can't|can not) (?:be )?register|not possible to register`)
	registrationAllowed = regexp.MustCompile(`możliwość zameldowania|możliwe zameldowanie|zameldowanie (?:jest )?możliwe|z możliwością zameldowania|` +
		`możliwość meldunku|registration (?:is )?(?:possible|allowed|available)|possibility of registration|` +
		`possible to register|(?:you )?can register`)

	notaryRegex      = regexp.MustCompile(`notari\w*|notary|notariz\w*|najem okazjonaln\w*|najmu okazjonaln\w*|occasional (?:lease|rental)`)
	percentRegex     = regexp.MustCompile(`(\d{1,3})\s*%`)
	notaryShareOwner = regexp.MustCompile(`właściciel\w*|wlasciciel\w*|owner|landlord|wynajmując\w*`)
)

type contractRule struct {
	re *regexp.Regexp
	// rejects "2 miesięcy czynszu" and other deposit multiples
	skipDepositTerms bool
}

// Contract minimum rules, first accepted match wins.
var contractRules = []contractRule{
	{re: regexp.MustCompile(`(?:minimum|minimaln\w*|min\.|umow\w* na|okres\w* najmu|najem na|contract for|lease (?:of|for)|contract of)[^0-9\n]{0,25}?` +
		`(\d{1,2})\s*(?:miesięc\w*|miesiąc\w*|miesiac\w*|miesiec\w*|mies\.|m-c\w*|mc\b|months?)`)},
	{re: regexp.MustCompile(`(\d{1,2})[\s-]*(?:miesięc\w*|miesiąc\w*|miesiac\w*|miesiec\w*|months?|month)[^.\n0-9]{0,25}?` +
		`(?:umow\w*|contract|minimum|lease|najm\w*|okres\w*)`), skipDepositTerms: true},
}

var depositTerms = regexp.MustCompile(`kaucj\w*|depozyt\w*|deposit|czynsz\w*|\brent\b`)

const depositTermsBefore = 25

var yearContract = regexp.MustCompile(`umow\w* na (?:1 |jeden )?rok|najem na (?:1 |jeden )?rok|(?:one|1)[- ]year (?:contract|lease)|contract for (?:one|a|1) year`)

type noteRule struct {
	re   *regexp.Regexp
	note string
}

// The first rule that matches in each group sets the note.
var (
	petRules = []noteRule{
		{regexp.MustCompile(`bez zwierząt|bez zwierzat|zwierzęta nie\w*|nie akceptuj\w* zwierząt|no pets|pets (?:are )?not allowed`), "No pets allowed"},
		{regexp.MustCompile(`zwierzęta (?:mile widziane|akceptowane|dozwolone)|akceptuj\w* zwierzęta|przyjazn\w* zwierzętom|pets? (?:are )?(?:allowed|welcome|friendly|accepted)|pet-friendly`), "Pets allowed"},
		{regexp.MustCompile(`zwierz\w*|\bpets?\b`), "Pet policy mentioned, check with the advertiser"},
	}
	smokingRules = []noteRule{
		{regexp.MustCompile(`dla niepaląc\w*|niepaląc\w*|niepalac\w*|zakaz palenia|bez palenia|no smoking|non-?smok\w*`), "Non-smokers only"},
		{regexp.MustCompile(`palenie dozwolone|smoking (?:is )?allowed|dla palących`), "Smoking allowed"},
	}
	studentRules = []noteRule{
		{regexp.MustCompile(`bez studentów|nie dla studentów|no students`), "Not available to students"},
		{regexp.MustCompile(`student\w*`), "Suitable for students"},
	}
)

// ClassifyPolicies runs the keyword detectors over the scan buffer
func ClassifyPolicies(buf string) models.PolicyFlags {
	flags := models.PolicyFlags{
		AdvertiserType: classifyAdvertiser(buf),
		Registration:   models.Unknown,
	}

	if registrationMention.MatchString(buf) {
		flags.RegistrationMentioned = true
		flags.Registration = classifyRegistration(buf)
	}

	flags.NotaryRequired, flags.NotaryOwnerSharePercent = classifyNotary(buf)
	flags.ContractMinimumMonths = findContractMinimum(buf)
	flags.PetPolicy = firstNote(buf, petRules)
	flags.SmokingPolicy = firstNote(buf, smokingRules)
	flags.StudentPolicy = firstNote(buf, studentRules)
	return flags
}

// classifyAdvertiser checks agency keywords first, so agency wins when both sets match.
func classifyAdvertiser(buf string) string {
	if agencyRegex.MatchString(buf) {
		return models.AdvertiserAgency
	}
	if privateRegex.MatchString(buf) {
		return models.AdvertiserPrivate
	}
	return models.AdvertiserUnknown
}

func classifyRegistration(buf string) models.Tristate {
	if registrationDenied.MatchString(buf) {
		return models.No
	}
	if registrationAllowed.MatchString(buf) {
		return models.Yes
	}
	return models.Unknown
}

func classifyNotary(buf string) (bool, *int) {
	matches := notaryRegex.FindAllStringIndex(buf, -1)
	if len(matches) == 0 {
		return false, nil
	}

	for _, m := range matches {
		w := window(buf, m[0], m[1], notaryShareWindow, notaryShareWindow)
		if !notaryShareOwner.MatchString(w) {
			continue
		}
		for _, pm := range percentRegex.FindAllStringSubmatch(w, -1) {
			p, err := strconv.Atoi(pm[1])
			if err != nil || p < 1 || p > 100 {
				continue
			}
			return true, &p
		}
	}
	return true, nil
}

func findContractMinimum(buf string) *int {
	for _, rule := range contractRules {
		for _, m := range rule.re.FindAllStringSubmatchIndex(buf, -1) {
			if rule.skipDepositTerms && depositTerms.MatchString(window(buf, m[0], m[1], depositTermsBefore, 0)) {
				continue
			}
			n, err := strconv.Atoi(buf[m[2]:m[3]])
			if err != nil || n < contractMinMonths || n > contractMaxMonths {
				continue
			}
			return &n
		}
	}
	if yearContract.MatchString(buf) {
		return intPtr(12)
	}
	return nil
}

func firstNote(buf string, rules []noteRule) string {
	for _, r := range rules {
		if r.re.MatchString(buf) {
			return r.note
		}
	}
	return ""
}
