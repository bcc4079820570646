package extraction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/akolanti/ContractIntelAPI/internal/domain/contractModel"
)

var (
	isoDatePattern = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	usDatePattern  = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	// only the lead phrase is case-insensitive so the capture stops at the first lowercase word
	governingLawPattern = regexp.MustCompile(`(?i:governed?\s+by\s+the\s+laws?\s+of)\s+(?:the\s+)?([A-Z][a-z]+(?:\s+(?:of\s+)?[A-Z][a-z]+)*)`)
	amountPattern       = regexp.MustCompile(`(?:\b(USD|EUR|GBP)\s?|([$€£]))(\d{1,3}(?:,\d{3})+|\d+)(?:\.(\d{1,2}))?`)
	liabilityWord       = regexp.MustCompile(`(?i)\bliabilit(y|ies)\b|\bliable\b`)
)

var symbolCurrency = map[string]string{"$": "USD", "€": "EUR", "£": "GBP"}

// fallbackFields pulls what it can out of the text with patterns. found is false when nothing matched.
func fallbackFields(text string) (fields contractModel.Fields, found bool) {
	if date := firstDate(text); date != "" {
		fields.EffectiveDate = &date
		found = true
	}
	if m := governingLawPattern.FindStringSubmatch(text); m != nil {
		law := strings.TrimSpace(m[1])
		fields.GoverningLaw = &law
		found = true
	}
	if loc := amountPattern.FindStringSubmatchIndex(text); loc != nil {
		sentence := sentenceAround(text, loc[0], loc[1])
		if liabilityWord.MatchString(sentence) {
			amount, currency := parseAmount(text, loc)
			fields.LiabilityCap = &contractModel.LiabilityCap{Amount: &amount, Currency: &currency}
		} else {
			fields.PaymentTerms = &sentence
		}
		found = true
	}
	return fields, found
}

// firstDate returns the earliest valid date in text, normalised to YYYY-MM-DD.
func firstDate(text string) string {
	type candidate struct {
		at   int
		date string
	}
	var best *candidate
	consider := func(at int, date string) {
		if best == nil || at < best.at {
			best = &candidate{at, date}
		}
	}

	for _, m := range isoDatePattern.FindAllStringSubmatchIndex(text, -1) {
		if d, ok := normaliseDate(text[m[2]:m[3]], text[m[4]:m[5]], text[m[6]:m[7]]); ok {
			consider(m[0], d)
			break
		}
	}
	for _, m := range usDatePattern.FindAllStringSubmatchIndex(text, -1) {
		if d, ok := normaliseDate(text[m[6]:m[7]], text[m[2]:m[3]], text[m[4]:m[5]]); ok {
			consider(m[0], d)
			break
		}
	}
	if best == nil {
		return ""
	}
	return best.date
}

func normaliseDate(year, month, day string) (string, bool) {
	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	s := fmt.Sprintf("%04d-%02d-%02d", y, m, d)
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return "", false
	}
	return s, true
}

// NormaliseDate accepts YYYY-MM-DD or MM/DD/YYYY and returns YYYY-MM-DD.
func NormaliseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if m := isoDatePattern.FindStringSubmatch(s); m != nil && m[0] == s {
		return normaliseDate(m[1], m[2], m[3])
	}
	if m := usDatePattern.FindStringSubmatch(s); m != nil && m[0] == s {
		return normaliseDate(m[3], m[1], m[2])
	}
	return "", false
}

func parseAmount(text string, loc []int) (float64, string) {
	currency := "USD"
	if loc[2] >= 0 {
		currency = text[loc[2]:loc[3]]
	} else if loc[4] >= 0 {
		currency = symbolCurrency[text[loc[4]:loc[5]]]
	}
	num := strings.ReplaceAll(text[loc[6]:loc[7]], ",", "")
	if loc[8] >= 0 {
		num += "." + text[loc[8]:loc[9]]
	}
	amount, _ := strconv.ParseFloat(num, 64)
	return amount, currency
}

// sentenceAround widens [start,end) to the enclosing sentence. Periods inside the
// match (decimal amounts) are never treated as boundaries.
func sentenceAround(text string, start, end int) string {
	from := 0
	if i := strings.LastIndexAny(text[:start], ".\n"); i >= 0 {
		from = i + 1
	}
	to := len(text)
	if i := strings.IndexAny(text[end:], ".\n"); i >= 0 {
		to = end + i + 1
	}
	return strings.TrimSpace(text[from:to])
}
