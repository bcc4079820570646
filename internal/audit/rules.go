package audit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/domain/contractModel"
	"github.com/akolanti/ContractIntelAPI/internal/domain/documentModel"
)

const (
	minPaymentDays         = 15
	maxMonthlyLateFee      = 1.5
	minConfidentialityMons = 12

	// bytes either side of a day count searched for a notice phrase
	noticeReach = 30
)

var (
	unlimitedLiabilityPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)unlimited\s+liability`),
		regexp.MustCompile(`(?i)without\s+limitation\s+of\s+liability`),
		regexp.MustCompile(`(?i)no\s+cap\s+on\s+liability`),
	}
	broadIndemnityPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)indemnify.*?from\s+and\s+against\s+any\s+and\s+all`),
		regexp.MustCompile(`(?i)hold\s+harmless.*?all\s+claims`),
		regexp.MustCompile(`(?i)indemnify.*?without\s+limitation`),
	}

	autoRenewalPattern  = regexp.MustCompile(`(?i)auto(?:matic(?:ally)?)?[\s-]*renew`)
	terminationPattern  = regexp.MustCompile(`(?i)((?:\w+\s+)?\w+)\s+may\s+terminate\b[^.]{0,160}?\b(for\s+convenience|without\s+cause|at\s+any\s+time|for\s+any\s+reason)`)
	netTermsPattern     = regexp.MustCompile(`(?i)\bnet\s*(\d{1,3})\b`)
	latePercentPattern  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%\s*(per\s+month|a\s+month|monthly|each\s+month|per\s+annum|per\s+year|annually)`)
	confidentialPattern = regexp.MustCompile(`(?i)confidential`)
	survivalPattern     = regexp.MustCompile(`(?i)surviv|period|remain|for\s+a\s+term`)
	latePattern         = regexp.MustCompile(`(?i)late|overdue|past\s+due|interest`)
	paymentPattern      = regexp.MustCompile(`(?i)invoice|payment|payable|\bpaid\b|\bpay\b`)

	// a notice period reads "10 days written notice", "10 days' prior notice" or "notice of 10 days"
	noticeAfterPattern  = regexp.MustCompile(`(?i)\b(?:notice|prior|before|in\s+advance)\b`)
	noticeBeforePattern = regexp.MustCompile(`(?i)\bnotice\b`)

	// "15 days", "fifteen (15) days", "thirty calendar days"
	daysPattern     = regexp.MustCompile(`(?i)\b(\d{1,3}|[a-z]+(?:-[a-z]+)?)\s*(?:\(\d{1,3}\)\s*)?(?:calendar\s+|business\s+)?days?\b`)
	durationPattern = regexp.MustCompile(`(?i)\b(\d{1,3}|[a-z]+(?:-[a-z]+)?)\s*(?:\(\d{1,3}\)\s*)?(months?|years?)\b`)
)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7, "eight": 8,
	"nine": 9, "ten": 10, "eleven": 11, "twelve": 12, "fourteen": 14, "fifteen": 15,
	"twenty": 20, "twenty-one": 21, "thirty": 30, "forty-five": 45, "sixty": 60, "ninety": 90,
}

func parseCount(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	n, ok := numberWords[strings.ToLower(s)]
	return n, ok
}

type span struct{ start, end int }

// sentences splits on a period followed by whitespace, or on a newline.
func sentences(text string) []span {
	var out []span
	start := 0
	for i := 0; i < len(text); i++ {
		end := -1
		switch {
		case text[i] == '\n':
			end = i
		case text[i] == '.' && (i+1 == len(text) || text[i+1] == ' ' || text[i+1] == '\n' || text[i+1] == '\t'):
			end = i + 1
		}
		if end < 0 {
			continue
		}
		if strings.TrimSpace(text[start:end]) != "" {
			out = append(out, span{start, end})
		}
		start = i + 1
	}
	if strings.TrimSpace(text[start:]) != "" {
		out = append(out, span{start, len(text)})
	}
	return out
}

// ruleDetector is pure; it never fails and never calls out.
type ruleDetector struct {
	text       documentModel.Text
	extraction *contractModel.Extraction
}

func (d ruleDetector) detect() []contractModel.Finding {
	var out []contractModel.Finding
	for _, rule := range []func() (contractModel.Finding, bool){
		d.autoRenewal,
		d.unlimitedLiability,
		d.broadIndemnity,
		d.terminationImbalance,
		d.unfavorablePayment,
		d.weakConfidentiality,
	} {
		if f, ok := rule(); ok {
			f.DetectionMethod = contractModel.DetectedByRule
			out = append(out, f)
		}
	}
	return out
}

// evidence is the match widened by the evidence window, clamped to the page the match
// starts on, with page-relative offsets.
func (d ruleDetector) evidence(start, end int) contractModel.Evidence {
	body := d.text.Body
	page, pageStart, pageEnd := d.text.Page(start)
	from := max(pageStart, start-config.EvidenceWindow)
	to := max(from, min(pageEnd, end+config.EvidenceWindow))
	for from > pageStart && !utf8.RuneStart(body[from]) {
		from--
	}
	for to < pageEnd && !utf8.RuneStart(body[to]) {
		to++
	}
	charStart := from - pageStart
	charEnd := to - pageStart
	return contractModel.Evidence{
		Text:       body[from:to],
		CharStart:  &charStart,
		CharEnd:    &charEnd,
		PageNumber: &page,
	}
}

// noticeBound reports whether the day count at sentence[start:end] is the notice period
// rather than some other deadline in the same sentence.
func noticeBound(sentence string, start, end int) bool {
	after := sentence[end:min(len(sentence), end+noticeReach)]
	before := sentence[max(0, start-noticeReach):start]
	return noticeAfterPattern.MatchString(after) || noticeBeforePattern.MatchString(before)
}

func (d ruleDetector) autoRenewal() (contractModel.Finding, bool) {
	body := d.text.Body
	for _, s := range sentences(body) {
		sentence := body[s.start:s.end]
		if !autoRenewalPattern.MatchString(sentence) {
			continue
		}
		for _, m := range daysPattern.FindAllStringSubmatchIndex(sentence, -1) {
			days, ok := parseCount(sentence[m[2]:m[3]])
			if !ok || !noticeBound(sentence, m[0], m[1]) {
				continue
			}
			if days >= config.AutoRenewalMinNoticeDay {
				break
			}
			return autoRenewalFinding(days, d.evidence(s.start+m[0], s.start+m[1])), true
		}
	}

	if d.extraction == nil {
		return contractModel.Finding{}, false
	}
	ar := d.extraction.Fields.AutoRenewal
	if ar == nil || ar.Enabled == nil || !*ar.Enabled || ar.NoticeDays == nil || *ar.NoticeDays <= 0 || *ar.NoticeDays >= config.AutoRenewalMinNoticeDay {
		return contractModel.Finding{}, false
	}
	ev := contractModel.Evidence{Text: "Auto-renewal clause detected"}
	if ar.Terms != nil && *ar.Terms != "" {
		ev = locate(d.text, *ar.Terms)
	}
	return autoRenewalFinding(*ar.NoticeDays, ev), true
}

func autoRenewalFinding(days int, ev contractModel.Evidence) contractModel.Finding {
	return contractModel.Finding{
		Category:       contractModel.CategoryAutoRenewal,
		Severity:       contractModel.SeverityHigh,
		Title:          "Inadequate Auto-Renewal Notice Period",
		Description:    fmt.Sprintf("Contract auto-renews with only %d days notice, which may be insufficient.", days),
		Recommendation: "Negotiate for at least 30-60 days notice period before auto-renewal.",
		Evidence:       ev,
		RuleMatched:    "auto_renewal_notice_period",
	}
}

func (d ruleDetector) firstMatch(patterns []*regexp.Regexp) ([]int, bool) {
	for _, p := range patterns {
		if loc := p.FindStringIndex(d.text.Body); loc != nil {
			return loc, true
		}
	}
	return nil, false
}

func (d ruleDetector) unlimitedLiability() (contractModel.Finding, bool) {
	loc, ok := d.firstMatch(unlimitedLiabilityPatterns)
	if !ok {
		return contractModel.Finding{}, false
	}
	return contractModel.Finding{
		Category:       contractModel.CategoryUnlimitedLiability,
		Severity:       contractModel.SeverityCritical,
		Title:          "Unlimited Liability Exposure",
		Description:    "Contract contains unlimited liability provisions.",
		Recommendation: "Negotiate for a liability cap, typically 12-24 months of fees paid.",
		Evidence:       d.evidence(loc[0], loc[1]),
		RuleMatched:    "unlimited_liability_pattern",
	}, true
}

func (d ruleDetector) broadIndemnity() (contractModel.Finding, bool) {
	loc, ok := d.firstMatch(broadIndemnityPatterns)
	if !ok {
		return contractModel.Finding{}, false
	}
	return contractModel.Finding{
		Category:       contractModel.CategoryBroadIndemnity,
		Severity:       contractModel.SeverityHigh,
		Title:          "Overly Broad Indemnification",
		Description:    "Indemnification clause may be too broad and one-sided.",
		Recommendation: "Negotiate for mutual indemnification or limit scope to direct damages.",
		Evidence:       d.evidence(loc[0], loc[1]),
		RuleMatched:    "broad_indemnity_pattern",
	}, true
}

func (d ruleDetector) terminationImbalance() (contractModel.Finding, bool) {
	body := d.text.Body
	for _, m := range terminationPattern.FindAllStringSubmatchIndex(body, -1) {
		subject := strings.ToLower(body[m[2]:m[3]])
		if strings.Contains(subject, "either") || strings.Contains(subject, "both") || strings.Contains(subject, "each") {
			continue
		}
		return contractModel.Finding{
			Category:       contractModel.CategoryTerminationImbalance,
			Severity:       contractModel.SeverityMedium,
			Title:          "One-Sided Termination Right",
			Description:    fmt.Sprintf("Only one party (%s) may terminate %s.", strings.TrimSpace(body[m[2]:m[3]]), strings.ToLower(body[m[4]:m[5]])),
			Recommendation: "Negotiate for mutual termination rights with equal notice periods.",
			Evidence:       d.evidence(m[0], m[1]),
			RuleMatched:    "unilateral_termination_pattern",
		}, true
	}
	return contractModel.Finding{}, false
}

func (d ruleDetector) unfavorablePayment() (contractModel.Finding, bool) {
	body := d.text.Body
	for _, s := range sentences(body) {
		sentence := body[s.start:s.end]

		if m := netTermsPattern.FindStringSubmatchIndex(sentence); m != nil {
			if days, _ := strconv.Atoi(sentence[m[2]:m[3]]); days > 0 && days < minPaymentDays {
				return paymentFinding(fmt.Sprintf("Payment is due within %d days, shorter than the usual 30.", days),
					"short_payment_terms_pattern", d.evidence(s.start+m[0], s.start+m[1])), true
			}
		}
		if paymentPattern.MatchString(sentence) && !latePattern.MatchString(sentence) {
			for _, m := range daysPattern.FindAllStringSubmatchIndex(sentence, -1) {
				days, ok := parseCount(sentence[m[2]:m[3]])
				if ok && days > 0 && days < minPaymentDays {
					return paymentFinding(fmt.Sprintf("Payment is due within %d days, shorter than the usual 30.", days),
						"short_payment_terms_pattern", d.evidence(s.start+m[0], s.start+m[1])), true
				}
			}
		}
		if latePattern.MatchString(sentence) {
			for _, m := range latePercentPattern.FindAllStringSubmatchIndex(sentence, -1) {
				rate, err := strconv.ParseFloat(sentence[m[2]:m[3]], 64)
				if err != nil {
					continue
				}
				period := strings.ToLower(sentence[m[4]:m[5]])
				if strings.Contains(period, "annum") || strings.Contains(period, "year") || strings.Contains(period, "annual") {
					rate /= 12
				}
				if rate > maxMonthlyLateFee {
					return paymentFinding(fmt.Sprintf("Late payment charge of %.2f%% per month exceeds 1.5%%.", rate),
						"late_fee_pattern", d.evidence(s.start+m[0], s.start+m[1])), true
				}
			}
		}
	}
	return contractModel.Finding{}, false
}

func paymentFinding(desc, rule string, ev contractModel.Evidence) contractModel.Finding {
	return contractModel.Finding{
		Category:       contractModel.CategoryUnfavorablePayment,
		Severity:       contractModel.SeverityMedium,
		Title:          "Unfavorable Payment Terms",
		Description:    desc,
		Recommendation: "Negotiate payment terms of at least 30 days and late fees no higher than 1.5% per month.",
		Evidence:       ev,
		RuleMatched:    rule,
	}
}

func (d ruleDetector) weakConfidentiality() (contractModel.Finding, bool) {
	body := d.text.Body
	for _, s := range sentences(body) {
		sentence := body[s.start:s.end]
		if !confidentialPattern.MatchString(sentence) || !survivalPattern.MatchString(sentence) {
			continue
		}
		for _, m := range durationPattern.FindAllStringSubmatchIndex(sentence, -1) {
			n, ok := parseCount(sentence[m[2]:m[3]])
			if !ok || n <= 0 {
				continue
			}
			months := n
			if strings.HasPrefix(strings.ToLower(sentence[m[4]:m[5]]), "year") {
				months = n * 12
			}
			if months >= minConfidentialityMons {
				continue
			}
			return contractModel.Finding{
				Category:       contractModel.CategoryWeakConfidentiality,
				Severity:       contractModel.SeverityMedium,
				Title:          "Short Confidentiality Period",
				Description:    fmt.Sprintf("Confidentiality obligations last only %d months.", months),
				Recommendation: "Negotiate confidentiality obligations that survive at least 2-3 years after termination.",
				Evidence:       d.evidence(s.start+m[0], s.start+m[1]),
				RuleMatched:    "confidentiality_duration_pattern",
			}, true
		}
	}
	return contractModel.Finding{}, false
}

// locate resolves model-supplied evidence text to offsets in the document.
// Unlocatable evidence keeps its text with no offsets.
func locate(text documentModel.Text, evidence string) contractModel.Evidence {
	ev := contractModel.Evidence{Text: evidence}
	needle := strings.TrimSpace(evidence)
	if needle == "" {
		return ev
	}
	at := strings.Index(text.Body, needle)
	if at < 0 {
		at = strings.Index(strings.ToLower(text.Body), strings.ToLower(needle))
		// lowering can change byte lengths outside ASCII
		if at >= 0 && len(strings.ToLower(text.Body)) != len(text.Body) {
			at = -1
		}
	}
	if at < 0 {
		return ev
	}
	page, pageStart, pageEnd := text.Page(at)
	at = max(at, pageStart)
	off := at - pageStart
	end := min(at+len(needle), pageEnd) - pageStart
	ev.CharStart, ev.CharEnd, ev.PageNumber = &off, &end, &page
	return ev
}
