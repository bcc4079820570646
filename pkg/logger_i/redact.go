package logger_i

import "regexp"

type piiPattern struct {
	re          *regexp.Regexp
	replacement string
}

// order matters: card numbers before phone numbers, they overlap
var piiPatterns = []piiPattern{
	{regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`), "[REDACTED_EMAIL]"},
	{regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "[REDACTED_SSN]"},
	{regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`), "[REDACTED_CC]"},
	{regexp.MustCompile(`\+?\(?\d{3}\)?[ .\-]?\d{3}[ .\-]?\d{4}\b`), "[REDACTED_PHONE]"},
}

// Redact masks emails, ssn, card and phone numbers before text reaches a log line.
func Redact(text string) string {
	for _, p := range piiPatterns {
		text = p.re.ReplaceAllString(text, p.replacement)
	}
	return text
}
