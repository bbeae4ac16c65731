// Package dlp detects and replaces personally identifiable information
// in chat message content before it reaches a provider or is
// fingerprinted for caching.
//
// Detection is regex-based: each entity type has one compiled pattern
// and a fixed placeholder it is replaced with. There is no AI-assisted
// verification pass — false positives/negatives on ambiguous patterns
// are an accepted tradeoff for deterministic, dependency-free scrubbing.
package dlp

import (
	"regexp"

	"github.com/sirupsen/logrus"
)

// entity pairs a compiled pattern with the placeholder it is replaced
// with. Order matters: more specific patterns (credit card, SSN, IBAN)
// run before broader ones (generic numeric/url patterns) so they claim
// their matches first.
type entity struct {
	re          *regexp.Regexp
	placeholder string
}

// Scrubber replaces PII in free text with fixed placeholders. It is
// stateless and safe for concurrent use.
type Scrubber struct {
	entities []entity
	log      *logrus.Logger
}

// New compiles the fixed entity table and returns a ready Scrubber.
func New(log *logrus.Logger) *Scrubber {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Scrubber{entities: buildEntityTable(), log: log}
}

func buildEntityTable() []entity {
	return []entity{
		{regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`), "<EMAIL_ADDRESS>"},
		{regexp.MustCompile(`\b(?:\d{4}[\-\s]?){3}\d{4}\b`), "<CREDIT_CARD>"},
		{regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{10,30}\b`), "<IBAN_CODE>"},
		{regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "<SSN>"},
		{regexp.MustCompile(`(?i)\b[A-Z]{1,2}\d{6,8}\b`), "<PASSPORT>"},
		{regexp.MustCompile(`(?i)\b[A-Z0-9]{1,9}\d{4,8}\b`), "<DRIVER_LICENSE>"},
		{regexp.MustCompile(`\b(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}\b|\b(?:\d{1,3}\.){3}\d{1,3}\b`), "<IP_ADDRESS>"},
		{regexp.MustCompile(`\b\+?\d{1,3}?[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`), "<PHONE_NUMBER>"},
		{regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`), "<DATE_TIME>"},
		{regexp.MustCompile(`https?://[^\s]+`), "<URL>"},
		{regexp.MustCompile(`(?i)\b(?:Dr|Mr|Mrs|Ms)\.\s+[A-Z][a-z]+\s+[A-Z][a-z]+\b`), "<PERSON_NAME>"},
		{regexp.MustCompile(`(?i)\b\d+\s+[A-Za-z\s]+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr)\b`), "<LOCATION>"},
		{regexp.MustCompile(`(?i)\b(?:license|med)\s*#?\s*[A-Z0-9]{6,}\b`), "<MEDICAL_LICENSE>"},
		{regexp.MustCompile(`(?i)\bnational\s*id\s*#?\s*[A-Z0-9]{6,}\b`), "<NATIONAL_ID>"},
	}
}

// Scrub replaces every recognized PII span in text with its fixed
// placeholder. Non-matching text passes through unchanged. Any panic
// inside pattern evaluation is recovered and the original text is
// returned unmodified — PII-scrubber failures must never interrupt the
// primary request path.
func (s *Scrubber) Scrub(text string) (scrubbed string) {
	if text == "" {
		return text
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("panic", r).Warn("dlp scrub failed, forwarding original text")
			scrubbed = text
		}
	}()

	out := text
	for _, e := range s.entities {
		out = e.re.ReplaceAllString(out, e.placeholder)
	}
	return out
}

// ScrubMessages returns a copy of messages with Content scrubbed.
// Non-string/empty content is already handled by Scrub's empty-string
// fast path. Errors, if any implementation detail ever introduces one,
// are swallowed the same way Scrub swallows panics: the original
// message is forwarded unchanged.
func (s *Scrubber) ScrubMessages(contents []string) []string {
	out := make([]string, len(contents))
	for i, c := range contents {
		out[i] = s.Scrub(c)
	}
	return out
}
