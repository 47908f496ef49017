// Package privacy detects and redacts personal information in chat text.
//
// Three detectors run in a fixed order: phone numbers, e-mail addresses and
// Korean names followed by an honorific. Phone and e-mail run first so that
// digit and letter runs they own are gone before the name detector looks.
package privacy

import "regexp"

const (
	maskedPhone = "***-****-****"
	maskedEmail = "***@***.***"
	maskedName  = "***"

	// maxPasses bounds the fixpoint loop in Mask. Each pass that changes the
	// text removes at least two digits, letters or Hangul syllables, so real
	// input settles in one or two passes.
	maxPasses = 8
)

var (
	phonePattern = regexp.MustCompile(`\b[0-9]{2,3}[-. ][0-9]{3,4}[-. ][0-9]{4}\b`)
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// No boundary before the name: Korean is often written without spaces, so
	// a name glued to the previous word still matches. The leftmost match may
	// take one preceding syllable along, which only over-masks.
	namePattern = regexp.MustCompile(`([가-힣]{2,4})(\s*)(님|씨|대표|이사|과장|부장)`)
)

// Filter implements ports.PrivacyFilter.
type Filter struct{}

// NewFilter creates a privacy filter.
func NewFilter() *Filter {
	return &Filter{}
}

// Mask replaces every detected phone number, e-mail and name+honorific.
// The honorific itself is kept. Mask(Mask(x)) == Mask(x).
func (f *Filter) Mask(text string) string {
	for i := 0; i < maxPasses; i++ {
		next := maskOnce(text)
		if next == text {
			return next
		}
		text = next
	}
	return text
}

// Contains reports whether any detector matches.
func (f *Filter) Contains(text string) bool {
	return phonePattern.MatchString(text) ||
		emailPattern.MatchString(text) ||
		namePattern.MatchString(text)
}

func maskOnce(text string) string {
	text = phonePattern.ReplaceAllLiteralString(text, maskedPhone)
	text = emailPattern.ReplaceAllLiteralString(text, maskedEmail)
	return namePattern.ReplaceAllString(text, maskedName+"${2}${3}")
}
