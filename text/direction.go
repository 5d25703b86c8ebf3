package text

import "golang.org/x/text/unicode/bidi"

// Direction is the inline writing direction of a run of text
type Direction int

const (
	// LTR is left-to-right text: Latin, Greek, CJK and most other scripts
	LTR Direction = iota
	// RTL is right-to-left text: Arabic, Hebrew, Syriac, Thaana, N'Ko
	RTL
	// Neutral covers digits, punctuation, symbols and spaces
	Neutral
)

// String returns "LTR", "RTL" or "Neutral"
func (d Direction) String() string {
	switch d {
	case LTR:
		return "LTR"
	case RTL:
		return "RTL"
	case Neutral:
		return "Neutral"
	default:
		return "Unknown"
	}
}

// CharDirection returns the strong direction of r from its Unicode
// bidirectional class, or Neutral for weak and neutral classes.
func CharDirection(r rune) Direction {
	props, _ := bidi.LookupRune(r)
	switch props.Class() {
	case bidi.L:
		return LTR
	case bidi.R, bidi.AL:
		return RTL
	default:
		return Neutral
	}
}

// DetectDirection returns the direction most strong characters of s have.
// Ties go to LTR; a string without strong characters is Neutral.
func DetectDirection(s string) Direction {
	var ltr, rtl int
	for _, r := range s {
		switch CharDirection(r) {
		case LTR:
			ltr++
		case RTL:
			rtl++
		}
	}
	switch {
	case ltr == 0 && rtl == 0:
		return Neutral
	case rtl > ltr:
		return RTL
	default:
		return LTR
	}
}
