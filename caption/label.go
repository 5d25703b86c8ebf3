package caption

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/figharvest/figharvest/model"
)

var labelPatterns = []struct {
	re  *regexp.Regexp
	typ model.FigType
}{
	{regexp.MustCompile(`^(?i:figure|fig\.?)\s*([0-9]+(?:\.[0-9]+)*[a-z]?|[IVXLCDM]+)\b`), model.FigTypeFigure},
	{regexp.MustCompile(`^(?i:table|tab\.)\s*([0-9]+(?:\.[0-9]+)*[a-z]?|[IVXLCDM]+)\b`), model.FigTypeTable},
	{regexp.MustCompile(`^图表\s*([0-9]+[a-z]?)`), model.FigTypeFigure},
	{regexp.MustCompile(`^图\s*([0-9]+[a-z]?)`), model.FigTypeFigure},
	{regexp.MustCompile(`^表\s*([0-9]+[a-z]?)`), model.FigTypeTable},
}

// Parse reads the label at the start of a caption: "Figure 3", "Fig. 3a",
// "Table II", "图 3", "表 2". Full-width digits are accepted.
func Parse(text string) (model.FigType, string, bool) {
	s := strings.TrimSpace(norm.NFKC.String(text))
	for _, p := range labelPatterns {
		if m := p.re.FindStringSubmatch(s); m != nil {
			return p.typ, m[1], true
		}
	}
	return model.FigTypeFigure, "", false
}

// Strip removes the leading label and its separator from a caption
func Strip(text string) string {
	s := strings.TrimSpace(norm.NFKC.String(text))
	for _, p := range labelPatterns {
		if loc := p.re.FindStringIndex(s); loc != nil {
			return strings.TrimLeft(s[loc[1]:], " \t:.-|")
		}
	}
	return s
}

var asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slug turns caption text into a lowercase ASCII file name fragment of at
// most maxLen bytes. Words are joined with underscores; characters with no
// ASCII form are dropped.
func Slug(text string, maxLen int) string {
	folded, _, err := transform.String(asciiFold, text)
	if err != nil {
		folded = text
	}

	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			pending = false
			continue
		}
		pending = true
	}

	slug := b.String()
	if maxLen > 0 && len(slug) > maxLen {
		slug = strings.TrimRight(slug[:maxLen], "_")
	}
	return slug
}
