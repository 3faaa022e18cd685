package phoneme

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

type abbreviation struct {
	re        *regexp.Regexp
	expansion string
}

var abbreviations = func() []abbreviation {
	pairs := [][2]string{
		{"mrs", "misess"}, {"mr", "mister"}, {"dr", "doctor"}, {"st", "saint"},
		{"co", "company"}, {"jr", "junior"}, {"maj", "major"}, {"gen", "general"},
		{"drs", "doctors"}, {"rev", "reverend"}, {"lt", "lieutenant"}, {"hon", "honorable"},
		{"sgt", "sergeant"}, {"capt", "captain"}, {"esq", "esquire"}, {"ltd", "limited"},
		{"col", "colonel"}, {"ft", "fort"},
	}
	out := make([]abbreviation, len(pairs))
	for i, p := range pairs {
		out[i] = abbreviation{
			re:        regexp.MustCompile(`(?i)\b` + p[0] + `\.`),
			expansion: p[1],
		}
	}
	return out
}()

// EnglishCleaners folds text to ASCII, lowercases it, spells out numbers and
// common abbreviations and collapses runs of whitespace.
func EnglishCleaners(text string) string {
	text = toASCII(text)
	text = strings.ToLower(text)
	text = ExpandNumbers(text)
	for _, a := range abbreviations {
		text = a.re.ReplaceAllString(text, a.expansion)
	}
	return whitespaceRe.ReplaceAllString(text, " ")
}

// toASCII strips diacritics and drops anything still outside ASCII.
func toASCII(text string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, folded)
}
