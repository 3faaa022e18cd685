package phoneme

import (
	"strings"
	"unicode/utf8"
)

// DefaultPunctuation is the set of trailing characters split off a token
// before dictionary lookup.
const DefaultPunctuation = "!?,.;"

// EndOfSentence is the marker appended to every normalized line.
const EndOfSentence = ";"

// Normalizer prepares a text line for the acoustic model.
type Normalizer struct {
	// Dictionary is consulted when UsePhonemes is set.
	Dictionary *Dictionary

	// UsePhonemes enables dictionary substitution.
	UsePhonemes bool

	// EndOfSentence appends ";" to lines that do not already end with one.
	EndOfSentence bool

	// Punctuation overrides DefaultPunctuation when non-empty.
	Punctuation string
}

// Normalize returns the line ready for Encode. It fails with ErrEmptyInput
// when nothing is left to synthesize.
func (n *Normalizer) Normalize(line string) (string, error) {
	var out string
	if n.UsePhonemes {
		out = n.substitute(line)
	} else {
		out = strings.TrimSpace(line)
	}

	if out == "" {
		return "", ErrEmptyInput
	}
	if n.EndOfSentence && !strings.HasSuffix(out, EndOfSentence) {
		out += EndOfSentence
	}
	return out, nil
}

func (n *Normalizer) substitute(line string) string {
	punct := n.Punctuation
	if punct == "" {
		punct = DefaultPunctuation
	}

	tokens := strings.Fields(line)
	parts := make([]string, 0, len(tokens))
	inGroup := false
	for _, tok := range tokens {
		word, trailing := splitTrailing(tok, punct)

		// Spellings already in braces pass through untouched so that
		// normalizing twice is a no-op.
		if inGroup || strings.HasPrefix(word, "{") {
			inGroup = !strings.HasSuffix(word, "}")
			parts = append(parts, tok)
			continue
		}

		if spelling, ok := n.Dictionary.Lookup(strings.ToUpper(word)); ok {
			word = "{" + spelling + "}"
		}
		parts = append(parts, word+trailing)
	}
	return strings.Join(parts, " ")
}

// splitTrailing peels punctuation off the right of tok one rune at a time,
// never reducing the word below one rune and stopping at the first
// non-punctuation rune.
func splitTrailing(tok, punct string) (word, trailing string) {
	word = tok
	for utf8.RuneCountInString(word) > 1 {
		r, size := utf8.DecodeLastRuneInString(word)
		if !strings.ContainsRune(punct, r) {
			break
		}
		word = word[:len(word)-size]
	}
	return word, tok[len(word):]
}
