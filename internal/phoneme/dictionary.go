// Package phoneme turns raw text lines into the symbol sequence consumed by
// the acoustic model.
//
// A Dictionary maps uppercase words to ARPAbet spellings. The Normalizer
// substitutes known words with "{SPELLING}" groups and guarantees the
// trailing semicolon the acoustic model was trained with. Encode then maps
// the normalized line onto symbol IDs.
package phoneme

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrMalformedDictionary is returned for a dictionary line without a
	// word/spelling separator.
	ErrMalformedDictionary = errors.New("malformed phoneme dictionary")

	// ErrEmptyInput is returned when a line normalizes to nothing.
	ErrEmptyInput = errors.New("empty input")
)

// Dictionary is an immutable word -> phonetic spelling table. It is safe for
// concurrent readers.
type Dictionary struct {
	entries map[string]string
}

// LoadDictionary reads a "WORD spelling" file. When a word appears more than
// once, the earliest entry in file order wins.
func LoadDictionary(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening phoneme dictionary: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading phoneme dictionary: %w", err)
	}
	return ParseDictionary(lines)
}

// ParseDictionary builds a Dictionary from lines in file order.
func ParseDictionary(lines []string) (*Dictionary, error) {
	entries := make(map[string]string, len(lines))

	// Scan back to front so earlier lines overwrite later duplicates.
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimRight(lines[i], "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		word, spelling, ok := strings.Cut(line, " ")
		if !ok || word == "" {
			return nil, fmt.Errorf("%w: line %d: %q", ErrMalformedDictionary, i+1, line)
		}
		entries[word] = strings.TrimSpace(spelling)
	}
	return &Dictionary{entries: entries}, nil
}

// Lookup returns the spelling for an uppercase word.
func (d *Dictionary) Lookup(word string) (string, bool) {
	if d == nil {
		return "", false
	}
	s, ok := d.entries[word]
	return s, ok
}

// Len returns the number of distinct words.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}
