package phoneme

import (
	"regexp"
	"strings"
)

const (
	padSymbol         = "_"
	specialSymbols    = "-"
	punctuationSymbol = "!'(),.:;? "
	letterSymbols     = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	arpabetPrefix     = "@"
)

// arpabet is the CMUdict phone inventory with stress markers.
var arpabet = []string{
	"AA", "AA0", "AA1", "AA2", "AE", "AE0", "AE1", "AE2", "AH", "AH0", "AH1", "AH2",
	"AO", "AO0", "AO1", "AO2", "AW", "AW0", "AW1", "AW2", "AY", "AY0", "AY1", "AY2",
	"B", "CH", "D", "DH", "EH", "EH0", "EH1", "EH2", "ER", "ER0", "ER1", "ER2", "EY",
	"EY0", "EY1", "EY2", "F", "G", "HH", "IH", "IH0", "IH1", "IH2", "IY", "IY0", "IY1",
	"IY2", "JH", "K", "L", "M", "N", "NG", "OW", "OW0", "OW1", "OW2", "OY", "OY0",
	"OY1", "OY2", "P", "R", "S", "SH", "T", "TH", "UH", "UH0", "UH1", "UH2", "UW",
	"UW0", "UW1", "UW2", "V", "W", "Y", "Z", "ZH",
}

var (
	symbols   []string
	symbolIDs map[string]int64

	curlyRe = regexp.MustCompile(`(?s)^(.*?)\{(.+?)\}(.*)$`)
)

func init() {
	symbols = append(symbols, padSymbol)
	for _, group := range []string{specialSymbols, punctuationSymbol, letterSymbols} {
		for _, r := range group {
			symbols = append(symbols, string(r))
		}
	}
	for _, p := range arpabet {
		symbols = append(symbols, arpabetPrefix+p)
	}

	symbolIDs = make(map[string]int64, len(symbols))
	for i, s := range symbols {
		symbolIDs[s] = int64(i)
	}
}

// Symbols returns the acoustic model's symbol table in ID order.
func Symbols() []string {
	out := make([]string, len(symbols))
	copy(out, symbols)
	return out
}

// Encode maps a normalized line to symbol IDs. Plain text is passed through
// the English cleaners; "{...}" groups are read as space-separated ARPAbet
// phones. Characters outside the symbol table are dropped.
func Encode(text string) []int64 {
	var seq []int64
	for text != "" {
		m := curlyRe.FindStringSubmatch(text)
		if m == nil {
			seq = append(seq, encodeSymbols(EnglishCleaners(text))...)
			break
		}
		seq = append(seq, encodeSymbols(EnglishCleaners(m[1]))...)
		seq = append(seq, encodeArpabet(m[2])...)
		text = m[3]
	}
	return seq
}

func encodeSymbols(text string) []int64 {
	seq := make([]int64, 0, len(text))
	for _, r := range text {
		s := string(r)
		if s == padSymbol || s == "~" {
			continue
		}
		if id, ok := symbolIDs[s]; ok {
			seq = append(seq, id)
		}
	}
	return seq
}

func encodeArpabet(group string) []int64 {
	fields := strings.Fields(group)
	seq := make([]int64, 0, len(fields))
	for _, p := range fields {
		if id, ok := symbolIDs[arpabetPrefix+p]; ok {
			seq = append(seq, id)
		}
	}
	return seq
}
