package phoneme

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	commaNumberRe   = regexp.MustCompile(`[0-9][0-9,]+[0-9]`)
	dollarsRe       = regexp.MustCompile(`\$([0-9.,]*[0-9]+)`)
	decimalNumberRe = regexp.MustCompile(`[0-9]+\.[0-9]+`)
	ordinalRe       = regexp.MustCompile(`[0-9]+(st|nd|rd|th)`)
	numberRe        = regexp.MustCompile(`[0-9]+`)
)

var (
	ones = []string{
		"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
		"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
		"seventeen", "eighteen", "nineteen",
	}
	tens   = []string{"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety"}
	scales = []string{"", "thousand", "million", "billion", "trillion", "quadrillion"}

	irregularOrdinals = map[string]string{
		"one": "first", "two": "second", "three": "third", "five": "fifth",
		"eight": "eighth", "nine": "ninth", "twelve": "twelfth",
	}
)

// ExpandNumbers spells out digits: grouped thousands, dollar amounts,
// decimals, ordinals, years between 1001 and 2999 and plain cardinals.
func ExpandNumbers(text string) string {
	text = commaNumberRe.ReplaceAllStringFunc(text, func(s string) string {
		return strings.ReplaceAll(s, ",", "")
	})
	text = dollarsRe.ReplaceAllStringFunc(text, func(s string) string {
		return expandDollars(s[1:])
	})
	text = decimalNumberRe.ReplaceAllStringFunc(text, func(s string) string {
		return strings.Replace(s, ".", " point ", 1)
	})
	text = ordinalRe.ReplaceAllStringFunc(text, func(s string) string {
		n, err := strconv.ParseInt(s[:len(s)-2], 10, 64)
		if err != nil {
			return s
		}
		return ordinal(n)
	})
	return numberRe.ReplaceAllStringFunc(text, expandNumber)
}

func expandDollars(amount string) string {
	parts := strings.Split(amount, ".")
	if len(parts) > 2 {
		return amount + " dollars"
	}
	dollars, _ := strconv.Atoi(parts[0])
	cents := 0
	if len(parts) > 1 && parts[1] != "" {
		cents, _ = strconv.Atoi(parts[1])
	}

	unit := func(n int, one, many string) string {
		if n == 1 {
			return fmt.Sprintf("%d %s", n, one)
		}
		return fmt.Sprintf("%d %s", n, many)
	}
	switch {
	case dollars > 0 && cents > 0:
		return unit(dollars, "dollar", "dollars") + ", " + unit(cents, "cent", "cents")
	case dollars > 0:
		return unit(dollars, "dollar", "dollars")
	case cents > 0:
		return unit(cents, "cent", "cents")
	default:
		return "zero dollars"
	}
}

func expandNumber(digits string) string {
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		// Too long for int64: read digit by digit.
		words := make([]string, 0, len(digits))
		for _, d := range digits {
			words = append(words, ones[d-'0'])
		}
		return strings.Join(words, " ")
	}

	if n > 1000 && n < 3000 {
		switch {
		case n == 2000:
			return "two thousand"
		case n > 2000 && n < 2010:
			return "two thousand " + cardinal(n%100)
		case n%100 == 0:
			return cardinal(n/100) + " hundred"
		default:
			return year(n)
		}
	}
	return cardinal(n)
}

// year reads a four-digit number as two pairs: 1984 -> nineteen eighty-four,
// 1905 -> nineteen oh five.
func year(n int64) string {
	hi, lo := n/100, n%100
	switch {
	case lo == 0:
		return cardinal(hi) + " hundred"
	case lo < 10:
		return cardinal(hi) + " oh " + ones[lo]
	default:
		return cardinal(hi) + " " + cardinal(lo)
	}
}

// cardinal spells out n with comma-separated thousands groups.
func cardinal(n int64) string {
	if n < 0 {
		return "minus " + cardinal(-n)
	}
	if n < 1000 {
		return underThousand(int(n))
	}

	var groups []string
	for scale := 0; n > 0; scale++ {
		g := int(n % 1000)
		n /= 1000
		if g == 0 {
			continue
		}
		words := underThousand(g)
		if scales[scale] != "" {
			words += " " + scales[scale]
		}
		groups = append([]string{words}, groups...)
	}
	return strings.Join(groups, ", ")
}

func underThousand(n int) string {
	switch {
	case n < 20:
		return ones[n]
	case n < 100:
		if n%10 == 0 {
			return tens[n/10]
		}
		return tens[n/10] + "-" + ones[n%10]
	default:
		words := ones[n/100] + " hundred"
		if n%100 != 0 {
			words += " " + underThousand(n%100)
		}
		return words
	}
}

// ordinal spells out n as an ordinal: 21 -> twenty-first.
func ordinal(n int64) string {
	words := cardinal(n)
	cut := strings.LastIndexAny(words, " -")
	head, last := words[:cut+1], words[cut+1:]

	if irr, ok := irregularOrdinals[last]; ok {
		return head + irr
	}
	if strings.HasSuffix(last, "y") {
		return head + strings.TrimSuffix(last, "y") + "ieth"
	}
	return head + last + "th"
}
