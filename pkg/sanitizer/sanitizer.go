package sanitizer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const MaxPurposeLength = 500

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

// stripControl drops control and format runes except whitespace.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == utf8.RuneError || (unicode.IsControl(r) && !unicode.IsSpace(r)) || unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, s)
}

func truncate(limit int) Strategy {
	return func(s string) string {
		if utf8.RuneCountInString(s) <= limit {
			return s
		}
		runes := []rune(s)
		return strings.TrimSpace(string(runes[:limit]))
	}
}

// SanitizePurpose cleans the optional appointment purpose text.
func SanitizePurpose(input string) string {
	p := Pipeline{
		stripControl,
		TrimAndNormalize,
		truncate(MaxPurposeLength),
	}
	return p.Apply(input)
}

// SanitizeDisplayName cleans a party name before it is rendered into mail.
func SanitizeDisplayName(input string) string {
	p := Pipeline{
		stripControl,
		TrimAndNormalize,
		truncate(200),
	}
	return p.Apply(input)
}

func SanitizeEmail(input string) string {
	p := Pipeline{
		stripControl,
		strings.TrimSpace,
		strings.ToLower,
	}
	s := p.Apply(input)
	if strings.ContainsAny(s, " \r\n") || strings.Count(s, "@") != 1 {
		return ""
	}
	return s
}
