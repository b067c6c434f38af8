package prompt

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// preambles returns the lower-cased lead-ins a provider sometimes puts in
// front of its answer, in match order.
func preambles(label string) []string {
	return []string{
		strings.ToLower("enhanced prompt for " + label),
		"enhanced prompt:",
		"here is the enhanced prompt:",
		"here's your enhanced prompt:",
		"prompt:",
	}
}

// Sanitize strips a conversational preamble from a provider reply. It never
// fails; an empty result is returned as is.
func Sanitize(raw, label string) string {
	text := strings.TrimSpace(raw)
	candidates := preambles(label)

	result := text
	for _, p := range candidates {
		if rest, ok := cutPrefixLower(result, p); ok {
			result = strings.TrimSpace(rest)
			break
		}
	}

	lines := strings.Split(text, "\n")
	if len(lines) > 1 {
		first := strings.ToLower(lines[0])
		header := false
		for _, p := range candidates {
			if strings.Contains(first, strings.TrimRight(p, ":")) {
				header = true
				break
			}
		}
		if header {
			if rest := strings.TrimSpace(strings.Join(lines[1:], "\n")); rest != "" {
				result = rest
			} else {
				result = text
			}
		}
	}

	return strings.TrimSpace(result)
}

// cutPrefixLower removes prefix from s when the lower-cased runes of s start
// with prefix. prefix must already be lower-case.
func cutPrefixLower(s, prefix string) (string, bool) {
	i := 0
	for _, want := range prefix {
		if i >= len(s) {
			return "", false
		}
		got, size := utf8.DecodeRuneInString(s[i:])
		if unicode.ToLower(got) != want {
			return "", false
		}
		i += size
	}
	return s[i:], true
}
