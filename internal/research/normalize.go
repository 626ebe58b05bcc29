package research

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// suffixPattern matches trailing legal-entity suffixes for fuzzy matching.
var suffixPattern = regexp.MustCompile(`(?i),?\s*(b\.?v\.?|n\.?v\.?|gmbh|ltd\.?|llc\.?|inc\.?|corp\.?|vof|aps|ab|as|oy|s\.?r\.?l\.?|s\.?l\.?|plc|pty|e\.?v\.?|co\.?|kg)$`)

var titleCaser = cases.Title(language.English)

// normalizeName lowercases a company name and strips the legal suffix, for
// dedup keys and fuzzy matching.
func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	name = suffixPattern.ReplaceAllString(name, "")
	return strings.ToLower(strings.TrimSpace(name))
}

// displayName cleans a captured company name for output. All-caps captures
// (common in copyright footers) get title casing; the legal suffix is kept.
func displayName(name string) string {
	name = strings.Trim(strings.TrimSpace(name), ".,;:")
	if name != "" && name == strings.ToUpper(name) && strings.ContainsFunc(name, unicode.IsLetter) {
		return titleCaser.String(strings.ToLower(name))
	}
	return name
}

// fuzzyMatch reports whether text contains the normalized name.
func fuzzyMatch(text, name string) bool {
	if text == "" || name == "" {
		return false
	}
	n := normalizeName(name)
	if n == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), n)
}

// letterRatio is the fraction of letters in s.
func letterRatio(s string) float64 {
	if s == "" {
		return 0
	}
	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return float64(letters) / float64(len([]rune(s)))
}
