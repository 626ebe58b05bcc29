package evidence

import (
	"regexp"
	"strings"

	"github.com/lineupscout/festival-cli/internal/model"
)

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// authenticityRule contributes a positive addend when it matches.
type authenticityRule struct {
	name   string
	addend float64
	match  func(host, lowerText string) bool
}

// penaltyRule multiplies the accumulated score down when it matches. A
// penalty suppresses everything the addends built up, which is the point:
// an aggregator hit with an official-looking page is still an aggregator.
type penaltyRule struct {
	name       string
	multiplier float64
	match      func(host, lowerText string) bool
}

var authenticityRules = []authenticityRule{
	{
		name:   "government_or_education_domain",
		addend: 0.40,
		match: func(host, _ string) bool {
			return strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") ||
				strings.Contains(host, ".gov.") || strings.Contains(host, ".edu.")
		},
	},
	{
		name:   "professional_network",
		addend: 0.25,
		match: func(host, _ string) bool {
			return host == "linkedin.com" || strings.HasSuffix(host, ".linkedin.com")
		},
	},
	{
		name:   "social_platform",
		addend: 0.20,
		match: func(host, _ string) bool {
			return hostMatches(host, socialDomains) &&
				host != "linkedin.com" && !strings.HasSuffix(host, ".linkedin.com")
		},
	},
	{
		name:   "reference_site",
		addend: 0.20,
		match:  func(host, _ string) bool { return hostMatches(host, referenceDomains) },
	},
	{
		name:   "ticketing_platform",
		addend: 0.30,
		match:  func(host, _ string) bool { return hostMatches(host, ticketingDomains) },
	},
	{
		name:   "organizational_domain",
		addend: 0.15,
		match:  func(host, _ string) bool { return strings.HasSuffix(host, ".org") },
	},
	{
		name:   "commercial_domain",
		addend: 0.10,
		match: func(host, _ string) bool {
			return strings.HasSuffix(host, ".com") || strings.HasSuffix(host, ".net") ||
				strings.HasSuffix(host, ".nl") || strings.HasSuffix(host, ".de") ||
				strings.HasSuffix(host, ".co.uk") || strings.HasSuffix(host, ".be")
		},
	},
	{
		name:   "self_described_official",
		addend: 0.10,
		match: func(_, lowerText string) bool {
			return strings.Contains(lowerText, "official website") ||
				strings.Contains(lowerText, "official site") ||
				strings.Contains(lowerText, "officiële website")
		},
	},
	{
		name:   "contact_email_present",
		addend: 0.10,
		match:  func(_, lowerText string) bool { return emailPattern.MatchString(lowerText) },
	},
}

var penaltyRules = []penaltyRule{
	{
		name:       "aggregator_domain",
		multiplier: 0.3,
		match:      func(host, _ string) bool { return hostMatches(host, aggregatorDomains) },
	},
	{
		name:       "placeholder_content",
		multiplier: 0.2,
		match: func(_, lowerText string) bool {
			if len(strings.TrimSpace(lowerText)) < 40 {
				return true
			}
			return strings.Contains(lowerText, "coming soon") ||
				strings.Contains(lowerText, "under construction") ||
				strings.Contains(lowerText, "domain is for sale") ||
				strings.Contains(lowerText, "page not found")
		},
	},
	{
		name:       "templated_content",
		multiplier: 0.1,
		match: func(_, lowerText string) bool {
			return strings.Contains(lowerText, "lorem ipsum") ||
				strings.Contains(lowerText, "{{") ||
				strings.Contains(lowerText, "sample page") ||
				strings.Contains(lowerText, "auto-generated")
		},
	},
}

// ScoreAuthenticity rates a single source in [0,1]. The returned reasons
// list the rules that fired, in table order, so a score is auditable. Pure:
// identical inputs always produce identical output.
func ScoreAuthenticity(rawURL, text string) (float64, []string) {
	host := Host(rawURL)
	lowerText := strings.ToLower(text)

	score := 0.0
	var reasons []string

	for _, r := range authenticityRules {
		if r.match(host, lowerText) {
			score += r.addend
			reasons = append(reasons, r.name)
		}
	}

	for _, p := range penaltyRules {
		if p.match(host, lowerText) {
			score *= p.multiplier
			reasons = append(reasons, p.name)
		}
	}

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score, reasons
}

// Score builds a scored Evidence from a raw search result.
func Score(rawURL, title, text, purpose string) model.Evidence {
	score, reasons := ScoreAuthenticity(rawURL, text)
	return model.Evidence{
		URL:          rawURL,
		Title:        title,
		Text:         text,
		Purpose:      purpose,
		QualityScore: score,
		Reasons:      reasons,
	}
}
