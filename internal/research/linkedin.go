package research

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/lineupscout/festival-cli/internal/gateway"
	"github.com/lineupscout/festival-cli/internal/model"
)

// employmentPhrases are the templates that count as explicit employment
// evidence. %s is replaced with the quoted company name. Co-occurrence of
// the name and a job title elsewhere on the page does not qualify.
var employmentPhrases = []string{
	`(?i)\bworks? at %s\b`,
	`(?i)\bworking at %s\b`,
	`(?i)\bemployee (?:at|of) %s\b`,
	`(?i)\b(?:directeur|director|managing director|founder|co-?founder|owner|ceo|coo|cfo|president|head|manager|producer|coordinator|organi[sz]er|oprichter)\s+(?:at|of|bij|van)\s+%s\b`,
	`(?i)%s\s+(?:employee|team member|staff)\b`,
}

// Role keyword buckets, checked in precedence order.
var (
	decisionMakerKeywords = []string{
		"founder", "co-founder", "owner", "ceo", "coo", "cfo", "chief",
		"president", "managing director", "director",
	}
	managerKeywords = []string{
		"manager", "head of", "lead", "supervisor",
	}
	teamMemberKeywords = []string{
		"coordinator", "producer", "assistant", "specialist", "staff",
		"crew", "intern", "marketeer", "designer",
	}
)

// employmentGate compiles the phrase set for one exact company name.
func employmentGate(company string) []*regexp.Regexp {
	quoted := regexp.QuoteMeta(company)
	gates := make([]*regexp.Regexp, 0, len(employmentPhrases))
	for _, tmpl := range employmentPhrases {
		gates = append(gates, regexp.MustCompile(strings.ReplaceAll(tmpl, "%s", quoted)))
	}
	return gates
}

// verifyEmployment reports whether text contains an explicit employment
// phrase tied to the company, and which phrase matched.
func verifyEmployment(text string, gates []*regexp.Regexp) (bool, string) {
	for _, g := range gates {
		if m := g.FindString(text); m != "" {
			return true, m
		}
	}
	return false, ""
}

// classifyRole buckets a title text. Decision-maker keywords win over
// manager keywords, which win over team-member keywords.
func classifyRole(titleText string) model.RoleBucket {
	lower := strings.ToLower(titleText)
	for _, kw := range decisionMakerKeywords {
		if strings.Contains(lower, kw) {
			return model.RoleDecisionMaker
		}
	}
	for _, kw := range managerKeywords {
		if strings.Contains(lower, kw) {
			return model.RoleManager
		}
	}
	for _, kw := range teamMemberKeywords {
		if strings.Contains(lower, kw) {
			return model.RoleTeamMember
		}
	}
	return model.RoleUnknown
}

// profileName pulls the person's name from a LinkedIn result title, which
// looks like "Jane Doe - Festival Director - Acme | LinkedIn".
func profileName(title string) (name, headline string) {
	title = strings.TrimSuffix(strings.TrimSpace(title), "| LinkedIn")
	parts := strings.Split(title, " - ")
	if len(parts) == 0 {
		return "", ""
	}
	name = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		headline = strings.TrimSpace(strings.Join(parts[1:], " - "))
	}
	return name, headline
}

func isPersonProfileURL(u string) bool {
	return strings.Contains(strings.ToLower(u), "linkedin.com/in/")
}

func isCompanyProfileURL(u string) bool {
	return strings.Contains(strings.ToLower(u), "linkedin.com/company/")
}

// LinkedInPhase discovers the organizer's LinkedIn page and verified
// stakeholders. When no company was resolved, employment is gated against
// the festival name itself (the festival acting as its own organization).
func LinkedInPhase(ctx context.Context, f model.Festival, companyName string, search gateway.Searcher) (*model.LinkedInResult, error) {
	log := zap.L().With(zap.String("festival", f.Name), zap.String("phase", "searching_linkedin"))

	subject := companyName
	if subject == "" {
		subject = f.Name
	}
	gates := employmentGate(subject)

	companyEvs, companyErr := search.Search(ctx, gateway.LinkedInCompanyQuery(companyName, f))
	peopleEvs, peopleErr := search.Search(ctx, gateway.LinkedInPeopleQuery(companyName, f))
	if companyErr != nil && peopleErr != nil {
		return nil, peopleErr
	}

	result := &model.LinkedInResult{}

	// Best-match company page: quality-ranked among name matches.
	var bestQuality float64
	for i, ev := range companyEvs {
		if !isCompanyProfileURL(ev.URL) {
			continue
		}
		if !fuzzyMatch(ev.Title+" "+ev.Text, subject) {
			continue
		}
		if result.CompanyPage == nil || ev.QualityScore > bestQuality {
			bestQuality = ev.QualityScore
			result.CompanyPage = &model.LinkedInProfile{
				URL:        ev.URL,
				Name:       subject,
				Role:       model.RoleUnknown,
				Confidence: 0.3 + 0.5*ev.QualityScore,
				Source:     &companyEvs[i],
			}
		}
	}

	for i, ev := range peopleEvs {
		if !isPersonProfileURL(ev.URL) {
			continue
		}
		text := ev.Title + "\n" + ev.Text
		verified, phrase := verifyEmployment(text, gates)
		if !verified {
			// Correct rejection, not a warning: the gate exists to drop
			// hallucinated associations.
			result.Rejected++
			log.Debug("linkedin: rejected unverified profile",
				zap.String("url", ev.URL),
				zap.String("subject", subject),
			)
			continue
		}

		name, headline := profileName(ev.Title)
		roleText := headline
		if roleText == "" {
			roleText = phrase
		}
		result.People = append(result.People, model.LinkedInProfile{
			URL:                ev.URL,
			Name:               name,
			Title:              headline,
			Role:               classifyRole(roleText + " " + phrase),
			EmploymentVerified: true,
			Confidence:         0.4 + 0.5*ev.QualityScore,
			Source:             &peopleEvs[i],
		})
	}

	// Additive and capped: more verified signals never lower the phase.
	conf := 0.0
	if result.CompanyPage != nil {
		conf += 0.35
	}
	verified := len(result.People)
	if verified > 3 {
		verified = 3
	}
	conf += 0.2 * float64(verified)
	if conf > 0.95 {
		conf = 0.95
	}
	result.Confidence = conf

	log.Info("linkedin: discovery complete",
		zap.Bool("company_page", result.CompanyPage != nil),
		zap.Int("people", len(result.People)),
		zap.Int("rejected", result.Rejected),
	)
	return result, nil
}
