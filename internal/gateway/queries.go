package gateway

import (
	"fmt"

	"github.com/lineupscout/festival-cli/internal/model"
)

// Query purposes, also used as the evidence Purpose tag.
const (
	PurposeExistence       = "existence_check"
	PurposeCompanyOfficial = "company_official_site"
	PurposeCompanyLegal    = "company_legal_entity"
	PurposeCompanyRegistry = "company_registration"
	PurposeLinkedInCompany = "linkedin_company"
	PurposeLinkedInPeople  = "linkedin_people"
	PurposeNews            = "news"
	PurposeCalendar        = "calendar"
)

// ExistenceQuery probes whether the festival has any credible web presence.
func ExistenceQuery(f model.Festival) Query {
	return Query{
		Text:         fmt.Sprintf("%q music festival official website", f.Name),
		Purpose:      PurposeExistence,
		NumResults:   8,
		SummaryFocus: fmt.Sprintf("Is %s a real festival and what is its official website?", f.Name),
	}
}

// CompanyOfficialQuery targets the festival's own site and contact pages.
func CompanyOfficialQuery(f model.Festival) Query {
	return Query{
		Text:           fmt.Sprintf("%q festival contact organizer imprint about", f.Name),
		Purpose:        PurposeCompanyOfficial,
		NumResults:     5,
		HighlightFocus: "organized by company copyright contact",
	}
}

// CompanyLegalQuery targets privacy policies and terms naming a legal entity.
func CompanyLegalQuery(f model.Festival) Query {
	return Query{
		Text:           fmt.Sprintf("%q festival privacy policy terms conditions legal entity", f.Name),
		Purpose:        PurposeCompanyLegal,
		NumResults:     5,
		HighlightFocus: "legal entity registered company name",
	}
}

// CompanyRegistryQuery targets business registration records.
func CompanyRegistryQuery(f model.Festival) Query {
	return Query{
		Text:           fmt.Sprintf("%q festival organizer company registration chamber of commerce", f.Name),
		Purpose:        PurposeCompanyRegistry,
		NumResults:     5,
		HighlightFocus: "registered company organizes festival",
	}
}

// LinkedInCompanyQuery looks for the organizer's own LinkedIn page.
func LinkedInCompanyQuery(company string, f model.Festival) Query {
	subject := company
	if subject == "" {
		subject = f.Name
	}
	return Query{
		Text:           fmt.Sprintf("%q company profile", subject),
		Purpose:        PurposeLinkedInCompany,
		NumResults:     3,
		IncludeDomains: []string{"linkedin.com"},
		SummaryFocus:   fmt.Sprintf("LinkedIn company page for %s", subject),
	}
}

// LinkedInPeopleQuery looks for individuals with explicit employment
// phrasing tied to the organizer.
func LinkedInPeopleQuery(company string, f model.Festival) Query {
	subject := company
	if subject == "" {
		subject = f.Name
	}
	return Query{
		Text:           fmt.Sprintf("%q director OR founder OR manager \"works at\"", subject),
		Purpose:        PurposeLinkedInPeople,
		NumResults:     8,
		IncludeDomains: []string{"linkedin.com"},
		HighlightFocus: fmt.Sprintf("works at %s director founder", subject),
	}
}

// NewsQuery blends the festival and organizer with press keywords.
func NewsQuery(f model.Festival, company string) Query {
	text := fmt.Sprintf("%q festival attendance visitors tickets revenue news", f.Name)
	if company != "" {
		text = fmt.Sprintf("%q %q festival attendance visitors tickets revenue news", f.Name, company)
	}
	return Query{
		Text:         text,
		Purpose:      PurposeNews,
		NumResults:   6,
		SummaryFocus: fmt.Sprintf("news coverage of %s festival", f.Name),
	}
}

// CalendarQuery checks one known listing site for the festival.
func CalendarQuery(f model.Festival, site string) Query {
	return Query{
		Text:           fmt.Sprintf("%q festival", f.Name),
		Purpose:        PurposeCalendar,
		NumResults:     3,
		IncludeDomains: []string{site},
		HighlightFocus: fmt.Sprintf("%s festival dates edition year", f.Name),
	}
}
