package model

// WebsiteInfo is the output of the website-discovery phase.
type WebsiteInfo struct {
	HomepageURL         string  `json:"homepage_url,omitempty"`
	ExistenceConfidence float64 `json:"existence_confidence"`
	SourcesChecked      int     `json:"sources_checked"`
}

// CompanyDiscovery is the output of the organizer-identification phase.
// CompanyName is empty when no candidate survived filtering; that is a
// valid result, not a failure.
type CompanyDiscovery struct {
	CompanyName string             `json:"company_name,omitempty"`
	Candidates  []CompanyCandidate `json:"candidates,omitempty"`
	Confidence  float64            `json:"confidence"`
}

// LinkedInResult is the output of the stakeholder-discovery phase.
type LinkedInResult struct {
	CompanyPage *LinkedInProfile  `json:"company_page,omitempty"`
	People      []LinkedInProfile `json:"people,omitempty"`
	Rejected    int               `json:"rejected"`
	Confidence  float64           `json:"confidence"`
}

// NewsArticle is one press mention extracted from search snippets.
type NewsArticle struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Source  string `json:"source,omitempty"`
	Date    string `json:"date,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// NewsResult is the output of the news-discovery phase.
type NewsResult struct {
	Articles   []NewsArticle `json:"articles,omitempty"`
	Confidence float64       `json:"confidence"`
}

// CalendarSourceResult records presence on one known listing site.
type CalendarSourceResult struct {
	Source         string `json:"source"`
	Found          bool   `json:"found"`
	URL            string `json:"url,omitempty"`
	EditionYear    int    `json:"edition_year,omitempty"`
	CurrentEdition bool   `json:"current_edition"`
}

// CalendarVerification summarizes presence across the fixed listing sources.
type CalendarVerification struct {
	Sources         []CalendarSourceResult `json:"sources"`
	FoundCount      int                    `json:"found_count"`
	TotalChecked    int                    `json:"total_checked"`
	CurrentlyActive bool                   `json:"currently_active"`
	Confidence      float64                `json:"confidence"`
}

// ResearchReport is the persisted, merged output of research runs. Each
// field is populated independently by its phase; nil means the phase has
// never completed for this festival.
type ResearchReport struct {
	WebsiteInfo          *WebsiteInfo          `json:"website_info,omitempty"`
	CompanyDiscovery     *CompanyDiscovery     `json:"company_discovery,omitempty"`
	LinkedIn             *LinkedInResult       `json:"linkedin,omitempty"`
	News                 *NewsResult           `json:"news,omitempty"`
	CalendarVerification *CalendarVerification `json:"calendar_verification,omitempty"`
}

// Empty reports whether no phase has populated the report.
func (r ResearchReport) Empty() bool {
	return r.WebsiteInfo == nil && r.CompanyDiscovery == nil && r.LinkedIn == nil &&
		r.News == nil && r.CalendarVerification == nil
}

// MergeReports merges incoming into stored field-wise: a field present in
// incoming overwrites the stored one, absent fields are left untouched.
// For the confidence-bearing company and LinkedIn fields a strictly
// lower-confidence incoming value does not displace a stored higher one.
func MergeReports(stored, incoming ResearchReport) ResearchReport {
	out := stored

	if incoming.WebsiteInfo != nil {
		out.WebsiteInfo = incoming.WebsiteInfo
	}
	if incoming.CompanyDiscovery != nil {
		if stored.CompanyDiscovery == nil || incoming.CompanyDiscovery.Confidence >= stored.CompanyDiscovery.Confidence {
			out.CompanyDiscovery = incoming.CompanyDiscovery
		}
	}
	if incoming.LinkedIn != nil {
		if stored.LinkedIn == nil || incoming.LinkedIn.Confidence >= stored.LinkedIn.Confidence {
			out.LinkedIn = incoming.LinkedIn
		}
	}
	if incoming.News != nil {
		out.News = incoming.News
	}
	if incoming.CalendarVerification != nil {
		out.CalendarVerification = incoming.CalendarVerification
	}

	return out
}
