package model

// SourceCategory buckets an evidence URL by trust class.
type SourceCategory string

const (
	CategoryOfficial   SourceCategory = "official"
	CategorySocial     SourceCategory = "social"
	CategoryNews       SourceCategory = "news"
	CategoryReference  SourceCategory = "reference"
	CategoryTicketing  SourceCategory = "ticketing"
	CategoryAggregator SourceCategory = "aggregator"
	CategoryOther      SourceCategory = "other"
)

// Evidence is one external source consulted during research. It is scored
// once by the evidence scorer and never mutated afterwards.
type Evidence struct {
	URL          string   `json:"url"`
	Title        string   `json:"title,omitempty"`
	Text         string   `json:"text,omitempty"`
	Date         string   `json:"date,omitempty"`
	Purpose      string   `json:"purpose"`
	QualityScore float64  `json:"quality_score"`
	Reasons      []string `json:"reasons,omitempty"`
}

// CompanyCandidate is a candidate organizing-company claim with its
// supporting evidence. Confidence is derived from pattern hits and source
// quality; a candidate never exists without at least one source.
type CompanyCandidate struct {
	Name       string     `json:"name"`
	Confidence float64    `json:"confidence"`
	Sources    []Evidence `json:"sources"`
	Hits       []string   `json:"hits,omitempty"`
}

// RoleBucket classifies a verified person by seniority.
type RoleBucket string

const (
	RoleDecisionMaker RoleBucket = "decision_maker"
	RoleManager       RoleBucket = "manager"
	RoleTeamMember    RoleBucket = "team_member"
	RoleUnknown       RoleBucket = "unknown"
)

// LinkedInProfile is a discovered profile. EmploymentVerified is true only
// when evidence text contains an explicit employment phrase naming the
// candidate company; co-occurrence alone never sets it.
type LinkedInProfile struct {
	URL                string     `json:"url"`
	Name               string     `json:"name,omitempty"`
	Title              string     `json:"title,omitempty"`
	Role               RoleBucket `json:"role"`
	EmploymentVerified bool       `json:"employment_verified"`
	Confidence         float64    `json:"confidence"`
	Source             *Evidence  `json:"source,omitempty"`
}
