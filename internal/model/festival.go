package model

import "time"

// Festival identifies one scraped festival listing to research.
type Festival struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Annotation holds the per-festival CRM state set from the dashboard.
type Annotation struct {
	Favorite bool   `json:"favorite"`
	Archived bool   `json:"archived"`
	Notes    string `json:"notes,omitempty"`
	Stage    string `json:"stage,omitempty"`
}

// Listing is a festival plus its annotation as stored.
type Listing struct {
	Festival   Festival   `json:"festival"`
	Annotation Annotation `json:"annotation"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Phase is the current stage of a research run.
type Phase string

const (
	PhaseNotStarted         Phase = "not_started"
	PhaseStarting           Phase = "starting"
	PhaseDiscoveringWebsite Phase = "discovering_website"
	PhaseExtractingCompany  Phase = "extracting_company"
	PhaseSearchingLinkedIn  Phase = "searching_linkedin"
	PhaseFetchingNews       Phase = "fetching_news"
	PhaseVerifyingCalendars Phase = "verifying_calendars"
	PhaseValidatingResults  Phase = "validating_results"
	PhaseCompleted          Phase = "completed"
	PhaseFailed             Phase = "failed"
	PhaseAborted            Phase = "aborted"
)

// Terminal reports whether the phase ends a run.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed || p == PhaseAborted
}

// RunOptions are caller-supplied knobs for a single research run.
type RunOptions struct {
	// MaxRetries overrides the gateway retry bound when > 0.
	MaxRetries int `json:"maxRetries,omitempty"`
	// EnableValidation gates the final low-confidence candidate sweep.
	EnableValidation bool `json:"enableAIValidation,omitempty"`
	// ParallelExecution runs the dependent phases concurrently. Nil means
	// use the configured default.
	ParallelExecution *bool `json:"parallelExecution,omitempty"`
}
