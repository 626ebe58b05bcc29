package model

// EventType discriminates stream events.
type EventType string

const (
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
)

// Event is one entry in the research progress stream. Progress events carry
// the phase and running counters; the single complete event carries the
// merged report and whether it reached storage.
type Event struct {
	Type       EventType      `json:"type"`
	Phase      Phase          `json:"phase,omitempty"`
	Confidence *float64       `json:"confidence,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	Warnings   int            `json:"warnings,omitempty"`
	Errors     int            `json:"errors,omitempty"`

	Success         *bool           `json:"success,omitempty"`
	SavedToDatabase *bool           `json:"savedToDatabase,omitempty"`
	Result          *ResearchReport `json:"result,omitempty"`
}

// ProgressEvent builds a progress event for a phase transition.
func ProgressEvent(phase Phase, confidence *float64, data map[string]any, warnings, errors int) Event {
	return Event{
		Type:       EventProgress,
		Phase:      phase,
		Confidence: confidence,
		Data:       data,
		Warnings:   warnings,
		Errors:     errors,
	}
}

// CompleteEvent builds the terminal stream event.
func CompleteEvent(success, saved bool, result *ResearchReport) Event {
	return Event{
		Type:            EventComplete,
		Success:         &success,
		SavedToDatabase: &saved,
		Result:          result,
	}
}
