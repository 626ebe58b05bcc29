// Package store persists festival listings, annotations, and merged
// research reports.
package store

import (
	"context"

	"github.com/lineupscout/festival-cli/internal/model"
)

// ListFilter specifies criteria for listing festivals.
type ListFilter struct {
	Favorite *bool  `json:"favorite,omitempty"`
	Archived *bool  `json:"archived,omitempty"`
	Stage    string `json:"stage,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// Store is the persistence interface for the research pipeline and the
// dashboard CRUD around it.
type Store interface {
	// Festivals
	UpsertFestival(ctx context.Context, f model.Festival) error
	GetListing(ctx context.Context, festivalID string) (*model.Listing, error)
	ListListings(ctx context.Context, filter ListFilter) ([]model.Listing, error)
	SetAnnotation(ctx context.Context, festivalID string, a model.Annotation) error

	// Research reports
	GetReport(ctx context.Context, festivalID string) (model.ResearchReport, error)
	// MergeReport applies a field-wise merge of partial into the stored
	// report and returns the merged result. Safe to call repeatedly with
	// overlapping partial data; absent fields are never dropped.
	MergeReport(ctx context.Context, festivalID string, partial model.ResearchReport) (model.ResearchReport, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
