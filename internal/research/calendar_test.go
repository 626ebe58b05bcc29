package research

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lineupscout/festival-cli/internal/gateway"
	"github.com/lineupscout/festival-cli/internal/model"
)

var calendarNow = time.Date(2026, time.August, 23, 12, 0, 0, 0, time.UTC)

func TestEditionYear(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"Testfest 2026 line-up announced", 2026},
		{"Editions: 2019, 2022, 2024", 2024},
		{"Founded in 1998", 1998},
		// Years far in the future are noise, not editions.
		{"Testfest 2042 time capsule", 0},
		{"Next year: 2027", 2027},
		{"no year here", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, editionYear(tc.text, calendarNow), tc.text)
	}
}

// siteSearcher routes calendar queries by the target site domain.
type siteSearcher struct {
	bySite map[string][]model.Evidence
	errs   map[string]error
}

func (s *siteSearcher) Search(ctx context.Context, q gateway.Query) ([]model.Evidence, error) {
	if len(q.IncludeDomains) == 0 {
		return []model.Evidence{}, nil
	}
	site := q.IncludeDomains[0]
	if err := s.errs[site]; err != nil {
		return nil, err
	}
	evs, ok := s.bySite[site]
	if !ok {
		return []model.Evidence{}, nil
	}
	return evs, nil
}

func TestCalendarPhase_CountsPresence(t *testing.T) {
	search := &siteSearcher{bySite: map[string][]model.Evidence{
		"musicfestivalwizard.com": {{
			URL:   "https://musicfestivalwizard.com/festivals/testfest-2026",
			Title: "Testfest 2026",
			Text:  "Testfest returns in 2026.",
		}},
		"songkick.com": {{
			URL:   "https://songkick.com/festivals/testfest",
			Title: "Testfest",
			Text:  "Testfest 2023 was the last documented edition.",
		}},
	}}

	result, err := CalendarPhase(context.Background(), model.Festival{Name: "Testfest"}, search, calendarNow)
	require.NoError(t, err)

	assert.Equal(t, 5, result.TotalChecked)
	assert.Equal(t, 2, result.FoundCount)
	assert.True(t, result.CurrentlyActive)
	require.Len(t, result.Sources, 5)

	bySource := map[string]model.CalendarSourceResult{}
	for _, s := range result.Sources {
		bySource[s.Source] = s
	}
	assert.True(t, bySource["Music Festival Wizard"].CurrentEdition)
	assert.Equal(t, 2026, bySource["Music Festival Wizard"].EditionYear)
	assert.True(t, bySource["Songkick"].Found)
	assert.False(t, bySource["Songkick"].CurrentEdition)
	assert.False(t, bySource["Everfest"].Found)
}

func TestCalendarPhase_ConfidenceFromCoverage(t *testing.T) {
	search := &siteSearcher{bySite: map[string][]model.Evidence{
		"everfest.com": {{
			URL:   "https://everfest.com/testfest",
			Title: "Testfest",
			Text:  "An annual event, last held 2021.",
		}},
	}}

	result, err := CalendarPhase(context.Background(), model.Festival{Name: "Testfest"}, search, calendarNow)
	require.NoError(t, err)
	assert.False(t, result.CurrentlyActive)
	assert.InDelta(t, 1.0/5.0, result.Confidence, 1e-9)
}

func TestCalendarPhase_ActiveBonus(t *testing.T) {
	search := &siteSearcher{bySite: map[string][]model.Evidence{
		"songkick.com": {{
			URL:   "https://songkick.com/festivals/testfest",
			Title: "Testfest 2026",
			Text:  "Dates for the 2026 edition of Testfest.",
		}},
	}}

	result, err := CalendarPhase(context.Background(), model.Festival{Name: "Testfest"}, search, calendarNow)
	require.NoError(t, err)
	assert.True(t, result.CurrentlyActive)
	assert.InDelta(t, 1.0/5.0+0.05, result.Confidence, 1e-9)
}

func TestCalendarPhase_SourceFailureIsCheckedNotFound(t *testing.T) {
	search := &siteSearcher{
		bySite: map[string][]model.Evidence{
			"bandsintown.com": {{
				URL:   "https://bandsintown.com/f/testfest",
				Title: "Testfest 2026",
				Text:  "Testfest 2026 dates.",
			}},
		},
		errs: map[string]error{
			"songkick.com": errors.New("backend down"),
		},
	}

	result, err := CalendarPhase(context.Background(), model.Festival{Name: "Testfest"}, search, calendarNow)
	require.NoError(t, err)
	assert.Equal(t, 5, result.TotalChecked)
	assert.Equal(t, 1, result.FoundCount)
}

func TestCalendarPhase_AllSourcesFailing(t *testing.T) {
	boom := errors.New("backend down")
	errs := map[string]error{}
	for _, site := range []string{"musicfestivalwizard.com", "everfest.com", "festivalfinder.eu", "songkick.com", "bandsintown.com"} {
		errs[site] = boom
	}
	search := &siteSearcher{errs: errs}

	_, err := CalendarPhase(context.Background(), model.Festival{Name: "Testfest"}, search, calendarNow)
	require.Error(t, err)
}

func TestCalendarPhase_NameMismatchNotFound(t *testing.T) {
	search := &siteSearcher{bySite: map[string][]model.Evidence{
		"everfest.com": {{
			URL:   "https://everfest.com/otherfest",
			Title: "Otherfest 2026",
			Text:  "A different event entirely.",
		}},
	}}

	result, err := CalendarPhase(context.Background(), model.Festival{Name: "Testfest"}, search, calendarNow)
	require.NoError(t, err)
	assert.Zero(t, result.FoundCount)
}
