package research

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/lineupscout/festival-cli/internal/gateway"
	"github.com/lineupscout/festival-cli/internal/model"
)

// calendarSources is the fixed set of listing sites checked for presence.
// These are aggregators on purpose: the question here is "is the festival
// on the calendars", not "does it exist".
var calendarSources = []struct {
	site string
	name string
}{
	{"musicfestivalwizard.com", "Music Festival Wizard"},
	{"everfest.com", "Everfest"},
	{"festivalfinder.eu", "Festival Finder"},
	{"songkick.com", "Songkick"},
	{"bandsintown.com", "Bandsintown"},
}

var yearPattern = regexp.MustCompile(`\b(19[9][0-9]|20[0-9]{2})\b`)

// editionYear extracts the latest plausible edition year from text, capped
// at two years past now.
func editionYear(text string, now time.Time) int {
	maxYear := 0
	ceiling := now.Year() + 2
	for _, m := range yearPattern.FindAllString(text, -1) {
		y, err := strconv.Atoi(m)
		if err != nil || y > ceiling {
			continue
		}
		if y > maxYear {
			maxYear = y
		}
	}
	return maxYear
}

// CalendarPhase checks the fixed listing sources for the festival. A query
// failure for one source counts the source as checked-but-not-found rather
// than failing the phase; only all sources failing is a phase error.
func CalendarPhase(ctx context.Context, f model.Festival, search gateway.Searcher, now time.Time) (*model.CalendarVerification, error) {
	log := zap.L().With(zap.String("festival", f.Name), zap.String("phase", "verifying_calendars"))

	result := &model.CalendarVerification{TotalChecked: len(calendarSources)}
	failed := 0
	var lastErr error

	for _, src := range calendarSources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		evs, err := search.Search(ctx, gateway.CalendarQuery(f, src.site))
		if err != nil {
			failed++
			lastErr = err
			log.Warn("calendar: source query failed", zap.String("source", src.name), zap.Error(err))
			result.Sources = append(result.Sources, model.CalendarSourceResult{Source: src.name})
			continue
		}

		entry := model.CalendarSourceResult{Source: src.name}
		for _, ev := range evs {
			if !fuzzyMatch(ev.Title+" "+ev.Text, f.Name) {
				continue
			}
			entry.Found = true
			entry.URL = ev.URL
			if y := editionYear(ev.Title+" "+ev.Text, now); y > entry.EditionYear {
				entry.EditionYear = y
			}
		}
		if entry.EditionYear >= now.Year() {
			entry.CurrentEdition = true
		}
		if entry.Found {
			result.FoundCount++
		}
		if entry.CurrentEdition {
			result.CurrentlyActive = true
		}
		result.Sources = append(result.Sources, entry)
	}

	if failed == len(calendarSources) {
		return nil, lastErr
	}

	result.Confidence = float64(result.FoundCount) / float64(result.TotalChecked)
	if result.CurrentlyActive && result.Confidence < 0.95 {
		result.Confidence += 0.05
	}

	log.Info("calendar: verification complete",
		zap.Int("found", result.FoundCount),
		zap.Int("checked", result.TotalChecked),
		zap.Bool("active", result.CurrentlyActive),
	)
	return result, nil
}
