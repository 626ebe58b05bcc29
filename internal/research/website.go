package research

import (
	"context"

	"go.uber.org/zap"

	"github.com/lineupscout/festival-cli/internal/evidence"
	"github.com/lineupscout/festival-cli/internal/gateway"
	"github.com/lineupscout/festival-cli/internal/model"
)

// WebsitePhase is the existence gate: it cross-references the festival's
// web presence and picks the most credible homepage. It is a heuristic
// gate, not an oracle — low confidence is a warning for the run, never a
// hard failure.
func WebsitePhase(ctx context.Context, f model.Festival, search gateway.Searcher) (*model.WebsiteInfo, error) {
	evs, err := search.Search(ctx, gateway.ExistenceQuery(f))
	if err != nil {
		return nil, err
	}

	info := &model.WebsiteInfo{
		SourcesChecked:      len(evs),
		ExistenceConfidence: evidence.CrossReference(evs).Value,
	}

	// Homepage: highest-quality non-aggregator source matching the name.
	// The caller's supplied URL wins when present.
	if f.URL != "" {
		info.HomepageURL = f.URL
	} else {
		best := 0.0
		for _, ev := range evs {
			if evidence.Categorize(ev.URL) == model.CategoryAggregator {
				continue
			}
			if !fuzzyMatch(ev.Title+" "+ev.Text, f.Name) {
				continue
			}
			if ev.QualityScore > best {
				best = ev.QualityScore
				info.HomepageURL = ev.URL
			}
		}
	}

	zap.L().Info("website: existence check complete",
		zap.String("festival", f.Name),
		zap.Float64("confidence", info.ExistenceConfidence),
		zap.String("homepage", info.HomepageURL),
	)
	return info, nil
}
