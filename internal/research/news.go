package research

import (
	"context"

	"go.uber.org/zap"

	"github.com/lineupscout/festival-cli/internal/evidence"
	"github.com/lineupscout/festival-cli/internal/gateway"
	"github.com/lineupscout/festival-cli/internal/model"
)

// NewsPhase collects press coverage for the festival. Articles come
// straight from search snippets, deduplicated by URL; no scoring beyond
// the shared evidence quality.
func NewsPhase(ctx context.Context, f model.Festival, companyName string, search gateway.Searcher) (*model.NewsResult, error) {
	evs, err := search.Search(ctx, gateway.NewsQuery(f, companyName))
	if err != nil {
		return nil, err
	}

	result := &model.NewsResult{}
	seen := make(map[string]bool)
	for _, ev := range evs {
		if ev.URL == "" || seen[ev.URL] {
			continue
		}
		seen[ev.URL] = true
		result.Articles = append(result.Articles, model.NewsArticle{
			Title:   ev.Title,
			URL:     ev.URL,
			Source:  evidence.Host(ev.URL),
			Date:    ev.Date,
			Summary: ev.Text,
		})
	}

	result.Confidence = evidence.CrossReference(evs).Value

	zap.L().Info("news: discovery complete",
		zap.String("festival", f.Name),
		zap.Int("articles", len(result.Articles)),
	)
	return result, nil
}
