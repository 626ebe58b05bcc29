package research

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lineupscout/festival-cli/internal/gateway"
	"github.com/lineupscout/festival-cli/internal/model"
)

// companyPattern extracts company-name candidates from evidence text. Each
// hit contributes weight to the candidate's confidence, scaled by the
// source's quality score.
type companyPattern struct {
	name     string
	weight   float64
	re       *regexp.Regexp
	purposes []string
}

// capWord is one capitalized token of a company name. nameFrag captures a
// run of such tokens on a single line, so a capture never drags in the
// lowercase prose around the name.
const (
	capWord   = `[A-Z][A-Za-z0-9&'’\-]*`
	nameFrag  = `(` + capWord + `(?:[ \t]+` + capWord + `){0,5})`
	suffixAlt = `(?:B\.?V\.?|GmbH|Ltd\.?|LLC|Inc\.?|N\.?V\.?|VOF|ApS|Oy|S\.?r\.?l\.?|Plc|Pty|Corp\.?|e\.?V\.?|KG)`
)

var companyPatterns = []companyPattern{
	{
		name:     "copyright_notice",
		weight:   0.30,
		re:       regexp.MustCompile(`(?:©|\(c\)|(?i:copyright))\s*(?:\d{4}\s*)?(?:[-–]\s*\d{4}\s*)?(?i:by[ \t]+)?` + nameFrag),
		purposes: []string{gateway.PurposeCompanyOfficial, gateway.PurposeCompanyLegal},
	},
	{
		name:   "organized_by",
		weight: 0.35,
		re:     regexp.MustCompile(`(?i:organi[sz]ed by|presented by|produced by|hosted by|an event by)[ \t]+` + nameFrag),
	},
	{
		name:   "legal_entity_suffix",
		weight: 0.40,
		re:     regexp.MustCompile(`(` + capWord + `(?:[ \t]+` + capWord + `){0,4}[ \t]+` + suffixAlt + `)(?:[\s.,;)]|$)`),
	},
	{
		name:     "registry_record",
		weight:   0.35,
		re:       regexp.MustCompile(`(?i:registered (?:company|name|as)|trading as|legal name)[: \t]+` + nameFrag),
		purposes: []string{gateway.PurposeCompanyRegistry, gateway.PurposeCompanyLegal},
	},
}

// boilerplateWords disqualify a capture that is page furniture, not a name.
var boilerplateWords = []string{
	"privacy", "cookie", "terms", "policy", "rights reserved", "all rights",
	"website", "subscribe", "newsletter", "contact us", "about us", "sign in",
}

func (p companyPattern) applies(purpose string) bool {
	if len(p.purposes) == 0 {
		return true
	}
	for _, pu := range p.purposes {
		if pu == purpose {
			return true
		}
	}
	return false
}

// plausibleCompanyName filters out captures that cannot be a company.
func plausibleCompanyName(name string) bool {
	if len(name) < 3 || len(name) > 60 {
		return false
	}
	if letterRatio(name) < 0.5 {
		return false
	}
	lower := strings.ToLower(name)
	for _, w := range boilerplateWords {
		if strings.Contains(lower, w) {
			return false
		}
	}
	return true
}

// candidateAccum accumulates evidence for one normalized candidate name.
type candidateAccum struct {
	display    string
	confidence float64
	hits       []string
	sources    map[string]model.Evidence
}

// extractCompanyCandidates runs the pattern table over scored evidence and
// returns deduplicated candidates keyed by normalized name, unranked.
func extractCompanyCandidates(evs []model.Evidence) map[string]*candidateAccum {
	acc := make(map[string]*candidateAccum)
	for _, ev := range evs {
		for _, p := range companyPatterns {
			if !p.applies(ev.Purpose) {
				continue
			}
			for _, m := range p.re.FindAllStringSubmatch(ev.Title+"\n"+ev.Text, -1) {
				name := displayName(m[1])
				if !plausibleCompanyName(name) {
					continue
				}
				key := normalizeName(name)
				if key == "" {
					continue
				}
				c, ok := acc[key]
				if !ok {
					c = &candidateAccum{display: name, sources: make(map[string]model.Evidence)}
					acc[key] = c
				}
				// Longer capture usually carries the full legal name.
				if len(name) > len(c.display) {
					c.display = name
				}
				c.confidence += p.weight * (0.5 + 0.5*ev.QualityScore)
				c.hits = append(c.hits, p.name)
				c.sources[ev.URL] = ev
			}
		}
	}
	return acc
}

// CompanyPhase identifies the organizing company behind a festival. Three
// query flavors run in parallel; zero surviving candidates is a valid
// result, distinct from every query failing outright.
func CompanyPhase(ctx context.Context, f model.Festival, search gateway.Searcher, maxCandidates int) (*model.CompanyDiscovery, error) {
	log := zap.L().With(zap.String("festival", f.Name), zap.String("phase", "extracting_company"))
	if maxCandidates <= 0 {
		maxCandidates = 3
	}

	queries := []gateway.Query{
		gateway.CompanyOfficialQuery(f),
		gateway.CompanyLegalQuery(f),
		gateway.CompanyRegistryQuery(f),
	}

	evidenceByQuery := make([][]model.Evidence, len(queries))
	errs := make([]error, len(queries))

	g, gCtx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			evs, err := search.Search(gCtx, q)
			if err != nil {
				errs[i] = err
				log.Warn("company: query failed", zap.String("purpose", q.Purpose), zap.Error(err))
				return nil
			}
			evidenceByQuery[i] = evs
			return nil
		})
	}
	_ = g.Wait()

	var all []model.Evidence
	failed := 0
	for i := range queries {
		if errs[i] != nil {
			failed++
			continue
		}
		all = append(all, evidenceByQuery[i]...)
	}
	if failed == len(queries) {
		return nil, errs[len(errs)-1]
	}

	acc := extractCompanyCandidates(all)

	candidates := make([]model.CompanyCandidate, 0, len(acc))
	for _, c := range acc {
		conf := c.confidence
		if conf > 0.99 {
			conf = 0.99
		}
		sources := make([]model.Evidence, 0, len(c.sources))
		for _, ev := range c.sources {
			sources = append(sources, ev)
		}
		sort.Slice(sources, func(i, j int) bool { return sources[i].URL < sources[j].URL })
		candidates = append(candidates, model.CompanyCandidate{
			Name:       c.display,
			Confidence: conf,
			Sources:    sources,
			Hits:       c.hits,
		})
	}

	// Confidence desc, then source count desc, then name asc: deterministic.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		if len(candidates[i].Sources) != len(candidates[j].Sources) {
			return len(candidates[i].Sources) > len(candidates[j].Sources)
		}
		return candidates[i].Name < candidates[j].Name
	})
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}

	result := &model.CompanyDiscovery{Candidates: candidates}
	if len(candidates) > 0 {
		result.CompanyName = candidates[0].Name
		result.Confidence = candidates[0].Confidence
	}

	log.Info("company: discovery complete",
		zap.Int("candidates", len(candidates)),
		zap.String("top", result.CompanyName),
		zap.Float64("confidence", result.Confidence),
	)
	return result, nil
}
