package evidence

import "github.com/lineupscout/festival-cli/internal/model"

// Confidence is a cross-referenced confidence for one claim, with a
// per-bucket breakdown for auditing.
type Confidence struct {
	Value     float64            `json:"value"`
	Breakdown map[string]float64 `json:"breakdown,omitempty"`
}

// Bucket weights per non-empty category group. Official and organizational
// sources carry the claim; aggregator presence alone is nearly worthless.
const (
	weightOfficial   = 0.50
	weightSocial     = 0.25
	weightNews       = 0.15
	weightAggregator = 0.05

	// aggregatorSuppression divides the confidence when aggregators are the
	// only supporting bucket. This is the anti-hallucination rule: many
	// aggregator listings exist for festivals that never happened.
	aggregatorSuppression = 5.0
)

// crossRefBucket folds the fine-grained categories into the four groups the
// confidence model reasons about.
func crossRefBucket(cat model.SourceCategory) string {
	switch cat {
	case model.CategoryOfficial, model.CategoryReference, model.CategoryTicketing, model.CategoryOther:
		return "official"
	case model.CategorySocial:
		return "social"
	case model.CategoryNews:
		return "news"
	default:
		return "aggregator"
	}
}

// CrossReference derives a confidence for one claim from its supporting
// evidence. Each non-empty bucket contributes its weight once, plus a bonus
// for the best single source quality and the evidence count. Both bonus
// terms are non-decreasing in the evidence set, so adding a supporting
// source never lowers the result.
func CrossReference(evs []model.Evidence) Confidence {
	if len(evs) == 0 {
		return Confidence{}
	}

	buckets := make(map[string]int)
	maxQuality := 0.0
	for _, ev := range evs {
		buckets[crossRefBucket(Categorize(ev.URL))]++
		if ev.QualityScore > maxQuality {
			maxQuality = ev.QualityScore
		}
	}

	breakdown := make(map[string]float64)
	value := 0.0
	add := func(bucket string, weight float64) {
		if buckets[bucket] > 0 {
			breakdown[bucket] = weight
			value += weight
		}
	}
	add("official", weightOfficial)
	add("social", weightSocial)
	add("news", weightNews)
	add("aggregator", weightAggregator)

	// Quality and volume bonuses, both monotone.
	value += maxQuality * 0.10
	count := len(evs)
	if count > 5 {
		count = 5
	}
	value += float64(count) * 0.02

	if value > 1 {
		value = 1
	}

	onlyAggregator := buckets["aggregator"] > 0 &&
		buckets["official"] == 0 && buckets["social"] == 0 && buckets["news"] == 0
	if onlyAggregator {
		value /= aggregatorSuppression
		breakdown["aggregator_only_suppression"] = aggregatorSuppression
	}

	return Confidence{Value: value, Breakdown: breakdown}
}
