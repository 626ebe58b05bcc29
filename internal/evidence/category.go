package evidence

import (
	"net/url"
	"strings"

	"github.com/lineupscout/festival-cli/internal/model"
)

// Domain tables for source categorization. Aggregators are music-data sites
// that list auto-generated or defunct festivals; they are the main source of
// false positives for festival existence.
var (
	socialDomains = []string{
		"linkedin.com", "facebook.com", "instagram.com", "twitter.com",
		"x.com", "youtube.com", "tiktok.com",
	}

	referenceDomains = []string{
		"wikipedia.org", "wikidata.org", "britannica.com",
	}

	ticketingDomains = []string{
		"ticketmaster.com", "ticketmaster.nl", "eventbrite.com",
		"ticketswap.com", "eventim.com", "seetickets.com", "dice.fm",
		"paylogic.com",
	}

	newsDomains = []string{
		"billboard.com", "pitchfork.com", "nme.com", "rollingstone.com",
		"mixmag.net", "djmag.com", "consequence.net", "stereogum.com",
		"musicweek.com", "pollstar.com", "iq-mag.net",
	}

	aggregatorDomains = []string{
		"musicfestivalwizard.com", "everfest.com", "festivalfinder.eu",
		"jambase.com", "songkick.com", "bandsintown.com", "setlist.fm",
		"last.fm", "concertful.com", "festileaks.com", "viberate.com",
		"rateyourmusic.com",
	}
)

// Host extracts the lowercased host from a raw URL, stripping "www.".
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return strings.ToLower(rawURL)
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}

func hostMatches(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Categorize buckets a URL by trust class. Aggregator wins over everything
// else; government and education hosts are official.
func Categorize(rawURL string) model.SourceCategory {
	host := Host(rawURL)
	if host == "" {
		return model.CategoryOther
	}

	switch {
	case hostMatches(host, aggregatorDomains):
		return model.CategoryAggregator
	case strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") ||
		strings.Contains(host, ".gov.") || strings.Contains(host, ".edu."):
		return model.CategoryOfficial
	case hostMatches(host, socialDomains):
		return model.CategorySocial
	case hostMatches(host, newsDomains):
		return model.CategoryNews
	case hostMatches(host, referenceDomains):
		return model.CategoryReference
	case hostMatches(host, ticketingDomains):
		return model.CategoryTicketing
	default:
		return model.CategoryOther
	}
}
