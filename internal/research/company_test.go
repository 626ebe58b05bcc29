package research

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lineupscout/festival-cli/internal/gateway"
	"github.com/lineupscout/festival-cli/internal/model"
)

// fakeSearcher routes canned evidence by query purpose.
type fakeSearcher struct {
	evidence map[string][]model.Evidence
	errors   map[string]error
	calls    []string
}

func (f *fakeSearcher) Search(ctx context.Context, q gateway.Query) ([]model.Evidence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.calls = append(f.calls, q.Purpose)
	if err := f.errors[q.Purpose]; err != nil {
		return nil, err
	}
	evs, ok := f.evidence[q.Purpose]
	if !ok {
		return []model.Evidence{}, nil
	}
	return evs, nil
}

func TestExtractCompanyCandidates_LegalSuffix(t *testing.T) {
	evs := []model.Evidence{
		{
			URL:          "https://festival.nl/privacy",
			Text:         "This website is operated by Acme Events BV, registered in Amsterdam.",
			Purpose:      gateway.PurposeCompanyLegal,
			QualityScore: 0.8,
		},
	}
	acc := extractCompanyCandidates(evs)
	require.Contains(t, acc, "acme events")
	assert.Equal(t, "Acme Events BV", acc["acme events"].display)
	assert.Contains(t, acc["acme events"].hits, "legal_entity_suffix")
}

func TestExtractCompanyCandidates_OrganizedBy(t *testing.T) {
	evs := []model.Evidence{
		{
			URL:          "https://festival.nl/about",
			Text:         "The festival is organised by Mojo Concerts and takes place every August.",
			Purpose:      gateway.PurposeCompanyOfficial,
			QualityScore: 0.6,
		},
	}
	acc := extractCompanyCandidates(evs)
	require.Contains(t, acc, "mojo concerts")
	assert.Contains(t, acc["mojo concerts"].hits, "organized_by")
}

func TestExtractCompanyCandidates_MergesAcrossSources(t *testing.T) {
	evs := []model.Evidence{
		{
			URL:          "https://festival.nl/privacy",
			Text:         "Operated by Acme Events BV.",
			Purpose:      gateway.PurposeCompanyLegal,
			QualityScore: 0.8,
		},
		{
			URL:          "https://registry.example/record",
			Text:         "Registered company: Acme Events\nKvK number 12345678",
			Purpose:      gateway.PurposeCompanyRegistry,
			QualityScore: 0.9,
		},
	}
	acc := extractCompanyCandidates(evs)
	require.Contains(t, acc, "acme events")
	c := acc["acme events"]
	assert.Len(t, c.sources, 2)
	// The longer capture carrying the legal suffix wins the display name.
	assert.Equal(t, "Acme Events BV", c.display)
}

func TestExtractCompanyCandidates_RejectsBoilerplate(t *testing.T) {
	evs := []model.Evidence{
		{
			URL:          "https://festival.nl",
			Text:         "© 2026 All Rights Reserved. Privacy Policy and Cookie Statement.",
			Purpose:      gateway.PurposeCompanyOfficial,
			QualityScore: 0.5,
		},
	}
	acc := extractCompanyCandidates(evs)
	for key := range acc {
		assert.NotContains(t, key, "rights")
		assert.NotContains(t, key, "privacy")
		assert.NotContains(t, key, "cookie")
	}
}

func TestCompanyPhase_RanksByConfidence(t *testing.T) {
	weak := model.Evidence{
		URL:          "https://blog.example/post",
		Text:         "Presented by Someone Else Entirely, probably.",
		Purpose:      gateway.PurposeCompanyOfficial,
		QualityScore: 0.1,
	}
	strong1 := model.Evidence{
		URL:          "https://festival.nl/privacy",
		Text:         "Operated by Acme Events BV.",
		Purpose:      gateway.PurposeCompanyLegal,
		QualityScore: 0.9,
	}
	strong2 := model.Evidence{
		URL:          "https://registry.example/acme",
		Text:         "Legal name: Acme Events",
		Purpose:      gateway.PurposeCompanyRegistry,
		QualityScore: 0.9,
	}

	search := &fakeSearcher{evidence: map[string][]model.Evidence{
		gateway.PurposeCompanyOfficial: {weak},
		gateway.PurposeCompanyLegal:    {strong1},
		gateway.PurposeCompanyRegistry: {strong2},
	}}

	result, err := CompanyPhase(context.Background(), model.Festival{Name: "Testfest"}, search, 3)
	require.NoError(t, err)
	require.NotEmpty(t, result.Candidates)
	assert.Equal(t, "Acme Events BV", result.CompanyName)
	assert.Equal(t, result.Candidates[0].Confidence, result.Confidence)
	assert.LessOrEqual(t, result.Confidence, 0.99)
}

func TestCompanyPhase_EmptyEvidenceIsValidResult(t *testing.T) {
	search := &fakeSearcher{}
	result, err := CompanyPhase(context.Background(), model.Festival{Name: "Ghostfest"}, search, 3)
	require.NoError(t, err)
	assert.Empty(t, result.CompanyName)
	assert.Empty(t, result.Candidates)
	assert.Zero(t, result.Confidence)
}

func TestCompanyPhase_PartialQueryFailureTolerated(t *testing.T) {
	search := &fakeSearcher{
		evidence: map[string][]model.Evidence{
			gateway.PurposeCompanyLegal: {{
				URL:          "https://festival.nl/privacy",
				Text:         "Operated by Acme Events BV.",
				Purpose:      gateway.PurposeCompanyLegal,
				QualityScore: 0.9,
			}},
		},
		errors: map[string]error{
			gateway.PurposeCompanyOfficial: errors.New("search backend down"),
			gateway.PurposeCompanyRegistry: errors.New("search backend down"),
		},
	}

	result, err := CompanyPhase(context.Background(), model.Festival{Name: "Testfest"}, search, 3)
	require.NoError(t, err)
	assert.Equal(t, "Acme Events BV", result.CompanyName)
}

func TestCompanyPhase_AllQueriesFailing(t *testing.T) {
	boom := errors.New("search backend down")
	search := &fakeSearcher{errors: map[string]error{
		gateway.PurposeCompanyOfficial: boom,
		gateway.PurposeCompanyLegal:    boom,
		gateway.PurposeCompanyRegistry: boom,
	}}

	_, err := CompanyPhase(context.Background(), model.Festival{Name: "Testfest"}, search, 3)
	require.Error(t, err)
}

func TestCompanyPhase_CapsCandidates(t *testing.T) {
	evs := []model.Evidence{
		{URL: "https://a.nl", Text: "Operated by Alpha Events BV.", Purpose: gateway.PurposeCompanyLegal, QualityScore: 0.9},
		{URL: "https://b.nl", Text: "Operated by Beta Events BV.", Purpose: gateway.PurposeCompanyLegal, QualityScore: 0.8},
		{URL: "https://c.nl", Text: "Operated by Gamma Events BV.", Purpose: gateway.PurposeCompanyLegal, QualityScore: 0.7},
	}
	search := &fakeSearcher{evidence: map[string][]model.Evidence{
		gateway.PurposeCompanyLegal: evs,
	}}

	result, err := CompanyPhase(context.Background(), model.Festival{Name: "Testfest"}, search, 2)
	require.NoError(t, err)
	assert.Len(t, result.Candidates, 2)
}
