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

func TestVerifyEmployment_ExplicitPhrases(t *testing.T) {
	gates := employmentGate("Acme Events BV")

	cases := []struct {
		text string
		want bool
	}{
		{"Jane Doe works at Acme Events BV in Amsterdam", true},
		{"John is working at Acme Events BV", true},
		{"An employee of Acme Events BV since 2019", true},
		{"Festival Director at Acme Events BV", true},
		{"Directeur bij Acme Events BV", true},
		{"Acme Events BV team member for the main stage", true},
		// Co-occurrence without an employment phrase must not pass.
		{"Jane Doe, Festival Director. She loves Acme Events BV and attends every year.", false},
		{"Acme Events BV is a great company. Jane works at Other Corp.", false},
		{"works at Acme Catering BV", false},
	}
	for _, tc := range cases {
		got, _ := verifyEmployment(tc.text, gates)
		assert.Equal(t, tc.want, got, tc.text)
	}
}

func TestVerifyEmployment_ExactNameRequired(t *testing.T) {
	gates := employmentGate("Acme Events")
	// Substring names do not leak: the phrase must name the exact company.
	ok, _ := verifyEmployment("works at Acme", gates)
	assert.False(t, ok)
}

func TestClassifyRole_Precedence(t *testing.T) {
	cases := []struct {
		title string
		want  model.RoleBucket
	}{
		{"Founder and CEO", model.RoleDecisionMaker},
		{"Managing Director", model.RoleDecisionMaker},
		{"Marketing Manager", model.RoleManager},
		{"Head of Production", model.RoleManager},
		{"Stage Coordinator", model.RoleTeamMember},
		{"Producer", model.RoleTeamMember},
		{"Photographer", model.RoleUnknown},
		// Decision-maker keyword wins even with manager words present.
		{"Director and Production Manager", model.RoleDecisionMaker},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, classifyRole(tc.title), tc.title)
	}
}

func TestProfileName(t *testing.T) {
	name, headline := profileName("Jane Doe - Festival Director - Acme Events | LinkedIn")
	assert.Equal(t, "Jane Doe", name)
	assert.Equal(t, "Festival Director - Acme Events", headline)

	name, headline = profileName("Jane Doe")
	assert.Equal(t, "Jane Doe", name)
	assert.Empty(t, headline)
}

func TestLinkedInPhase_AcceptsVerifiedDecisionMaker(t *testing.T) {
	search := &fakeSearcher{evidence: map[string][]model.Evidence{
		gateway.PurposeLinkedInCompany: {{
			URL:          "https://www.linkedin.com/company/acme-events",
			Title:        "Acme Events BV | LinkedIn",
			Text:         "Acme Events BV organizes festivals across the Netherlands.",
			QualityScore: 0.7,
		}},
		gateway.PurposeLinkedInPeople: {
			{
				URL:          "https://www.linkedin.com/in/jane-doe",
				Title:        "Jane Doe - Festival Director - Acme Events BV | LinkedIn",
				Text:         "Festival Director at Acme Events BV. Based in Utrecht.",
				QualityScore: 0.6,
			},
			{
				URL:          "https://www.linkedin.com/in/someone-else",
				Title:        "Someone Else - Photographer | LinkedIn",
				Text:         "Loves Acme Events BV festivals, attends every edition.",
				QualityScore: 0.9,
			},
		},
	}}

	result, err := LinkedInPhase(context.Background(), model.Festival{Name: "Testfest"}, "Acme Events BV", search)
	require.NoError(t, err)

	require.NotNil(t, result.CompanyPage)
	assert.Equal(t, "https://www.linkedin.com/company/acme-events", result.CompanyPage.URL)

	require.Len(t, result.People, 1)
	p := result.People[0]
	assert.Equal(t, "Jane Doe", p.Name)
	assert.Equal(t, model.RoleDecisionMaker, p.Role)
	assert.True(t, p.EmploymentVerified)

	// The photographer is rejected by the employment gate, counted but not
	// treated as a warning or error.
	assert.Equal(t, 1, result.Rejected)
	assert.InDelta(t, 0.55, result.Confidence, 1e-9)
}

func TestLinkedInPhase_NoCompanyFallsBackToFestivalName(t *testing.T) {
	search := &fakeSearcher{evidence: map[string][]model.Evidence{
		gateway.PurposeLinkedInPeople: {{
			URL:          "https://www.linkedin.com/in/founder",
			Title:        "Founder Person - Founder - Testfest | LinkedIn",
			Text:         "Founder of Testfest, running the event since 2015.",
			QualityScore: 0.5,
		}},
	}}

	result, err := LinkedInPhase(context.Background(), model.Festival{Name: "Testfest"}, "", search)
	require.NoError(t, err)
	require.Len(t, result.People, 1)
	assert.Equal(t, model.RoleDecisionMaker, result.People[0].Role)
}

func TestLinkedInPhase_NonProfileURLsIgnored(t *testing.T) {
	search := &fakeSearcher{evidence: map[string][]model.Evidence{
		gateway.PurposeLinkedInPeople: {{
			URL:          "https://www.linkedin.com/pulse/some-article",
			Title:        "Working at Acme Events BV is great",
			Text:         "An article about working at Acme Events BV.",
			QualityScore: 0.9,
		}},
	}}

	result, err := LinkedInPhase(context.Background(), model.Festival{Name: "Testfest"}, "Acme Events BV", search)
	require.NoError(t, err)
	assert.Empty(t, result.People)
	assert.Zero(t, result.Rejected)
}

func TestLinkedInPhase_BothQueriesFailing(t *testing.T) {
	boom := errors.New("backend down")
	search := &fakeSearcher{errors: map[string]error{
		gateway.PurposeLinkedInCompany: boom,
		gateway.PurposeLinkedInPeople:  boom,
	}}

	_, err := LinkedInPhase(context.Background(), model.Festival{Name: "Testfest"}, "Acme", search)
	require.Error(t, err)
}

func TestLinkedInPhase_ConfidenceCapped(t *testing.T) {
	people := make([]model.Evidence, 0, 6)
	for _, slug := range []string{"a", "b", "c", "d", "e", "f"} {
		people = append(people, model.Evidence{
			URL:          "https://www.linkedin.com/in/person-" + slug,
			Title:        "Person " + slug + " - Director - Acme | LinkedIn",
			Text:         "Director at Acme since 2020.",
			QualityScore: 0.9,
		})
	}
	search := &fakeSearcher{evidence: map[string][]model.Evidence{
		gateway.PurposeLinkedInCompany: {{
			URL:          "https://www.linkedin.com/company/acme",
			Title:        "Acme | LinkedIn",
			Text:         "Acme, festival organizers.",
			QualityScore: 0.9,
		}},
		gateway.PurposeLinkedInPeople: people,
	}}

	result, err := LinkedInPhase(context.Background(), model.Festival{Name: "Testfest"}, "Acme", search)
	require.NoError(t, err)
	assert.Len(t, result.People, 6)
	assert.LessOrEqual(t, result.Confidence, 0.95)
}
