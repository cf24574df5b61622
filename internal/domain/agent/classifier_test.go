package agent

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasleandrokruk/jiraagent/internal/domain/tool"
)

func TestClassify_FetchWithProjectKey(t *testing.T) {
	t.Parallel()

	c := Classify("Fetch all open tickets in the ENBDX project")
	assert.Equal(t, KindFetch, c.Kind)
	assert.Equal(t, map[string]string{"project_key": "ENBDX"}, c.Args)
	assert.Equal(t, ConfidenceComplete, c.Confidence)
	assert.True(t, c.Direct())
	assert.Equal(t, tool.BuiltinFetchJiraTickets, c.Tool())
	assert.JSONEq(t, `{"project_key":"ENBDX"}`, string(c.Input()))
}

func TestClassify_FetchWithoutKey(t *testing.T) {
	t.Parallel()

	c := Classify("show me my tickets please")
	assert.Equal(t, KindFetch, c.Kind)
	assert.Equal(t, UnknownProjectKey, c.Args["project_key"])
	assert.Equal(t, ConfidenceIncomplete, c.Confidence)
	assert.False(t, c.Direct())
}

func TestClassify_FetchSkipsNonKeyAcronyms(t *testing.T) {
	t.Parallel()

	c := Classify("List JIRA API issues for PAY2 via JSON")
	assert.Equal(t, "PAY2", c.Args["project_key"])
}

// Any key-shaped token next to a fetch verb is extracted verbatim. Keys
// named next to "project" are taken even when they look like common words.
func TestClassify_FetchKeyExtractionProperty(t *testing.T) {
	t.Parallel()

	named := []string{
		"Fetch all open tickets in the %s project",
		"display everything from project %s please",
		"show tickets in project %s",
	}
	bare := []string{
		"show me %s tickets",
		"list issues for %s",
		"get %s",
		"Can you find the latest tickets in %s?",
		"%s: fetch the backlog",
	}
	rng := rand.New(rand.NewPCG(7, 11))
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	for i := 0; i < 500; i++ {
		key := make([]byte, 0, 8)
		for n := 2 + rng.IntN(5); n > 0; n-- {
			key = append(key, letters[rng.IntN(len(letters))])
		}
		for n := rng.IntN(3); n > 0; n-- {
			key = append(key, byte('0'+rng.IntN(10)))
		}
		if debugWords.MatchString(strings.ToLower(string(key))) {
			continue
		}

		templates := named
		if i%2 == 1 {
			if !isProjectKey(string(key)) {
				continue
			}
			templates = bare
		}
		query := fmt.Sprintf(templates[i%len(templates)], key)

		c := Classify(query)
		require.Equal(t, KindFetch, c.Kind, query)
		require.Equal(t, string(key), c.Args["project_key"], query)
		require.Equal(t, ConfidenceComplete, c.Confidence, query)
	}
}

func TestClassify_FetchKeyNamedAsProject(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Fetch all open tickets in the QA project": "QA",
		"show tickets in project UI":               "UI",
		"list issues for project OPEN":             "OPEN",
		"Get the PR tickets in project PR":         "PR",
	}
	for q, want := range cases {
		c := Classify(q)
		assert.Equal(t, want, c.Args["project_key"], q)
		assert.Equal(t, ConfidenceComplete, c.Confidence, q)
	}
}

func TestClassify_FetchUpperCaseQuery(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"FETCH ALL TICKETS IN ENBDX":        "ENBDX",
		"SHOW MY TICKETS FROM PROJECT PAY2": "PAY2",
		"LIST ISSUES IN THE CORE PROJECT":   "CORE",
		"GET TICKETS IN PROJECT ENBDX":      "ENBDX",
	}
	for q, want := range cases {
		c := Classify(q)
		assert.Equal(t, want, c.Args["project_key"], q)
		assert.Equal(t, ConfidenceComplete, c.Confidence, q)
	}

	c := Classify("SHOW ME ALL MY TICKETS")
	assert.Equal(t, UnknownProjectKey, c.Args["project_key"])
	assert.Equal(t, ConfidenceIncomplete, c.Confidence)
}

func TestClassify_CreateWithoutMarkersIsIncomplete(t *testing.T) {
	t.Parallel()

	c := Classify("create ticket")
	assert.Equal(t, KindCreate, c.Kind)
	assert.Equal(t, ConfidenceIncomplete, c.Confidence)
	assert.False(t, c.Direct())
}

// Missing either summary or description always leaves create incomplete.
func TestClassify_CreateMissingMarkerProperty(t *testing.T) {
	t.Parallel()

	queries := []string{
		"create a ticket in ENBDX summary: Login broken",
		"create a ticket in ENBDX description: users cannot log in",
		"add a task to PAY title: Rotate keys",
		"make new issue in PAY details: rotate every key",
		"create ticket project: ENBDX",
		"Create a bug in ABC with summary: crash",
	}
	for _, q := range queries {
		c := Classify(q)
		assert.Equal(t, KindCreate, c.Kind, q)
		assert.Equal(t, ConfidenceIncomplete, c.Confidence, q)
	}
}

func TestClassify_CreateComplete(t *testing.T) {
	t.Parallel()

	c := Classify("Create a ticket in ENBDX summary: Login page broken, description: Users get a 500 on submit priority: High")
	assert.Equal(t, KindCreate, c.Kind)
	assert.Equal(t, ConfidenceComplete, c.Confidence)
	assert.Equal(t, "ENBDX", c.Args["project"])
	assert.Equal(t, "Login page broken", c.Args["summary"])
	assert.Equal(t, "Users get a 500 on submit", c.Args["description"])
	assert.Equal(t, "High", c.Args["priority"])
	assert.Equal(t, "Task", c.Args["issuetype"])
	assert.Equal(t, tool.BuiltinCreateJiraTicket, c.Tool())
}

func TestClassify_CreateProjectMarker(t *testing.T) {
	t.Parallel()

	c := Classify("please create an issue project: pay title: Rotate keys details: rotate all signing keys")
	assert.Equal(t, ConfidenceComplete, c.Confidence)
	assert.Equal(t, "PAY", c.Args["project"])
	assert.Equal(t, "Rotate keys", c.Args["summary"])
	assert.Equal(t, "rotate all signing keys", c.Args["description"])
}

func TestClassify_CreateIssueType(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"create a bug in ABC summary: s description: d":             "Bug",
		"create an epic in ABC summary: s description: d":           "Epic",
		"add a user story to ABC summary: s description: d":         "Story",
		"create in ABC summary: s description: d":                   "Task",
		"create in ABC type: Improvement summary: s description: d": "Improvement",
	}
	for q, want := range cases {
		assert.Equal(t, want, Classify(q).Args["issuetype"], q)
	}
}

func TestClassify_Bulk(t *testing.T) {
	t.Parallel()

	c := Classify("create multiple stories in ENBDX for the login epic")
	assert.Equal(t, KindBulk, c.Kind)
	assert.Equal(t, ConfidenceIncomplete, c.Confidence)
	assert.Equal(t, tool.BuiltinBulkCreateJiraTickets, c.Tool())
}

func TestClassify_EarliestVerbWins(t *testing.T) {
	t.Parallel()

	assert.Equal(t, KindFetch, Classify("list the new tickets in ABC").Kind)
	assert.Equal(t, KindCreate, Classify("create a ticket to list ABC releases").Kind)
}

func TestClassify_Unknown(t *testing.T) {
	t.Parallel()

	for _, q := range []string{
		"debug the jira connection",
		"diagnose why ENBDX fails",
		"check connection to jira",
		"what is the weather",
		"",
	} {
		c := Classify(q)
		assert.Equal(t, KindUnknown, c.Kind, q)
		assert.False(t, c.Direct(), q)
		assert.Empty(t, c.Tool(), q)
	}
}

func TestExtractProjectKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", ExtractProjectKey("nothing here"))
	assert.Equal(t, "ABC", ExtractProjectKey("see ABC-123"))
	assert.Equal(t, "CORE", ExtractProjectKey("QA tickets in project CORE"))
}
