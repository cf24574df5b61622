package agent

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/matiasleandrokruk/jiraagent/internal/domain/tool"
)

// Kind is the operation a query asks for.
type Kind string

const (
	KindFetch   Kind = "fetch"
	KindCreate  Kind = "create"
	KindBulk    Kind = "bulk"
	KindUnknown Kind = "unknown"
)

// Confidence says whether the extracted arguments are enough to call the tool.
type Confidence string

const (
	ConfidenceComplete   Confidence = "complete"
	ConfidenceIncomplete Confidence = "incomplete"
)

// UnknownProjectKey marks a fetch whose project key could not be found.
const UnknownProjectKey = "unknown"

// Classification is the classifier's verdict for one query. Args uses the
// target tool's input field names.
type Classification struct {
	Kind       Kind              `json:"kind"`
	Args       map[string]string `json:"args,omitempty"`
	Confidence Confidence        `json:"confidence"`
}

// Direct reports whether the dispatcher may call the tool without the model.
func (c Classification) Direct() bool {
	return c.Kind != KindUnknown && c.Confidence == ConfidenceComplete
}

// Tool is the registry name for the classified kind, or "".
func (c Classification) Tool() string {
	switch c.Kind {
	case KindFetch:
		return tool.BuiltinFetchJiraTickets
	case KindCreate:
		return tool.BuiltinCreateJiraTicket
	case KindBulk:
		return tool.BuiltinBulkCreateJiraTickets
	default:
		return ""
	}
}

// Input encodes Args as the tool's JSON input.
func (c Classification) Input() json.RawMessage {
	b, _ := json.Marshal(c.Args)
	return b
}

var (
	fetchVerbs  = regexp.MustCompile(`\b(get|fetch|list|show|find|display)\b`)
	createVerbs = regexp.MustCompile(`\b(create|add|new|make)\b`)
	debugWords  = regexp.MustCompile(`\b(debug|diagnose|diagnostics?|troubleshoot)\b|\b(test|check)(ing)? (the )?(jira )?connection\b`)
	bulkWords   = regexp.MustCompile(`\b(bulk|multiple|several|batch)\b`)

	projectKeyPattern = regexp.MustCompile(`\b[A-Z]{2,}[0-9]*\b`)
	// "project ENBDX", then "ENBDX project"
	keyAfterProject  = regexp.MustCompile(`(?i:\bproject)\s+([A-Z]{2,}[0-9]*)\b`)
	keyBeforeProject = regexp.MustCompile(`\b([A-Z]{2,}[0-9]*)\s+(?i:project)\b`)
	lowerLetter      = regexp.MustCompile(`[a-z]`)

	markerPattern = regexp.MustCompile(`(?i)\b(title|summary|description|details|project|priority|assignee|issue ?type|type)\s*:`)

	bugWords   = regexp.MustCompile(`\b(bug|defect)s?\b`)
	epicWords  = regexp.MustCompile(`\bepics?\b`)
	storyWords = regexp.MustCompile(`\b(user )?stor(y|ies)\b`)
)

// nonKeys are all-caps words not taken for a project key unless the text
// names them as one ("project QA"). In all-caps text they are never keys.
var nonKeys = map[string]struct{}{
	"JIRA": {}, "API": {}, "JSON": {}, "URL": {}, "ID": {}, "BUG": {}, "HTTP": {}, "HTTPS": {},
	"REST": {}, "ALL": {}, "THE": {}, "AND": {}, "FOR": {}, "NEW": {}, "OPEN": {}, "TODO": {},
	"ASAP": {}, "UI": {}, "UX": {}, "QA": {}, "PR": {}, "OK": {},
	"GET": {}, "FETCH": {}, "LIST": {}, "SHOW": {}, "FIND": {}, "DISPLAY": {},
	"CREATE": {}, "ADD": {}, "MAKE": {},
	"EPIC": {}, "STORY": {}, "TASK": {}, "TICKET": {}, "TICKETS": {}, "ISSUE": {}, "ISSUES": {},
	"PROJECT": {}, "PROJECTS": {}, "PLEASE": {},
	"IN": {}, "OF": {}, "TO": {}, "ON": {}, "AT": {}, "BY": {}, "OR": {}, "AN": {}, "AS": {},
	"IS": {}, "IT": {}, "BE": {}, "MY": {}, "ME": {}, "WE": {}, "US": {}, "OUR": {}, "YOU": {},
	"FROM": {}, "WITH": {}, "INTO": {}, "THAT": {}, "THIS": {}, "ANY": {}, "ARE": {}, "NOT": {},
	"CAN": {}, "ABOUT": {}, "LATEST": {}, "RECENT": {}, "CLOSED": {},
}

// Classify maps free text to an operation. Best effort: anything it cannot
// read confidently comes back incomplete or unknown for the model to resolve.
func Classify(query string) Classification {
	lower := strings.ToLower(query)
	if debugWords.MatchString(lower) {
		return unknownClassification()
	}

	fetchAt := firstIndex(fetchVerbs, lower)
	createAt := firstIndex(createVerbs, lower)

	switch {
	case createAt >= 0 && (fetchAt < 0 || createAt < fetchAt):
		if bulkWords.MatchString(lower) {
			return Classification{Kind: KindBulk, Args: map[string]string{}, Confidence: ConfidenceIncomplete}
		}
		return classifyCreate(query, lower)
	case fetchAt >= 0:
		return classifyFetch(query)
	default:
		return unknownClassification()
	}
}

func unknownClassification() Classification {
	return Classification{Kind: KindUnknown, Args: map[string]string{}, Confidence: ConfidenceIncomplete}
}

func classifyFetch(query string) Classification {
	key := ExtractProjectKey(query)
	if key == "" {
		return Classification{
			Kind:       KindFetch,
			Args:       map[string]string{"project_key": UnknownProjectKey},
			Confidence: ConfidenceIncomplete,
		}
	}
	return Classification{
		Kind:       KindFetch,
		Args:       map[string]string{"project_key": key},
		Confidence: ConfidenceComplete,
	}
}

func classifyCreate(query, lower string) Classification {
	fields, firstMarker := readMarkers(query)

	args := map[string]string{}
	if v := firstNonEmpty(fields["summary"], fields["title"]); v != "" {
		args["summary"] = v
	}
	if v := firstNonEmpty(fields["description"], fields["details"]); v != "" {
		args["description"] = v
	}
	if v := fields["priority"]; v != "" {
		args["priority"] = v
	}
	if v := fields["assignee"]; v != "" {
		args["assignee"] = v
	}

	project := strings.ToUpper(strings.TrimSpace(fields["project"]))
	if project == "" {
		project = ExtractProjectKey(query[:firstMarker])
	}
	if project != "" {
		args["project"] = project
	}

	args["issuetype"] = firstNonEmpty(fields["issuetype"], fields["issue type"], fields["type"], issueTypeFromText(lower))

	confidence := ConfidenceIncomplete
	if args["project"] != "" && args["summary"] != "" && args["description"] != "" {
		confidence = ConfidenceComplete
	}
	return Classification{Kind: KindCreate, Args: args, Confidence: confidence}
}

// ExtractProjectKey returns the project key named in text, or "". A key next
// to the word "project" wins over the first key-shaped token and is taken as
// written, unless the whole text is upper-case.
func ExtractProjectKey(text string) string {
	shouting := !lowerLetter.MatchString(text)
	for _, re := range []*regexp.Regexp{keyAfterProject, keyBeforeProject} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if !shouting || isProjectKey(m[1]) {
				return m[1]
			}
		}
	}
	for _, candidate := range projectKeyPattern.FindAllString(text, -1) {
		if isProjectKey(candidate) {
			return candidate
		}
	}
	return ""
}

func isProjectKey(s string) bool {
	if s == "" {
		return false
	}
	_, skip := nonKeys[s]
	return !skip
}

// readMarkers splits "key: value" segments. Each value runs to the next
// marker. It returns the lower-cased markers and the offset of the first one
// (len(query) when there is none).
func readMarkers(query string) (map[string]string, int) {
	locs := markerPattern.FindAllStringSubmatchIndex(query, -1)
	out := make(map[string]string, len(locs))
	if len(locs) == 0 {
		return out, len(query)
	}
	for i, loc := range locs {
		name := strings.ToLower(query[loc[2]:loc[3]])
		end := len(query)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		value := strings.Trim(strings.TrimSpace(query[loc[1]:end]), `,;"'`)
		value = strings.TrimSpace(value)
		if _, seen := out[name]; !seen && value != "" {
			out[name] = value
		}
	}
	return out, locs[0][0]
}

func issueTypeFromText(lower string) string {
	switch {
	case bugWords.MatchString(lower):
		return "Bug"
	case epicWords.MatchString(lower):
		return "Epic"
	case storyWords.MatchString(lower):
		return "Story"
	default:
		return "Task"
	}
}

func firstIndex(re *regexp.Regexp, s string) int {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return -1
	}
	return loc[0]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// sortedKeys is used for stable log output.
func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
