package domain

import (
	"encoding/json"
	"fmt"

	"jira-mcp-server/internal/adf"
)

// FlexibleID is a type that can unmarshal both string and numeric IDs from JSON.
type FlexibleID string

// UnmarshalJSON implements custom unmarshaling to handle both string and numeric IDs.
func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexibleID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexibleID(n.String())
		return nil
	}

	return fmt.Errorf("id must be a string or number")
}

// String returns the string representation of the ID.
func (f FlexibleID) String() string {
	return string(f)
}

// Issue is a Jira issue as returned by GET /rest/api/3/issue/{key}.
type Issue struct {
	ID     FlexibleID  `json:"id"`
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

// IssueFields holds the issue fields the tools report. Description is an
// ADF document and is passed through untouched.
type IssueFields struct {
	Summary     string          `json:"summary"`
	Description json.RawMessage `json:"description,omitempty"`
	Status      *Named          `json:"status,omitempty"`
	Assignee    *User           `json:"assignee,omitempty"`
	Priority    *Named          `json:"priority,omitempty"`
	Labels      []string        `json:"labels,omitempty"`
	Created     string          `json:"created,omitempty"`
	Updated     string          `json:"updated,omitempty"`
}

// Named is any Jira entity identified by a display name (status, priority,
// issue type).
type Named struct {
	ID   FlexibleID `json:"id,omitempty"`
	Name string     `json:"name"`
}

// User is a Jira user reference.
type User struct {
	AccountID    string `json:"accountId,omitempty"`
	Name         string `json:"name,omitempty"`
	DisplayName  string `json:"displayName,omitempty"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

// SearchRequest is the body of POST /rest/api/3/search.
type SearchRequest struct {
	JQL        string   `json:"jql"`
	MaxResults int      `json:"maxResults"`
	Fields     []string `json:"fields"`
}

// SearchResults is the answer to a JQL search.
type SearchResults struct {
	Issues     []Issue `json:"issues"`
	Total      int     `json:"total"`
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
}

// IssueCreate is the body of POST /rest/api/3/issue.
type IssueCreate struct {
	Fields IssueCreateFields `json:"fields"`
}

// IssueCreateFields are the fields set on a new issue.
type IssueCreateFields struct {
	Project     ProjectRef `json:"project"`
	Summary     string     `json:"summary"`
	Description *adf.Node  `json:"description"`
	IssueType   NameRef    `json:"issuetype"`
	Priority    *NameRef   `json:"priority,omitempty"`
	Labels      []string   `json:"labels,omitempty"`
	Assignee    *NameRef   `json:"assignee,omitempty"`
}

// ProjectRef references a project by key.
type ProjectRef struct {
	Key string `json:"key"`
}

// NameRef references an entity (issue type, priority, user) by name.
type NameRef struct {
	Name string `json:"name"`
}

// CreatedIssue is the answer to an issue creation.
type CreatedIssue struct {
	ID   FlexibleID `json:"id"`
	Key  string     `json:"key"`
	Self string     `json:"self,omitempty"`
}

// IssueUpdate is the body of PUT /rest/api/3/issue/{key}. Only non-empty
// fields are sent.
type IssueUpdate struct {
	Fields IssueUpdateFields `json:"fields"`
}

// IssueUpdateFields are the fields that can be changed on an issue.
// Labels is a pointer so that an empty list is sent and clears the labels.
type IssueUpdateFields struct {
	Summary     string    `json:"summary,omitempty"`
	Description *adf.Node `json:"description,omitempty"`
	Assignee    *NameRef  `json:"assignee,omitempty"`
	Labels      *[]string `json:"labels,omitempty"`
}

// CommentCreate is the body of POST /rest/api/3/issue/{key}/comment.
type CommentCreate struct {
	Body *adf.Node `json:"body"`
}

// CreatedComment is the answer to a comment creation.
type CreatedComment struct {
	ID FlexibleID `json:"id"`
}

// Transition is a workflow transition available on an issue.
type Transition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	To   *Named `json:"to,omitempty"`
}

// TransitionList is the answer of GET /rest/api/3/issue/{key}/transitions.
type TransitionList struct {
	Transitions []Transition `json:"transitions"`
}

// TransitionRequest is the body of POST /rest/api/3/issue/{key}/transitions.
type TransitionRequest struct {
	Transition TransitionRef `json:"transition"`
}

// TransitionRef references a transition by id.
type TransitionRef struct {
	ID string `json:"id"`
}

// Project is a Jira project as returned by GET /rest/api/3/project/{key}.
type Project struct {
	ID          FlexibleID `json:"id"`
	Key         string     `json:"key"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Lead        *User      `json:"lead,omitempty"`
	IssueTypes  []Named    `json:"issueTypes,omitempty"`
}
