package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"jira-mcp-server/internal/adf"
)

func TestAuthType(t *testing.T) {
	if BasicAuth.String() != "basic" {
		t.Errorf("BasicAuth.String() = %s, want basic", BasicAuth.String())
	}
	if TokenAuth.String() != "token" {
		t.Errorf("TokenAuth.String() = %s, want token", TokenAuth.String())
	}
	if ParseAuthType("token") != TokenAuth {
		t.Error("ParseAuthType(token) should return TokenAuth")
	}
	if ParseAuthType("invalid") != BasicAuth {
		t.Error("ParseAuthType(invalid) should return BasicAuth as default")
	}
}

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		code int
		want int
	}{
		{"ParseError", ParseError, -32700},
		{"InvalidRequest", InvalidRequest, -32600},
		{"MethodNotFound", MethodNotFound, -32601},
		{"InvalidParams", InvalidParams, -32602},
		{"InternalError", InternalError, -32603},
		{"AuthenticationError", AuthenticationError, -32002},
		{"APIError", APIError, -32003},
		{"RateLimitError", RateLimitError, -32005},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code != tt.want {
				t.Errorf("%s = %d, want %d", tt.name, tt.code, tt.want)
			}
		})
	}
}

func TestRequest_IsNotification(t *testing.T) {
	var req Request
	if err := json.Unmarshal([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`), &req); err != nil {
		t.Fatal(err)
	}
	if !req.IsNotification() {
		t.Error("expected a message without id to be a notification")
	}

	if err := json.Unmarshal([]byte(`{"jsonrpc":"2.0","id":0,"method":"ping"}`), &req); err != nil {
		t.Fatal(err)
	}
	if req.IsNotification() {
		t.Error("id 0 is still an id")
	}
}

func TestResponse_Wire(t *testing.T) {
	data, err := json.Marshal(&Response{JSONRPC: "2.0", Error: &Error{Code: ParseError, Message: "Parse error"}, Session: "abc"})
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.Contains(s, `"id":null`) {
		t.Errorf("expected explicit null id, got %s", s)
	}
	if strings.Contains(s, "abc") {
		t.Errorf("session must not be serialized, got %s", s)
	}
}

func TestFlexibleID(t *testing.T) {
	var issue Issue
	if err := json.Unmarshal([]byte(`{"id":10001,"key":"PROJ-1","fields":{"summary":"s"}}`), &issue); err != nil {
		t.Fatalf("numeric id: %v", err)
	}
	if issue.ID.String() != "10001" {
		t.Errorf("ID = %s, want 10001", issue.ID)
	}

	if err := json.Unmarshal([]byte(`{"id":"10002","key":"PROJ-2"}`), &issue); err != nil {
		t.Fatalf("string id: %v", err)
	}
	if issue.ID != "10002" {
		t.Errorf("ID = %s, want 10002", issue.ID)
	}

	var id FlexibleID
	if err := json.Unmarshal([]byte(`true`), &id); err == nil {
		t.Error("expected error for boolean id")
	}
}

func TestIssueCreate_Wire(t *testing.T) {
	create := IssueCreate{Fields: IssueCreateFields{
		Project:     ProjectRef{Key: "PROJ"},
		Summary:     "Broken login",
		Description: adf.FromText("Steps"),
		IssueType:   NameRef{Name: "Bug"},
	}}

	data, err := json.Marshal(create)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	fields := decoded["fields"].(map[string]any)
	desc := fields["description"].(map[string]any)
	if desc["type"] != "doc" || desc["version"] != float64(1) {
		t.Errorf("description is not an ADF document: %v", desc)
	}
	for _, absent := range []string{"priority", "labels", "assignee"} {
		if _, ok := fields[absent]; ok {
			t.Errorf("expected %s to be omitted", absent)
		}
	}
}

func TestIssueUpdate_Labels(t *testing.T) {
	empty := []string{}
	tests := []struct {
		name   string
		labels *[]string
		want   string
	}{
		{"unset", nil, `{"fields":{}}`},
		{"empty", &empty, `{"fields":{"labels":[]}}`},
	}
	for _, tt := range tests {
		data, err := json.Marshal(IssueUpdate{Fields: IssueUpdateFields{Labels: tt.labels}})
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != tt.want {
			t.Errorf("%s: got %s, want %s", tt.name, data, tt.want)
		}
	}
}

func TestSchemaHelpers(t *testing.T) {
	p := StringPropertyWithDefault("Issue type", "Task")
	if p["type"] != "string" || p["default"] != "Task" {
		t.Errorf("unexpected string property %v", p)
	}
	n := NumberProperty("Max results", 50)
	if n["type"] != "number" || n["default"] != 50 {
		t.Errorf("unexpected number property %v", n)
	}
	a := StringArrayProperty("Labels")
	if items, ok := a["items"].(map[string]any); !ok || items["type"] != "string" {
		t.Errorf("unexpected array property %v", a)
	}
}
