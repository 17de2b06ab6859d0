package domain

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewAuthenticationManagerFromConfig(t *testing.T) {
	config := &Config{
		Jira: &ToolConfig{
			BaseURL: "https://jira.example.com",
			Auth: &AuthConfig{
				Type:     "basic",
				Username: "jirauser",
				Password: "jirapass",
			},
		},
	}

	am := NewAuthenticationManagerFromConfig(config)

	if !am.HasCredentials("jira") {
		t.Fatal("expected jira credentials")
	}
	if err := am.ValidateCredentials("jira"); err != nil {
		t.Errorf("expected valid credentials, got %v", err)
	}
	if err := am.ValidateCredentials("confluence"); err == nil {
		t.Error("expected error for unconfigured tool")
	}
}

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name    string
		creds   *Credentials
		wantErr string
	}{
		{"nil", nil, "credentials cannot be nil"},
		{"basic ok", &Credentials{Type: BasicAuth, Username: "u", Password: "p"}, ""},
		{"basic no user", &Credentials{Type: BasicAuth, Password: "p"}, "username is required"},
		{"basic no password", &Credentials{Type: BasicAuth, Username: "u"}, "password is required"},
		{"token ok", &Credentials{Type: TokenAuth, Token: "t"}, ""},
		{"token empty", &Credentials{Type: TokenAuth}, "token is required"},
		{"unknown type", &Credentials{Type: AuthType(42)}, "invalid authentication type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCredentials(tt.creds)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

// captureAuthorization returns a server that records the Authorization header.
func captureAuthorization(t *testing.T) (*httptest.Server, *string) {
	t.Helper()
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, &got
}

func TestGetAuthenticatedClient_BasicAuth(t *testing.T) {
	server, got := captureAuthorization(t)

	am := NewAuthenticationManager(map[string]*Credentials{
		"jira": {Type: BasicAuth, Username: "me@example.com", Password: "api-token"},
	})

	client, err := am.GetAuthenticatedClient("jira")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("me@example.com:api-token"))
	if *got != want {
		t.Errorf("Authorization = %q, want %q", *got, want)
	}
}

func TestGetAuthenticatedClient_TokenAuth(t *testing.T) {
	server, got := captureAuthorization(t)

	am := NewAuthenticationManager(map[string]*Credentials{
		"jira": {Type: TokenAuth, Token: "personal-access-token"},
	})

	client, err := am.GetAuthenticatedClient("jira")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if *got != "Bearer personal-access-token" {
		t.Errorf("Authorization = %q, want bearer token", *got)
	}
}

func TestGetAuthenticatedClientWithCredentials(t *testing.T) {
	am := NewAuthenticationManager(map[string]*Credentials{})

	if _, err := am.GetAuthenticatedClient("jira"); err == nil {
		t.Error("expected error without default credentials")
	}
	if _, err := am.GetAuthenticatedClientWithCredentials(&Credentials{Type: TokenAuth}); err == nil {
		t.Error("expected error for empty token")
	}

	client, err := am.GetAuthenticatedClientWithCredentials(&Credentials{Type: TokenAuth, Token: "t"})
	if err != nil || client == nil {
		t.Fatalf("expected client, got %v", err)
	}
}

func TestBasicAuthTransport_PreservesOriginalRequest(t *testing.T) {
	server, _ := captureAuthorization(t)

	transport := &basicAuthTransport{base: http.DefaultTransport, username: "u", password: "p"}
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)

	resp, err := transport.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	resp.Body.Close()

	if req.Header.Get("Authorization") != "" {
		t.Error("original request was modified")
	}
}

func TestExtractCredentialsFromArguments(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]any
		wantNil  bool
		wantErr  bool
		wantType AuthType
	}{
		{name: "absent", args: map[string]any{"issueKey": "PROJ-1"}, wantNil: true},
		{name: "not an object", args: map[string]any{"auth": "secret"}, wantErr: true},
		{
			name: "basic",
			args: map[string]any{"auth": map[string]any{
				"type": "basic", "username": "u", "password": "p",
			}},
			wantType: BasicAuth,
		},
		{
			name:     "token",
			args:     map[string]any{"auth": map[string]any{"type": "token", "token": "t"}},
			wantType: TokenAuth,
		},
		{
			name:    "token missing value",
			args:    map[string]any{"auth": map[string]any{"type": "token"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, err := ExtractCredentialsFromArguments(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if creds != nil {
					t.Errorf("expected nil credentials, got %+v", creds)
				}
				return
			}
			if creds == nil || creds.Type != tt.wantType {
				t.Errorf("expected %v credentials, got %+v", tt.wantType, creds)
			}
		})
	}
}
