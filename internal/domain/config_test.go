package domain

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearJiraEnv keeps the developer's environment out of config tests.
func clearJiraEnv(t *testing.T) {
	t.Helper()
	for _, env := range envBindings {
		t.Setenv(env, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	clearJiraEnv(t)
	path := writeConfig(t, `
transport:
  type: stdio
jira:
  base_url: https://example.atlassian.net/
  auth:
    type: basic
    username: testuser
    password: testpass
documents:
  merge_lists: true
transitions:
  retry_on_conflict: true
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want nil", err)
	}

	if config.Transport.Type != "stdio" {
		t.Errorf("Transport.Type = %s, want stdio", config.Transport.Type)
	}
	if config.Jira.BaseURL != "https://example.atlassian.net" {
		t.Errorf("Jira.BaseURL = %s, want trailing slash trimmed", config.Jira.BaseURL)
	}
	if config.Jira.Auth.Username != "testuser" {
		t.Errorf("Jira.Auth.Username = %s, want testuser", config.Jira.Auth.Username)
	}
	if !config.Documents.MergeLists || config.Documents.CodeBlocks {
		t.Errorf("Documents = %+v, want only merge_lists", config.Documents)
	}
	if !config.Transitions.RetryOnConflict {
		t.Error("Transitions.RetryOnConflict = false, want true")
	}
	if config.Log.Level != "info" || config.Log.Format != "json" {
		t.Errorf("Log = %+v, want defaults", config.Log)
	}
}

func TestLoadConfig_EnvironmentOnly(t *testing.T) {
	clearJiraEnv(t)
	t.Setenv("JIRA_HOST", "example.atlassian.net")
	t.Setenv("JIRA_USERNAME", "me@example.com")
	t.Setenv("JIRA_API_TOKEN", "secret")
	t.Setenv("LOG_LEVEL", "debug")

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want nil", err)
	}

	if config.Jira.BaseURL != "https://example.atlassian.net" {
		t.Errorf("Jira.BaseURL = %s, want https://example.atlassian.net", config.Jira.BaseURL)
	}
	if config.Jira.Auth == nil || config.Jira.Auth.Type != "basic" || config.Jira.Auth.Password != "secret" {
		t.Errorf("Jira.Auth = %+v, want basic auth from environment", config.Jira.Auth)
	}
	if config.Log.Level != "debug" {
		t.Errorf("Log.Level = %s, want debug", config.Log.Level)
	}
}

func TestLoadConfig_EnvironmentOverridesFile(t *testing.T) {
	clearJiraEnv(t)
	t.Setenv("JIRA_BASE_URL", "https://override.example.com")
	path := writeConfig(t, `
jira:
  base_url: https://file.example.com
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want nil", err)
	}
	if config.Jira.BaseURL != "https://override.example.com" {
		t.Errorf("Jira.BaseURL = %s, want environment value", config.Jira.BaseURL)
	}
}

func TestLoadConfig_NoCredentials(t *testing.T) {
	clearJiraEnv(t)
	path := writeConfig(t, `
jira:
  base_url: https://jira.example.com
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want nil", err)
	}
	if config.Jira.Auth != nil {
		t.Errorf("Jira.Auth = %+v, want nil", config.Jira.Auth)
	}

	am := NewAuthenticationManagerFromConfig(config)
	if am.HasCredentials("jira") {
		t.Error("expected no default credentials")
	}
}

func TestLoadConfig_InferTokenAuth(t *testing.T) {
	clearJiraEnv(t)
	t.Setenv("JIRA_BASE_URL", "https://jira.example.com")
	t.Setenv("JIRA_TOKEN", "pat")

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want nil", err)
	}
	if config.Jira.Auth.Type != "token" {
		t.Errorf("Jira.Auth.Type = %s, want token", config.Jira.Auth.Type)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr string
	}{
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") },
			wantErr: "configuration file not found",
		},
		{
			name: "invalid yaml",
			path: func(t *testing.T) string {
				return writeConfig(t, "jira:\n  base_url: [unclosed\n")
			},
			wantErr: "invalid YAML syntax",
		},
		{
			name:    "no jira section",
			path:    func(t *testing.T) string { return writeConfig(t, "transport:\n  type: stdio\n") },
			wantErr: "jira configuration is required",
		},
		{
			name: "bad transport",
			path: func(t *testing.T) string {
				return writeConfig(t, "transport:\n  type: websocket\njira:\n  base_url: https://j.example.com\n")
			},
			wantErr: "invalid transport type 'websocket'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearJiraEnv(t)
			_, err := LoadConfig(tt.path(t))
			if err == nil {
				t.Fatal("LoadConfig() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadConfig() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Transport: TransportConfig{Type: "stdio"},
			Jira: &ToolConfig{
				BaseURL: "https://jira.example.com",
				Auth:    &AuthConfig{Type: "basic", Username: "u", Password: "p"},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr []string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{
			name:    "missing transport type",
			mutate:  func(c *Config) { c.Transport.Type = "" },
			wantErr: []string{"transport type is required"},
		},
		{
			name: "http without host or port",
			mutate: func(c *Config) {
				c.Transport.Type = "http"
			},
			wantErr: []string{"HTTP host is required", "invalid HTTP port 0"},
		},
		{
			name:    "relative base url",
			mutate:  func(c *Config) { c.Jira.BaseURL = "jira.example.com" },
			wantErr: []string{"base_url must use http or https scheme"},
		},
		{
			name:    "invalid auth type",
			mutate:  func(c *Config) { c.Jira.Auth.Type = "oauth" },
			wantErr: []string{"auth type 'oauth' is invalid"},
		},
		{
			name:    "basic without password",
			mutate:  func(c *Config) { c.Jira.Auth.Password = "" },
			wantErr: []string{"password is required for basic auth"},
		},
		{
			name: "basic with keyring",
			mutate: func(c *Config) {
				c.Jira.Auth.Password = ""
				c.Jira.Auth.Keyring = true
			},
		},
		{
			name:    "token without token",
			mutate:  func(c *Config) { c.Jira.Auth = &AuthConfig{Type: "token"} },
			wantErr: []string{"token is required for token auth"},
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "loud" },
			wantErr: []string{"invalid log level 'loud'"},
		},
		{
			name: "multiple errors",
			mutate: func(c *Config) {
				c.Transport.Type = "pipe"
				c.Jira.BaseURL = ""
				c.Log.Format = "xml"
			},
			wantErr: []string{"invalid transport type", "Jira base_url is required", "invalid log format"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(config)
			err := config.Validate()

			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() error = nil, want error")
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("Validate() error = %v, want it to contain %q", err, want)
				}
			}
		})
	}
}

func TestResolveSecrets(t *testing.T) {
	config := &Config{
		Jira: &ToolConfig{
			BaseURL: "https://jira.example.com",
			Auth:    &AuthConfig{Type: "basic", Username: "me", Keyring: true},
		},
	}

	var asked string
	err := config.ResolveSecrets(func(key string) (string, error) {
		asked = key
		return "from-keyring", nil
	})
	if err != nil {
		t.Fatalf("ResolveSecrets() error = %v", err)
	}
	if asked != "jira:me" {
		t.Errorf("lookup key = %s, want jira:me", asked)
	}
	if config.Jira.Auth.Password != "from-keyring" {
		t.Errorf("Password = %s, want from-keyring", config.Jira.Auth.Password)
	}

	config.Jira.Auth = &AuthConfig{Type: "token", Keyring: true}
	if err := config.ResolveSecrets(func(string) (string, error) { return "tok", nil }); err != nil {
		t.Fatalf("ResolveSecrets() error = %v", err)
	}
	if config.Jira.Auth.Token != "tok" {
		t.Errorf("Token = %s, want tok", config.Jira.Auth.Token)
	}

	lookupErr := errors.New("locked")
	err = config.ResolveSecrets(func(string) (string, error) { return "", lookupErr })
	if !errors.Is(err, lookupErr) {
		t.Errorf("ResolveSecrets() error = %v, want wrapped lookup error", err)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	clearJiraEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := SaveConfig(DefaultConfig("https://example.atlassian.net", "me@example.com"), path); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if config.Jira.Auth == nil || !config.Jira.Auth.Keyring || config.Jira.Auth.Username != "me@example.com" {
		t.Errorf("Jira.Auth = %+v, want keyring-backed basic auth", config.Jira.Auth)
	}
	if config.Transport.HTTP.Port != 8080 {
		t.Errorf("Transport.HTTP.Port = %d, want 8080", config.Transport.HTTP.Port)
	}
}
