package domain

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
// It is read from a YAML file and can be overridden from the environment.
type Config struct {
	Transport   TransportConfig   `yaml:"transport" mapstructure:"transport"`
	Jira        *ToolConfig       `yaml:"jira,omitempty" mapstructure:"jira"`
	Documents   DocumentsConfig   `yaml:"documents" mapstructure:"documents"`
	Transitions TransitionsConfig `yaml:"transitions" mapstructure:"transitions"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// TransportConfig defines transport settings.
type TransportConfig struct {
	Type string     `yaml:"type" mapstructure:"type"` // "stdio" or "http"
	HTTP HTTPConfig `yaml:"http,omitempty" mapstructure:"http"`
}

// HTTPConfig defines HTTP transport settings.
// Only used when transport type is "http".
type HTTPConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

// ToolConfig defines how to reach the Jira site.
type ToolConfig struct {
	BaseURL string      `yaml:"base_url" mapstructure:"base_url"`
	Host    string      `yaml:"host,omitempty" mapstructure:"host"` // shorthand for https://<host>
	Auth    *AuthConfig `yaml:"auth,omitempty" mapstructure:"auth"` // Optional - if not provided, client must provide credentials
}

// AuthConfig defines authentication settings.
// Basic auth pairs a username with a password or Atlassian API token;
// token auth sends a bearer token.
type AuthConfig struct {
	Type     string `yaml:"type" mapstructure:"type"` // "basic" or "token"
	Username string `yaml:"username,omitempty" mapstructure:"username"`
	Password string `yaml:"password,omitempty" mapstructure:"password"`
	Token    string `yaml:"token,omitempty" mapstructure:"token"`
	Keyring  bool   `yaml:"keyring,omitempty" mapstructure:"keyring"` // secret lives in the OS keyring
}

// DocumentsConfig toggles the optional document conversion features.
type DocumentsConfig struct {
	MergeLists  bool `yaml:"merge_lists" mapstructure:"merge_lists"`
	CodeBlocks  bool `yaml:"code_blocks" mapstructure:"code_blocks"`
	InlineMarks bool `yaml:"inline_marks" mapstructure:"inline_marks"`
}

// TransitionsConfig controls status transition resolution.
type TransitionsConfig struct {
	RetryOnConflict bool `yaml:"retry_on_conflict" mapstructure:"retry_on_conflict"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // "json" or "console"
}

// AuthType defines supported authentication methods.
type AuthType int

const (
	// BasicAuth uses username and password (or API token) authentication
	BasicAuth AuthType = iota
	// TokenAuth uses bearer token authentication
	TokenAuth
)

// String returns the string representation of AuthType.
func (a AuthType) String() string {
	switch a {
	case BasicAuth:
		return "basic"
	case TokenAuth:
		return "token"
	default:
		return "unknown"
	}
}

// ParseAuthType converts a string to AuthType.
func ParseAuthType(s string) AuthType {
	switch s {
	case "token":
		return TokenAuth
	default:
		return BasicAuth
	}
}

// Environment variables that override the configuration file.
var envBindings = map[string]string{
	"jira.base_url":      "JIRA_BASE_URL",
	"jira.host":          "JIRA_HOST",
	"jira.auth.username": "JIRA_USERNAME",
	"jira.auth.password": "JIRA_API_TOKEN",
	"jira.auth.token":    "JIRA_TOKEN",
	"log.level":          "LOG_LEVEL",
}

// LoadConfig reads, normalizes and validates the configuration.
// An empty path skips the file and uses defaults plus the environment.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("transport.type", "stdio")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("configuration file not found: %s", path)
			}
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}

		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var parseErr viper.ConfigParseError
			if errors.As(err, &parseErr) {
				return nil, fmt.Errorf("invalid YAML syntax in configuration file: %w", err)
			}
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// normalize fills values implied by other settings.
func (c *Config) normalize() {
	if c.Jira == nil {
		return
	}
	if c.Jira.BaseURL == "" && c.Jira.Host != "" {
		c.Jira.BaseURL = "https://" + c.Jira.Host
	}
	c.Jira.BaseURL = strings.TrimRight(c.Jira.BaseURL, "/")

	a := c.Jira.Auth
	if a == nil {
		return
	}
	if a.Type == "" {
		if a.Token != "" && a.Username == "" {
			a.Type = "token"
		} else {
			a.Type = "basic"
		}
	}
	if a.Username == "" && a.Password == "" && a.Token == "" && !a.Keyring {
		c.Jira.Auth = nil
	}
}

// SecretLookup fetches a stored secret for a tool and user.
type SecretLookup func(key string) (string, error)

// SecretKey is the keyring key under which the secret for user is stored.
func SecretKey(tool, username string) string {
	if username == "" {
		return tool
	}
	return tool + ":" + username
}

// ResolveSecrets loads keyring-backed secrets into the auth configuration.
func (c *Config) ResolveSecrets(lookup SecretLookup) error {
	if c.Jira == nil || c.Jira.Auth == nil || !c.Jira.Auth.Keyring {
		return nil
	}
	a := c.Jira.Auth
	secret, err := lookup(SecretKey("jira", a.Username))
	if err != nil {
		return fmt.Errorf("failed to read Jira secret from keyring: %w", err)
	}
	if ParseAuthType(a.Type) == TokenAuth {
		a.Token = secret
	} else {
		a.Password = secret
	}
	return nil
}

// SaveConfig writes the configuration as YAML. The file may hold secrets
// and is created readable by the owner only.
func SaveConfig(config *Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	return nil
}

// DefaultConfig returns a starter configuration for the given site.
func DefaultConfig(baseURL, username string) *Config {
	return &Config{
		Transport: TransportConfig{
			Type: "stdio",
			HTTP: HTTPConfig{Host: "127.0.0.1", Port: 8080},
		},
		Jira: &ToolConfig{
			BaseURL: baseURL,
			Auth: &AuthConfig{
				Type:     "basic",
				Username: username,
				Keyring:  true,
			},
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Validate checks the configuration for completeness and correctness.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errors []string

	if err := c.validateTransport(); err != nil {
		errors = append(errors, err.Error())
	}

	if c.Jira == nil {
		errors = append(errors, "jira configuration is required (set jira.base_url or JIRA_HOST)")
	} else if err := c.Jira.Validate("Jira"); err != nil {
		errors = append(errors, err.Error())
	}

	if err := c.Log.Validate(); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// validateTransport validates the transport configuration.
func (c *Config) validateTransport() error {
	var errors []string

	if c.Transport.Type == "" {
		errors = append(errors, "transport type is required")
	} else if c.Transport.Type != "stdio" && c.Transport.Type != "http" {
		errors = append(errors, fmt.Sprintf("invalid transport type '%s': must be 'stdio' or 'http'", c.Transport.Type))
	}

	if c.Transport.Type == "http" {
		if c.Transport.HTTP.Host == "" {
			errors = append(errors, "HTTP host is required when transport type is 'http'")
		}
		if c.Transport.HTTP.Port <= 0 || c.Transport.HTTP.Port > 65535 {
			errors = append(errors, fmt.Sprintf("invalid HTTP port %d: must be between 1 and 65535", c.Transport.HTTP.Port))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}

	return nil
}

// Validate validates a single tool configuration.
func (tc *ToolConfig) Validate(toolName string) error {
	var errors []string

	if tc.BaseURL == "" {
		errors = append(errors, fmt.Sprintf("%s base_url is required", toolName))
	} else {
		parsedURL, err := url.Parse(tc.BaseURL)
		if err != nil {
			errors = append(errors, fmt.Sprintf("%s base_url is invalid: %v", toolName, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("%s base_url must use http or https scheme", toolName))
		} else if parsedURL.Host == "" {
			errors = append(errors, fmt.Sprintf("%s base_url must include a host", toolName))
		}
	}

	if tc.Auth != nil {
		if err := tc.Auth.Validate(toolName); err != nil {
			errors = append(errors, err.Error())
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}

	return nil
}

// Validate validates authentication configuration. Secrets are not
// required when they are read from the keyring.
func (ac *AuthConfig) Validate(toolName string) error {
	var errors []string

	if ac.Type == "" {
		errors = append(errors, fmt.Sprintf("%s auth type is required", toolName))
	} else if ac.Type != "basic" && ac.Type != "token" {
		errors = append(errors, fmt.Sprintf("%s auth type '%s' is invalid: must be 'basic' or 'token'", toolName, ac.Type))
	}

	if ac.Type == "basic" {
		if ac.Username == "" {
			errors = append(errors, fmt.Sprintf("%s username is required for basic auth", toolName))
		}
		if ac.Password == "" && !ac.Keyring {
			errors = append(errors, fmt.Sprintf("%s password is required for basic auth", toolName))
		}
	} else if ac.Type == "token" {
		if ac.Token == "" && !ac.Keyring {
			errors = append(errors, fmt.Sprintf("%s token is required for token auth", toolName))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}

	return nil
}

// Validate checks the log settings.
func (lc LogConfig) Validate() error {
	switch strings.ToLower(lc.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level '%s': must be debug, info, warn or error", lc.Level)
	}
	switch lc.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid log format '%s': must be 'json' or 'console'", lc.Format)
	}
	return nil
}
