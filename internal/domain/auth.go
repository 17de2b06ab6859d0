package domain

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// Credentials stores authentication information for the Jira site.
type Credentials struct {
	Type     AuthType // BasicAuth or TokenAuth
	Username string   // Used for basic auth
	Password string   // Used for basic auth (Atlassian API token on Cloud)
	Token    string   // Used for token auth
}

// AuthenticationManager hands out HTTP clients that authenticate against
// Jira, either with configured credentials or with credentials supplied
// in a tool call.
type AuthenticationManager struct {
	credentials map[string]*Credentials
	base        http.RoundTripper
}

// NewAuthenticationManager creates a new authentication manager.
// The credentials map is keyed by tool name ("jira").
func NewAuthenticationManager(credentials map[string]*Credentials) *AuthenticationManager {
	return &AuthenticationManager{
		credentials: credentials,
		base:        http.DefaultTransport,
	}
}

// NewAuthenticationManagerFromConfig creates an authentication manager from a configuration.
// Without a jira.auth section there are no default credentials and every
// tool call has to carry its own.
func NewAuthenticationManagerFromConfig(config *Config) *AuthenticationManager {
	credentials := make(map[string]*Credentials)

	if config.Jira != nil && config.Jira.Auth != nil {
		credentials["jira"] = credentialsFromAuthConfig(config.Jira.Auth)
	}

	return NewAuthenticationManager(credentials)
}

// credentialsFromAuthConfig converts an AuthConfig to Credentials.
func credentialsFromAuthConfig(authConfig *AuthConfig) *Credentials {
	return &Credentials{
		Type:     ParseAuthType(authConfig.Type),
		Username: authConfig.Username,
		Password: authConfig.Password,
		Token:    authConfig.Token,
	}
}

// HasCredentials reports whether default credentials exist for tool.
func (am *AuthenticationManager) HasCredentials(tool string) bool {
	_, ok := am.credentials[tool]
	return ok
}

// GetAuthenticatedClient returns an HTTP client using the configured
// credentials of tool.
func (am *AuthenticationManager) GetAuthenticatedClient(tool string) (*http.Client, error) {
	if err := am.ValidateCredentials(tool); err != nil {
		return nil, err
	}
	return am.clientFor(am.credentials[tool]), nil
}

// GetAuthenticatedClientWithCredentials returns an HTTP client using
// credentials supplied at call time.
func (am *AuthenticationManager) GetAuthenticatedClientWithCredentials(creds *Credentials) (*http.Client, error) {
	if err := validateCredentials(creds); err != nil {
		return nil, err
	}
	return am.clientFor(creds), nil
}

// clientFor builds the client for validated credentials. Bearer tokens go
// through an oauth2 static token source.
func (am *AuthenticationManager) clientFor(creds *Credentials) *http.Client {
	if creds.Type == TokenAuth {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.Token})
		return &http.Client{
			Transport: &oauth2.Transport{Source: src, Base: am.base},
		}
	}
	return &http.Client{
		Transport: &basicAuthTransport{
			base:     am.base,
			username: creds.Username,
			password: creds.Password,
		},
	}
}

// validateCredentials validates a Credentials object.
func validateCredentials(creds *Credentials) error {
	if creds == nil {
		return fmt.Errorf("credentials cannot be nil")
	}

	switch creds.Type {
	case BasicAuth:
		if creds.Username == "" {
			return fmt.Errorf("username is required for basic authentication")
		}
		if creds.Password == "" {
			return fmt.Errorf("password is required for basic authentication")
		}
	case TokenAuth:
		if creds.Token == "" {
			return fmt.Errorf("token is required for token authentication")
		}
	default:
		return fmt.Errorf("invalid authentication type: %v", creds.Type)
	}

	return nil
}

// ValidateCredentials checks that usable credentials are configured for tool.
func (am *AuthenticationManager) ValidateCredentials(tool string) error {
	creds, ok := am.credentials[tool]
	if !ok {
		return fmt.Errorf("no credentials configured for tool: %s", tool)
	}
	if err := validateCredentials(creds); err != nil {
		return fmt.Errorf("%w: %s", err, tool)
	}
	return nil
}

// basicAuthTransport is an http.RoundTripper that adds a Basic
// Authorization header.
type basicAuthTransport struct {
	base     http.RoundTripper
	username string
	password string
}

// RoundTrip implements http.RoundTripper.
func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clonedReq := req.Clone(req.Context())

	auth := t.username + ":" + t.password
	clonedReq.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(auth)))

	return t.base.RoundTrip(clonedReq)
}

// ExtractCredentialsFromArguments extracts optional credentials from tool call arguments.
// Returns nil if the arguments carry no "auth" object.
func ExtractCredentialsFromArguments(args map[string]any) (*Credentials, error) {
	authObj, hasAuth := args["auth"]
	if !hasAuth {
		return nil, nil
	}

	authMap, ok := authObj.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("auth must be an object")
	}

	authTypeStr, _ := authMap["type"].(string)
	creds := &Credentials{Type: ParseAuthType(authTypeStr)}

	switch creds.Type {
	case BasicAuth:
		creds.Username, _ = authMap["username"].(string)
		creds.Password, _ = authMap["password"].(string)
	case TokenAuth:
		creds.Token, _ = authMap["token"].(string)
	}

	if err := validateCredentials(creds); err != nil {
		return nil, fmt.Errorf("invalid credentials provided: %w", err)
	}

	return creds, nil
}
