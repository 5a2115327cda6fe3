package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	umerrors "github.com/dylanstetts/user-meeting-attendance/pkg/errors"
)

// DefaultLoginBaseURL is the Azure AD token endpoint root.
const DefaultLoginBaseURL = "https://login.microsoftonline.com"

// graphDefaultScope requests whatever application permissions the app
// registration has been granted.
const graphDefaultScope = "https://graph.microsoft.com/.default"

// ClientCredentialsTokenSource acquires app-only tokens with the OAuth2
// client-credentials grant and caches them until shortly before expiry.
type ClientCredentialsTokenSource struct {
	TenantID     string
	ClientID     string
	ClientSecret string

	// LoginBaseURL overrides the Azure AD endpoint (tests, sovereign clouds).
	LoginBaseURL string

	// HTTPClient overrides the HTTP client used for token requests.
	HTTPClient *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

// tokenResponse is the Azure AD token endpoint response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Token returns a cached token or fetches a fresh one. Tokens are refreshed
// two minutes before expiry so long meeting loops never race the deadline.
func (s *ClientCredentialsTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.expires.Add(-2*time.Minute)) {
		return s.token, nil
	}

	if s.TenantID == "" || s.ClientID == "" || s.ClientSecret == "" {
		return "", fmt.Errorf("%w: tenant id, client id, and client secret are required", umerrors.ErrUnauthorized)
	}

	loginBase := s.LoginBaseURL
	if loginBase == "" {
		loginBase = DefaultLoginBaseURL
	}
	endpoint := fmt.Sprintf("%s/%s/oauth2/v2.0/token", loginBase, s.TenantID)

	form := url.Values{
		"client_id":     {s.ClientID},
		"client_secret": {s.ClientSecret},
		"scope":         {graphDefaultScope},
		"grant_type":    {"client_credentials"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpClient := s.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %s: %s: %w",
			resp.Status, strings.TrimSpace(string(body)), umerrors.ErrUnauthorized)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned no access token: %w", umerrors.ErrUnauthorized)
	}

	s.token = tr.AccessToken
	s.expires = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)

	return s.token, nil
}
