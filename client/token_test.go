package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	umerrors "github.com/dylanstetts/user-meeting-attendance/pkg/errors"
)

func TestClientCredentialsTokenSource_FetchesAndCaches(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		assert.Equal(t, "app-id", r.Form.Get("client_id"))
		assert.Equal(t, "app-secret", r.Form.Get("client_secret"))
		assert.Contains(t, r.URL.Path, "/tenant-1/oauth2/v2.0/token")
		fmt.Fprint(w, `{"access_token":"tok-123","expires_in":3600,"token_type":"Bearer"}`)
	}))
	defer server.Close()

	src := &ClientCredentialsTokenSource{
		TenantID:     "tenant-1",
		ClientID:     "app-id",
		ClientSecret: "app-secret",
		LoginBaseURL: server.URL,
		HTTPClient:   server.Client(),
	}

	tok, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-123", tok)

	// Second call hits the cache, not the endpoint.
	tok, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-123", tok)
	assert.Equal(t, 1, requests)
}

func TestClientCredentialsTokenSource_RejectionIsUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid_client"}`)
	}))
	defer server.Close()

	src := &ClientCredentialsTokenSource{
		TenantID:     "tenant-1",
		ClientID:     "app-id",
		ClientSecret: "wrong",
		LoginBaseURL: server.URL,
		HTTPClient:   server.Client(),
	}

	_, err := src.Token(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, umerrors.ErrUnauthorized)
}

func TestClientCredentialsTokenSource_MissingFields(t *testing.T) {
	src := &ClientCredentialsTokenSource{TenantID: "tenant-1"}
	_, err := src.Token(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, umerrors.ErrUnauthorized)
}

func TestStaticTokenSource(t *testing.T) {
	tok, err := StaticTokenSource("abc").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	_, err = StaticTokenSource("").Token(context.Background())
	assert.Error(t, err)
}
