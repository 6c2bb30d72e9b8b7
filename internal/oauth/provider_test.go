package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"walletfy-api/internal/entities"
)

// fakeProviderServer serves a token endpoint and a profile endpoint
func fakeProviderServer(t *testing.T, profileJSON string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(profileJSON))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func pointAt(p Provider, srv *httptest.Server) *provider {
	impl := p.(*provider)
	impl.config.Endpoint = oauth2.Endpoint{
		AuthURL:   srv.URL + "/auth",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	impl.profileURL = srv.URL + "/me"
	return impl
}

func TestGoogleProvider_FetchProfile(t *testing.T) {
	srv := fakeProviderServer(t, `{"sub":"g-1","name":"Ana María López","given_name":"Ana María","family_name":"López","picture":"https://img/a.png","email":"ana@example.com"}`)
	p := pointAt(NewGoogleProvider("client", "secret", "http://localhost/cb"), srv)

	profile, err := p.FetchProfile(context.Background(), "good-code")
	require.NoError(t, err)

	assert.Equal(t, &Profile{
		ID:          "g-1",
		Email:       "ana@example.com",
		DisplayName: "Ana María López",
		GivenName:   "Ana María",
		FamilyName:  "López",
		Picture:     "https://img/a.png",
	}, profile)
	assert.Equal(t, entities.ProviderGoogle, p.Name())
}

func TestFacebookProvider_FetchProfile(t *testing.T) {
	srv := fakeProviderServer(t, `{"id":"fb-9","name":"Luis Pérez","first_name":"Luis","last_name":"Pérez","picture":{"data":{"url":"https://img/l.png"}}}`)
	p := pointAt(NewFacebookProvider("app", "secret", "http://localhost/cb"), srv)

	profile, err := p.FetchProfile(context.Background(), "good-code")
	require.NoError(t, err)

	assert.Equal(t, "fb-9", profile.ID)
	assert.Empty(t, profile.Email)
	assert.Equal(t, "https://img/l.png", profile.Picture)
}

func TestFetchProfile_Failures(t *testing.T) {
	srv := fakeProviderServer(t, `{"name":"No Id"}`)
	p := pointAt(NewGoogleProvider("client", "secret", "http://localhost/cb"), srv)

	_, err := p.FetchProfile(context.Background(), "bad-code")
	assert.Error(t, err)

	_, err = p.FetchProfile(context.Background(), "good-code")
	assert.ErrorIs(t, err, ErrProfileIncomplete)
}

func TestAuthCodeURL_CarriesState(t *testing.T) {
	p := NewGoogleProvider("client", "secret", "http://localhost/cb")

	u, err := url.Parse(p.AuthCodeURL("state-xyz"))
	require.NoError(t, err)
	assert.Equal(t, "state-xyz", u.Query().Get("state"))
	assert.Equal(t, "client", u.Query().Get("client_id"))
	assert.Equal(t, "http://localhost/cb", u.Query().Get("redirect_uri"))
}
