package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"

	"walletfy-api/internal/entities"
)

var ErrProfileIncomplete = errors.New("provider returned a profile without an id")

// Profile is the identity an external provider vouches for
type Profile struct {
	ID          string
	Email       string
	DisplayName string
	GivenName   string
	FamilyName  string
	Picture     string
}

// Provider runs the authorization-code handshake against one identity provider
type Provider interface {
	Name() entities.Provider
	AuthCodeURL(state string) string
	FetchProfile(ctx context.Context, code string) (*Profile, error)
}

const (
	googleProfileURL   = "https://www.googleapis.com/oauth2/v3/userinfo"
	facebookProfileURL = "https://graph.facebook.com/me?fields=id,name,email,first_name,last_name,picture.type(large)"
)

type provider struct {
	name       entities.Provider
	config     *oauth2.Config
	profileURL string
	decode     func(body []byte) (*Profile, error)
}

// NewGoogleProvider creates a Google sign-in provider; callbackURL must match the console setting
func NewGoogleProvider(clientID, clientSecret, callbackURL string) Provider {
	return &provider{
		name: entities.ProviderGoogle,
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		profileURL: googleProfileURL,
		decode:     decodeGoogleProfile,
	}
}

// NewFacebookProvider creates a Facebook login provider
func NewFacebookProvider(appID, appSecret, callbackURL string) Provider {
	return &provider{
		name: entities.ProviderFacebook,
		config: &oauth2.Config{
			ClientID:     appID,
			ClientSecret: appSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"email"},
			Endpoint:     facebook.Endpoint,
		},
		profileURL: facebookProfileURL,
		decode:     decodeFacebookProfile,
	}
}

func (p *provider) Name() entities.Provider {
	return p.name
}

func (p *provider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// FetchProfile exchanges the authorization code and loads the user's profile
func (p *provider) FetchProfile(ctx context.Context, code string) (*Profile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to exchange code: %w", p.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build profile request: %w", p.name, err)
	}

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to fetch profile: %w", p.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read profile: %w", p.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: profile endpoint returned %d", p.name, resp.StatusCode)
	}

	profile, err := p.decode(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.name, err)
	}
	if profile.ID == "" {
		return nil, ErrProfileIncomplete
	}
	return profile, nil
}

func decodeGoogleProfile(body []byte) (*Profile, error) {
	var info struct {
		Sub        string `json:"sub"`
		Name       string `json:"name"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
		Picture    string `json:"picture"`
		Email      string `json:"email"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &Profile{
		ID:          info.Sub,
		Email:       info.Email,
		DisplayName: info.Name,
		GivenName:   info.GivenName,
		FamilyName:  info.FamilyName,
		Picture:     info.Picture,
	}, nil
}

func decodeFacebookProfile(body []byte) (*Profile, error) {
	var info struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Picture   struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &Profile{
		ID:          info.ID,
		Email:       info.Email,
		DisplayName: info.Name,
		GivenName:   info.FirstName,
		FamilyName:  info.LastName,
		Picture:     info.Picture.Data.URL,
	}, nil
}
