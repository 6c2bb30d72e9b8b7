package controllers

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"walletfy-api/internal/oauth"
	"walletfy-api/internal/service"
)

const (
	oauthStateKey      = "oauth_state"
	msgOAuthFailedBase = "Error en la autenticación con el proveedor externo. Por favor, intente nuevamente."
)

// OAuthController runs the redirect handshake with external identity providers
// and hands the resulting token to the frontend.
type OAuthController struct {
	authService service.AuthService
	frontendURL string
	log         *zap.Logger
}

func NewOAuthController(authService service.AuthService, frontendURL string, log *zap.Logger) *OAuthController {
	return &OAuthController{
		authService: authService,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		log:         log,
	}
}

// Begin handles GET /api/users/auth/<provider>: stores a random state in the session and redirects to the provider
func (oc *OAuthController) Begin(provider oauth.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			oc.log.Error("failed to generate oauth state", zap.Error(err))
			oc.redirectError(c, msgOAuthFailedBase)
			return
		}
		state := base64.URLEncoding.EncodeToString(b)

		session := sessions.Default(c)
		session.Set(oauthStateKey, state)
		if err := session.Save(); err != nil {
			oc.log.Error("failed to save oauth session", zap.Error(err))
			oc.redirectError(c, msgOAuthFailedBase)
			return
		}

		c.Redirect(http.StatusTemporaryRedirect, provider.AuthCodeURL(state))
	}
}

// Callback handles GET /api/users/auth/<provider>/callback
func (oc *OAuthController) Callback(provider oauth.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		expected, _ := session.Get(oauthStateKey).(string)
		session.Delete(oauthStateKey)
		_ = session.Save()

		if expected == "" || c.Query("state") != expected {
			oc.log.Warn("oauth state mismatch", zap.String("provider", string(provider.Name())))
			oc.redirectError(c, msgOAuthFailedBase)
			return
		}
		if c.Query("error") != "" || c.Query("code") == "" {
			oc.redirectError(c, msgOAuthFailedBase)
			return
		}

		profile, err := provider.FetchProfile(c.Request.Context(), c.Query("code"))
		if err != nil {
			oc.log.Warn("oauth handshake failed", zap.String("provider", string(provider.Name())), zap.Error(err))
			oc.redirectError(c, msgOAuthFailedBase)
			return
		}

		result, err := oc.authService.OAuthLogin(c.Request.Context(), provider.Name(), profile)
		if err != nil {
			oc.log.Error("oauth login failed", zap.String("provider", string(provider.Name())), zap.Error(err))
			oc.redirectError(c, fmt.Sprintf("Error al autenticar con %s. Por favor, intente nuevamente.", provider.Name().Title()))
			return
		}

		c.Redirect(http.StatusTemporaryRedirect, oc.frontendURL+"/auth/success?token="+url.QueryEscape(result.Token))
	}
}

// AuthError handles GET /api/users/auth/error
func (oc *OAuthController) AuthError(c *gin.Context) {
	oc.redirectError(c, msgOAuthFailedBase)
}

func (oc *OAuthController) redirectError(c *gin.Context, message string) {
	c.Redirect(http.StatusTemporaryRedirect, oc.frontendURL+"/auth/error?message="+url.PathEscape(message))
}
