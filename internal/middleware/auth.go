package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"walletfy-api/internal/entities"
	"walletfy-api/internal/service"
)

// Context keys set by AuthMiddleware
const (
	ContextUserKey   = "user"
	ContextUserIDKey = "user_id"
)

// TokenCookie is the cookie checked when no Authorization header is sent
const TokenCookie = "token"

const msgServerError = "Error en el servidor"

var tokenErrorMessages = []struct {
	err     error
	message string
}{
	{service.ErrTokenExpired, "Su sesión ha expirado. Por favor, inicie sesión nuevamente"},
	{service.ErrStaleToken, "La contraseña ha sido cambiada recientemente. Por favor, inicie sesión nuevamente"},
	{service.ErrUserGone, "El usuario asociado a este token ya no existe"},
	{service.ErrTokenInvalid, "Token inválido. Por favor, inicie sesión nuevamente"},
}

// AuthMiddleware verifies the session token and stores the user in the context
func AuthMiddleware(authService service.AuthService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			unauthorized(c, "No autorizado, inicie sesión para acceder")
			return
		}

		user, err := authService.VerifyToken(c.Request.Context(), token)
		if err != nil {
			for _, m := range tokenErrorMessages {
				if errors.Is(err, m.err) {
					unauthorized(c, m.message)
					return
				}
			}
			log.Error("token verification failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": msgServerError,
				"error":   err.Error(),
			})
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextUserIDKey, user.ID)
		c.Next()
	}
}

// extractToken reads "Authorization: Bearer <token>", then the token cookie
func extractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer") {
		if parts := strings.Fields(header); len(parts) > 1 {
			return parts[1]
		}
		return ""
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": message,
	})
}

// CurrentUser returns the user stored by AuthMiddleware
func CurrentUser(c *gin.Context) (*entities.User, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*entities.User)
	return user, ok && user != nil
}

// RequireRole lets through only users holding one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || user.Role == "" {
			forbidden(c, "No tiene permisos para realizar esta acción")
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		forbidden(c, "Su rol no tiene permisos para realizar esta acción")
	}
}

// OwnerLookup returns the owner id of the resource addressed by id
type OwnerLookup func(ctx context.Context, id string) (string, error)

// RequireOwnership loads the resource named by the :id parameter and lets through only its owner
func RequireOwnership(lookup OwnerLookup, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			unauthorized(c, "No autorizado, inicie sesión para acceder")
			return
		}

		owner, err := lookup(c.Request.Context(), c.Param("id"))
		if errors.Is(err, service.ErrEventNotFound) || errors.Is(err, service.ErrUserNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "Recurso no encontrado",
			})
			return
		}
		if err != nil {
			log.Error("ownership check failed", zap.String("user_id", user.ID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": msgServerError,
				"error":   err.Error(),
			})
			return
		}

		if owner != "" && owner != user.ID {
			forbidden(c, "No tiene permisos para acceder a este recurso")
			return
		}
		c.Next()
	}
}

func forbidden(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"message": message,
	})
}
