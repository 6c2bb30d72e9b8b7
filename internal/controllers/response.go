package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"walletfy-api/internal/middleware"
	"walletfy-api/internal/service"
	"walletfy-api/internal/validation"
)

const msgValidation = "Error de validación"

// knownErrors maps service errors to a status and the message shown to the client
var knownErrors = []struct {
	err     error
	status  int
	message string
}{
	{service.ErrDuplicateEmail, http.StatusBadRequest, "El correo electrónico ya está registrado"},
	{service.ErrPasswordMismatch, http.StatusBadRequest, "Las contraseñas no coinciden"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "Credenciales inválidas"},
	{service.ErrWrongPassword, http.StatusUnauthorized, "La contraseña actual es incorrecta"},
	{service.ErrTokenInvalid, http.StatusUnauthorized, "Token inválido. Por favor, inicie sesión nuevamente"},
	{service.ErrTokenExpired, http.StatusUnauthorized, "Su sesión ha expirado. Por favor, inicie sesión nuevamente"},
	{service.ErrStaleToken, http.StatusUnauthorized, "La contraseña ha sido cambiada recientemente. Por favor, inicie sesión nuevamente"},
	{service.ErrUserGone, http.StatusUnauthorized, "El usuario asociado a este token ya no existe"},
	{service.ErrForbidden, http.StatusForbidden, "No tiene permisos para acceder a este recurso"},
	{service.ErrUserNotFound, http.StatusNotFound, "Usuario no encontrado"},
	{service.ErrEventNotFound, http.StatusNotFound, "Evento no encontrado"},
}

// mapErrorToStatus returns the status and client message for err.
// ok is false for unexpected errors, which the caller reports as 500.
func mapErrorToStatus(err error) (status int, message string, ok bool) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return http.StatusBadRequest, msgValidation, true
	}
	for _, known := range knownErrors {
		if errors.Is(err, known.err) {
			return known.status, known.message, true
		}
	}
	return http.StatusInternalServerError, "", false
}

// respondError writes the error response for err. Unexpected errors become a 500 carrying fallback
// as the message and the raw error text.
func respondError(c *gin.Context, log *zap.Logger, err error, fallback string) {
	status, message, ok := mapErrorToStatus(err)
	if !ok {
		log.Error(fallback,
			zap.String("path", c.FullPath()),
			zap.String("user_id", c.GetString(middleware.ContextUserIDKey)),
			zap.Error(err),
		)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": fallback,
			"error":   err.Error(),
		})
		return
	}

	body := gin.H{"success": false, "message": message}
	var verr *validation.Error
	if errors.As(err, &verr) {
		body["errors"] = verr.Errors
	}
	c.JSON(status, body)
}

// userID returns the id set by the auth middleware
func userID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserIDKey)
}

// queryInt reads an integer query parameter, 0 when absent or malformed
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}
