package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"walletfy-api/internal/models"
	"walletfy-api/internal/service"
	"walletfy-api/internal/validation"
)

type UserController struct {
	authService service.AuthService
	log         *zap.Logger
}

func NewUserController(authService service.AuthService, log *zap.Logger) *UserController {
	return &UserController{
		authService: authService,
		log:         log,
	}
}

// Register handles POST /api/users/register
func (uc *UserController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := validation.Bind(c, &req); err != nil {
		respondError(c, uc.log, err, "Error al registrar el usuario")
		return
	}

	result, err := uc.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, uc.log, err, "Error al registrar el usuario")
		return
	}

	c.JSON(http.StatusCreated, models.AuthResponse{
		Success: true,
		Message: "Usuario registrado exitosamente",
		User:    models.NewUserResponse(result.User),
		Token:   result.Token,
	})
}

// Login handles POST /api/users/login
func (uc *UserController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := validation.Bind(c, &req); err != nil {
		respondError(c, uc.log, err, "Error al iniciar sesión")
		return
	}

	result, err := uc.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, uc.log, err, "Error al iniciar sesión")
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{
		Success: true,
		Message: "Inicio de sesión exitoso",
		User:    models.NewUserResponse(result.User),
		Token:   result.Token,
	})
}

// GetProfile handles GET /api/users/profile
func (uc *UserController) GetProfile(c *gin.Context) {
	user, err := uc.authService.Profile(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, uc.log, err, "Error al obtener el perfil de usuario")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    models.NewUserResponse(user),
	})
}

// UpdateProfile handles PUT /api/users/profile
func (uc *UserController) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if err := validation.Bind(c, &req); err != nil {
		respondError(c, uc.log, err, "Error al actualizar el perfil de usuario")
		return
	}

	user, err := uc.authService.UpdateProfile(c.Request.Context(), userID(c), &req)
	if err != nil {
		respondError(c, uc.log, err, "Error al actualizar el perfil de usuario")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Perfil actualizado exitosamente",
		"user":    models.NewUserResponse(user),
	})
}

// ChangePassword handles PUT /api/users/password and returns a token issued after the change
func (uc *UserController) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := validation.Bind(c, &req); err != nil {
		respondError(c, uc.log, err, "Error al cambiar la contraseña")
		return
	}

	result, err := uc.authService.ChangePassword(c.Request.Context(), userID(c), &req)
	if err != nil {
		respondError(c, uc.log, err, "Error al cambiar la contraseña")
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{
		Success: true,
		Message: "Contraseña actualizada exitosamente",
		User:    models.NewUserResponse(result.User),
		Token:   result.Token,
	})
}

// DeleteProfile handles DELETE /api/users/profile; the account is deactivated, not removed
func (uc *UserController) DeleteProfile(c *gin.Context) {
	if err := uc.authService.Deactivate(c.Request.Context(), userID(c)); err != nil {
		respondError(c, uc.log, err, "Error al desactivar la cuenta")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Cuenta desactivada exitosamente",
	})
}

// ListUsers handles GET /api/users (admin only)
func (uc *UserController) ListUsers(c *gin.Context) {
	users, err := uc.authService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, uc.log, err, "Error al obtener los usuarios")
		return
	}

	response := make([]models.AdminUserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, models.NewAdminUserResponse(u))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(response),
		"users":   response,
	})
}
