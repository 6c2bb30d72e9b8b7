package models

import (
	"strings"

	"walletfy-api/internal/entities"
	"walletfy-api/internal/validation"
)

// RegisterRequest represents the request body for user registration
type RegisterRequest struct {
	FirstName       string            `json:"firstName" binding:"required"`
	LastName        string            `json:"lastName" binding:"required"`
	Email           string            `json:"email" binding:"required,emailformat"`
	Phone           string            `json:"phone" binding:"required"`
	Password        string            `json:"password" binding:"required,min=6"`
	ConfirmPassword string            `json:"confirmPassword"`
	InitialMoney    validation.Number `json:"initialMoney"`
	ProfilePicture  string            `json:"profilePicture"`
}

func (r *RegisterRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = entities.NormalizeEmail(r.Email)
}

// LoginRequest represents the request body for user login.
// Missing fields fail as invalid credentials rather than as validation errors.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest carries the profile fields a user may change; nil fields stay unchanged
type UpdateProfileRequest struct {
	FirstName      *string            `json:"firstName" binding:"omitnil,nonempty"`
	LastName       *string            `json:"lastName" binding:"omitnil,nonempty"`
	Email          *string            `json:"email" binding:"omitnil,emailformat"`
	Phone          *string            `json:"phone" binding:"omitnil,nonempty"`
	InitialMoney   *validation.Number `json:"initialMoney"`
	ProfilePicture *string            `json:"profilePicture"`
}

func (r *UpdateProfileRequest) Normalize() {
	trim(&r.FirstName)
	trim(&r.LastName)
	trim(&r.Phone)
	if r.Email != nil {
		email := entities.NormalizeEmail(*r.Email)
		r.Email = &email
	}
}

// ChangePasswordRequest represents the request body for a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"` // may be empty for accounts created through a provider
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword"`
}

func trim(s **string) {
	if *s != nil {
		trimmed := strings.TrimSpace(**s)
		*s = &trimmed
	}
}
