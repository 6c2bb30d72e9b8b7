package models

import (
	"time"

	"walletfy-api/internal/entities"
)

// UserResponse is the public view of a user
type UserResponse struct {
	ID             string  `json:"_id"`
	FirstName      string  `json:"firstName"`
	LastName       string  `json:"lastName"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	InitialMoney   float64 `json:"initialMoney"`
	ProfilePicture string  `json:"profilePicture"`
}

func NewUserResponse(u *entities.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          u.Email,
		Phone:          u.Phone,
		InitialMoney:   u.InitialMoney,
		ProfilePicture: u.ProfilePicture,
	}
}

// AdminUserResponse adds account metadata to the public view, for admin listings
type AdminUserResponse struct {
	UserResponse
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewAdminUserResponse(u *entities.User) AdminUserResponse {
	return AdminUserResponse{
		UserResponse: NewUserResponse(u),
		Role:         u.Role,
		CreatedAt:    u.CreatedAt,
	}
}

// AuthResponse represents the response after successful authentication
type AuthResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
	Token   string       `json:"token"` // JWT token
}

// AuthResult is what the auth service hands back after issuing a token
type AuthResult struct {
	User  *entities.User
	Token string
}
