package entities

import (
	"strings"
	"time"
)

// Role values accepted for a user
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Provider identifies an external identity provider
type Provider string

const (
	ProviderGoogle   Provider = "google"
	ProviderFacebook Provider = "facebook"
)

// Title is the provider name shown to users, e.g. as a last-name fallback.
func (p Provider) Title() string {
	switch p {
	case ProviderGoogle:
		return "Google"
	case ProviderFacebook:
		return "Facebook"
	}
	return string(p)
}

// User represents an account holder
type User struct {
	ID                  string     `json:"_id"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"` // Don't expose password hash in JSON
	FirstName           string     `json:"firstName"`
	LastName            string     `json:"lastName"`
	Phone               string     `json:"phone"`
	GoogleID            string     `json:"-"`
	FacebookID          string     `json:"-"`
	ProfilePicture      string     `json:"profilePicture"`
	InitialMoney        float64    `json:"initialMoney"`
	Role                string     `json:"-"`
	PasswordChangedAt   *time.Time `json:"-"`
	ResetPasswordToken  string     `json:"-"`
	ResetPasswordExpire *time.Time `json:"-"`
	Active              bool       `json:"-"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// ExternalID returns the identifier the user holds at the given provider.
func (u *User) ExternalID(p Provider) string {
	switch p {
	case ProviderGoogle:
		return u.GoogleID
	case ProviderFacebook:
		return u.FacebookID
	}
	return ""
}

// SetExternalID links the user to an identity at the given provider.
func (u *User) SetExternalID(p Provider, id string) {
	switch p {
	case ProviderGoogle:
		u.GoogleID = id
	case ProviderFacebook:
		u.FacebookID = id
	}
}

// HasExternalIdentity reports whether the user can sign in without a password.
func (u *User) HasExternalIdentity() bool {
	return u.GoogleID != "" || u.FacebookID != ""
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NormalizeEmail lowercases and trims an address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
