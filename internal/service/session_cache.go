package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"walletfy-api/internal/cache"
	"walletfy-api/internal/entities"
)

// sessionUser is the cached copy of a user read on every authenticated request.
// It keeps the fields the entity hides from JSON.
type sessionUser struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	FirstName         string     `json:"firstName"`
	LastName          string     `json:"lastName"`
	Phone             string     `json:"phone"`
	GoogleID          string     `json:"googleId,omitempty"`
	FacebookID        string     `json:"facebookId,omitempty"`
	ProfilePicture    string     `json:"profilePicture"`
	InitialMoney      float64    `json:"initialMoney"`
	Role              string     `json:"role"`
	PasswordChangedAt *time.Time `json:"passwordChangedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func userCacheKey(id string) string {
	return fmt.Sprintf("user:session:%s", id)
}

func toSessionUser(u *entities.User) sessionUser {
	return sessionUser{
		ID:                u.ID,
		Email:             u.Email,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Phone:             u.Phone,
		GoogleID:          u.GoogleID,
		FacebookID:        u.FacebookID,
		ProfilePicture:    u.ProfilePicture,
		InitialMoney:      u.InitialMoney,
		Role:              u.Role,
		PasswordChangedAt: u.PasswordChangedAt,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func (su sessionUser) entity() *entities.User {
	return &entities.User{
		ID:                su.ID,
		Email:             su.Email,
		FirstName:         su.FirstName,
		LastName:          su.LastName,
		Phone:             su.Phone,
		GoogleID:          su.GoogleID,
		FacebookID:        su.FacebookID,
		ProfilePicture:    su.ProfilePicture,
		InitialMoney:      su.InitialMoney,
		Role:              su.Role,
		PasswordChangedAt: su.PasswordChangedAt,
		Active:            true,
		CreatedAt:         su.CreatedAt,
		UpdatedAt:         su.UpdatedAt,
	}
}

// loadUser reads the token's user through the cache. The returned user never carries a password hash.
func (s *authService) loadUser(ctx context.Context, id string) (*entities.User, error) {
	if s.cache != nil {
		var cached sessionUser
		err := s.cache.GetJSON(ctx, userCacheKey(id), &cached)
		if err == nil {
			return cached.entity(), nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("user cache read failed", zap.String("user_id", id), zap.Error(err))
		}
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, userCacheKey(id), toSessionUser(user), userCacheTTL); err != nil {
			s.log.Warn("user cache write failed", zap.String("user_id", id), zap.Error(err))
		}
	}
	return user, nil
}

// forget drops the cached copy after the user changed
func (s *authService) forget(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, userCacheKey(id)); err != nil {
		s.log.Warn("user cache invalidation failed", zap.String("user_id", id), zap.Error(err))
	}
}
