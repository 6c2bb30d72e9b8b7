package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"walletfy-api/internal/cache"
	"walletfy-api/internal/entities"
	"walletfy-api/internal/jwt"
	"walletfy-api/internal/models"
	"walletfy-api/internal/oauth"
	"walletfy-api/internal/repository"
	"walletfy-api/internal/validation"
)

const userCacheTTL = 5 * time.Minute

// AuthService defines the interface for account and session logic
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResult, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error)
	VerifyToken(ctx context.Context, token string) (*entities.User, error)
	Profile(ctx context.Context, userID string) (*entities.User, error)
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*entities.User, error)
	ChangePassword(ctx context.Context, userID string, req *models.ChangePasswordRequest) (*models.AuthResult, error)
	Deactivate(ctx context.Context, userID string) error
	ListUsers(ctx context.Context) ([]*entities.User, error)
	OAuthLogin(ctx context.Context, provider entities.Provider, profile *oauth.Profile) (*OAuthResult, error)
}

// OAuthOutcome tells how an external identity was resolved to a local user
type OAuthOutcome int

const (
	OAuthFound   OAuthOutcome = iota // already linked
	OAuthLinked                      // matched by email and linked now
	OAuthCreated                     // new account
)

func (o OAuthOutcome) String() string {
	switch o {
	case OAuthFound:
		return "found"
	case OAuthLinked:
		return "linked"
	case OAuthCreated:
		return "created"
	}
	return "unknown"
}

// OAuthResult is the resolved user, how it was resolved and a fresh token
type OAuthResult struct {
	User    *entities.User
	Outcome OAuthOutcome
	Token   string
}

// AuthOption customizes an auth service
type AuthOption func(*authService)

// WithClock replaces the time source used for password-change stamps
func WithClock(now func() time.Time) AuthOption {
	return func(s *authService) { s.now = now }
}

// WithBcryptCost sets the hashing cost, tests use bcrypt.MinCost
func WithBcryptCost(cost int) AuthOption {
	return func(s *authService) { s.bcryptCost = cost }
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *jwt.JWTService
	cache      cache.Cache
	log        *zap.Logger
	now        func() time.Time
	bcryptCost int
}

// NewAuthService creates a new auth service. cacheClient may be nil.
func NewAuthService(userRepo repository.UserRepository, jwtService *jwt.JWTService, cacheClient cache.Cache, log *zap.Logger, opts ...AuthOption) AuthService {
	svc := &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		log:        log,
		now:        time.Now,
		bcryptCost: bcrypt.DefaultCost,
	}
	// Only set cache if provided (allows graceful degradation)
	if cacheClient != nil {
		svc.cache = cacheClient
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Register creates a new account and signs the user in
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResult, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	_, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err == nil {
		return nil, ErrDuplicateEmail
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Email:          req.Email,
		PasswordHash:   hash,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		InitialMoney:   float64(req.InitialMoney),
		ProfilePicture: req.ProfilePicture,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("user registered", zap.String("user_id", user.ID))
	return s.issue(user)
}

// Login checks credentials and signs the user in
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error) {
	if req.Email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.checkPassword(user, req.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// VerifyToken resolves a bearer token to its user
func (s *authService) VerifyToken(ctx context.Context, token string) (*entities.User, error) {
	claims, err := s.jwtService.ParseToken(token)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil {
		return nil, ErrTokenInvalid
	}

	user, err := s.loadUser(ctx, claims.ID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserGone
	}
	if err != nil {
		return nil, err
	}

	if user.PasswordChangedAt != nil && claims.IssuedAt.Unix() < user.PasswordChangedAt.Unix() {
		return nil, ErrStaleToken
	}
	return user, nil
}

// Profile returns the user's own account
func (s *authService) Profile(ctx context.Context, userID string) (*entities.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UpdateProfile changes the supplied profile fields
func (s *authService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*entities.User, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.InitialMoney != nil {
		user.InitialMoney = float64(*req.InitialMoney)
	}
	if req.ProfilePicture != nil {
		user.ProfilePicture = *req.ProfilePicture
	}

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the password and returns a token issued after the change
func (s *authService) ChangePassword(ctx context.Context, userID string, req *models.ChangePasswordRequest) (*models.AuthResult, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Accounts created through a provider hold a placeholder hash nobody knows
	providerOnly := user.HasExternalIdentity() && req.CurrentPassword == ""
	if !providerOnly && !s.checkPassword(user, req.CurrentPassword) {
		return nil, ErrWrongPassword
	}
	if req.NewPassword != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	if err := s.setPassword(user, req.NewPassword); err != nil {
		return nil, err
	}
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("password changed", zap.String("user_id", user.ID))
	return s.issue(user)
}

// Deactivate soft-deletes the account; the user disappears from every lookup
func (s *authService) Deactivate(ctx context.Context, userID string) error {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}

	user.Active = false
	if err := s.save(ctx, user); err != nil {
		return err
	}

	s.log.Info("user deactivated", zap.String("user_id", user.ID))
	return nil
}

// ListUsers returns every active account
func (s *authService) ListUsers(ctx context.Context) ([]*entities.User, error) {
	users, err := s.userRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// OAuthLogin resolves a provider identity: by provider id, then by email (linking it), then by creating an account
func (s *authService) OAuthLogin(ctx context.Context, provider entities.Provider, profile *oauth.Profile) (*OAuthResult, error) {
	user, err := s.userRepo.FindByExternalID(ctx, provider, profile.ID)
	if err == nil {
		return s.oauthResult(user, OAuthFound)
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to find user by %s id: %w", provider, err)
	}

	if profile.Email != "" {
		user, err = s.userRepo.FindByEmail(ctx, profile.Email)
		if err == nil {
			user.SetExternalID(provider, profile.ID)
			if user.ProfilePicture == "" {
				user.ProfilePicture = profile.Picture
			}
			if err := s.save(ctx, user); err != nil {
				return nil, err
			}
			return s.oauthResult(user, OAuthLinked)
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to find user by email: %w", err)
		}
	}

	user, err = s.newExternalUser(provider, profile)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create %s user: %w", provider, err)
	}
	return s.oauthResult(user, OAuthCreated)
}

func (s *authService) newExternalUser(provider entities.Provider, profile *oauth.Profile) (*entities.User, error) {
	// The placeholder password is never disclosed; it only keeps the hash field populated
	placeholder := make([]byte, 16)
	if _, err := rand.Read(placeholder); err != nil {
		return nil, fmt.Errorf("failed to generate placeholder password: %w", err)
	}
	hash, err := s.hashPassword(hex.EncodeToString(placeholder))
	if err != nil {
		return nil, err
	}

	email := profile.Email
	if email == "" {
		email = fmt.Sprintf("%s@%s.com", profile.ID, provider)
	}
	firstName, lastName := externalNames(provider, profile)

	user := &entities.User{
		Email:          email,
		PasswordHash:   hash,
		FirstName:      firstName,
		LastName:       lastName,
		ProfilePicture: profile.Picture,
	}
	user.SetExternalID(provider, profile.ID)
	return user, nil
}

// externalNames prefers the structured names, then splits the display name, then falls back to defaults
func externalNames(provider entities.Provider, profile *oauth.Profile) (string, string) {
	words := strings.Fields(profile.DisplayName)

	firstName := profile.GivenName
	if firstName == "" {
		firstName = "Usuario"
		if len(words) > 0 {
			firstName = words[0]
		}
	}

	lastName := profile.FamilyName
	if lastName == "" {
		lastName = provider.Title()
		if len(words) > 1 {
			lastName = strings.Join(words[1:], " ")
		}
	}
	return firstName, lastName
}

func (s *authService) oauthResult(user *entities.User, outcome OAuthOutcome) (*OAuthResult, error) {
	token, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	s.log.Info("oauth login", zap.String("user_id", user.ID), zap.Stringer("outcome", outcome))
	return &OAuthResult{User: user, Outcome: outcome, Token: token}, nil
}

func (s *authService) issue(user *entities.User) (*models.AuthResult, error) {
	token, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &models.AuthResult{User: user, Token: token}, nil
}

func (s *authService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// setPassword rewrites the hash of an existing account and stamps the change one second in the past,
// so a token issued right after the change is not considered stale
func (s *authService) setPassword(user *entities.User, password string) error {
	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}
	changedAt := s.now().Add(-time.Second)
	user.PasswordHash = hash
	user.PasswordChangedAt = &changedAt
	return nil
}

func (s *authService) checkPassword(user *entities.User, password string) bool {
	if user.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// save persists user changes and drops the cached session copy
func (s *authService) save(ctx context.Context, user *entities.User) error {
	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return ErrDuplicateEmail
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	s.forget(ctx, user.ID)
	return nil
}
