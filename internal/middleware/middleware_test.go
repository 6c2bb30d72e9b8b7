package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"walletfy-api/internal/entities"
	"walletfy-api/internal/middleware"
	"walletfy-api/internal/models"
	"walletfy-api/internal/oauth"
	"walletfy-api/internal/service"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthResult), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthResult), args.Error(1)
}

func (m *MockAuthService) VerifyToken(ctx context.Context, token string) (*entities.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockAuthService) Profile(ctx context.Context, userID string) (*entities.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockAuthService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*entities.User, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, userID string, req *models.ChangePasswordRequest) (*models.AuthResult, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthResult), args.Error(1)
}

func (m *MockAuthService) Deactivate(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockAuthService) ListUsers(ctx context.Context) ([]*entities.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.User), args.Error(1)
}

func (m *MockAuthService) OAuthLogin(ctx context.Context, provider entities.Provider, profile *oauth.Profile) (*service.OAuthResult, error) {
	args := m.Called(ctx, provider, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.OAuthResult), args.Error(1)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func protectedRouter(authService service.AuthService, extra ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	handlers := append([]gin.HandlerFunc{middleware.AuthMiddleware(authService, zap.NewNop())}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": user.ID, "user_id": c.GetString(middleware.ContextUserIDKey)})
	})
	router.GET("/private/:id", handlers...)
	return router
}

func TestAuthMiddleware_BearerToken(t *testing.T) {
	mockAuth := new(MockAuthService)
	mockAuth.On("VerifyToken", mock.Anything, "good").Return(&entities.User{ID: "u1", Role: entities.RoleUser}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/private/x", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr := httptest.NewRecorder()
	protectedRouter(mockAuth).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "u1", body["id"])
	assert.Equal(t, "u1", body["user_id"])
	mockAuth.AssertExpectations(t)
}

func TestAuthMiddleware_CookieFallback(t *testing.T) {
	mockAuth := new(MockAuthService)
	mockAuth.On("VerifyToken", mock.Anything, "from-cookie").Return(&entities.User{ID: "u2"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/private/x", nil)
	req.AddCookie(&http.Cookie{Name: middleware.TokenCookie, Value: "from-cookie"})
	rr := httptest.NewRecorder()
	protectedRouter(mockAuth).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	mockAuth.AssertExpectations(t)
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name        string
		header      string
		verifyErr   error
		wantStatus  int
		wantMessage string
	}{
		{"missing token", "", nil, http.StatusUnauthorized, "No autorizado, inicie sesión para acceder"},
		{"bearer without token", "Bearer", nil, http.StatusUnauthorized, "No autorizado, inicie sesión para acceder"},
		{"invalid", "Bearer bad", service.ErrTokenInvalid, http.StatusUnauthorized, "Token inválido. Por favor, inicie sesión nuevamente"},
		{"expired", "Bearer bad", service.ErrTokenExpired, http.StatusUnauthorized, "Su sesión ha expirado. Por favor, inicie sesión nuevamente"},
		{"stale", "Bearer bad", service.ErrStaleToken, http.StatusUnauthorized, "La contraseña ha sido cambiada recientemente. Por favor, inicie sesión nuevamente"},
		{"user gone", "Bearer bad", service.ErrUserGone, http.StatusUnauthorized, "El usuario asociado a este token ya no existe"},
		{"store failure", "Bearer bad", errors.New("connection refused"), http.StatusInternalServerError, "Error en el servidor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAuth := new(MockAuthService)
			if tt.verifyErr != nil {
				mockAuth.On("VerifyToken", mock.Anything, "bad").Return(nil, tt.verifyErr).Once()
			}

			req := httptest.NewRequest(http.MethodGet, "/private/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			protectedRouter(mockAuth).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			body := decodeBody(t, rr)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantMessage, body["message"])
			mockAuth.AssertExpectations(t)
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name        string
		role        string
		wantStatus  int
		wantMessage string
	}{
		{"admin allowed", entities.RoleAdmin, http.StatusOK, ""},
		{"user rejected", entities.RoleUser, http.StatusForbidden, "Su rol no tiene permisos para realizar esta acción"},
		{"no role", "", http.StatusForbidden, "No tiene permisos para realizar esta acción"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAuth := new(MockAuthService)
			mockAuth.On("VerifyToken", mock.Anything, "tok").Return(&entities.User{ID: "u1", Role: tt.role}, nil)

			req := httptest.NewRequest(http.MethodGet, "/private/x", nil)
			req.Header.Set("Authorization", "Bearer tok")
			rr := httptest.NewRecorder()
			protectedRouter(mockAuth, middleware.RequireRole(entities.RoleAdmin)).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, decodeBody(t, rr)["message"])
			}
		})
	}
}

func TestRequireOwnership(t *testing.T) {
	lookup := func(_ context.Context, id string) (string, error) {
		switch id {
		case "mine":
			return "u1", nil
		case "theirs":
			return "u2", nil
		case "broken":
			return "", errors.New("timeout")
		}
		return "", service.ErrEventNotFound
	}

	tests := []struct {
		id          string
		wantStatus  int
		wantMessage string
	}{
		{"mine", http.StatusOK, ""},
		{"theirs", http.StatusForbidden, "No tiene permisos para acceder a este recurso"},
		{"missing", http.StatusNotFound, "Recurso no encontrado"},
		{"broken", http.StatusInternalServerError, "Error en el servidor"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			mockAuth := new(MockAuthService)
			mockAuth.On("VerifyToken", mock.Anything, "tok").Return(&entities.User{ID: "u1"}, nil)

			req := httptest.NewRequest(http.MethodGet, "/private/"+tt.id, nil)
			req.Header.Set("Authorization", "Bearer tok")
			rr := httptest.NewRecorder()
			protectedRouter(mockAuth, middleware.RequireOwnership(lookup, zap.NewNop())).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, decodeBody(t, rr)["message"])
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := middleware.NewRateLimiter(rate.Limit(0.001), 2)
	defer limiter.Stop()

	router := gin.New()
	router.GET("/limited", limiter.LimitMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/limited", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Another client has its own bucket
	req := httptest.NewRequest(http.MethodGet, "/limited", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRecovery(t *testing.T) {
	router := gin.New()
	router.Use(middleware.Recovery(zap.NewNop()), middleware.RequestLogger(zap.NewNop()))
	router.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Error en el servidor", body["message"])
	assert.Equal(t, "boom", body["error"])
}

func TestJSONCharset(t *testing.T) {
	router := gin.New()
	router.Use(middleware.JSONCharset())
	router.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"mensaje": "añadido"})
	})

	router.GET("/away", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "https://files.example.com/a.pdf")
	})
	router.GET("/login", func(c *gin.Context) {
		c.Redirect(http.StatusTemporaryRedirect, "https://accounts.example.com/auth")
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))

	for path, status := range map[string]int{"/away": http.StatusFound, "/login": http.StatusTemporaryRedirect} {
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, status, rr.Code, path)
		assert.Empty(t, rr.Header().Get("Content-Type"), path)
		assert.NotEmpty(t, rr.Header().Get("Location"), path)
	}
}
