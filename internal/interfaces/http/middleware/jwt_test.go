package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/channelsync/internal/infrastructure/auth"
	"github.com/erp/channelsync/internal/infrastructure/config"
	"github.com/erp/channelsync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "middleware-test-secret-32-chars!",
		Issuer:                "channel-sync",
		AccessTokenExpiration: time.Hour,
	})
}

func bearer(t *testing.T, svc *auth.JWTService, scopes ...string) map[string]string {
	t.Helper()
	issued, err := svc.IssueToken("ops-bot", scopes, 0)
	require.NoError(t, err)
	return map[string]string{AuthHeaderKey: BearerPrefix + issued.Token}
}

func newAuthRouter(svc *auth.JWTService, scopes ...string) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), JWTAuthMiddleware(svc))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"subject": GetJWTSubject(c)})
	}
	if len(scopes) > 0 {
		r.POST("/api/v1/channels/:id/sync/:operation", RequireScope(scopes...), handler)
	} else {
		r.POST("/api/v1/channels/:id/sync/:operation", handler)
	}
	return r
}

const syncPath = "/api/v1/channels/6f1c2d3e-4b5a-4c6d-8e9f-0a1b2c3d4e5f/sync/import_orders"

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	svc := newTestJWTService()
	r := newAuthRouter(svc)

	w := performRequest(r, http.MethodPost, syncPath, bearer(t, svc, auth.ScopeSyncRun))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"subject":"ops-bot"}`, w.Body.String())
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	r := newAuthRouter(newTestJWTService())

	w := performRequest(r, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	svc := newTestJWTService()
	other := auth.NewJWTService(config.JWTConfig{
		Secret:                "another-secret-for-middleware-32",
		Issuer:                "channel-sync",
		AccessTokenExpiration: time.Hour,
	})
	foreign, err := other.IssueToken("ops-bot", nil, 0)
	require.NoError(t, err)

	tests := []struct {
		name     string
		headers  map[string]string
		wantCode string
	}{
		{"missing header", nil, dto.ErrCodeUnauthorized},
		{"wrong scheme", map[string]string{AuthHeaderKey: "Basic abc"}, dto.ErrCodeUnauthorized},
		{"empty token", map[string]string{AuthHeaderKey: BearerPrefix}, dto.ErrCodeUnauthorized},
		{"garbage token", map[string]string{AuthHeaderKey: BearerPrefix + "garbage"}, dto.ErrCodeTokenInvalid},
		{"foreign secret", map[string]string{AuthHeaderKey: BearerPrefix + foreign.Token}, dto.ErrCodeTokenInvalid},
	}

	r := newAuthRouter(svc)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(r, http.MethodPost, syncPath, tt.headers)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			errInfo := decodeError(t, w)
			assert.Equal(t, tt.wantCode, errInfo.Code)
			assert.NotEmpty(t, errInfo.RequestID)
		})
	}
}

func TestJWTAuthMiddleware_CustomOnError(t *testing.T) {
	svc := newTestJWTService()
	var got error

	r := gin.New()
	r.Use(JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{
		JWTService: svc,
		OnError: func(c *gin.Context, err error) {
			got = err
			c.AbortWithStatus(http.StatusTeapot)
		},
	}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := performRequest(r, http.MethodGet, "/x", nil)

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.True(t, errors.Is(got, ErrMissingCredentials))
}

func TestRequireScope(t *testing.T) {
	svc := newTestJWTService()
	r := newAuthRouter(svc, auth.ScopeSyncRun)

	t.Run("granted", func(t *testing.T) {
		w := performRequest(r, http.MethodPost, syncPath, bearer(t, svc, auth.ScopeChannelTest, auth.ScopeSyncRun))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing scope", func(t *testing.T) {
		w := performRequest(r, http.MethodPost, syncPath, bearer(t, svc, auth.ScopeChannelTest))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, dto.ErrCodeForbidden, decodeError(t, w).Code)
	})
}

func TestRequireScope_WithoutAuthentication(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequireScope(auth.ScopeSchedulerRead), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := performRequest(r, http.MethodGet, "/x", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetJWTClaims_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetJWTClaims(c))
	assert.Empty(t, GetJWTSubject(c))
}
