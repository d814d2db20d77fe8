package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storesync/backend/internal/infrastructure/auth"
	"github.com/storesync/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupRouterWithJWT(t *testing.T) (*gin.Engine, *auth.JWTValidator) {
	t.Helper()
	v := newTestValidator()
	router := gin.New()
	router.Use(RequestID(), JWTAuthMiddleware(v))
	return router, v
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name       string
		perms      []string
		required   []string
		wantStatus int
	}{
		{name: "holds permission", perms: []string{auth.PermissionCatalogSyncAdmin}, required: []string{auth.PermissionCatalogSyncAdmin}, wantStatus: http.StatusOK},
		{name: "lacks permission", perms: []string{"catalog_sync:read"}, required: []string{auth.PermissionCatalogSyncAdmin}, wantStatus: http.StatusForbidden},
		{name: "no permissions", perms: nil, required: []string{auth.PermissionCatalogSyncAdmin}, wantStatus: http.StatusForbidden},
		{name: "any of several", perms: []string{"b"}, required: []string{"a", "b"}, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, v := setupRouterWithJWT(t)
			router.POST("/grant", RequireAnyPermission(tt.required...), func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"status": "ok"})
			})

			req := httptest.NewRequest(http.MethodPost, "/grant", nil)
			req.Header.Set(AuthHeaderKey, BearerPrefix+signTestToken(t, v, uuid.New(), tt.perms...))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRequirePermission_WithoutAuth(t *testing.T) {
	router := gin.New()
	router.GET("/grant", RequirePermission(auth.PermissionCatalogSyncAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/grant", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPermissionDenied_ResponseFormat(t *testing.T) {
	router, v := setupRouterWithJWT(t)
	router.GET("/grant", RequirePermissionWithConfig(auth.PermissionCatalogSyncAdmin, PermissionConfig{Logger: zaptest.NewLogger(t)}), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	req := httptest.NewRequest(http.MethodGet, "/grant", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+signTestToken(t, v, uuid.New()))
	req.Header.Set(RequestIDHeader, "req-perm-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeForbidden, resp.Error.Code)
	assert.Equal(t, "req-perm-1", resp.Error.RequestID)
}

func TestRequirePermission_WithOnDeniedCallback(t *testing.T) {
	var denied []string
	router, v := setupRouterWithJWT(t)
	router.GET("/grant", RequirePermissionWithConfig("x:y", PermissionConfig{
		OnDenied: func(c *gin.Context, required []string) {
			denied = required
			c.AbortWithStatus(http.StatusTeapot)
		},
	}), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	req := httptest.NewRequest(http.MethodGet, "/grant", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+signTestToken(t, v, uuid.New()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, []string{"x:y"}, denied)
}

func TestHasPermission(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.False(t, HasPermission(c, "a"))

	c.Set(JWTClaimsKey, &auth.Claims{Permissions: []string{"a"}})
	assert.True(t, HasPermission(c, "a"))
	assert.False(t, HasPermission(c, "b"))
}
