package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/storesync/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBodyLimitRouter(limit int64) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), BodyLimit(limit))
	router.POST("/catalog-sync/preview", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "read failed")
			return
		}
		c.String(http.StatusOK, "%d", len(body))
	})
	router.GET("/catalog-sync/quota", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestBodyLimit(t *testing.T) {
	tests := []struct {
		name          string
		method        string
		path          string
		body          string
		contentLength int64
		wantStatus    int
		wantBody      string
	}{
		{
			name:          "within limit",
			method:        http.MethodPost,
			path:          "/catalog-sync/preview",
			body:          `{"records":[]}`,
			contentLength: 14,
			wantStatus:    http.StatusOK,
			wantBody:      "14",
		},
		{
			name:          "declared length over limit",
			method:        http.MethodPost,
			path:          "/catalog-sync/preview",
			body:          strings.Repeat("x", 200),
			contentLength: 200,
			wantStatus:    http.StatusRequestEntityTooLarge,
		},
		{
			name:          "streamed body over limit",
			method:        http.MethodPost,
			path:          "/catalog-sync/preview",
			body:          strings.Repeat("x", 200),
			contentLength: -1,
			wantStatus:    http.StatusRequestEntityTooLarge,
			wantBody:      "read failed",
		},
		{
			name:       "no body",
			method:     http.MethodGet,
			path:       "/catalog-sync/quota",
			wantStatus: http.StatusOK,
			wantBody:   "ok",
		},
	}

	router := newBodyLimitRouter(64)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			if tt.body != "" {
				req.ContentLength = tt.contentLength
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestBodyLimit_ErrorEnvelope(t *testing.T) {
	router := newBodyLimitRouter(8)

	req := httptest.NewRequest(http.MethodPost, "/catalog-sync/preview", strings.NewReader(strings.Repeat("x", 9)))
	req.Header.Set(RequestIDHeader, "req-too-large")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeRequestTooLarge, resp.Error.Code)
	assert.Equal(t, "req-too-large", resp.Error.RequestID)
}
