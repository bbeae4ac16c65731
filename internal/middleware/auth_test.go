package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozanunal0/Prometheus-Gateway/internal/apikeys"
	"github.com/ozanunal0/Prometheus-Gateway/internal/models"
	"github.com/ozanunal0/Prometheus-Gateway/internal/security"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(auth *AuthMiddleware) *gin.Engine {
	r := gin.New()
	r.GET("/protected", auth.Handler(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	store := apikeys.NewMemoryStore()
	auth := NewAuthMiddleware(store, nil)
	r := newTestRouter(auth)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), unauthorizedMessage)
}

func TestAuthMiddleware_UnknownKey(t *testing.T) {
	store := apikeys.NewMemoryStore()
	auth := NewAuthMiddleware(store, nil)
	r := newTestRouter(auth)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("X-API-Key", "sk-does-not-exist")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_InactiveKey(t *testing.T) {
	store := apikeys.NewMemoryStore()
	plaintext := "sk-inactive-key"
	store.Put(&models.APIKey{ID: "1", HashedKey: security.HashAPIKey(plaintext), Owner: "acme", IsActive: false})

	auth := NewAuthMiddleware(store, nil)
	r := newTestRouter(auth)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("X-API-Key", plaintext)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ActiveKey_Succeeds(t *testing.T) {
	store := apikeys.NewMemoryStore()
	plaintext := "sk-active-key"
	store.Put(&models.APIKey{ID: "1", HashedKey: security.HashAPIKey(plaintext), Owner: "acme", IsActive: true})

	auth := NewAuthMiddleware(store, nil)
	r := newTestRouter(auth)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("X-API-Key", plaintext)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_HeaderLookupIsCaseInsensitive(t *testing.T) {
	store := apikeys.NewMemoryStore()
	plaintext := "sk-case-key"
	store.Put(&models.APIKey{ID: "1", HashedKey: security.HashAPIKey(plaintext), Owner: "acme", IsActive: true})

	auth := NewAuthMiddleware(store, nil)
	r := newTestRouter(auth)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("x-api-key", plaintext) // lowercase header name
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
