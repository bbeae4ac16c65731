// Package middleware holds gin middleware: request authentication and
// per-principal rate limiting.
package middleware

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ozanunal0/Prometheus-Gateway/internal/apikeys"
	"github.com/ozanunal0/Prometheus-Gateway/internal/security"
)

// ContextAPIKeyRecord is the gin context key the resolved APIKey record
// is attached under once authentication succeeds.
const ContextAPIKeyRecord = "gateway.api_key_record"

// ContextPrincipal is the gin context key for the rate-limit principal:
// the raw header value whenever the header is present (whether or not
// it authenticates), the client address when it is absent — set on
// every path (including failures) so the rate limiter always has a
// principal to key on, per the gateway's "tolerate pre-auth requests
// too" requirement.
const ContextPrincipal = "gateway.principal"

const apiKeyHeader = "X-API-Key"

// unauthorizedMessage is returned verbatim for every authentication
// failure — absent header, unknown key, and inactive key all look
// identical to the caller so that no failure mode leaks which case
// occurred.
const unauthorizedMessage = "Invalid or inactive API key"

// AuthMiddleware resolves the X-API-Key header against the configured
// key store and rejects the request with 401 on any failure.
type AuthMiddleware struct {
	store apikeys.Store
	log   *logrus.Logger
}

// NewAuthMiddleware builds an AuthMiddleware over store.
func NewAuthMiddleware(store apikeys.Store, log *logrus.Logger) *AuthMiddleware {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AuthMiddleware{store: store, log: log}
}

// Handler returns the gin middleware. Header lookup via c.GetHeader is
// already case-insensitive (net/http canonicalizes header names), so no
// extra normalization of "X-API-Key" itself is needed.
func (m *AuthMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(apiKeyHeader)
		if header == "" {
			c.Set(ContextPrincipal, clientAddress(c))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": unauthorizedMessage})
			return
		}

		hashed := security.HashAPIKey(header)
		record, err := m.store.GetByHashedKey(c.Request.Context(), hashed)
		if err != nil {
			// fail closed: a store error must never be treated as a
			// valid key.
			m.log.WithError(err).Warn("api key lookup failed, failing closed")
			c.Set(ContextPrincipal, header)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": unauthorizedMessage})
			return
		}
		if record == nil || !record.IsActive {
			c.Set(ContextPrincipal, header)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": unauthorizedMessage})
			return
		}

		c.Set(ContextAPIKeyRecord, record)
		c.Set(ContextPrincipal, header)
		c.Next()
	}
}

func clientAddress(c *gin.Context) string {
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return host
}
