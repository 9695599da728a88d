package httpserver

import (
	"net/http"
	"strings"

	"commerce-pricing/internal/pricing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	authKey         = "auth"
	accessCookie    = "access_token"
)

// requestIDMiddleware reuses the caller's request id or generates one.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// authMiddleware resolves the signed-in customer from a bearer token or the
// access cookie. Requests without a valid token continue signed out.
func authMiddleware(svc authService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			if cookie, err := c.Cookie(accessCookie); err == nil {
				token = cookie
			}
		}
		auth := pricing.Auth{}
		if token != "" {
			customer, err := svc.LookupByToken(c.Request.Context(), token)
			if err == nil {
				auth = pricing.Auth{User: customer, AccessToken: token}
			}
		}
		c.Set(authKey, auth)
		c.Next()
	}
}

// requireAuth rejects requests authMiddleware left signed out.
func requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if authFrom(c).User == nil {
			writeError(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}
		c.Next()
	}
}

func authFrom(c *gin.Context) pricing.Auth {
	if v, ok := c.Get(authKey); ok {
		if auth, ok := v.(pricing.Auth); ok {
			return auth
		}
	}
	return pricing.Auth{}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	header = strings.TrimSpace(header)
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
