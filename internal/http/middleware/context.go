// Package middleware holds the gin middleware chain: caller identity,
// authentication, per-route rate limiting, recovery and access logging.
package middleware

import (
	"github.com/cantian-ai/bazigate/internal/identity"
	"github.com/gin-gonic/gin"
)

// Gin context keys set by this package.
const (
	ContextIdentity = "identity"
	ContextUserID   = "userId"
	ContextUsername = "username"
)

// CurrentIdentity returns the caller identity resolved for this request.
func CurrentIdentity(c *gin.Context) identity.Identity {
	if v, ok := c.Get(ContextIdentity); ok {
		if id, okCast := v.(identity.Identity); okCast {
			return id
		}
	}
	return identity.FromRequest(c.Request)
}

// CurrentUserID returns the authenticated user id, or 0.
func CurrentUserID(c *gin.Context) int64 {
	return c.GetInt64(ContextUserID)
}

func setIdentity(c *gin.Context, id identity.Identity) {
	c.Set(ContextIdentity, id)
	if id.Authenticated() {
		c.Set(ContextUserID, id.UserID)
		c.Set(ContextUsername, id.Username)
	}
	c.Request = c.Request.WithContext(identity.NewContext(c.Request.Context(), id))
}

// Identity resolves the client address once per request.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		setIdentity(c, identity.FromRequest(c.Request))
		c.Next()
	}
}
