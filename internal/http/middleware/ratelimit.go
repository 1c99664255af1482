package middleware

import (
	"strconv"

	"github.com/cantian-ai/bazigate/internal/http/envelope"
	"github.com/cantian-ai/bazigate/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// Rate limit response headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// RateLimit counts every request against the declared rule of route. The
// rule is resolved once; an undeclared route is an error. For user-scoped
// rules it must run after Auth or OptionalAuth.
func RateLimit(guard *ratelimit.Guard, route string) (gin.HandlerFunc, error) {
	rule, err := guard.Rule(route)
	if err != nil {
		return nil, err
	}
	return func(c *gin.Context) {
		res, errAllow := guard.AllowRule(rule, CurrentIdentity(c))
		if res.Count > 0 {
			c.Header(HeaderRateLimitLimit, strconv.Itoa(rule.MaxCount))
			c.Header(HeaderRateLimitRemaining, strconv.Itoa(res.Remaining))
			c.Header(HeaderRateLimitReset, strconv.FormatInt(res.Reset.Unix(), 10))
		}
		if errAllow != nil {
			envelope.Fail(c, errAllow)
			return
		}
		c.Next()
	}, nil
}
