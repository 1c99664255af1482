package ratelimit

import "github.com/cantian-ai/bazigate/internal/identity"

// KeyFor builds the limiter key for a route and caller. The second return
// value is the dimension subject (address, user id or "anonymous").
func KeyFor(rule Rule, id identity.Identity) (string, string) {
	switch rule.Dimension {
	case DimensionIP:
		subject := id.IPKey()
		return rule.Route + ":ip:" + subject, subject
	default:
		subject := id.UserKey()
		return rule.Route + ":user:" + subject, subject
	}
}
