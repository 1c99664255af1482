package ratelimit

import (
	"fmt"
	"time"

	"github.com/cantian-ai/bazigate/internal/identity"
	log "github.com/sirupsen/logrus"
)

// Guard enforces the startup route table against a Limiter.
type Guard struct {
	limiter Limiter
	nowFn   func() time.Time
	rules   map[string]Rule
	order   []string
}

// NewGuard constructs a Guard. Rules are normalized; duplicate routes are
// rejected. A nil nowFn uses time.Now.
func NewGuard(limiter Limiter, rules []Rule, nowFn func() time.Time) (*Guard, error) {
	if limiter == nil {
		return nil, fmt.Errorf("rate limit: nil limiter")
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	g := &Guard{
		limiter: limiter,
		nowFn:   nowFn,
		rules:   make(map[string]Rule, len(rules)),
	}
	for _, raw := range rules {
		rule, errRule := raw.Normalize()
		if errRule != nil {
			return nil, errRule
		}
		if _, dup := g.rules[rule.Route]; dup {
			return nil, fmt.Errorf("rate limit: duplicate route %s", rule.Route)
		}
		g.rules[rule.Route] = rule
		g.order = append(g.order, rule.Route)
	}
	return g, nil
}

// Rule returns the declared rule for route.
func (g *Guard) Rule(route string) (Rule, error) {
	rule, ok := g.rules[route]
	if !ok {
		return Rule{}, fmt.Errorf("%w: %s", ErrUnknownRoute, route)
	}
	return rule, nil
}

// Rules returns the declared rules in declaration order.
func (g *Guard) Rules() []Rule {
	out := make([]Rule, 0, len(g.order))
	for _, route := range g.order {
		out = append(out, g.rules[route])
	}
	return out
}

// Allow counts one attempt by id against route. It returns an
// *ExceededError when the attempt is denied.
func (g *Guard) Allow(route string, id identity.Identity) (Result, error) {
	rule, errRule := g.Rule(route)
	if errRule != nil {
		return Result{}, errRule
	}
	return g.AllowRule(rule, id)
}

// AllowRule is Allow for a rule resolved ahead of time.
func (g *Guard) AllowRule(rule Rule, id identity.Identity) (Result, error) {
	key, subject := KeyFor(rule, id)
	result := g.limiter.Acquire(key, rule.MaxCount, rule.WindowSeconds)
	if result.Allowed {
		return result, nil
	}

	retryAfter := result.Reset.Sub(g.nowFn())
	if retryAfter < 0 {
		retryAfter = 0
	}
	log.WithFields(log.Fields{
		"route":     rule.Route,
		"dimension": rule.Dimension,
		"subject":   subject,
		"count":     result.Count,
		"limit":     rule.MaxCount,
		"window":    rule.WindowSeconds,
	}).Warn("rate limit exceeded")

	return result, &ExceededError{
		Route:         rule.Route,
		Dimension:     rule.Dimension,
		Subject:       subject,
		Count:         result.Count,
		MaxCount:      rule.MaxCount,
		WindowSeconds: rule.WindowSeconds,
		RetryAfter:    retryAfter,
	}
}
