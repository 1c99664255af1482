package ratelimit

import (
	"fmt"
	"strings"
	"time"
)

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Count     int
	Remaining int
	Reset     time.Time
}

// Limiter provides keyed fixed-window checks.
type Limiter interface {
	Acquire(key string, maxCount, windowSeconds int) Result
}

// Dimension indicates which identity axis a route is limited on.
type Dimension string

const (
	DimensionIP   Dimension = "ip"
	DimensionUser Dimension = "user"
)

// ParseDimension accepts "ip" or "user" in any case.
func ParseDimension(raw string) (Dimension, error) {
	switch Dimension(strings.ToLower(strings.TrimSpace(raw))) {
	case DimensionIP:
		return DimensionIP, nil
	case DimensionUser, "":
		return DimensionUser, nil
	default:
		return "", fmt.Errorf("rate limit: unknown dimension %q", raw)
	}
}

// Defaults applied to a route rule that leaves a field unset.
const (
	DefaultWindowSeconds = 60
	DefaultMaxCount      = 5
)

// Rule declares the limit of one protected route.
type Rule struct {
	Route         string    `yaml:"route"`
	WindowSeconds int       `yaml:"window-seconds"`
	MaxCount      int       `yaml:"max-count"`
	Dimension     Dimension `yaml:"dimension"`
}

// Normalize fills defaults and validates the rule.
func (r Rule) Normalize() (Rule, error) {
	r.Route = strings.TrimSpace(r.Route)
	if r.Route == "" {
		return r, fmt.Errorf("rate limit: rule without route")
	}
	if r.WindowSeconds == 0 {
		r.WindowSeconds = DefaultWindowSeconds
	}
	if r.MaxCount == 0 {
		r.MaxCount = DefaultMaxCount
	}
	if r.WindowSeconds < 0 || r.MaxCount < 0 {
		return r, fmt.Errorf("rate limit: route %s: window and max count must be positive", r.Route)
	}
	dim, err := ParseDimension(string(r.Dimension))
	if err != nil {
		return r, fmt.Errorf("rate limit: route %s: %w", r.Route, err)
	}
	r.Dimension = dim
	return r, nil
}

// Window returns the rule's window length.
func (r Rule) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}
