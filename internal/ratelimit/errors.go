package ratelimit

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownRoute is returned when a guard is asked about an undeclared route.
var ErrUnknownRoute = errors.New("rate limit: unknown route")

// ExceededError reports a denied attempt together with the route and
// dimension it was counted against.
type ExceededError struct {
	Route         string
	Dimension     Dimension
	Subject       string
	Count         int
	MaxCount      int
	WindowSeconds int
	RetryAfter    time.Duration
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded: route=%s %s=%s count=%d limit=%d/%ds",
		e.Route, e.Dimension, e.Subject, e.Count, e.MaxCount, e.WindowSeconds)
}

// IsExceeded reports whether err is, or wraps, an ExceededError.
func IsExceeded(err error) bool {
	var exceeded *ExceededError
	return errors.As(err, &exceeded)
}
