package ratelimit

import (
	"errors"
	"testing"
	"time"

	"github.com/cantian-ai/bazigate/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGuard_NormalizesRules(t *testing.T) {
	g, err := NewGuard(NewMemoryLimiter(MemoryOptions{}), []Rule{
		{Route: "X"},
		{Route: "login", MaxCount: 1, WindowSeconds: 30, Dimension: "IP"},
	}, nil)
	require.NoError(t, err)

	rule, err := g.Rule("X")
	require.NoError(t, err)
	assert.Equal(t, Rule{Route: "X", WindowSeconds: 60, MaxCount: 5, Dimension: DimensionUser}, rule)

	rule, err = g.Rule("login")
	require.NoError(t, err)
	assert.Equal(t, DimensionIP, rule.Dimension)
	assert.Equal(t, 30*time.Second, rule.Window())

	assert.Len(t, g.Rules(), 2)
	assert.Equal(t, "X", g.Rules()[0].Route)
}

func TestNewGuard_RejectsBadRules(t *testing.T) {
	limiter := NewMemoryLimiter(MemoryOptions{})
	tests := []struct {
		name  string
		rules []Rule
	}{
		{name: "empty route", rules: []Rule{{Route: " "}}},
		{name: "duplicate", rules: []Rule{{Route: "a"}, {Route: "a"}}},
		{name: "negative window", rules: []Rule{{Route: "a", WindowSeconds: -1}}},
		{name: "unknown dimension", rules: []Rule{{Route: "a", Dimension: "tenant"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGuard(limiter, tt.rules, nil)
			assert.Error(t, err)
		})
	}

	_, err := NewGuard(nil, nil, nil)
	assert.Error(t, err)
}

func TestGuard_UnknownRoute(t *testing.T) {
	g, err := NewGuard(NewMemoryLimiter(MemoryOptions{}), nil, nil)
	require.NoError(t, err)

	_, err = g.Allow("missing", identity.Identity{})
	assert.True(t, errors.Is(err, ErrUnknownRoute))
}

func TestGuard_SixthRequestFromSameIPIsDenied(t *testing.T) {
	clock := newFakeClock()
	limiter := NewMemoryLimiter(MemoryOptions{Now: clock.Now})
	g, err := NewGuard(limiter, []Rule{{Route: "X", MaxCount: 5, WindowSeconds: 60, Dimension: DimensionIP}}, clock.Now)
	require.NoError(t, err)

	caller := identity.Identity{IP: "1.2.3.4"}
	for i := 1; i <= 5; i++ {
		_, errAllow := g.Allow("X", caller)
		require.NoError(t, errAllow, "request %d", i)
		clock.Advance(2 * time.Second)
	}

	_, err = g.Allow("X", caller)
	require.Error(t, err)
	assert.True(t, IsExceeded(err))

	var exceeded *ExceededError
	require.True(t, errors.As(err, &exceeded))
	assert.Equal(t, "X", exceeded.Route)
	assert.Equal(t, DimensionIP, exceeded.Dimension)
	assert.Equal(t, "1.2.3.4", exceeded.Subject)
	assert.Equal(t, 6, exceeded.Count)
	assert.Equal(t, 50*time.Second, exceeded.RetryAfter)

	// another address is unaffected
	_, err = g.Allow("X", identity.Identity{IP: "5.6.7.8"})
	assert.NoError(t, err)
}

func TestGuard_UserDimension(t *testing.T) {
	g, err := NewGuard(NewMemoryLimiter(MemoryOptions{}), []Rule{{Route: "report", MaxCount: 1}}, nil)
	require.NoError(t, err)

	alice := identity.Identity{IP: "1.1.1.1"}.WithUser(7, "alice")
	aliceElsewhere := identity.Identity{IP: "2.2.2.2"}.WithUser(7, "alice")
	bob := identity.Identity{IP: "1.1.1.1"}.WithUser(8, "bob")

	_, err = g.Allow("report", alice)
	require.NoError(t, err)
	_, err = g.Allow("report", aliceElsewhere)
	assert.True(t, IsExceeded(err), "user limit follows the user across addresses")
	_, err = g.Allow("report", bob)
	assert.NoError(t, err)

	// anonymous callers share one bucket
	_, err = g.Allow("report", identity.Identity{IP: "3.3.3.3"})
	require.NoError(t, err)
	_, err = g.Allow("report", identity.Identity{IP: "4.4.4.4"})
	assert.True(t, IsExceeded(err))
}

func TestKeyFor(t *testing.T) {
	ipRule := Rule{Route: "X", Dimension: DimensionIP}
	userRule := Rule{Route: "X", Dimension: DimensionUser}

	key, subject := KeyFor(ipRule, identity.Identity{IP: "1.2.3.4"})
	assert.Equal(t, "X:ip:1.2.3.4", key)
	assert.Equal(t, "1.2.3.4", subject)

	key, _ = KeyFor(ipRule, identity.Identity{})
	assert.Equal(t, "X:ip:anonymous", key)

	key, _ = KeyFor(userRule, identity.Identity{UserID: 42})
	assert.Equal(t, "X:user:42", key)

	key, subject = KeyFor(userRule, identity.Identity{IP: "1.2.3.4"})
	assert.Equal(t, "X:user:anonymous", key)
	assert.Equal(t, identity.Anonymous, subject)
}
