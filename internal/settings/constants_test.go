package settings

import (
	"testing"

	"github.com/cantian-ai/bazigate/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRulesBuildGuard(t *testing.T) {
	g, err := ratelimit.NewGuard(ratelimit.NewMemoryLimiter(ratelimit.MemoryOptions{}), DefaultRules(), nil)
	require.NoError(t, err)

	rule, err := g.Rule(RouteSMSSend)
	require.NoError(t, err)
	assert.Equal(t, 1, rule.MaxCount)
	assert.Equal(t, ratelimit.DimensionIP, rule.Dimension)

	rule, err = g.Rule(RouteBaziTools)
	require.NoError(t, err)
	assert.Equal(t, 20, rule.MaxCount)
	assert.Equal(t, ratelimit.DimensionUser, rule.Dimension)
}
