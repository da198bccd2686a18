package syntax_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netanelgilad/funee/internal/syntax"
)

func TestFindCallSitesBareIdentifierCallee(t *testing.T) {
	t.Parallel()
	sites, err := syntax.FindCallSites(`function main() { return add(1, 2); }`)
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, "add", sites[0].CalleeName)
	require.Len(t, sites[0].Args, 2)
	assert.Equal(t, "1", sites[0].Args[0].Text)
	assert.Equal(t, "2", sites[0].Args[1].Text)
}

func TestFindCallSitesMemberAccessCallee(t *testing.T) {
	t.Parallel()
	sites, err := syntax.FindCallSites(`function main() { return math.add(1, 2); }`)
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, "math", sites[0].CalleeBase)
	assert.Equal(t, "add", sites[0].CalleeMember)
}

func TestFindCallSitesCapturesArgumentSourceText(t *testing.T) {
	t.Parallel()
	sites, err := syntax.FindCallSites(`function main() { return closure((a, b) => a + b); }`)
	require.NoError(t, err)
	require.Len(t, sites, 1)
	require.Len(t, sites[0].Args, 1)
	assert.Equal(t, "(a, b) => a + b", sites[0].Args[0].Text)
}

func TestFindCallSitesNestedCalls(t *testing.T) {
	t.Parallel()
	sites, err := syntax.FindCallSites(`function main() { return outer(inner(1)); }`)
	require.NoError(t, err)
	require.Len(t, sites, 2)
}
