package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEnvMapSplitsOnFirstEquals(t *testing.T) {
	t.Parallel()
	env := BuildEnvMap([]string{"FUNEE_CACHE_DIR=/tmp/funee", "FUNEE_VERBOSE=1", "MALFORMED"})

	assert.Equal(t, "/tmp/funee", env["FUNEE_CACHE_DIR"])
	assert.Equal(t, "1", env["FUNEE_VERBOSE"])
	assert.Equal(t, "", env["MALFORMED"])
}

func TestConsolidateGlobalOptionsAppliesEnvOverDefaults(t *testing.T) {
	t.Parallel()
	defaults := GlobalOptions{CacheDir: "/default/cache"}
	env := map[string]string{
		"FUNEE_MACRO_TIMEOUT_SECONDS": "45",
		"FUNEE_MACRO_ITERATION_LIMIT": "200",
		"FUNEE_CACHE_DIR":             "/custom/cache",
		"FUNEE_VERBOSE":               "",
	}

	result := consolidateGlobalOptions(defaults, env)

	require.True(t, result.MacroTimeoutSeconds.Valid)
	assert.EqualValues(t, 45, result.MacroTimeoutSeconds.Int64)
	require.True(t, result.MacroIterationLimit.Valid)
	assert.EqualValues(t, 200, result.MacroIterationLimit.Int64)
	assert.Equal(t, "/custom/cache", result.CacheDir)
	assert.True(t, result.Verbose)
}

func TestConsolidateGlobalOptionsLeavesUnsetNumericFieldsInvalid(t *testing.T) {
	t.Parallel()
	result := consolidateGlobalOptions(GlobalOptions{}, map[string]string{})

	assert.False(t, result.MacroTimeoutSeconds.Valid)
	assert.False(t, result.MacroIterationLimit.Valid)
}
