package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEntrySpecifierPrefixesBareRelativePaths(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"entry.ts":        "./entry.ts",
		"./entry.ts":      "./entry.ts",
		"/abs/entry.ts":   "/abs/entry.ts",
		"nested/entry.ts": "./nested/entry.ts",
		"https://x/e.ts":  "https://x/e.ts",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeEntrySpecifier(in), "input %q", in)
	}
}
