package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreeIdentifiersFunctionDeclaration(t *testing.T) {
	t.Parallel()
	names, err := FreeIdentifiers("function add(a, b) { return a + b + helper(); }")
	require.NoError(t, err)
	assert.Contains(t, names, "helper")
	assert.NotContains(t, names, "a")
	assert.NotContains(t, names, "b")
	assert.NotContains(t, names, "add")
}

func TestFreeIdentifiersArrowVariable(t *testing.T) {
	t.Parallel()
	names, err := FreeIdentifiers("const add = (a, b) => a + b + BASE;")
	require.NoError(t, err)
	assert.Contains(t, names, "BASE")
	assert.NotContains(t, names, "a")
	assert.NotContains(t, names, "b")
}

func TestFreeIdentifiersMemberAccessOnlyBaseIsFree(t *testing.T) {
	t.Parallel()
	names, err := FreeIdentifiers("const v = math.pi;")
	require.NoError(t, err)
	assert.Contains(t, names, "math")
	assert.NotContains(t, names, "pi")
}

func TestFreeIdentifiersLocalShadowing(t *testing.T) {
	t.Parallel()
	names, err := FreeIdentifiers("function f() { const shared = 1; return shared + outer; }")
	require.NoError(t, err)
	assert.NotContains(t, names, "shared")
	assert.Contains(t, names, "outer")
}

func TestAnalyzeRecordsMemberAccess(t *testing.T) {
	t.Parallel()
	a, err := Analyze("const v = ns.foo() + ns.bar;")
	require.NoError(t, err)
	assert.Contains(t, a.Free, "ns")
	require.Contains(t, a.MemberAccess, "ns")
	assert.ElementsMatch(t, []string{"foo", "bar"}, a.MemberAccess["ns"])
}

func TestParseSplitsModuleAndItems(t *testing.T) {
	t.Parallel()
	mod, err := Parse("file:///m.ts", "export const x: number = 1;\n")
	require.NoError(t, err)
	require.Len(t, mod.Items, 1)
	assert.Equal(t, ItemExport, mod.Items[0].Kind)
	assert.Equal(t, "x", mod.Items[0].ExportLocalOrReexport)
	assert.NotContains(t, mod.Source, ": number")
}
