package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTopLevelClassifiesKinds(t *testing.T) {
	t.Parallel()
	src := `import { add } from "./math.ts";
export const total = add(1, 2);
function helper() { return 1; }
class Box { constructor() {} }
export default helper;
`
	items := SplitTopLevel(src)
	require.Len(t, items, 5)

	assert.Equal(t, ItemImport, items[0].Kind)
	assert.Equal(t, "./math.ts", items[0].ImportSpecifier)

	assert.Equal(t, ItemExport, items[1].Kind)
	assert.Equal(t, "total", items[1].ExportLocalOrReexport)

	assert.Equal(t, ItemFunction, items[2].Kind)
	assert.Equal(t, "helper", items[2].Name)

	assert.Equal(t, ItemClass, items[3].Kind)
	assert.Equal(t, "Box", items[3].Name)

	assert.Equal(t, ItemExport, items[4].Kind)
	assert.True(t, items[4].ExportIsDefault)
}

func TestSplitTopLevelNamespaceImport(t *testing.T) {
	t.Parallel()
	items := SplitTopLevel(`import * as math from "./math.ts";`)
	require.Len(t, items, 1)
	assert.Equal(t, "math", items[0].Name)
	assert.Equal(t, "*", items[0].ImportExported)
	assert.Equal(t, "./math.ts", items[0].ImportSpecifier)
}

func TestSplitTopLevelReexport(t *testing.T) {
	t.Parallel()
	items := SplitTopLevel(`export { add, sub as subtract } from "./math.ts";`)
	require.Len(t, items, 1)
	assert.Equal(t, "./math.ts", items[0].ExportFromSpecifier)

	named := ParseNamedImports(items[0].ExportLocalOrReexport)
	require.Len(t, named, 2)
	assert.Equal(t, "add", named[0].Local)
	assert.Equal(t, "sub", named[1].Exported)
	assert.Equal(t, "subtract", named[1].Local)
}

func TestSplitTopLevelIgnoresBracesInStrings(t *testing.T) {
	t.Parallel()
	items := SplitTopLevel(`const s = "{ not a brace }"; const n = 1;`)
	require.Len(t, items, 2)
	assert.Equal(t, "s", items[0].Name)
	assert.Equal(t, "n", items[1].Name)
}
