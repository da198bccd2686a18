package syntax

import "github.com/dop251/goja/ast"

// SourceText returns the verbatim slice of src covered by node, using
// goja's 1-based file.Idx byte offsets. spec.md §4.5 requires Closure
// capture to preserve "source text exactly as written", and the Macro
// Engine calls this on declaration bodies rather than re-printing an AST.
func SourceText(src string, node ast.Node) string {
	start := int(node.Idx0()) - 1
	end := int(node.Idx1()) - 1
	if start < 0 || end > len(src) || start > end {
		return ""
	}
	return src[start:end]
}
