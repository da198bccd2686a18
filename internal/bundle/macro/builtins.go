package macro

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// builtinNames are the four always-macro builtins served from the funee:
// host namespace, per spec.md §4.5.
var builtinNames = map[string]bool{
	"closure":       true,
	"canonicalName": true,
	"tuple":         true,
	"unsafeCast":    true,
}

func isBuiltin(name string) bool { return builtinNames[name] }

// invokeBuiltin implements the four built-in macros' bodies as spec.md
// §4.5 specifies them directly, rather than via a goja invocation: their
// output is a small, spec-fixed source template, not arbitrary user logic.
func invokeBuiltin(name string, args []Closure) (*MacroResult, error) {
	switch name {
	case "closure":
		return closureBuiltin(args)
	case "canonicalName":
		return canonicalNameBuiltin(args)
	case "tuple":
		return tupleBuiltin(args)
	case "unsafeCast":
		return unsafeCastBuiltin(args)
	default:
		return nil, fmt.Errorf("unknown built-in macro %q", name)
	}
}

// closureBuiltin implements `closure(e)`: it returns source code that, at
// runtime, constructs the Runtime Closure shape of spec.md §6 — an object
// with an `expression: { type, code }` pair and a `references` Map keyed
// by local identifier, values being literal CanonicalName pairs (no
// further resolution needed by the emitted code).
func closureBuiltin(args []Closure) (*MacroResult, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("closure(e) expects exactly one argument, got %d", len(args))
	}
	c := args[0]
	kind := inferAstKind(c.Expression)
	code := fmt.Sprintf(
		"new Closure({ type: %s, code: %s }, %s)",
		jsStringLiteral(kind), jsStringLiteral(c.Expression), referencesMapLiteral(c.References),
	)
	return &MacroResult{Type: ResultSimple, Closure: Closure{Expression: code, References: c.References}}, nil
}

// canonicalNameBuiltin implements `canonicalName(x)`: x must be a bare
// identifier; the macro returns source constructing its resolved
// CanonicalName object.
func canonicalNameBuiltin(args []Closure) (*MacroResult, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("canonicalName(x) expects exactly one argument, got %d", len(args))
	}
	c := args[0]
	name := strings.TrimSpace(c.Expression)
	if !isBareIdentifierLiteral(name) {
		return nil, fmt.Errorf("canonicalName(x) requires x to be a bare identifier, got %q", c.Expression)
	}
	ref, ok := c.References[name]
	if !ok {
		return nil, fmt.Errorf("canonicalName(x): %q has no resolvable binding", name)
	}
	code := fmt.Sprintf("new CanonicalName(%s, %s)", jsStringLiteral(ref[0]), jsStringLiteral(ref[1]))
	return &MacroResult{Type: ResultSimple, Closure: Closure{Expression: code}}, nil
}

// tupleBuiltin implements `tuple(a, b, …)`: an array literal of the
// captured source texts, references merged across all arguments.
func tupleBuiltin(args []Closure) (*MacroResult, error) {
	parts := make([]string, len(args))
	refs := make(map[string]WireReference)
	for i, c := range args {
		parts[i] = c.Expression
		for name, ref := range c.References {
			refs[name] = ref
		}
	}
	code := "[" + strings.Join(parts, ", ") + "]"
	return &MacroResult{Type: ResultSimple, Closure: Closure{Expression: code, References: refs}}, nil
}

// unsafeCastBuiltin implements `unsafeCast<T>(v)`: identity at runtime,
// used only for the source language's (erased) type system.
func unsafeCastBuiltin(args []Closure) (*MacroResult, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("unsafeCast(v) expects exactly one argument, got %d", len(args))
	}
	return &MacroResult{Type: ResultSimple, Closure: args[0]}, nil
}

func referencesMapLiteral(refs map[string]WireReference) string {
	if len(refs) == 0 {
		return "new Map()"
	}
	names := make([]string, 0, len(refs))
	for name := range refs {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]string, 0, len(names))
	for _, name := range names {
		ref := refs[name]
		entries = append(entries, fmt.Sprintf(
			"[%s, new CanonicalName(%s, %s)]",
			jsStringLiteral(name), jsStringLiteral(ref[0]), jsStringLiteral(ref[1]),
		))
	}
	return "new Map([" + strings.Join(entries, ", ") + "])"
}

func jsStringLiteral(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// inferAstKind applies spec.md §6's syntactic, leading-character kind
// inference for the runtime Closure shape's `type` field. This is
// deliberately lossy — see DESIGN.md's Open Questions — it classifies by
// lexical shape, not a real parse, matching the spec's own wording
// ("Kind inference is syntactic and deterministic from the leading
// characters / lexical shape of the captured source").
func inferAstKind(expr string) string {
	t := strings.TrimSpace(expr)
	switch {
	case strings.HasPrefix(t, "function") || strings.HasPrefix(t, "async function"):
		return "FunctionExpression"
	case strings.HasPrefix(t, "{"):
		return "ObjectExpression"
	case strings.HasPrefix(t, "["):
		return "ArrayExpression"
	case strings.HasPrefix(t, "\"") || strings.HasPrefix(t, "'") || strings.HasPrefix(t, "`"):
		return "StringLiteral"
	case t == "true" || t == "false":
		return "BooleanLiteral"
	case t == "null":
		return "NullLiteral"
	case len(t) > 0 && t[0] >= '0' && t[0] <= '9':
		return "NumericLiteral"
	case isArrowFunctionText(t):
		return "ArrowFunctionExpression"
	case isBareIdentifierLiteral(t):
		return "Identifier"
	default:
		return "Expression"
	}
}

// isArrowFunctionText reports whether t looks like an arrow function: a
// parenthesized or bare parameter list followed by "=>" before any
// statement-ending character, or an async arrow.
func isArrowFunctionText(t string) bool {
	t = strings.TrimPrefix(t, "async ")
	depth := 0
	for i := 0; i < len(t); i++ {
		switch t[i] {
		case '(':
			depth++
		case ')':
			depth--
		case '=':
			if depth == 0 && i+1 < len(t) && t[i+1] == '>' {
				return true
			}
		case ';', '{':
			if depth == 0 {
				return false
			}
		}
	}
	return false
}

func isBareIdentifierLiteral(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !(r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return false
		}
		if i > 0 && !(r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}
