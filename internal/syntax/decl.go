// Package syntax implements spec.md §4.2's Parser: type-erasure of the
// TypeScript-family surface funee source is written in, splitting a module
// into its top-level statements, and a free-identifier walk over each
// declaration's body using goja's own parser/ast packages — the same
// parser the Host Runtime later executes the emitted script with, matching
// grafana-k6's historical js/compiler pattern of transforming source ahead
// of a goja parse.
package syntax

import (
	"fmt"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// Module is one parsed source file: its type-erased text, split top-level
// Items, and the (stripped) source string Items' Spans index into.
type Module struct {
	URI    string
	Source string
	Items  []Item
}

// Parse type-erases src and splits it into top-level items. It does not
// itself invoke goja's parser — that happens lazily, per declaration, via
// FreeIdentifiers, so a syntax error in one declaration's body never
// prevents classifying the rest of the module.
func Parse(uri, src string) (*Module, error) {
	stripped := stripTypes(src)
	return &Module{
		URI:    uri,
		Source: stripped,
		Items:  SplitTopLevel(stripped),
	}, nil
}

// Analysis is the result of walking one declaration's body: its free
// identifiers, plus the distinct `base.member` accesses seen for any base
// that is itself a free identifier — the Resolver's input for spec.md
// §4.3's namespace-import tie-break rule.
type Analysis struct {
	Free         []string
	MemberAccess map[string][]string
}

// Analyze parses declText (a single top-level function, variable, or class
// declaration's exact source text) with goja's real parser and computes
// its free identifiers and member-access shape.
func Analyze(declText string) (*Analysis, error) {
	prog, err := parser.ParseFile(nil, "", declText, 0)
	if err != nil {
		return nil, fmt.Errorf("parsing declaration body: %w", err)
	}

	w := newIdentWalker()
	for _, stmt := range prog.Body {
		w.walkStatement(stmt)
	}

	names := make([]string, 0, len(w.free))
	for name := range w.free {
		names = append(names, name)
	}

	members := make(map[string][]string, len(w.members))
	for base, props := range w.members {
		list := make([]string, 0, len(props))
		for p := range props {
			list = append(list, p)
		}
		members[base] = list
	}

	return &Analysis{Free: names, MemberAccess: members}, nil
}

// FreeIdentifiers is a convenience wrapper over Analyze for callers that
// only need the free-identifier set.
func FreeIdentifiers(declText string) ([]string, error) {
	a, err := Analyze(declText)
	if err != nil {
		return nil, err
	}
	return a.Free, nil
}

// ParseExpression parses a single expression in isolation, wrapping it so
// a bare object literal or arrow function parses
// unambiguously as an expression rather than a block or declaration.
func ParseExpression(exprText string) (ast.Expression, error) {
	wrapped := "(" + exprText + ")"
	prog, err := parser.ParseFile(nil, "", wrapped, 0)
	if err != nil {
		return nil, fmt.Errorf("parsing expression: %w", err)
	}
	if len(prog.Body) != 1 {
		return nil, fmt.Errorf("expected a single expression, got %d statements", len(prog.Body))
	}
	exprStmt, ok := prog.Body[0].(*ast.ExpressionStatement)
	if !ok {
		return nil, fmt.Errorf("expected an expression statement, got %T", prog.Body[0])
	}
	return exprStmt.Expression, nil
}
