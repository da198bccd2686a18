// Package graph builds the Declaration Graph spec.md §3 describes (nodes are
// CanonicalNames, edges are "this declaration's free identifiers resolve to
// that declaration") and tree-shakes it down to what's reachable from an
// entry point, per spec.md §4.4.
//
// Grounded on esbuild's internal/graph (LinkerGraph's file/part reachability
// bookkeeping) and internal/bundler's entry-point reachability pass — the
// closest real-world analog to spec.md's declaration-level tree-shaking,
// adapted from esbuild's per-file/per-part granularity down to funee's
// per-declaration granularity: one funee Declaration plays the role one
// esbuild js_ast.Part does.
package graph

import (
	"sort"

	"github.com/netanelgilad/funee/internal/bundle"
)

// Graph is the full Declaration Graph across every module a Pipeline loaded:
// every declaration in the Registry is a node, edges come straight from
// Declaration.References (already resolved by bundle.Resolver).
type Graph struct {
	reg *bundle.Registry
}

// New builds a Graph view over reg. It performs no analysis itself — callers
// use Neighbors/Declaration to traverse it, or call Shake for the
// tree-shaking pass.
func New(reg *bundle.Registry) *Graph {
	return &Graph{reg: reg}
}

// Declaration looks up the Declaration a CanonicalName names, if its module
// was loaded.
func (g *Graph) Declaration(name bundle.CanonicalName) (*bundle.Declaration, bool) {
	mod, ok := g.reg.Get(name.ModuleURI)
	if !ok {
		return nil, false
	}
	return mod.Lookup(name.LocalName)
}

// Neighbors returns the CanonicalNames name's declaration directly
// references, in the order of its Declaration.References. Returns nil if
// name doesn't resolve to a loaded declaration.
func (g *Graph) Neighbors(name bundle.CanonicalName) []bundle.CanonicalName {
	decl, ok := g.Declaration(name)
	if !ok {
		return nil
	}
	return decl.References
}

// AllNames returns every CanonicalName in the Graph ordered by (module URI,
// then local name) — the deterministic ordering spec.md §4.5 and §4.6 both
// require (macro-expansion iteration order and Emitter's declaration_N
// assignment order), reused here so Shake's output order is stable across
// runs.
func (g *Graph) AllNames() []bundle.CanonicalName {
	var names []bundle.CanonicalName
	for uri, mod := range g.reg.Modules {
		for localName := range mod.Declarations {
			names = append(names, bundle.CanonicalName{ModuleURI: uri, LocalName: localName})
		}
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i].ModuleURI != names[j].ModuleURI {
			return names[i].ModuleURI < names[j].ModuleURI
		}
		return names[i].LocalName < names[j].LocalName
	})
	return names
}
