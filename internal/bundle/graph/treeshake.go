package graph

import "github.com/netanelgilad/funee/internal/bundle"

// Shake performs spec.md §4.4's tree-shaking: a reverse-reachability walk
// starting at entry (the entry module's default export) that keeps exactly
// the declarations transitively referenced from it, dropping everything
// else — mirroring esbuild's entry-point reachability pass in
// internal/bundler, narrowed from whole-file reachability to
// per-declaration reachability.
//
// Live reports which CanonicalNames survived. Order lists them in
// deterministic (module URI, then local name) sequence, restricted
// to the live set — this becomes the Emitter's input order before
// topological sorting.
type Result struct {
	Live  map[bundle.CanonicalName]bool
	Order []bundle.CanonicalName
}

// Shake walks g from entry along Declaration.References edges (a
// declaration referencing another is this graph's "keeps alive" edge) and
// returns everything reachable, entry included.
func Shake(g *Graph, entry bundle.CanonicalName) *Result {
	live := make(map[bundle.CanonicalName]bool)
	queue := []bundle.CanonicalName{entry}
	live[entry] = true

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, ref := range g.Neighbors(cur) {
			if !live[ref] {
				live[ref] = true
				queue = append(queue, ref)
			}
		}
	}

	var order []bundle.CanonicalName
	for _, name := range g.AllNames() {
		if live[name] {
			order = append(order, name)
		}
	}

	return &Result{Live: live, Order: order}
}
