package emit

import (
	"fmt"
	"strings"

	"github.com/netanelgilad/funee/internal/bundle"
	"github.com/netanelgilad/funee/internal/bundle/graph"
)

// ErrCircularInitialization is spec.md §9's CircularInitialization: a
// strongly-connected component of variable/class declarations with no
// function declaration available to hoist and break the cycle.
type ErrCircularInitialization struct {
	Cycle []bundle.CanonicalName
}

func (e *ErrCircularInitialization) Error() string {
	names := make([]string, len(e.Cycle))
	for i, cn := range e.Cycle {
		names[i] = cn.String()
	}
	return fmt.Sprintf("circular initialization among: %s", strings.Join(names, " -> "))
}

// topoSort orders order (already in the deterministic module/name order)
// so that a variable or class declaration with an initializer always
// follows every live declaration its body references, per spec.md §4.6:
// "variable declarations with initializers must precede their uses."
// Function declarations are exempt in both directions — being hoisted,
// they may be emitted in any position and never block anything else, per
// spec.md §9's cycle-breaking rule of "preferring function declarations
// (hoisted) at the top of a strongly-connected component." Kahn's
// algorithm with the incoming deterministic order as the tie-break,
// grounded on the same "assign an emission order respecting dependency
// edges" problem esbuild's linker solves per-file.
func topoSort(g *graph.Graph, order []bundle.CanonicalName) ([]bundle.CanonicalName, error) {
	live := make(map[bundle.CanonicalName]bool, len(order))
	for _, cn := range order {
		live[cn] = true
	}

	indegree := make(map[bundle.CanonicalName]int, len(order))
	dependents := make(map[bundle.CanonicalName][]bundle.CanonicalName)
	blocks := func(cn bundle.CanonicalName) bool {
		decl, ok := g.Declaration(cn)
		return ok && decl.Kind != bundle.KindFunction
	}

	for _, cn := range order {
		if !blocks(cn) {
			continue
		}
		decl, ok := g.Declaration(cn)
		if !ok {
			continue
		}
		for _, ref := range decl.References {
			if ref == cn || !live[ref] || !blocks(ref) {
				continue
			}
			dependents[ref] = append(dependents[ref], cn)
			indegree[cn]++
		}
	}

	// Repeated passes over the deterministic `order` rather than a FIFO
	// queue: a queue's append order would let *discovery* order perturb the
	// emission order, whereas every pass here re-scans `order` itself, so
	// ties always resolve by (module URI, local name) regardless of which
	// dependency happened to clear first.
	result := make([]bundle.CanonicalName, 0, len(order))
	emitted := make(map[bundle.CanonicalName]bool, len(order))
	for len(result) < len(order) {
		progressed := false
		for _, cn := range order {
			if emitted[cn] || indegree[cn] > 0 {
				continue
			}
			emitted[cn] = true
			result = append(result, cn)
			progressed = true
			for _, dep := range dependents[cn] {
				indegree[dep]--
			}
		}
		if !progressed {
			break
		}
	}

	if len(result) == len(order) {
		return result, nil
	}

	var cycle []bundle.CanonicalName
	for _, cn := range order {
		if !emitted[cn] {
			cycle = append(cycle, cn)
		}
	}
	return nil, &ErrCircularInitialization{Cycle: cycle}
}
