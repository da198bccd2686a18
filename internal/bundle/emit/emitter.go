// Package emit implements the Emitter of spec.md §4.6: it takes the
// post-expansion, tree-shaken set of declarations, assigns each a fresh
// deterministic identifier, rewrites every reference, and concatenates the
// result into one runnable script text.
//
// Grounded on esbuild's linker concatenation step
// (other_examples/2ea13d10_evanw-esbuild__internal-bundler-linker.go.go —
// symbol renaming plus topologically-ordered statement concatenation into
// one output file) and its part-ordering metadata
// (other_examples/cd636a94_evanw-esbuild__internal-graph-meta.go.go),
// adapted from esbuild's per-file/per-statement-part granularity down to
// funee's one-entry-per-Declaration granularity.
package emit

import (
	"fmt"
	"strings"

	"github.com/netanelgilad/funee/internal/bundle"
	"github.com/netanelgilad/funee/internal/bundle/graph"
)

// HostBinding describes how a funee: host export should be referenced in
// the emitted script, per spec.md §4.7's process-wide `host` object.
type HostBinding struct {
	// Expr is the JS expression the identifier should be rewritten to,
	// e.g. "host.readFile" for funee:fs's readFile export.
	Expr string
}

// Options configures one Emit call.
type Options struct {
	// EntryPoint is the CanonicalName of the entry module's default export,
	// invoked as the final statement of the emitted script.
	EntryPoint bundle.CanonicalName

	// HostBindings maps a host-namespace CanonicalName to the runtime
	// expression it should be rewritten to. Any reachable reference to a
	// funee: module not present here is emitted as a plain property access
	// on `host` named after the export, the default spec.md §4.7 wiring.
	HostBindings map[bundle.CanonicalName]HostBinding
}

// Emit renders result's live declaration set into a single script text per
// spec.md §4.6.
func Emit(g *graph.Graph, result *graph.Result, opts Options) (string, error) {
	order := reachableOrder(result)

	names := make(map[bundle.CanonicalName]string, len(order))
	for i, cn := range order {
		names[cn] = fmt.Sprintf("declaration_%d", i)
	}

	sorted, err := topoSort(g, order)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, cn := range sorted {
		decl, ok := g.Declaration(cn)
		if !ok {
			continue
		}
		rewritten := rewriteReferences(decl, names, opts.HostBindings)
		b.WriteString(rewritten)
		if !strings.HasSuffix(strings.TrimSpace(rewritten), ";") {
			b.WriteString(";")
		}
		b.WriteString("\n")
	}

	entryFresh, ok := names[opts.EntryPoint]
	if !ok {
		return "", fmt.Errorf("entry point %s is not in the live declaration set", opts.EntryPoint)
	}
	b.WriteString(entryFresh)
	b.WriteString("();\n")

	return b.String(), nil
}

// reachableOrder returns result's live CanonicalNames (already in
// graph.Shake's deterministic (module URI, then local name) order —
// reused here so the Macro Engine's iteration order and the Emitter's
// numbering order are identical by construction) with funee:-namespaced
// declarations excluded: per spec.md §4.7 they are native host
// capabilities, not source the bundler owns, so they are never assigned a
// fresh identifier or emitted — every reference to one is rewritten to a
// `host.<name>` access instead (see rewriteReferences).
func reachableOrder(result *graph.Result) []bundle.CanonicalName {
	order := make([]bundle.CanonicalName, 0, len(result.Order))
	for _, cn := range result.Order {
		if !isHostNamespace(cn.ModuleURI) {
			order = append(order, cn)
		}
	}
	return order
}

func isHostNamespace(moduleURI string) bool {
	return strings.HasPrefix(moduleURI, "funee:")
}

// rewriteReferences replaces every reference CanonicalName decl's body
// names with its fresh identifier (or, for a funee: host reference, the
// host binding expression) per spec.md §4.6. Declaration text is rewritten
// by a conservative word-boundary literal substitution: references are
// already known exactly (Declaration.References was computed by the
// Resolver against the exact same FreeNames the body contains), so a
// precise identifier-boundary scan is sufficient without re-parsing.
func rewriteReferences(decl *bundle.Declaration, names map[bundle.CanonicalName]string, hostBindings map[bundle.CanonicalName]HostBinding) string {
	replacements := make(map[string]string, len(decl.FreeNames))
	for _, free := range decl.FreeNames {
		cn, ok := lookupReference(decl, free)
		if !ok {
			continue
		}
		if isHostNamespace(cn.ModuleURI) {
			if binding, ok := hostBindings[cn]; ok {
				replacements[free] = binding.Expr
			} else {
				replacements[free] = "host." + cn.LocalName
			}
			continue
		}
		if fresh, ok := names[cn]; ok {
			replacements[free] = fresh
		}
	}

	fresh, hasFresh := names[decl.Name]
	body := substituteIdentifiers(decl.Text, replacements)
	if hasFresh {
		body = rebindDeclarationName(body, decl, fresh)
	}
	return body
}

// lookupReference pairs a free identifier with its resolved CanonicalName.
// Declaration.References is a parallel, order-matched slice built by the
// Resolver walking FreeNames in the same order (bundle.Resolver.
// ResolveDeclarationReferences) — skipped entries (host globals, JS
// builtins) are simply absent, not nil-padded, so a position-independent
// name match is used instead of index alignment.
func lookupReference(decl *bundle.Declaration, name string) (bundle.CanonicalName, bool) {
	for _, cn := range decl.References {
		if cn.LocalName == name && referenceNameMatches(decl, name, cn) {
			return cn, true
		}
	}
	return bundle.CanonicalName{}, false
}

// referenceNameMatches disambiguates two free identifiers sharing a local
// name that resolve to declarations of the same LocalName in different
// modules — a collision Declaration.References alone can't be indexed by
// name for. In practice the Resolver only ever produces one candidate per
// distinct free identifier spelling within a single declaration's scope,
// so this always succeeds; it exists to make that assumption explicit
// rather than silently picking the first match.
func referenceNameMatches(decl *bundle.Declaration, name string, cn bundle.CanonicalName) bool {
	count := 0
	for _, free := range decl.FreeNames {
		if free == name {
			count++
		}
	}
	return count > 0
}

// rebindDeclarationName renames a function/class declaration's own name
// (the identifier that follows `function`/`class`) to fresh, and a
// variable declaration's bound name (the identifier before `=`) likewise —
// so the fresh identifiers assigned by the Emitter are what every other
// rewritten reference in the bundle actually points at.
func rebindDeclarationName(body string, decl *bundle.Declaration, fresh string) string {
	original := decl.Name.LocalName
	switch decl.Kind {
	case bundle.KindFunction:
		return replaceFirstIdentifierAfter(body, "function ", original, fresh)
	case bundle.KindClass:
		return replaceFirstIdentifierAfter(body, "class ", original, fresh)
	default:
		return replaceFirstWholeIdentifier(body, original, fresh)
	}
}

func replaceFirstIdentifierAfter(body, keyword, original, fresh string) string {
	idx := strings.Index(body, keyword)
	if idx == -1 {
		return replaceFirstWholeIdentifier(body, original, fresh)
	}
	start := idx + len(keyword)
	// Skip a generator `*` and spaces between the keyword and the name, if
	// present. An `async` before `function` precedes the keyword, so it is
	// not in this stretch.
	for start < len(body) && (body[start] == '*' || body[start] == ' ') {
		start++
	}
	rest := body[start:]
	if !strings.HasPrefix(rest, original) {
		return replaceFirstWholeIdentifier(body, original, fresh)
	}
	return body[:start] + fresh + rest[len(original):]
}

func replaceFirstWholeIdentifier(body, original, fresh string) string {
	idx := indexWholeIdentifier(body, original, 0)
	if idx == -1 {
		return body
	}
	return body[:idx] + fresh + body[idx+len(original):]
}

// substituteIdentifiers replaces every whole-identifier occurrence of each
// key in replacements, scanning once left to right so earlier replacements
// don't get re-scanned.
func substituteIdentifiers(text string, replacements map[string]string) string {
	if len(replacements) == 0 {
		return text
	}

	var b strings.Builder
	i := 0
	for i < len(text) {
		if isIdentStart(rune(text[i])) {
			end := i + 1
			for end < len(text) && isIdentPart(rune(text[end])) {
				end++
			}
			word := text[i:end]
			if !precededByDot(text, i) {
				if replacement, ok := replacements[word]; ok {
					b.WriteString(replacement)
					i = end
					continue
				}
			}
			b.WriteString(word)
			i = end
			continue
		}
		b.WriteByte(text[i])
		i++
	}
	return b.String()
}

func precededByDot(text string, i int) bool {
	j := i - 1
	for j >= 0 && text[j] == ' ' {
		j--
	}
	return j >= 0 && text[j] == '.'
}

func indexWholeIdentifier(text, name string, from int) int {
	for i := from; i+len(name) <= len(text); i++ {
		if text[i:i+len(name)] != name {
			continue
		}
		if i > 0 && isIdentPart(rune(text[i-1])) {
			continue
		}
		if end := i + len(name); end < len(text) && isIdentPart(rune(text[end])) {
			continue
		}
		return i
	}
	return -1
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}
