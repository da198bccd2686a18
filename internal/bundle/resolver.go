package bundle

import "fmt"

// Registry holds every Module loaded for one bundle, keyed by URI. Loading
// writes each URI once; after loading, only the Macro Engine changes it,
// adding modules and declarations for artificial definitions and
// rewriting declaration text as call sites expand.
type Registry struct {
	Modules map[string]*Module
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{Modules: make(map[string]*Module)}
}

// Add registers mod under its own URI.
func (r *Registry) Add(mod *Module) { r.Modules[mod.URI] = mod }

// Get looks up a previously-registered Module by URI.
func (r *Registry) Get(uri string) (*Module, bool) {
	m, ok := r.Modules[uri]
	return m, ok
}

// jsGlobals is the set of ECMAScript/engine global bindings a free
// identifier may resolve to without a CanonicalName, per the Declaration
// Graph invariant in spec.md §3 ("resolves ... to a JS built-in global").
// Host capability bindings (readFile, httpFetch, ...) are not listed here:
// they are ordinary imports from the funee: namespace and resolve to real
// CanonicalNames like any other import.
var jsGlobals = map[string]bool{
	"console": true, "Math": true, "JSON": true, "Promise": true,
	"Array": true, "Object": true, "String": true, "Number": true, "Boolean": true,
	"Date": true, "Error": true, "TypeError": true, "RangeError": true, "SyntaxError": true,
	"Map": true, "Set": true, "WeakMap": true, "WeakSet": true, "Symbol": true, "RegExp": true,
	"parseInt": true, "parseFloat": true, "isNaN": true, "isFinite": true,
	"undefined": true, "NaN": true, "Infinity": true, "globalThis": true,
	"Reflect": true, "Proxy": true, "BigInt": true, "ArrayBuffer": true,
	"Uint8Array": true, "Int8Array": true, "Uint8ClampedArray": true,
	"encodeURIComponent": true, "decodeURIComponent": true, "structuredClone": true,
}

// IsHostGlobal reports whether name is a JS built-in global.
func IsHostGlobal(name string) bool { return jsGlobals[name] }

// ErrUnresolvedReference is spec.md §4.3/§7's UnresolvedReference error.
type ErrUnresolvedReference struct {
	ModuleURI string
	Name      string
}

func (e *ErrUnresolvedReference) Error() string {
	return fmt.Sprintf("unresolved reference %q in %s", e.Name, e.ModuleURI)
}

// Resolver turns (module, local name) pairs into CanonicalNames, per
// spec.md §4.3.
type Resolver struct {
	reg *Registry
}

// NewResolver returns a Resolver backed by reg.
func NewResolver(reg *Registry) *Resolver { return &Resolver{reg: reg} }

// Resolve chases imports and re-exports starting from (moduleURI,
// localName) until it reaches a concrete top-level declaration. ok is
// false with a nil error when localName is a JS built-in global — callers
// should omit a graph edge for it rather than treat it as an error.
func (r *Resolver) Resolve(moduleURI, localName string) (CanonicalName, bool, error) {
	return r.resolve(moduleURI, localName, make(map[string]bool))
}

func (r *Resolver) resolve(moduleURI, localName string, visited map[string]bool) (CanonicalName, bool, error) {
	key := moduleURI + "#" + localName
	if visited[key] {
		return CanonicalName{}, false, fmt.Errorf("circular re-export resolving %s", key)
	}
	visited[key] = true

	mod, ok := r.reg.Get(moduleURI)
	if !ok {
		return CanonicalName{}, false, fmt.Errorf("module %s not loaded", moduleURI)
	}

	if _, ok := mod.Lookup(localName); ok {
		return CanonicalName{ModuleURI: moduleURI, LocalName: localName}, true, nil
	}

	for _, imp := range mod.Imports {
		if imp.LocalName != localName {
			continue
		}
		if imp.Namespace {
			return CanonicalName{}, false, fmt.Errorf(
				"namespace import %q used without member access in %s", localName, moduleURI)
		}
		exportedName := imp.ExportedName
		if exportedName == "" {
			exportedName = localName
		}
		return r.resolveExport(imp.FromModule, exportedName, visited)
	}

	if IsHostGlobal(localName) {
		return CanonicalName{}, false, nil
	}

	return CanonicalName{}, false, &ErrUnresolvedReference{ModuleURI: moduleURI, Name: localName}
}

// resolveExport looks up exportedName in moduleURI's Export table,
// chasing re-exports (`export { x } from "other"`, `export * from
// "other"`) until a local declaration is reached.
func (r *Resolver) resolveExport(moduleURI, exportedName string, visited map[string]bool) (CanonicalName, bool, error) {
	mod, ok := r.reg.Get(moduleURI)
	if !ok {
		return CanonicalName{}, false, fmt.Errorf("module %s not loaded", moduleURI)
	}

	for _, exp := range mod.Exports {
		if exp.ReexportAll {
			if cn, found, err := r.resolveExport(exp.FromModule, exportedName, visited); err == nil && found {
				return cn, true, nil
			}
			continue
		}
		if exp.ExportedName != exportedName {
			continue
		}
		if exp.FromModule != "" {
			return r.resolveExport(exp.FromModule, exp.LocalName, visited)
		}
		return r.resolve(moduleURI, exp.LocalName, visited)
	}

	return CanonicalName{}, false, &ErrUnresolvedReference{ModuleURI: moduleURI, Name: exportedName}
}

// ResolveMember resolves a `base.member` access where base is bound to a
// namespace import, per spec.md §4.3's tie-break rule: the canonical name
// is `(ns-module, "member")`. ok is false (no error) if localName is not a
// namespace import in moduleURI — callers fall back to Resolve(localName).
func (r *Resolver) ResolveMember(moduleURI, localName, member string) (CanonicalName, bool, error) {
	mod, ok := r.reg.Get(moduleURI)
	if !ok {
		return CanonicalName{}, false, fmt.Errorf("module %s not loaded", moduleURI)
	}
	for _, imp := range mod.Imports {
		if imp.LocalName == localName && imp.Namespace {
			return r.resolveExport(imp.FromModule, member, make(map[string]bool))
		}
	}
	return CanonicalName{}, false, nil
}

// ResolveDeclarationReferences fills in decl.References from its FreeNames
// and MemberAccess, using moduleURI as the lexical scope the names are
// looked up in. Free names that are JS globals are silently omitted, per
// the DeclarationGraph invariant that host-global references are not part
// of the graph.
func (r *Resolver) ResolveDeclarationReferences(moduleURI string, decl *Declaration) error {
	decl.References = nil
	seen := make(map[CanonicalName]bool)

	add := func(cn CanonicalName, ok bool) {
		if !ok || seen[cn] {
			return
		}
		seen[cn] = true
		decl.References = append(decl.References, cn)
	}

	for _, name := range decl.FreeNames {
		if members, isNamespaceBase := decl.MemberAccess[name]; isNamespaceBase && len(members) > 0 {
			resolvedAny := false
			for _, member := range members {
				cn, ok, err := r.ResolveMember(moduleURI, name, member)
				if err != nil {
					return err
				}
				if ok {
					resolvedAny = true
					add(cn, true)
				}
			}
			if resolvedAny {
				continue
			}
		}
		cn, ok, err := r.resolve(moduleURI, name, make(map[string]bool))
		if err != nil {
			return err
		}
		add(cn, ok)
	}
	return nil
}
