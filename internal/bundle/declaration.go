// Package bundle implements spec.md §3's data model and §4.3's Resolver:
// Modules, Declarations, CanonicalNames, and the Declaration Index built
// from a tree of parsed modules. Grounded on the Module/Exports-map shape
// of other_examples/de505067_mcgru-funxy__internal-modules-module.go.go,
// adapted from a type-checker's symbol table to a bundler's declaration
// graph — funxy's Module has no per-declaration node of its own (its unit
// of analysis is the whole module's SymbolTable), so Declaration's shape
// below is new, designed directly off spec.md §3's data model rather than
// adapted from a present example file.
package bundle

import "fmt"

// CanonicalName is the global identity of a declaration: a module and the
// local name it is bound to within that module. Two declarations compare
// equal, per spec.md §3, iff both fields match.
type CanonicalName struct {
	ModuleURI string
	LocalName string
}

func (c CanonicalName) String() string {
	return fmt.Sprintf("%s#%s", c.ModuleURI, c.LocalName)
}

// DeclarationKind classifies the runtime shape of a top-level declaration.
type DeclarationKind int

const (
	KindFunction DeclarationKind = iota
	KindVariable
	KindClass
)

func (k DeclarationKind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindVariable:
		return "variable"
	case KindClass:
		return "class"
	default:
		return "unknown"
	}
}

// Declaration is one top-level binding in a Module: its source text, the
// CanonicalNames of every free identifier it references (populated once
// the Resolver has run), and whether invoking it constitutes a macro call
// per spec.md §4.5.
type Declaration struct {
	Name   CanonicalName
	Kind   DeclarationKind
	Text   string // exact source text, verbatim
	Offset int    // byte offset of Text within its Module's source
	Length int

	// FreeNames are the bare identifiers referenced by Text before
	// resolution; References are the same identifiers after the Resolver
	// has mapped each to its owning Module.
	FreeNames []string
	// MemberAccess maps a free base identifier to the distinct member
	// names accessed on it (`ns.foo` records MemberAccess["ns"] ⊇ {"foo"}),
	// used by the Resolver's namespace-import tie-break (spec.md §4.3).
	MemberAccess map[string][]string
	References   []CanonicalName

	// IsMacro is true for declarations that are the four always-macro
	// builtins (closure, canonicalName, tuple, unsafeCast) or are bound
	// from a call to funee:createMacro, per spec.md §4.5.
	IsMacro bool

	// IsExported is true when Module.Exports names this declaration.
	IsExported bool
}

// Import is one module-level import binding: a local name bound to either
// a single export of another module, or that module's entire namespace.
type Import struct {
	LocalName    string
	ExportedName string // "" when Namespace is true
	Namespace    bool
	Specifier    string // as written at the import site, pre-resolution
	FromModule   string // resolved ModuleURI, filled in once the referrer's URI is known
}

// Export is one module-level export: a re-export of a local declaration
// under (possibly) a different name, or a re-export of another module's
// export without a local binding of its own.
type Export struct {
	ExportedName string
	LocalName    string // "" for a bare re-export
	FromModule   string // non-empty for `export { x } from "..."` / `export * from "..."`
	ReexportAll  bool
}

// Module is one parsed, loaded source file: its declarations plus its
// import/export edges, matching spec.md §3's Module record.
type Module struct {
	URI          string
	Source       string // type-erased source text declarations' spans index into
	Declarations map[string]*Declaration // local name -> Declaration
	Order        []string                // declaration local names, in source order
	Imports      []Import
	Exports      []Export
}

// NewModule returns an empty Module ready to have declarations added to it.
func NewModule(uri, source string) *Module {
	return &Module{
		URI:          uri,
		Source:       source,
		Declarations: make(map[string]*Declaration),
	}
}

// AddDeclaration registers decl under its local name, preserving insertion
// order for deterministic emission (spec.md §4.6).
func (m *Module) AddDeclaration(decl *Declaration) {
	m.Declarations[decl.Name.LocalName] = decl
	m.Order = append(m.Order, decl.Name.LocalName)
}

// Lookup returns the Declaration bound to localName, if any.
func (m *Module) Lookup(localName string) (*Declaration, bool) {
	d, ok := m.Declarations[localName]
	return d, ok
}
