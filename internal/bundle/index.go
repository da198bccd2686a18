package bundle

import (
	"fmt"
	"strings"

	"github.com/netanelgilad/funee/internal/syntax"
)

// macroCreatorCanonical is the CanonicalName of the funee: host export that
// marks a declaration as a macro per spec.md §4.3/§4.5.
var macroCreatorCanonical = CanonicalName{ModuleURI: "funee:createMacro", LocalName: "createMacro"}

// builtinMacroNames are the four always-macro builtins served from the
// funee: host namespace, per spec.md §4.5.
var builtinMacroNames = map[string]bool{
	"closure":       true,
	"canonicalName": true,
	"tuple":         true,
	"unsafeCast":    true,
}

// BuildModule runs the Declaration Index (spec.md §4.3, first paragraph)
// over an already-parsed syntax.Module: it walks top-level items and
// produces one Declaration per binding, detecting funee's always-macro
// builtins by name. A variable initialized by a `createMacro(...)` call is
// flagged here provisionally; MarkCreateMacroDeclarations confirms or
// clears the flag once imports are resolved.
func BuildModule(uri string, parsed *syntax.Module) (*Module, error) {
	mod := NewModule(uri, parsed.Source)

	for _, item := range parsed.Items {
		switch item.Kind {
		case syntax.ItemImport:
			mod.Imports = append(mod.Imports, importFromItem(item))

		case syntax.ItemExport:
			exp, declItem, hasDecl := exportFromItem(item)
			mod.Exports = append(mod.Exports, exp)
			if hasDecl {
				decl, err := declarationFromItem(uri, declItem)
				if err != nil {
					return nil, err
				}
				decl.IsExported = true
				mod.AddDeclaration(decl)
			}

		case syntax.ItemFunction, syntax.ItemVariable, syntax.ItemClass:
			decl, err := declarationFromItem(uri, item)
			if err != nil {
				return nil, err
			}
			mod.AddDeclaration(decl)
		}
	}

	return mod, nil
}

func importFromItem(item syntax.Item) Import {
	if item.ImportExported == "" && strings.HasPrefix(item.ImportLocal, "{") {
		// Multiple named imports are flattened to one Import per name by
		// the caller (bundle/pipeline.go) via syntax.ParseNamedImports;
		// BuildModule keeps the raw clause here so pipeline.go can expand
		// it once the Module's URI-qualified imports list is assembled.
		return Import{Specifier: item.ImportSpecifier, ExportedName: item.ImportLocal}
	}
	return Import{
		LocalName:    item.ImportLocal,
		ExportedName: item.ImportExported,
		Namespace:    item.ImportExported == "*",
		Specifier:    item.ImportSpecifier,
	}
}

// exportFromItem returns the Export edge for an export Item, the
// syntax.Item describing its declaration body when it introduces one
// (true only for `export default function/class NAME`, an anonymous
// `export default <expr>`, or `export const/let/var/function/class
// NAME ...`, where the export statement and the declaration are the same
// syntax), and whether it does so.
func exportFromItem(item syntax.Item) (Export, syntax.Item, bool) {
	if item.ExportIsDefault {
		return defaultExportFromItem(item)
	}
	if item.ExportAll {
		return Export{ReexportAll: true, FromModule: item.ExportFromSpecifier}, syntax.Item{}, false
	}
	if strings.HasPrefix(item.ExportLocalOrReexport, "{") {
		// Multiple re-exported names; pipeline.go expands each entry via
		// syntax.ParseNamedImports (the `{ a, b as c }` clause grammar is
		// identical for imports and exports).
		return Export{ExportedName: item.ExportLocalOrReexport, FromModule: item.ExportFromSpecifier}, syntax.Item{}, false
	}
	name := item.ExportLocalOrReexport
	return Export{ExportedName: name, LocalName: name}, strippedExportItem(item), true
}

// defaultExportFromItem handles the four shapes of `export default ...`:
// a named function, a named class, a bare identifier re-exporting an
// already-declared local binding, or an anonymous expression — which gets
// a synthetic local name so it has a CanonicalName to be the tree-shaker's
// seed (spec.md §4.4).
func defaultExportFromItem(item syntax.Item) (Export, syntax.Item, bool) {
	body := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(strings.TrimPrefix(item.Text, "export")), "default"))
	offset := item.Span.Offset + (len(item.Text) - len(body))

	switch {
	case strings.HasPrefix(body, "function "), strings.HasPrefix(body, "async function "):
		name := syntax.ExtractFunctionName(body)
		return Export{ExportedName: "default", LocalName: name},
			syntax.Item{Kind: syntax.ItemFunction, Name: name, Text: body, Span: syntax.Span{Offset: offset, Length: len(body)}},
			true
	case strings.HasPrefix(body, "class "):
		name := syntax.ExtractAfterKeyword(body, "class")
		return Export{ExportedName: "default", LocalName: name},
			syntax.Item{Kind: syntax.ItemClass, Name: name, Text: body, Span: syntax.Span{Offset: offset, Length: len(body)}},
			true
	}

	trimmed := strings.TrimSuffix(body, ";")
	if isBareIdentifierText(trimmed) {
		return Export{ExportedName: "default", LocalName: trimmed}, syntax.Item{}, false
	}

	const syntheticName = "__default__"
	text := "const " + syntheticName + " = (" + trimmed + ");"
	return Export{ExportedName: "default", LocalName: syntheticName},
		syntax.Item{Kind: syntax.ItemVariable, Name: syntheticName, Text: text, Span: syntax.Span{Offset: offset, Length: len(text)}},
		true
}

func isBareIdentifierText(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !isIdentStartRune(r) {
			return false
		}
		if i > 0 && !isIdentStartRune(r) && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func isIdentStartRune(r rune) bool {
	return r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// BuildDeclarationFromSource parses source as a single top-level
// declaration statement and builds its Declaration as if it had been
// present in the module from the start — spec.md §4.5's "artificial
// definitions are injected into the Declaration Index as if they had
// always been present." name overrides whatever binding name source
// itself declares, since a macro chooses the artificial definition's
// CanonicalName independently of the snippet's own spelling.
func BuildDeclarationFromSource(uri, name, source string) (*Declaration, error) {
	items := syntax.SplitTopLevel(source)
	if len(items) != 1 {
		return nil, fmt.Errorf("artificial definition %s must be exactly one declaration statement, got %d", name, len(items))
	}
	item := items[0]
	item.Name = name
	decl, err := declarationFromItem(uri, item)
	if err != nil {
		return nil, err
	}
	return decl, nil
}

func declarationFromItem(uri string, item syntax.Item) (*Declaration, error) {
	var kind DeclarationKind
	switch item.Kind {
	case syntax.ItemFunction:
		kind = KindFunction
	case syntax.ItemClass:
		kind = KindClass
	default:
		kind = KindVariable
	}

	analysis, err := syntax.Analyze(item.Text)
	if err != nil {
		return nil, err
	}

	isMacro := item.Kind == syntax.ItemFunction && builtinMacroNames[item.Name] &&
		uri == macroCreatorCanonical.ModuleURI
	if kind == KindVariable && isCreateMacroCallText(item.Text) {
		// Confirmed (or reverted) once imports are resolved — see
		// MarkCreateMacroDeclarations.
		isMacro = true
	}

	return &Declaration{
		Name:         CanonicalName{ModuleURI: uri, LocalName: item.Name},
		Kind:         kind,
		Text:         item.Text,
		Offset:       item.Span.Offset,
		Length:       item.Span.Length,
		FreeNames:    analysis.Free,
		MemberAccess: analysis.MemberAccess,
		IsMacro:      isMacro,
	}, nil
}

// isCreateMacroCallText reports whether a variable declaration's
// initializer is syntactically a call to something named createMacro —
// e.g. `const double = createMacro((ctx) => ...)`. This is a syntactic
// check, not a resolved one: MarkCreateMacroDeclarations confirms it
// against the actual import bindings once the Resolver is available,
// the same textual-first, resolve-later split stripTypes uses for type
// erasure.
func isCreateMacroCallText(text string) bool {
	idx := strings.Index(text, "=")
	if idx == -1 {
		return false
	}
	rest := strings.TrimSpace(text[idx+1:])
	rest = strings.TrimSuffix(rest, ";")
	return strings.HasPrefix(strings.TrimSpace(rest), "createMacro(")
}

// MarkCreateMacroDeclarations confirms or reverts the provisional is_macro
// flag isCreateMacroCallText set, by resolving the bare identifier
// "createMacro" in decl's module against r and checking it reaches the
// funee:createMacro host export, per spec.md §4.3's is_macro rule.
func MarkCreateMacroDeclarations(r *Resolver, moduleURI string, decl *Declaration) error {
	if decl.Kind != KindVariable || !isCreateMacroCallText(decl.Text) {
		return nil
	}
	cn, ok, err := r.Resolve(moduleURI, "createMacro")
	if err != nil {
		if _, isUnresolved := err.(*ErrUnresolvedReference); isUnresolved {
			decl.IsMacro = false
			return nil
		}
		return err
	}
	decl.IsMacro = ok && cn == macroCreatorCanonical
	return nil
}

// strippedExportItem reclassifies an `export const/function/class NAME`
// Item as its underlying declaration kind/name, stripping the `export `
// (and possible `default `) keyword from Text so declarationFromItem sees
// a plain declaration statement.
func strippedExportItem(item syntax.Item) syntax.Item {
	body := strings.TrimSpace(strings.TrimPrefix(item.Text, "export"))
	kind := syntax.ItemVariable
	switch {
	case strings.HasPrefix(body, "function "), strings.HasPrefix(body, "async function "):
		kind = syntax.ItemFunction
	case strings.HasPrefix(body, "class "):
		kind = syntax.ItemClass
	}
	return syntax.Item{
		Kind: kind,
		Name: item.ExportLocalOrReexport,
		Text: body,
		Span: syntax.Span{Offset: item.Span.Offset + (len(item.Text) - len(body)), Length: len(body)},
	}
}
