package syntax

import (
	"strings"
)

// ItemKind classifies one top-level statement of a module, matching
// spec.md §4.2's "distinguishing statement forms needed for tree-shaking
// (top-level declarations, imports, exports)".
type ItemKind int

const (
	ItemImport ItemKind = iota
	ItemExport
	ItemFunction
	ItemVariable
	ItemClass
	ItemTypeAlias
	ItemOther
)

// Item is one top-level statement, as split out of a module's source text
// before any goja parsing happens — import/export grammar is simple enough
// that funee recognizes it directly, keeping goja's real parser focused on
// declaration bodies (see decl.go's FreeIdentifiers).
type Item struct {
	Kind ItemKind
	// Name is the bound identifier for ItemFunction/ItemVariable/ItemClass,
	// or the local binding of a default or namespace import. It is empty
	// for `{ ... }` import clauses and for export statements.
	Name string
	// Text is the exact source text of the statement, spec.md §4.5's
	// "source text exactly as written" requirement for Closures applies
	// identically here to declaration capture.
	Text string
	// Span is the byte offset range of Text within the module's (stripped)
	// source, per spec.md §4.2's span requirement.
	Span Span

	// Import-only fields.
	ImportSpecifier string // the module specifier string, unresolved
	ImportLocal     string // local binding name
	ImportExported  string // "*" for namespace, "default" for default, else the exported name
	ImportTypeOnly  bool

	// Export-only fields.
	ExportLocalOrReexport string // local name, or re-export source name
	ExportFromSpecifier   string // non-empty if `export { x } from "spec"`
	ExportIsDefault       bool
	ExportAll             bool
}

// Span is a byte-offset range into a module's source text.
type Span struct {
	Offset int
	Length int
}

// SplitTopLevel scans src (already type-erased) and returns its top-level
// items in source order. It is bracket and string/template aware but does
// not recognize comments (Parse's stripTypes has already removed them) and
// does not otherwise parse expressions — see decl.go for that.
func SplitTopLevel(src string) []Item {
	var items []Item
	statements := splitStatements(src)
	for _, st := range statements {
		items = append(items, classify(st, src))
	}
	return items
}

type rawStatement struct {
	text   string
	offset int
}

// splitStatements breaks src into top-level statement spans, terminated by
// a semicolon or a closing brace at depth 0, tracking string/template
// state so neither confuses the depth counter. Comments are not tracked.
func splitStatements(src string) []rawStatement {
	var out []rawStatement
	runes := []rune(src)
	n := len(runes)

	start := 0
	depth := 0
	inString := rune(0)
	i := 0
	for i < n {
		c := runes[i]
		if inString != 0 {
			if c == '\\' && i+1 < n {
				i += 2
				continue
			}
			if c == inString {
				inString = 0
			}
			i++
			continue
		}
		switch c {
		case '\'', '"', '`':
			inString = c
		case '(', '[', '{':
			depth++
		case ')', ']':
			depth--
		case '}':
			depth--
			if depth == 0 {
				i++
				out = append(out, makeRaw(runes, start, i))
				start = i
				continue
			}
		case ';':
			if depth == 0 {
				i++
				out = append(out, makeRaw(runes, start, i))
				start = i
				continue
			}
		}
		i++
	}
	if strings.TrimSpace(string(runes[start:])) != "" {
		out = append(out, makeRaw(runes, start, n))
	}
	return out
}

func makeRaw(runes []rune, from, to int) rawStatement {
	text := string(runes[from:to])
	trimmed := strings.TrimLeft(text, " \t\r\n")
	lead := len(text) - len(trimmed)
	return rawStatement{text: strings.TrimRight(trimmed, " \t\r\n"), offset: from + lead}
}

func classify(st rawStatement, _ string) Item {
	text := st.text
	span := Span{Offset: st.offset, Length: len(text)}

	switch {
	case strings.HasPrefix(text, "import "), strings.HasPrefix(text, "import{"), strings.HasPrefix(text, "import\""), strings.HasPrefix(text, "import'"):
		imp := parseImport(text)
		imp.Text = text
		imp.Span = span
		imp.Kind = ItemImport
		return imp
	case strings.HasPrefix(text, "export "):
		exp := parseExport(text)
		exp.Text = text
		exp.Span = span
		return exp
	case strings.HasPrefix(text, "function "), strings.HasPrefix(text, "async function "):
		return Item{Kind: ItemFunction, Name: ExtractFunctionName(text), Text: text, Span: span}
	case strings.HasPrefix(text, "class "):
		return Item{Kind: ItemClass, Name: ExtractAfterKeyword(text, "class"), Text: text, Span: span}
	case strings.HasPrefix(text, "const "), strings.HasPrefix(text, "let "), strings.HasPrefix(text, "var "):
		return Item{Kind: ItemVariable, Name: extractVariableName(text), Text: text, Span: span}
	default:
		return Item{Kind: ItemOther, Text: text, Span: span}
	}
}

// ExtractAfterKeyword returns the identifier immediately following kw
// (e.g. "class") in text, such as a class's own name.
func ExtractAfterKeyword(text, kw string) string {
	rest := strings.TrimSpace(strings.TrimPrefix(text, kw))
	end := 0
	for end < len(rest) && isIdentRune(rune(rest[end])) {
		end++
	}
	return rest[:end]
}

// ExtractFunctionName returns the bound name of a `function NAME(...)` or
// `async function NAME(...)` declaration's source text.
func ExtractFunctionName(text string) string {
	rest := text
	rest = strings.TrimPrefix(rest, "async ")
	rest = strings.TrimPrefix(rest, "function ")
	rest = strings.TrimPrefix(rest, "function*")
	rest = strings.TrimSpace(rest)
	end := 0
	for end < len(rest) && isIdentRune(rune(rest[end])) {
		end++
	}
	return rest[:end]
}

func extractVariableName(text string) string {
	for _, kw := range []string{"const ", "let ", "var "} {
		if strings.HasPrefix(text, kw) {
			rest := strings.TrimSpace(strings.TrimPrefix(text, kw))
			end := 0
			for end < len(rest) && isIdentRune(rune(rest[end])) {
				end++
			}
			return rest[:end]
		}
	}
	return ""
}

// parseImport handles the common ESM import forms:
//
//	import Default from "spec"
//	import { a, b as c } from "spec"
//	import * as ns from "spec"
//	import "spec"
//	import type { T } from "spec"
func parseImport(text string) Item {
	body := strings.TrimSuffix(strings.TrimPrefix(text, "import"), ";")
	body = strings.TrimSpace(body)

	typeOnly := false
	if strings.HasPrefix(body, "type ") {
		typeOnly = true
		body = strings.TrimSpace(strings.TrimPrefix(body, "type "))
	}

	fromIdx := strings.LastIndex(body, " from ")
	var clause, specLit string
	if fromIdx == -1 {
		specLit = body
	} else {
		clause = strings.TrimSpace(body[:fromIdx])
		specLit = strings.TrimSpace(body[fromIdx+len(" from "):])
	}
	spec := unquote(specLit)

	if clause == "" {
		return Item{ImportSpecifier: spec, ImportExported: "", ImportTypeOnly: typeOnly}
	}
	if strings.HasPrefix(clause, "*") {
		alias := strings.TrimSpace(strings.TrimPrefix(clause, "*"))
		alias = strings.TrimSpace(strings.TrimPrefix(alias, "as"))
		return Item{Name: alias, ImportSpecifier: spec, ImportLocal: alias, ImportExported: "*", ImportTypeOnly: typeOnly}
	}
	if strings.HasPrefix(clause, "{") {
		// Name stays empty; the whole `{ ... }` clause is kept in
		// ImportLocal and bundle/pipeline.go splits it into one import per
		// name (see ParseNamedImports).
		return Item{ImportSpecifier: spec, ImportLocal: clause, ImportExported: "", ImportTypeOnly: typeOnly}
	}
	// default import, optionally followed by `, { ... }` or `, * as ns`
	defaultName := clause
	if idx := strings.Index(clause, ","); idx != -1 {
		defaultName = strings.TrimSpace(clause[:idx])
	}
	return Item{Name: defaultName, ImportSpecifier: spec, ImportLocal: defaultName, ImportExported: "default", ImportTypeOnly: typeOnly}
}

// NamedImport is one `{ a, b as c }` entry.
type NamedImport struct {
	Exported string
	Local    string
}

// ParseNamedImports extracts the individual bindings of an import clause
// whose ImportLocal looks like "{ a, b as c }".
func ParseNamedImports(clause string) []NamedImport {
	clause = strings.TrimSpace(clause)
	if !strings.HasPrefix(clause, "{") {
		return nil
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(clause, "{"), "}")
	var out []NamedImport
	for _, part := range strings.Split(inner, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if idx := strings.Index(part, " as "); idx != -1 {
			out = append(out, NamedImport{
				Exported: strings.TrimSpace(part[:idx]),
				Local:    strings.TrimSpace(part[idx+len(" as "):]),
			})
		} else {
			out = append(out, NamedImport{Exported: part, Local: part})
		}
	}
	return out
}

// parseExport handles:
//
//	export default expr
//	export const/let/var/function/class NAME ...
//	export { a, b as c }
//	export { a } from "spec"
//	export * from "spec"
func parseExport(text string) Item {
	body := strings.TrimSpace(strings.TrimPrefix(text, "export"))

	if strings.HasPrefix(body, "default ") {
		return Item{Kind: ItemExport, ExportIsDefault: true, ExportLocalOrReexport: "default"}
	}
	if strings.HasPrefix(body, "*") {
		rest := strings.TrimSpace(strings.TrimPrefix(body, "*"))
		fromIdx := strings.Index(rest, "from ")
		spec := ""
		if fromIdx != -1 {
			spec = unquote(strings.TrimSpace(strings.TrimSuffix(rest[fromIdx+len("from "):], ";")))
		}
		return Item{Kind: ItemExport, ExportAll: true, ExportFromSpecifier: spec}
	}
	if strings.HasPrefix(body, "{") {
		closeIdx := strings.Index(body, "}")
		clause := body[:closeIdx+1]
		rest := strings.TrimSpace(body[closeIdx+1:])
		spec := ""
		if strings.HasPrefix(rest, "from ") {
			spec = unquote(strings.TrimSpace(strings.TrimSuffix(rest[len("from "):], ";")))
		}
		return Item{Kind: ItemExport, ExportLocalOrReexport: clause, ExportFromSpecifier: spec}
	}
	for _, kw := range []string{"const ", "let ", "var ", "function ", "async function ", "class "} {
		if strings.HasPrefix(body, kw) {
			name := extractAfterDeclKeyword(body, kw)
			return Item{Kind: ItemExport, ExportLocalOrReexport: name}
		}
	}
	return Item{Kind: ItemExport}
}

func extractAfterDeclKeyword(text, kw string) string {
	rest := strings.TrimSpace(strings.TrimPrefix(text, kw))
	rest = strings.TrimPrefix(rest, "*") // generator function
	rest = strings.TrimSpace(rest)
	end := 0
	for end < len(rest) && isIdentRune(rune(rest[end])) {
		end++
	}
	return rest[:end]
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
