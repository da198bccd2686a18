package syntax

import "strings"

// stripTypes erases the subset of TypeScript-family syntax spec.md §4.2
// requires be "parsed and erased": `: Type` annotations after identifiers
// and in function return positions, `interface`/`type` statements, `<T>`
// generic argument lists on calls (including the `unsafeCast<T>(v)` builtin
// macro's own generic), `as Type` casts, and trailing `!` non-null
// assertions. An `as` inside an import or `export {`/`export *` clause is
// a binding alias, not a cast, and is kept. Line and block comments are
// dropped from the output.
//
// This is a textual pass, not a real TypeScript parser: it is a conscious
// simplification recorded in DESIGN.md rather than a full type-aware AST,
// the same way grafana-k6's old js/compiler ran a source-to-source
// transform (there: Babel-via-goja) ahead of goja's own parse step.
func stripTypes(src string) string {
	var out strings.Builder
	out.Grow(len(src))

	runes := []rune(src)
	n := len(runes)
	i := 0

	inString := rune(0)
	for i < n {
		c := runes[i]

		if inString != 0 {
			out.WriteRune(c)
			if c == '\\' && i+1 < n {
				i++
				out.WriteRune(runes[i])
			} else if c == inString {
				inString = 0
			}
			i++
			continue
		}

		switch c {
		case '\'', '"', '`':
			inString = c
			out.WriteRune(c)
			i++
			continue
		case '/':
			if i+1 < n && runes[i+1] == '/' {
				for i < n && runes[i] != '\n' {
					i++
				}
				continue
			}
			if i+1 < n && runes[i+1] == '*' {
				i += 2
				for i+1 < n && !(runes[i] == '*' && runes[i+1] == '/') {
					i++
				}
				i += 2
				continue
			}
		}

		if startsKeyword(runes, i, "interface") || startsKeyword(runes, i, "type") {
			kw := "type"
			if startsKeyword(runes, i, "interface") {
				kw = "interface"
			}
			// `type X = ...;` or `interface X { ... }` — both are erased
			// entirely; their declared name never becomes a canonical
			// declaration (type aliases carry no runtime value).
			j := i + len(kw)
			depth := 0
			seenBrace := false
			for j < n {
				if runes[j] == '{' {
					depth++
					seenBrace = true
				} else if runes[j] == '}' {
					depth--
					if depth == 0 && seenBrace {
						j++
						break
					}
				} else if runes[j] == ';' && depth == 0 {
					j++
					break
				} else if runes[j] == '\n' && depth == 0 && !seenBrace && kw == "type" {
					break
				}
				j++
			}
			i = j
			continue
		}

		if c == '<' && i > 0 && isIdentRune(runes[i-1]) {
			// `name<T, U>(` — a generic argument list on a call or a
			// function declaration is erased up to the '('.
			j, depth := i+1, 1
			for j < n && depth > 0 && runes[j] != ';' && runes[j] != '\n' {
				if runes[j] == '<' {
					depth++
				} else if runes[j] == '>' && runes[j-1] != '=' {
					depth--
				}
				j++
			}
			if depth == 0 && j < n && runes[j] == '(' {
				i = j
				continue
			}
		}

		if c == '?' && i+1 < n && runes[i+1] == ':' {
			// Optional-parameter marker (`x?: Type`): the '?' is dropped and
			// the annotation after it is erased like any other.
			i++
			c = ':'
		}

		if c == ':' {
			// `ident: Type` or `(a: Type, b: Type2): ReturnType =>` — skip
			// to the next top-level ',', ')', '=', ';', '=>' or, after a
			// return type, '{', keeping the spaces just before it. A
			// ternary's colon (`cond ? a : b`) is not told apart from an
			// annotation's.
			returnType := i > 0 && runes[i-1] == ')'
			j := i + 1
			depth := 0
			for j < n {
				switch runes[j] {
				case '{':
					if depth == 0 && returnType {
						goto doneColon
					}
					depth++
				case '(', '[':
					depth++
				case ')', ']', '}':
					if depth == 0 {
						goto doneColon
					}
					depth--
				case ',', ';':
					if depth == 0 {
						goto doneColon
					}
				case '=':
					if depth == 0 {
						goto doneColon
					}
				}
				j++
			}
		doneColon:
			for j > i+1 && runes[j-1] == ' ' {
				j--
			}
			i = j
			continue
		}

		if c == ' ' && startsKeyword(runes, i+1, "as") && !inModuleClause(runes, i) {
			// ` as Type` cast, erased together with the space before it.
			j := i + 3
			for j < n && runes[j] != ',' && runes[j] != ')' && runes[j] != ';' && runes[j] != '\n' {
				j++
			}
			i = j
			continue
		}

		if c == '!' && isNonNullAssertion(runes, i, n) {
			i++
			continue
		}

		out.WriteRune(c)
		i++
	}

	return out.String()
}

func startsKeyword(runes []rune, i int, kw string) bool {
	kr := []rune(kw)
	if i+len(kr) > len(runes) {
		return false
	}
	for k, r := range kr {
		if runes[i+k] != r {
			return false
		}
	}
	if i+len(kr) < len(runes) {
		next := runes[i+len(kr)]
		if isIdentRune(next) {
			return false
		}
	}
	if i > 0 && isIdentRune(runes[i-1]) {
		return false
	}
	return true
}

// isNonNullAssertion reports whether the '!' at runes[i] is a trailing
// non-null assertion (`expr!`) rather than the logical-not operator
// (`!expr`): it must follow an identifier character, ')', or ']' with no
// intervening space, and must not be followed by '=' (which would make it
// part of `!=`/`!==`).
func isNonNullAssertion(runes []rune, i, n int) bool {
	if i+1 < n && runes[i+1] == '=' {
		return false
	}
	if i == 0 {
		return false
	}
	prev := runes[i-1]
	return isIdentRune(prev) || prev == ')' || prev == ']'
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '$' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// inModuleClause reports whether position i lies in an import statement or
// an `export {`/`export *` clause, where `as` renames a binding rather than
// casting a value. The statement is taken to start after the last ';' or
// '}' before i.
func inModuleClause(runes []rune, i int) bool {
	start := i
	for start > 0 && runes[start-1] != ';' && runes[start-1] != '}' {
		start--
	}
	stmt := strings.TrimSpace(string(runes[start:i]))
	for _, prefix := range []string{"import ", "import{", "export {", "export{", "export *"} {
		if strings.HasPrefix(stmt, prefix) {
			return true
		}
	}
	return false
}
