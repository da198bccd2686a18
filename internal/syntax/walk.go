package syntax

import (
	"fmt"
	"reflect"

	"github.com/dop251/goja/ast"
)

// identWalker collects the free identifiers referenced by a declaration's
// body: names used but not bound by a parameter, var/let/const binding,
// function/class name, or catch clause within that same body.
//
// It walks goja's ast.Node tree generically via reflection rather than a
// type switch over every statement/expression shape goja defines. That is
// a deliberate, documented tradeoff (see DESIGN.md): a hand-written switch
// risks silently missing an ES grammar shape goja's AST adds or renames
// across versions, where a reflective walk degrades gracefully — it still
// visits every child node, it is only the handful of scope-introducing
// shapes below that need exact handling, and those are the oldest, most
// stable names in the grammar (identifiers, functions, bindings).
type identWalker struct {
	boundStack []map[string]bool
	free       map[string]bool
	// members records, for each base identifier used as the left side of
	// a `base.member` access anywhere in the walked body, the distinct
	// member names accessed — input to the Resolver's namespace-import
	// tie-break rule (spec.md §4.3: "ns.foo" resolves to (ns-module,
	// "foo")).
	members map[string]map[string]bool
}

func newIdentWalker() *identWalker {
	return &identWalker{
		boundStack: []map[string]bool{{}},
		free:       make(map[string]bool),
		members:    make(map[string]map[string]bool),
	}
}

func (w *identWalker) pushScope() { w.boundStack = append(w.boundStack, map[string]bool{}) }
func (w *identWalker) popScope()  { w.boundStack = w.boundStack[:len(w.boundStack)-1] }

func (w *identWalker) bind(name string) {
	if name == "" {
		return
	}
	w.boundStack[len(w.boundStack)-1][name] = true
}

func (w *identWalker) isBound(name string) bool {
	for i := len(w.boundStack) - 1; i >= 0; i-- {
		if w.boundStack[i][name] {
			return true
		}
	}
	return false
}

func (w *identWalker) reference(name string) {
	if name != "" && !w.isBound(name) {
		w.free[name] = true
	}
}

// walkStatement and walkExpression are named entry points kept distinct
// from the generic reflect walk below so callers (decl.go) read naturally;
// both dispatch into the same walkValue.
func (w *identWalker) walkStatement(stmt ast.Statement) { w.walkValue(reflect.ValueOf(stmt)) }
func (w *identWalker) walkExpression(expr ast.Expression) { w.walkValue(reflect.ValueOf(expr)) }

func (w *identWalker) walkValue(v reflect.Value) {
	if !v.IsValid() {
		return
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return
		}
		w.walkValue(v.Elem())
		return
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			w.walkValue(v.Index(i))
		}
		return
	case reflect.Struct:
		// fallthrough to named-type handling below
	default:
		return
	}

	typeName := v.Type().Name()
	switch typeName {
	case "Identifier":
		name := identifierName(v)
		w.reference(name)
		return

	case "DotExpression":
		// `obj.prop` — only the base is a reference, the property name is
		// not an identifier lookup in the declaration's own scope.
		left := v.FieldByName("Left")
		if left.IsValid() {
			w.walkValue(left)
		}
		if base, prop := dotExpressionParts(left, v); base != "" {
			if w.members[base] == nil {
				w.members[base] = make(map[string]bool)
			}
			w.members[base][prop] = true
		}
		return

	case "FunctionLiteral", "ArrowFunctionLiteral":
		w.pushScope()
		if name := v.FieldByName("Name"); name.IsValid() {
			w.bindPattern(name)
		}
		if params := v.FieldByName("ParameterList"); params.IsValid() {
			w.bindPattern(params)
		}
		if body := v.FieldByName("Body"); body.IsValid() {
			w.walkValue(body)
		}
		w.popScope()
		return

	case "FunctionDeclaration", "ClassDeclaration":
		// The declaration's own name is the declaration being defined, not
		// a reference or a local binding — recurse into the nested
		// literal (its parameters/body/methods) without re-binding here.
		for _, field := range []string{"Function", "Class"} {
			if fv := v.FieldByName(field); fv.IsValid() {
				w.walkValue(fv)
			}
		}
		return

	case "Binding":
		// `var`/`let`/`const` bindings: Target is bound, Initializer is a
		// normal expression evaluated in the enclosing (not yet extended)
		// scope.
		if init := v.FieldByName("Initializer"); init.IsValid() {
			w.walkValue(init)
		}
		if target := v.FieldByName("Target"); target.IsValid() {
			w.bindPattern(target)
		}
		return

	case "CatchClause":
		w.pushScope()
		if param := v.FieldByName("Parameter"); param.IsValid() {
			w.bindPattern(param)
		}
		if body := v.FieldByName("Body"); body.IsValid() {
			w.walkValue(body)
		}
		w.popScope()
		return
	}

	for i := 0; i < v.NumField(); i++ {
		if v.Type().Field(i).PkgPath != "" {
			continue // unexported
		}
		w.walkValue(v.Field(i))
	}
}

// bindPattern walks v (a parameter, binding target, or destructuring
// pattern) treating every Identifier found as a binding rather than a
// reference.
func (w *identWalker) bindPattern(v reflect.Value) {
	if !v.IsValid() {
		return
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return
		}
		w.bindPattern(v.Elem())
		return
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			w.bindPattern(v.Index(i))
		}
		return
	case reflect.Struct:
		if v.Type().Name() == "Identifier" {
			w.bind(identifierName(v))
			return
		}
		for i := 0; i < v.NumField(); i++ {
			if v.Type().Field(i).PkgPath != "" {
				continue
			}
			w.bindPattern(v.Field(i))
		}
	}
}

// dotExpressionParts extracts the (base, property) names of a DotExpression
// when its Left is a bare Identifier, so `ns.foo` is recorded as
// members["ns"]["foo"]. Left being anything else (a call result, another
// member access) yields no member-access record — only the innermost base
// of a chain is tracked, matching spec.md §4.3's single-level namespace
// tie-break rule.
func dotExpressionParts(left, dotExpr reflect.Value) (base, prop string) {
	if !left.IsValid() {
		return "", ""
	}
	lv := left
	for lv.Kind() == reflect.Ptr || lv.Kind() == reflect.Interface {
		if lv.IsNil() {
			return "", ""
		}
		lv = lv.Elem()
	}
	if lv.Kind() != reflect.Struct || lv.Type().Name() != "Identifier" {
		return "", ""
	}
	base = identifierName(lv)

	propField := dotExpr.FieldByName("Identifier")
	if !propField.IsValid() {
		return base, ""
	}
	pv := propField
	for pv.Kind() == reflect.Ptr || pv.Kind() == reflect.Interface {
		if pv.IsNil() {
			return base, ""
		}
		pv = pv.Elem()
	}
	if pv.Kind() == reflect.Struct {
		prop = identifierName(pv)
	}
	return base, prop
}

func identifierName(v reflect.Value) string {
	nameField := v.FieldByName("Name")
	if !nameField.IsValid() {
		return ""
	}
	if stringer, ok := nameField.Interface().(fmt.Stringer); ok {
		return stringer.String()
	}
	if nameField.Kind() == reflect.String {
		return nameField.String()
	}
	return fmt.Sprintf("%v", nameField.Interface())
}
