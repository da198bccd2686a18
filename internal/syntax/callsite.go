package syntax

import (
	"fmt"
	"reflect"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// CallSite is one call expression found in a declaration body, with enough
// information for the Macro Engine (spec.md §4.5) to decide whether it's a
// macro call and, if so, capture its arguments as Closures.
type CallSite struct {
	// CalleeName is the bare identifier callee ("f" in f(...)), or "" when
	// the callee is a member access.
	CalleeName string
	// CalleeBase/CalleeMember are set instead of CalleeName when the callee
	// is a member access ("ns" / "macroName" in ns.macroName(...)).
	CalleeBase   string
	CalleeMember string
	// Args are the call's argument expressions, each as exact source text
	// plus its byte span within declText.
	Args []ArgSpan
	// Span is the whole call expression's byte span, used to splice the
	// substituted text back in.
	Span Span
}

// ArgSpan is one call argument's source text and byte span.
type ArgSpan struct {
	Text string
	Span Span
}

// FindCallSites parses declText and returns every call expression found in
// it, in source order.
func FindCallSites(declText string) ([]CallSite, error) {
	prog, err := parser.ParseFile(nil, "", declText, 0)
	if err != nil {
		return nil, fmt.Errorf("parsing declaration body: %w", err)
	}
	c := &callFinder{src: declText}
	for _, stmt := range prog.Body {
		c.walk(reflect.ValueOf(stmt))
	}
	return c.sites, nil
}

type callFinder struct {
	src   string
	sites []CallSite
}

// firstValidField returns the first present, valid field among names —
// goja's exact ast.CallExpression field names aren't verifiable in this
// environment (see DESIGN.md), so probing a short list of plausible names
// degrades to "site not recognized" rather than a compile failure.
func firstValidField(v reflect.Value, names ...string) reflect.Value {
	for _, name := range names {
		if f := v.FieldByName(name); f.IsValid() {
			return f
		}
	}
	return reflect.Value{}
}

func (c *callFinder) walk(v reflect.Value) {
	if !v.IsValid() {
		return
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return
		}
		c.walk(v.Elem())
		return
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			c.walk(v.Index(i))
		}
		return
	case reflect.Struct:
		// fallthrough
	default:
		return
	}

	if v.Type().Name() == "CallExpression" {
		c.recordCall(v)
	}

	for i := 0; i < v.NumField(); i++ {
		if v.Type().Field(i).PkgPath != "" {
			continue
		}
		c.walk(v.Field(i))
	}
}

func (c *callFinder) recordCall(v reflect.Value) {
	node, ok := v.Addr().Interface().(ast.Node)
	if !ok {
		if iface, ok := v.Interface().(ast.Node); ok {
			node = iface
		} else {
			return
		}
	}

	callee := firstValidField(v, "Callee", "Function", "Member")
	args := firstValidField(v, "ArgumentList", "Arguments")
	if !callee.IsValid() || !args.IsValid() {
		return
	}

	site := CallSite{Span: nodeSpan(node)}

	calleeVal := derefToStruct(callee)
	if calleeVal.IsValid() {
		switch calleeVal.Type().Name() {
		case "Identifier":
			site.CalleeName = identifierName(calleeVal)
		case "DotExpression":
			left := derefToStruct(calleeVal.FieldByName("Left"))
			if left.IsValid() && left.Type().Name() == "Identifier" {
				site.CalleeBase = identifierName(left)
				if base, prop := dotExpressionParts(calleeVal.FieldByName("Left"), calleeVal); base != "" {
					site.CalleeMember = prop
				}
			}
		}
	}

	if args.Kind() == reflect.Slice {
		for i := 0; i < args.Len(); i++ {
			argVal := args.Index(i)
			argNode, ok := exprNode(argVal)
			if !ok {
				continue
			}
			site.Args = append(site.Args, ArgSpan{
				Text: SourceText(c.src, argNode),
				Span: nodeSpan(argNode),
			})
		}
	}

	if site.CalleeName != "" || site.CalleeMember != "" {
		c.sites = append(c.sites, site)
	}
}

func derefToStruct(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func exprNode(v reflect.Value) (ast.Node, bool) {
	if iface, ok := v.Interface().(ast.Node); ok {
		return iface, true
	}
	if v.CanAddr() {
		if iface, ok := v.Addr().Interface().(ast.Node); ok {
			return iface, true
		}
	}
	return nil, false
}

func nodeSpan(node ast.Node) Span {
	start := int(node.Idx0()) - 1
	end := int(node.Idx1()) - 1
	return Span{Offset: start, Length: end - start}
}
