package macro

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dop251/goja"
	"github.com/sirupsen/logrus"

	"github.com/netanelgilad/funee/internal/bundle"
	"github.com/netanelgilad/funee/internal/bundle/graph"
	"github.com/netanelgilad/funee/internal/syntax"
)

// DefaultIterationLimit is spec.md §4.5's suggested fixpoint guard.
const DefaultIterationLimit = 100

// DefaultTimeout is spec.md §5's suggested per-call macro wall-clock budget.
const DefaultTimeout = 30 * time.Second

// HostModuleURI is the funee: host namespace createMacro and the four
// always-macro builtins are served from, per spec.md §4.3/§4.5.
const HostModuleURI = "funee:createMacro"

// ErrMacroExpansionLimitExceeded is spec.md §7's MacroExpansionLimitExceeded:
// the fixpoint loop did not converge within the iteration guard.
type ErrMacroExpansionLimitExceeded struct {
	Iterations int
}

func (e *ErrMacroExpansionLimitExceeded) Error() string {
	return fmt.Sprintf("macro expansion did not reach a fixpoint after %d iterations", e.Iterations)
}

// ErrMacroInvocationError is spec.md §7's MacroInvocationError: the macro
// body threw inside the engine.
type ErrMacroInvocationError struct {
	Macro   bundle.CanonicalName
	Message string
}

func (e *ErrMacroInvocationError) Error() string {
	return fmt.Sprintf("macro %s raised an error: %s", e.Macro, e.Message)
}

// ErrMacroTimeout is spec.md §7's MacroTimeout: a macro body exceeded its
// per-call wall-clock budget.
type ErrMacroTimeout struct {
	Macro bundle.CanonicalName
}

func (e *ErrMacroTimeout) Error() string {
	return fmt.Sprintf("macro %s exceeded its timeout budget", e.Macro)
}

// Engine implements spec.md §4.5's Macro Engine: detection, argument
// capture, invocation (via an embedded goja runtime for user-defined
// macros, or native Go for the four always-macro builtins), substitution,
// and the fixpoint loop.
//
// Grounded on other_examples/38108877_moio-k6__js-modules-resolution.go.go's
// pattern of handing the embedded engine a small, self-contained unit of
// work (there: a module's cyclic evaluation; here: one macro call) and
// awaiting its result before the bundler's own pipeline continues, matching
// spec.md §5's "the bundler awaits that call before continuing."
type Engine struct {
	logger         logrus.FieldLogger
	reg            *bundle.Registry
	resolver       *bundle.Resolver
	IterationLimit int
	Timeout        time.Duration
}

// NewEngine returns an Engine operating over reg via resolver, with
// spec.md §4.5/§5's suggested defaults.
func NewEngine(logger logrus.FieldLogger, reg *bundle.Registry, resolver *bundle.Resolver) *Engine {
	return &Engine{
		logger:         logger,
		reg:            reg,
		resolver:       resolver,
		IterationLimit: DefaultIterationLimit,
		Timeout:        DefaultTimeout,
	}
}

// Expand runs the fixpoint loop (spec.md §4.5 "Fixpoint") over the
// tree-shaken declarations reachable from entry, expanding macro calls
// until none remain, and returns the final (possibly larger, due to
// artificial definitions) reachable set.
func (e *Engine) Expand(ctx context.Context, entry bundle.CanonicalName) (*graph.Result, error) {
	g := graph.New(e.reg)
	result := graph.Shake(g, entry)

	for iter := 0; iter < e.IterationLimit; iter++ {
		expandedAny, err := e.expandOneIteration(ctx, result.Order)
		if err != nil {
			return nil, err
		}
		if !expandedAny {
			return result, nil
		}
		// Artificial definitions and substituted references may have
		// changed reachability, so re-shake before the next iteration.
		result = graph.Shake(g, entry)
	}

	return nil, &ErrMacroExpansionLimitExceeded{Iterations: e.IterationLimit}
}

// expandOneIteration walks order (spec.md §4.5 "Ordering": module URI, then
// local name, then source order within the body) once, expanding every
// macro call site it finds. It reports whether anything was expanded.
func (e *Engine) expandOneIteration(ctx context.Context, order []bundle.CanonicalName) (bool, error) {
	expandedAny := false

	for _, name := range order {
		mod, ok := e.reg.Get(name.ModuleURI)
		if !ok {
			continue
		}
		decl, ok := mod.Lookup(name.LocalName)
		if !ok {
			continue
		}

		sites, err := syntax.FindCallSites(decl.Text)
		if err != nil {
			return false, err
		}

		type macroSite struct {
			site  syntax.CallSite
			macro bundle.CanonicalName
		}
		var macroSites []macroSite
		for _, site := range sites {
			macroName, isMacro, err := e.resolveCallee(name.ModuleURI, site)
			if err != nil {
				return false, err
			}
			if isMacro {
				macroSites = append(macroSites, macroSite{site: site, macro: macroName})
			}
		}
		if len(macroSites) == 0 {
			continue
		}

		// Source order within the body, per spec.md §4.5; applied back to
		// front so earlier spans' byte offsets stay valid as later ones are
		// spliced.
		sort.SliceStable(macroSites, func(i, j int) bool {
			return macroSites[i].site.Span.Offset < macroSites[j].site.Span.Offset
		})

		newText := decl.Text
		for i := len(macroSites) - 1; i >= 0; i-- {
			ms := macroSites[i]
			result, err := e.invoke(ctx, name.ModuleURI, ms.macro, ms.site)
			if err != nil {
				return false, err
			}
			for key, source := range result.Definitions {
				if err := e.injectArtificialDefinition(key, source); err != nil {
					return false, err
				}
			}
			before := newText
			newText = spliceSpan(newText, ms.site.Span, result.Closure.Expression)
			e.logger.WithFields(logrus.Fields{
				"macro":       ms.macro.String(),
				"declaration": name.String(),
				"before":      before,
				"after":       newText,
			}).Debug("expanded macro call site")
		}

		decl.Text = newText
		analysis, err := syntax.Analyze(newText)
		if err != nil {
			return false, err
		}
		decl.FreeNames = analysis.Free
		decl.MemberAccess = analysis.MemberAccess
		if err := e.resolver.ResolveDeclarationReferences(name.ModuleURI, decl); err != nil {
			return false, err
		}
		expandedAny = true
	}

	return expandedAny, nil
}

// resolveCallee resolves a call site's callee at moduleURI's top-level
// lexical scope (the same scope granularity bundle.Resolver already
// operates at) and reports whether it names a macro-marked declaration.
func (e *Engine) resolveCallee(moduleURI string, site syntax.CallSite) (bundle.CanonicalName, bool, error) {
	var (
		cn  bundle.CanonicalName
		ok  bool
		err error
	)
	switch {
	case site.CalleeName != "":
		cn, ok, err = e.resolver.Resolve(moduleURI, site.CalleeName)
	case site.CalleeMember != "":
		cn, ok, err = e.resolver.ResolveMember(moduleURI, site.CalleeBase, site.CalleeMember)
	default:
		return bundle.CanonicalName{}, false, nil
	}
	if err != nil {
		if _, isUnresolved := err.(*bundle.ErrUnresolvedReference); isUnresolved {
			return bundle.CanonicalName{}, false, nil
		}
		return bundle.CanonicalName{}, false, err
	}
	if !ok {
		return bundle.CanonicalName{}, false, nil
	}

	mod, ok := e.reg.Get(cn.ModuleURI)
	if !ok {
		return bundle.CanonicalName{}, false, nil
	}
	decl, ok := mod.Lookup(cn.LocalName)
	if !ok || !decl.IsMacro {
		return bundle.CanonicalName{}, false, nil
	}
	return cn, true, nil
}

// invoke dispatches a detected macro call site to either the native
// builtins or a fresh goja runtime, per spec.md §4.5 "Invocation".
func (e *Engine) invoke(ctx context.Context, callSiteModule string, macroName bundle.CanonicalName, site syntax.CallSite) (*MacroResult, error) {
	closures := make([]Closure, 0, len(site.Args))
	for _, arg := range site.Args {
		c, err := e.captureClosure(callSiteModule, arg.Text)
		if err != nil {
			return nil, err
		}
		closures = append(closures, c)
	}

	if macroName.ModuleURI == HostModuleURI && isBuiltin(macroName.LocalName) {
		return invokeBuiltin(macroName.LocalName, closures)
	}

	mod, ok := e.reg.Get(macroName.ModuleURI)
	if !ok {
		return nil, fmt.Errorf("macro module %s not loaded", macroName.ModuleURI)
	}
	macroDecl, ok := mod.Lookup(macroName.LocalName)
	if !ok {
		return nil, fmt.Errorf("macro declaration %s not found", macroName)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	type outcome struct {
		result *MacroResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := runMacroInGoja(macroDecl, closures)
		done <- outcome{result: r, err: err}
	}()

	select {
	case <-callCtx.Done():
		return nil, &ErrMacroTimeout{Macro: macroName}
	case o := <-done:
		if o.err != nil {
			return nil, &ErrMacroInvocationError{Macro: macroName, Message: o.err.Error()}
		}
		return o.result, nil
	}
}

// captureClosure builds spec.md §4.5's "Argument capture" Closure for one
// macro-call argument expression, resolving its free identifiers at
// moduleURI's lexical scope.
func (e *Engine) captureClosure(moduleURI, exprText string) (Closure, error) {
	analysis, err := syntax.Analyze(exprText)
	if err != nil {
		return Closure{}, err
	}

	refs := make(map[string]WireReference)
	for _, name := range analysis.Free {
		if members, isBase := analysis.MemberAccess[name]; isBase && len(members) > 0 {
			resolvedAny := false
			for _, member := range members {
				cn, ok, err := e.resolver.ResolveMember(moduleURI, name, member)
				if err != nil {
					return Closure{}, err
				}
				if ok {
					refs[name] = WireReference{cn.ModuleURI, cn.LocalName}
					resolvedAny = true
				}
			}
			if resolvedAny {
				continue
			}
		}
		cn, ok, err := e.resolver.Resolve(moduleURI, name)
		if err != nil {
			if _, isUnresolved := err.(*bundle.ErrUnresolvedReference); isUnresolved {
				continue
			}
			return Closure{}, err
		}
		if ok {
			refs[name] = WireReference{cn.ModuleURI, cn.LocalName}
		}
	}

	return Closure{Expression: exprText, References: refs}, nil
}

// injectArtificialDefinition implements spec.md §4.5's "artificial
// definitions are injected into the Declaration Index as if they had
// always been present."
func (e *Engine) injectArtificialDefinition(key, source string) error {
	uri, name, err := ParseDefinitionKey(key)
	if err != nil {
		return fmt.Errorf("decoding artificial definition key %q: %w", key, err)
	}

	mod, ok := e.reg.Get(uri)
	if !ok {
		mod = bundle.NewModule(uri, "")
		e.reg.Add(mod)
	}

	decl, err := bundle.BuildDeclarationFromSource(uri, name, source)
	if err != nil {
		return err
	}
	mod.AddDeclaration(decl)
	return e.resolver.ResolveDeclarationReferences(uri, decl)
}

// spliceSpan replaces the byte range span covers in text with replacement.
func spliceSpan(text string, span syntax.Span, replacement string) string {
	start := span.Offset
	end := span.Offset + span.Length
	if start < 0 || end > len(text) || start > end {
		return text
	}
	return text[:start] + replacement + text[end:]
}

// runMacroInGoja evaluates a user-defined macro declaration (a
// `createMacro(...)` call's bound variable) in a fresh goja.Runtime and
// calls it with args, decoding the returned value as a MacroResult.
//
// createMacro's runtime behavior is the identity function: marking a value
// as a macro is purely a bundle-time (is_macro) concern, per spec.md §4.3 —
// at runtime the wrapped function is simply itself.
func runMacroInGoja(macroDecl *bundle.Declaration, args []Closure) (*MacroResult, error) {
	rt := goja.New()

	script := "function createMacro(fn) { return fn; }\n" + macroDecl.Text + "\n" + macroDecl.Name.LocalName + ";"
	v, err := rt.RunString(script)
	if err != nil {
		return nil, fmt.Errorf("evaluating macro %s: %w", macroDecl.Name, err)
	}

	call, ok := goja.AssertFunction(v)
	if !ok {
		return nil, fmt.Errorf("macro %s does not evaluate to a callable", macroDecl.Name)
	}

	argValues := make([]goja.Value, len(args))
	for i, c := range args {
		refs := make(map[string]interface{}, len(c.References))
		for name, ref := range c.References {
			refs[name] = []string{ref[0], ref[1]}
		}
		argValues[i] = rt.ToValue(map[string]interface{}{
			"expression": c.Expression,
			"references": refs,
		})
	}

	retVal, err := call(goja.Undefined(), argValues...)
	if err != nil {
		return nil, err
	}
	return decodeMacroResultValue(retVal)
}

func decodeMacroResultValue(v goja.Value) (*MacroResult, error) {
	exported := v.Export()
	m, ok := exported.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("macro did not return an object")
	}

	if closureRaw, hasClosure := m["closure"]; hasClosure {
		closureMap, _ := closureRaw.(map[string]interface{})
		c := decodeClosureMap(closureMap)
		defs := make(map[string]string)
		if defsRaw, ok := m["definitions"].(map[string]interface{}); ok {
			for k, val := range defsRaw {
				if s, ok := val.(string); ok {
					defs[k] = s
				}
			}
		}
		return &MacroResult{Type: ResultWithDefinitions, Closure: c, Definitions: defs}, nil
	}

	return &MacroResult{Type: ResultSimple, Closure: decodeClosureMap(m)}, nil
}

func decodeClosureMap(m map[string]interface{}) Closure {
	c := Closure{References: make(map[string]WireReference)}
	if m == nil {
		return c
	}
	if expr, ok := m["expression"].(string); ok {
		c.Expression = expr
	}
	if refsRaw, ok := m["references"].(map[string]interface{}); ok {
		for name, refVal := range refsRaw {
			if pair, ok := refVal.([]interface{}); ok && len(pair) == 2 {
				uri, _ := pair[0].(string)
				local, _ := pair[1].(string)
				c.References[name] = WireReference{uri, local}
			}
		}
	}
	return c
}
