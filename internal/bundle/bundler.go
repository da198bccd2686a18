package bundle

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/netanelgilad/funee/internal/bundle/emit"
	"github.com/netanelgilad/funee/internal/bundle/graph"
	"github.com/netanelgilad/funee/internal/bundle/macro"
	"github.com/netanelgilad/funee/internal/errext"
	"github.com/netanelgilad/funee/internal/errext/exitcodes"
	"github.com/netanelgilad/funee/internal/loader"
)

// Bundler ties every stage of spec.md §2's pipeline together — Module
// Loader, Parser, Declaration Index, Resolver, Tree-Shaker, Macro Engine,
// Emitter — into the single entry point the CLI shim drives. Grounded on
// grafana-k6's cmd/k6/cmd/run.go sequential-phase structure (resolve test
// source → compile → run), here widened from one script to the full
// load/shake/expand/emit pipeline spec.md §2 describes as a pipeline of
// independent, sequentially-invoked components.
type Bundler struct {
	logger logrus.FieldLogger
	loader *loader.Loader

	// MacroTimeout and MacroIterationLimit override the Macro Engine's
	// defaults (spec.md §4.5/§5); zero means "use the package default."
	MacroTimeout        int64 // seconds; 0 = macro.DefaultTimeout
	MacroIterationLimit int   // 0 = macro.DefaultIterationLimit

	// HostBindings overrides the default `host.<name>` rewriting the
	// Emitter applies to funee: references (spec.md §4.6).
	HostBindings map[CanonicalName]emit.HostBinding
}

// NewBundler returns a Bundler that fetches modules through l.
func NewBundler(logger logrus.FieldLogger, l *loader.Loader) *Bundler {
	return &Bundler{logger: logger, loader: l}
}

// Result is everything a caller might want out of one successful Bundle
// call: the emitted script plus the intermediate state, so `funee check`
// can report what survived tree-shaking and expansion without requiring a
// Host Runtime.
type Result struct {
	Script     string
	EntryPoint CanonicalName
	Reg        *Registry
	TreeShaken *graph.Result
}

// Bundle runs the full pipeline against entrySpecifier (resolved against
// referrer, typically the current working directory as a file:// URL) and
// returns the single emitted script text spec.md §4.6 describes, ready to
// be run by the Host Runtime.
func (b *Bundler) Bundle(ctx context.Context, referrer *url.URL, entrySpecifier string) (*Result, error) {
	pipeline := NewPipeline(b.logger, b.loader)

	entryURI, err := pipeline.Load(referrer, entrySpecifier)
	if err != nil {
		return nil, errext.WithExitCodeIfNone(
			errext.WithHint(err, "check the entry specifier and every module it imports resolves"),
			exitcodes.ModuleNotFound,
		)
	}

	entryMod, ok := pipeline.Registry().Get(entryURI)
	if !ok {
		return nil, fmt.Errorf("entry module %s not found in registry after load", entryURI)
	}
	entryDecl, ok := defaultExportDeclaration(entryMod)
	if !ok {
		return nil, errext.WithExitCodeIfNone(
			fmt.Errorf("entry module %s has no default export", entryURI),
			exitcodes.ModuleNotFound,
		)
	}
	entryPoint := entryDecl.Name

	resolver := NewResolver(pipeline.Registry())
	engine := macro.NewEngine(b.logger, pipeline.Registry(), resolver)
	if b.MacroIterationLimit > 0 {
		engine.IterationLimit = b.MacroIterationLimit
	}
	if b.MacroTimeout > 0 {
		engine.Timeout = time.Duration(b.MacroTimeout) * time.Second
	}

	shaken, err := engine.Expand(ctx, entryPoint)
	if err != nil {
		return nil, classifyMacroError(err)
	}

	g := graph.New(pipeline.Registry())
	script, err := emit.Emit(g, shaken, emit.Options{
		EntryPoint:   entryPoint,
		HostBindings: b.HostBindings,
	})
	if err != nil {
		return nil, errext.WithExitCodeIfNone(err, exitcodes.CircularInitialization)
	}

	return &Result{
		Script:     script,
		EntryPoint: entryPoint,
		Reg:        pipeline.Registry(),
		TreeShaken: shaken,
	}, nil
}

// defaultExportDeclaration finds mod's `export default` binding's
// Declaration, following a bare-identifier re-export (`export default
// someName;`) to the declaration it names.
func defaultExportDeclaration(mod *Module) (*Declaration, bool) {
	for _, exp := range mod.Exports {
		if exp.ExportedName != "default" {
			continue
		}
		return mod.Lookup(exp.LocalName)
	}
	return nil, false
}

func classifyMacroError(err error) error {
	switch err.(type) {
	case *macro.ErrMacroExpansionLimitExceeded:
		return errext.WithExitCodeIfNone(
			errext.WithHint(err, "the macro's output still contains a call to itself after expansion; inspect it with --trace-macros"),
			exitcodes.MacroExpansionLimitExceeded,
		)
	case *macro.ErrMacroTimeout:
		return errext.WithExitCodeIfNone(
			errext.WithHint(err, "increase FUNEE_MACRO_TIMEOUT_SECONDS if this macro does legitimately expensive work"),
			exitcodes.MacroTimeoutError,
		)
	case *macro.ErrMacroInvocationError:
		return errext.WithExitCodeIfNone(err, exitcodes.MacroInvocationError)
	default:
		return err
	}
}

