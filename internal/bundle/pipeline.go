package bundle

import (
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/netanelgilad/funee/internal/loader"
	"github.com/netanelgilad/funee/internal/moduri"
	"github.com/netanelgilad/funee/internal/syntax"
)

// Pipeline drives spec.md §2's leaves-first pipeline through Loader,
// Parser, Declaration Index, and Resolver: given an entry specifier it
// loads and indexes every transitively-imported module and resolves each
// declaration's free identifiers to CanonicalNames. Tree-shaking, macro
// expansion, and emission are separate stages (internal/bundle/graph,
// internal/bundle/macro, internal/bundle/emit) that operate on the
// Registry this produces. Grounded on grafana-k6's cmd/k6/cmd/run.go
// sequential phase structure (resolve → load → run), adapted from a
// single-script runner to a multi-module graph builder.
type Pipeline struct {
	logger logrus.FieldLogger
	loader *loader.Loader
	reg    *Registry
}

// NewPipeline returns a Pipeline that fetches modules through l.
func NewPipeline(logger logrus.FieldLogger, l *loader.Loader) *Pipeline {
	return &Pipeline{logger: logger, loader: l, reg: NewRegistry()}
}

// Registry exposes the set of modules loaded so far.
func (p *Pipeline) Registry() *Registry { return p.reg }

// Load fetches, parses, and indexes entrySpecifier and every module it
// transitively imports or re-exports from, then resolves every
// declaration's references. Returns the entry module's absolute URI.
func (p *Pipeline) Load(referrer *url.URL, entrySpecifier string) (string, error) {
	entryURL, err := moduri.Resolve(referrer, entrySpecifier)
	if err != nil {
		return "", err
	}
	entryURI := entryURL.String()

	queue := []string{entryURI}
	queued := map[string]bool{entryURI: true}

	for len(queue) > 0 {
		uri := queue[0]
		queue = queue[1:]

		mod, err := p.loadOne(uri)
		if err != nil {
			return "", err
		}
		p.reg.Add(mod)

		for _, imp := range mod.Imports {
			if imp.FromModule != "" && !queued[imp.FromModule] {
				queued[imp.FromModule] = true
				queue = append(queue, imp.FromModule)
			}
		}
		for _, exp := range mod.Exports {
			if exp.FromModule != "" && !queued[exp.FromModule] {
				queued[exp.FromModule] = true
				queue = append(queue, exp.FromModule)
			}
		}
	}

	resolver := NewResolver(p.reg)
	for _, mod := range p.reg.Modules {
		for _, name := range mod.Order {
			decl := mod.Declarations[name]
			if err := resolver.ResolveDeclarationReferences(mod.URI, decl); err != nil {
				return "", err
			}
			if err := MarkCreateMacroDeclarations(resolver, mod.URI, decl); err != nil {
				return "", err
			}
		}
	}

	return entryURI, nil
}

func (p *Pipeline) loadOne(uriStr string) (*Module, error) {
	u, err := url.Parse(uriStr)
	if err != nil {
		return nil, err
	}

	src, err := p.loader.Load(u, uriStr)
	if err != nil {
		return nil, err
	}

	parsed, err := syntax.Parse(uriStr, string(src.Data))
	if err != nil {
		return nil, err
	}

	mod, err := BuildModule(uriStr, parsed)
	if err != nil {
		return nil, err
	}

	if err := expandClauses(mod, u); err != nil {
		return nil, err
	}
	return mod, nil
}

// expandClauses resolves every Import/Export specifier to an absolute
// URI and flattens `{ a, b as c }` clauses (stashed as a single raw-clause
// entry by bundle/index.go's importFromItem/exportFromItem) into one
// Import/Export per name.
func expandClauses(mod *Module, selfURL *url.URL) error {
	var newImports []Import
	for _, imp := range mod.Imports {
		if strings.HasPrefix(imp.ExportedName, "{") {
			targetURL, err := moduri.Resolve(selfURL, imp.Specifier)
			if err != nil {
				return err
			}
			for _, named := range syntax.ParseNamedImports(imp.ExportedName) {
				newImports = append(newImports, Import{
					LocalName:    named.Local,
					ExportedName: named.Exported,
					Specifier:    imp.Specifier,
					FromModule:   targetURL.String(),
				})
			}
			continue
		}
		targetURL, err := moduri.Resolve(selfURL, imp.Specifier)
		if err != nil {
			return err
		}
		imp.FromModule = targetURL.String()
		newImports = append(newImports, imp)
	}
	mod.Imports = newImports

	var newExports []Export
	for _, exp := range mod.Exports {
		if exp.ReexportAll {
			targetURL, err := moduri.Resolve(selfURL, exp.FromModule)
			if err != nil {
				return err
			}
			exp.FromModule = targetURL.String()
			newExports = append(newExports, exp)
			continue
		}
		if strings.HasPrefix(exp.ExportedName, "{") {
			fromURI := ""
			if exp.FromModule != "" {
				targetURL, err := moduri.Resolve(selfURL, exp.FromModule)
				if err != nil {
					return err
				}
				fromURI = targetURL.String()
			}
			for _, named := range syntax.ParseNamedImports(exp.ExportedName) {
				// ParseNamedImports reads `a as b` import-style (Exported a,
				// Local b); in an export clause `a` is the name in the source
				// module and `b` the name this module exports.
				newExports = append(newExports, Export{
					ExportedName: named.Local,
					LocalName:    named.Exported,
					FromModule:   fromURI,
				})
			}
			continue
		}
		newExports = append(newExports, exp)
	}
	mod.Exports = newExports
	return nil
}
