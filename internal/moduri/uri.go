// Package moduri normalizes module specifiers into absolute ModuleURIs, per
// spec.md §4.1 and the "Module specifier grammar" of §6: file://, https://,
// or the virtual funee: namespace; plain http:// specifiers are rejected
// with an error. Grounded on grafana-k6's
// internal/loader.Resolve/Dir (see internal/loader/loader_test.go) and
// other_examples/df22c164_mna-nenuphar__lang-resolver-resolver.go.go for the
// bare/relative/absolute disambiguation.
package moduri

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/netanelgilad/funee/internal/errext"
	"github.com/netanelgilad/funee/internal/errext/exitcodes"
)

// FuneeScheme is the virtual host-namespace scheme, e.g. "funee:fs".
const FuneeScheme = "funee"

// Dir returns the directory ModuleURI containing u, trimming its last path
// segment the way grafana-k6's loader.Dir does for file:// and https://
// alike.
func Dir(u *url.URL) *url.URL {
	dir := *u
	if dir.Scheme == FuneeScheme {
		return &dir
	}
	idx := strings.LastIndexByte(dir.Path, '/')
	if idx < 0 {
		dir.Path = "/"
	} else {
		dir.Path = dir.Path[:idx+1]
	}
	return &dir
}

// Resolve normalizes specifier into an absolute ModuleURI, relative to
// referrer (which may be nil for the entry module). Bare specifiers are
// checked against the funee: host namespace; everything else must already
// carry (or inherit from referrer) a file or https scheme.
func Resolve(referrer *url.URL, specifier string) (*url.URL, error) {
	if specifier == "" {
		return nil, errext.WithExitCodeIfNone(
			errext.WithHint(fmt.Errorf("empty module specifier"), "pass a non-empty import path"),
			exitcodes.ModuleNotFound,
		)
	}

	if strings.HasPrefix(specifier, FuneeScheme+":") {
		return &url.URL{Scheme: FuneeScheme, Opaque: strings.TrimPrefix(specifier, FuneeScheme+":")}, nil
	}
	if specifier == FuneeScheme {
		return &url.URL{Scheme: FuneeScheme, Opaque: ""}, nil
	}

	if strings.Contains(specifier, "://") {
		u, err := url.Parse(specifier)
		if err != nil {
			return nil, errext.WithExitCodeIfNone(err, exitcodes.ModuleNotFound)
		}
		return normalizeScheme(u)
	}

	if strings.HasPrefix(specifier, ".") || strings.HasPrefix(specifier, "/") {
		if referrer == nil {
			referrer = &url.URL{Scheme: "file", Path: "/"}
		}
		var resolvedPath string
		if strings.HasPrefix(specifier, "/") {
			resolvedPath = path.Clean(specifier)
		} else {
			resolvedPath = path.Join(Dir(referrer).Path, specifier)
		}
		u := *referrer
		u.Path = resolvedPath
		return normalizeScheme(&u)
	}

	return nil, errext.WithExitCodeIfNone(
		errext.WithHint(
			fmt.Errorf("bare specifier %q is not a recognised funee: export and is not a relative or absolute path", specifier),
			"bare imports must resolve against the funee: host namespace",
		),
		exitcodes.ModuleNotFound,
	)
}

func normalizeScheme(u *url.URL) (*url.URL, error) {
	switch u.Scheme {
	case "file", "https":
		return u, nil
	case "http":
		return nil, errext.WithExitCodeIfNone(
			errext.WithHint(fmt.Errorf("insecure scheme %q is not supported, use https", u.Scheme), "use an https:// URL"),
			exitcodes.ModuleNotFound,
		)
	default:
		return nil, errext.WithExitCodeIfNone(
			fmt.Errorf("only file and https schemes are supported for imports, %q has scheme %q", u.String(), u.Scheme),
			exitcodes.ModuleNotFound,
		)
	}
}

// String renders u using the same textual form used as a CanonicalName's
// module_uri component.
func String(u *url.URL) string {
	return u.String()
}
