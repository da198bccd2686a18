// Package loader implements spec.md §4.1's Module Loader: given a specifier
// and optional referrer, it normalizes to a ModuleURI and returns the raw
// source text, memoized per URI so concurrent requests for the same module
// collapse into a single fetch. Grounded on grafana-k6's
// internal/loader/loader_test.go and readsource_test.go.
package loader

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/netanelgilad/funee/internal/errext"
	"github.com/netanelgilad/funee/internal/errext/exitcodes"
	"github.com/netanelgilad/funee/internal/fsext"
	"github.com/netanelgilad/funee/internal/moduri"
)

// SourceData is the result of loading one module's raw text.
type SourceData struct {
	URL  *url.URL
	Data []byte
}

// HostExport is one name the funee: namespace serves; see internal/host.
type HostExport struct {
	Name   string
	Source string
}

// Loader memoizes Module fetches by ModuleURI. Concurrent Load calls for
// the same URI collapse into a single underlying fetch via the per-entry
// sync.Once, matching spec.md §4.1.
type Loader struct {
	logger      logrus.FieldLogger
	filesystems map[string]fsext.Fs
	client      *http.Client
	hostModules map[string]HostExport

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	once sync.Once
	data *SourceData
	err  error
}

// New returns a Loader reading file:// modules from filesystems["file"] and
// https:// modules from filesystems["https"] if set (tests stub both with
// in-memory filesystems), falling back to a real *http.Client with timeout.
func New(logger logrus.FieldLogger, filesystems map[string]fsext.Fs, hostModules map[string]HostExport) *Loader {
	return &Loader{
		logger:      logger,
		filesystems: filesystems,
		client:      &http.Client{Timeout: 30 * time.Second},
		hostModules: hostModules,
		entries:     make(map[string]*cacheEntry),
	}
}

// Load fetches and returns the module at moduleURL, using moduleSpecifier
// only for error messages (it is the text as originally written at the
// import site).
func (l *Loader) Load(moduleURL *url.URL, moduleSpecifier string) (*SourceData, error) {
	key := moduleURL.String()

	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &cacheEntry{}
		l.entries[key] = entry
	}
	l.mu.Unlock()

	entry.once.Do(func() {
		entry.data, entry.err = l.fetch(moduleURL, moduleSpecifier)
	})
	return entry.data, entry.err
}

func (l *Loader) fetch(moduleURL *url.URL, moduleSpecifier string) (*SourceData, error) {
	switch moduleURL.Scheme {
	case "funee":
		return l.fetchHost(moduleURL)
	case "file":
		return l.fetchFile(moduleURL, moduleSpecifier)
	case "https":
		return l.fetchHTTP(moduleURL)
	default:
		return nil, errext.WithExitCodeIfNone(
			fmt.Errorf("unsupported module scheme %q", moduleURL.Scheme), exitcodes.ModuleNotFound)
	}
}

func (l *Loader) fetchHost(moduleURL *url.URL) (*SourceData, error) {
	name := moduleURL.Opaque
	export, ok := l.hostModules[name]
	if !ok {
		return nil, errext.WithExitCodeIfNone(
			errext.WithHint(
				fmt.Errorf("no host module registered under funee:%s", name),
				"check internal/host's bindings registry",
			),
			exitcodes.ModuleNotFound,
		)
	}
	return &SourceData{URL: moduleURL, Data: []byte(export.Source)}, nil
}

func (l *Loader) fetchFile(moduleURL *url.URL, moduleSpecifier string) (*SourceData, error) {
	fs, ok := l.filesystems["file"]
	if !ok {
		return nil, fmt.Errorf("no file filesystem configured")
	}
	data, err := fsext.ReadFile(fs, moduleURL.Path)
	if err != nil {
		return nil, errext.WithExitCodeIfNone(
			errext.WithHint(
				errors.Wrapf(err, "the moduleSpecifier %q couldn't be found on local disk", moduleSpecifier),
				"check that the file exists and is readable",
			),
			exitcodes.ModuleNotFound,
		)
	}
	return &SourceData{URL: moduleURL, Data: data}, nil
}

func (l *Loader) fetchHTTP(moduleURL *url.URL) (*SourceData, error) {
	if fs, ok := l.filesystems["https"]; ok {
		if data, err := fsext.ReadFile(fs, moduleURL.Path); err == nil {
			return &SourceData{URL: moduleURL, Data: data}, nil
		}
	}

	l.logger.WithField("url", moduleURL.String()).Debug("fetching remote module")
	resp, err := l.client.Get(moduleURL.String())
	if err != nil {
		return nil, errext.WithExitCodeIfNone(
			errors.Wrapf(err, "fetching %s", moduleURL.String()), exitcodes.NetworkError)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errext.WithExitCodeIfNone(
			fmt.Errorf("fetching %s: unexpected status %s", moduleURL.String(), resp.Status),
			exitcodes.NetworkError,
		)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errext.WithExitCodeIfNone(
			errors.Wrapf(err, "reading response body for %s", moduleURL.String()), exitcodes.NetworkError)
	}
	return &SourceData{URL: moduleURL, Data: body}, nil
}

// ReadSource resolves specifier against pwd and loads it, handling the "-"
// (stdin) specifier the way grafana-k6's loader.ReadSource does.
func ReadSource(
	logger logrus.FieldLogger, specifier, pwd string, l *Loader, stdin io.Reader,
) (*SourceData, error) {
	if specifier == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, err
		}
		return &SourceData{URL: &url.URL{Scheme: "file", Path: "/-"}, Data: data}, nil
	}

	pwdURL, err := moduri.Resolve(nil, ensureTrailingSlash(pwd))
	if err != nil {
		return nil, err
	}
	moduleURL, err := moduri.Resolve(pwdURL, specifier)
	if err != nil {
		return nil, err
	}
	return l.Load(moduleURL, specifier)
}

func ensureTrailingSlash(p string) string {
	if strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}
