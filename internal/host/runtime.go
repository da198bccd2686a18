// Package host implements spec.md §4.7's Host Runtime: the embedded
// goja.Runtime the Emitter's output actually executes in, supplying the
// process-wide `host` binding object plus the `Closure`/`CanonicalName`
// constructors the built-in macros' emitted source (internal/bundle/macro's
// closure/canonicalName builtins) constructs instances of at runtime.
//
// Grounded on grafana-k6's js/modules dispatch (one Go struct per module,
// its exported methods becoming the JS-visible surface) and its
// cloudapi.Client / api/server.go for the HTTP client/server shape, with
// every bridge a thin wrapper rather than a full module system — funee has
// one process-wide object, not k6's per-VU module registry.
package host

import (
	"fmt"
	"net/http"

	"github.com/dop251/goja"
	"github.com/sirupsen/logrus"

	"github.com/netanelgilad/funee/internal/fsext"
)

// constructorPrelude declares the two runtime constructors spec.md §4.7
// requires: `new CanonicalName(uri, name)` and
// `new Closure(expression, references)`, the shapes
// internal/bundle/macro's closureBuiltin/canonicalNameBuiltin emit calls
// to. Plain data constructors, so a tiny JS prelude (the same technique
// macro.runMacroInGoja uses for createMacro) is simpler and more
// transparent than building them as reflected Go types.
const constructorPrelude = `
function CanonicalName(uri, name) {
	this.uri = uri;
	this.name = name;
}
function Closure(expression, references) {
	this.expression = expression;
	this.references = references;
}
`

// Runtime is one execution of an emitted bundle: a goja.Runtime, the
// cooperative event loop its asynchronous host capabilities queue work
// onto, and the native resources (filesystem, HTTP client, running
// watches/servers/timers) those capabilities bridge to.
type Runtime struct {
	vm     *goja.Runtime
	logger logrus.FieldLogger
	loop   *eventLoop

	fs      fsext.Fs
	baseDir string
	client  *http.Client

	timers  map[int64]*timerState
	timerID int64

	watches  map[int64]func()
	watchID  int64

	servers map[string]*http.Server
}

// NewRuntime constructs a Runtime rooted at baseDir (used to resolve
// relative paths passed to the fs bridge) reading/writing through fsys.
func NewRuntime(logger logrus.FieldLogger, fsys fsext.Fs, baseDir string) *Runtime {
	r := &Runtime{
		vm:      goja.New(),
		logger:  logger,
		loop:    newEventLoop(),
		fs:      fsys,
		baseDir: baseDir,
		client:  &http.Client{},
		timers:  make(map[int64]*timerState),
		watches: make(map[int64]func()),
		servers: make(map[string]*http.Server),
	}
	if _, err := r.vm.RunString(constructorPrelude); err != nil {
		panic(fmt.Errorf("host: installing CanonicalName/Closure constructors: %w", err))
	}
	r.vm.Set("host", r.buildHostObject())
	return r
}

// Run executes script (the Emitter's output) to completion, including
// every asynchronous host callback it schedules before returning.
func (r *Runtime) Run(script string) error {
	var runErr error
	r.loop.start(func() {
		_, runErr = r.vm.RunString(script)
	})
	r.closeServers()
	return runErr
}

func (r *Runtime) closeServers() {
	for addr, srv := range r.servers {
		_ = srv.Close()
		delete(r.servers, addr)
	}
}
