package host

import (
	"github.com/dop251/goja"

	"github.com/netanelgilad/funee/internal/watch"
)

// buildHostObject assembles spec.md §4.7's process-wide `host` binding:
// every name it enumerates, backed by the bridges in this package. Built
// as a plain map of Go functions rather than a reflected struct because
// goja exports a Go func value assigned into a JS object as a directly
// callable property — the simplest mapping from "a name resolvable from
// funee:" to an actual callable, matching how macro.runMacroInGoja treats
// createMacro as a single bound function rather than a module record.
func (r *Runtime) buildHostObject() map[string]interface{} {
	return map[string]interface{}{
		"log": func(args ...interface{}) {
			r.logger.Info(args...)
		},

		"readFile":  r.readFile,
		"writeFile": r.writeFile,
		"isFile":    r.isFile,
		"lstat":     r.lstat,
		"readdir":   r.readdir,
		"join":      r.join,
		"tmpdir":    r.tmpdir,

		"randomBytes": r.randomBytes,
		"hash":        r.hash,

		"httpFetch":    r.httpFetch,
		"httpRequest":  r.httpRequest,
		"httpGetJSON":  r.httpGetJSON,
		"httpPostJSON": r.httpPostJSON,
		"getBody":      r.getBody,

		"serve": r.serve,
		"spawn": r.spawn,

		"setTimeout":    r.setTimeout,
		"clearTimeout":  r.clearTimeout,
		"setInterval":   r.setInterval,
		"clearInterval": r.clearInterval,

		"watchFile":      r.watchFile,
		"watchDirectory": r.watchDirectory,
		"unwatch":        r.unwatch,
	}
}

// watchFile implements host.watchFile(path, callback): callback fires on
// every change reported for the single file at path.
func (r *Runtime) watchFile(path string, callback goja.Callable) (int64, error) {
	return r.startWatch(path, false, callback)
}

// watchDirectory implements host.watchDirectory(path, callback): callback
// fires for every change to an entry directly inside path. Subdirectories
// created after the watch starts are added to it as they appear;
// subdirectories that already existed when it started are not watched.
func (r *Runtime) watchDirectory(path string, callback goja.Callable) (int64, error) {
	return r.startWatch(path, true, callback)
}

func (r *Runtime) startWatch(path string, recursive bool, callback goja.Callable) (int64, error) {
	release := r.loop.registerCallback()
	// The callback slot reserved above is re-armed on every fired event
	// (registerCallback is called again inside onEvent) so the watch keeps
	// the event loop alive for as long as it's open, matching setInterval's
	// pattern rather than firing once and dropping the loop's last reason
	// to keep running.
	releaseNext := release

	w, err := watch.New(r.logger, r.resolvePath(path), recursive, func(e watch.Event) {
		current := releaseNext
		releaseNext = r.loop.registerCallback()
		current(func() {
			if _, err := callback(goja.Undefined(), r.vm.ToValue(map[string]interface{}{
				"path": e.Path,
				"op":   e.Op,
			})); err != nil {
				r.logger.WithError(err).Error("watchFile/watchDirectory callback raised an error")
			}
		})
	})
	if err != nil {
		return 0, err
	}

	r.watchID++
	id := r.watchID
	r.watches[id] = func() {
		_ = w.Close()
		releaseNext(func() {})
	}
	return id, nil
}

// unwatch implements host.unwatch(id) (not in spec.md's name list, but
// required to stop a watch without leaking a held event-loop slot).
func (r *Runtime) unwatch(id int64) {
	if stop, ok := r.watches[id]; ok {
		stop()
		delete(r.watches, id)
	}
}
