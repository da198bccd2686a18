package host

import "github.com/netanelgilad/funee/internal/loader"

// createMacroModuleSource is funee:createMacro's declared surface: the
// createMacro identity wrapper plus stub bodies for the four always-macro
// builtins, matching macro.HostModuleURI and macro's builtin-name set.
// Their bodies are never executed — macro.Engine's invokeBuiltin
// intercepts calls to these names natively by CanonicalName — so the
// stubs exist only so the Declaration Index finds real function
// declarations under these names and marks them IsMacro.
const createMacroModuleSource = `
export function createMacro(fn) { return fn; }
export function closure(e) { return e; }
export function canonicalName(x) { return x; }
export function tuple() { return arguments; }
export function unsafeCast(v) { return v; }
`

// capabilityModuleSource is the bare funee: namespace's declared surface:
// one stub export per spec.md §4.7 host capability name, plus unwatch
// (this runtime's supplement to stop a watch). Every reference the
// emitted bundle makes to one of these is rewritten by
// internal/bundle/emit to a `host.<name>` property access before the stub
// body is ever reachable — see emit.isHostNamespace.
const capabilityModuleSource = `
export function log() {}
export function readFile() {}
export function writeFile() {}
export function isFile() {}
export function lstat() {}
export function readdir() {}
export function join() {}
export function tmpdir() {}
export function randomBytes() {}
export function hash() {}
export function httpFetch() {}
export function httpRequest() {}
export function httpGetJSON() {}
export function httpPostJSON() {}
export function getBody() {}
export function serve() {}
export function spawn() {}
export function setTimeout() {}
export function clearTimeout() {}
export function setInterval() {}
export function clearInterval() {}
export function watchFile() {}
export function watchDirectory() {}
export function unwatch() {}
`

// HostModules returns the loader.HostExport set wiring every funee:
// specifier the bundler or emitted code can import: the bare capability
// namespace (funee:, i.e. moduri.Resolve("funee")'s empty-Opaque URL) and
// the createMacro/builtin-macro namespace (funee:createMacro).
func HostModules() map[string]loader.HostExport {
	return map[string]loader.HostExport{
		"":            {Name: "", Source: capabilityModuleSource},
		"createMacro": {Name: "createMacro", Source: createMacroModuleSource},
	}
}
