package host_test

import (
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netanelgilad/funee/internal/fsext"
	"github.com/netanelgilad/funee/internal/host"
)

func newTestRuntime(t *testing.T) (*host.Runtime, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	fs := fsext.NewMemMapFs()
	return host.NewRuntime(logger, fs, "/"), hook
}

func TestHostFsBridgeRoundTrips(t *testing.T) {
	t.Parallel()
	rt, _ := newTestRuntime(t)

	err := rt.Run(`
		host.writeFile("greeting.txt", "hello");
		var contents = host.readFile("greeting.txt");
		if (contents !== "hello") {
			throw new Error("expected hello, got " + contents);
		}
		if (!host.isFile("greeting.txt")) {
			throw new Error("expected greeting.txt to be a file");
		}
	`)
	require.NoError(t, err)
}

func TestHostRandomBytesAndHashAreDeterministicInShape(t *testing.T) {
	t.Parallel()
	rt, _ := newTestRuntime(t)

	err := rt.Run(`
		var bytes = host.randomBytes(16);
		if (bytes.length !== 32) { // hex-encoded
			throw new Error("expected a 32-char hex string, got length " + bytes.length);
		}
		var a = host.hash("funee");
		var b = host.hash("funee");
		if (a !== b) {
			throw new Error("hash should be deterministic for identical input");
		}
	`)
	require.NoError(t, err)
}

func TestHostConstructorsProduceClosureAndCanonicalNameShapes(t *testing.T) {
	t.Parallel()
	rt, _ := newTestRuntime(t)

	err := rt.Run(`
		var cn = new CanonicalName("file:///math.ts", "add");
		if (cn.uri !== "file:///math.ts" || cn.name !== "add") {
			throw new Error("CanonicalName fields not bound correctly");
		}
		var refs = new Map([["add", cn]]);
		var c = new Closure({ type: "Identifier", code: "add" }, refs);
		if (c.expression.code !== "add" || c.references !== refs) {
			throw new Error("Closure fields not bound correctly");
		}
	`)
	require.NoError(t, err)
}

func TestHostSetTimeoutFiresBeforeRunReturns(t *testing.T) {
	t.Parallel()
	rt, _ := newTestRuntime(t)

	err := rt.Run(`
		var fired = false;
		host.setTimeout(function() { fired = true; }, 1);
	`)
	require.NoError(t, err)

	// Run does not return until every scheduled callback has fired, so a
	// second script on the same runtime should already observe the global
	// `fired` the timer callback set.
	err = rt.Run(`
		if (!fired) {
			throw new Error("setTimeout callback had not fired by the time Run returned");
		}
	`)
	require.NoError(t, err)
}

func TestHostLogForwardsToLogger(t *testing.T) {
	t.Parallel()
	rt, hook := newTestRuntime(t)

	err := rt.Run(`host.log("hello from the bundle");`)
	require.NoError(t, err)
	assert.NotEmpty(t, hook.Entries)
}
