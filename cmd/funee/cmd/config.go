package cmd

import (
	"strconv"
	"strings"

	null "gopkg.in/guregu/null.v3"
)

// GlobalOptions mirrors cmd/state/global_options.go's role: the config
// values every subcommand reads, consolidated from flag, environment, and
// config-file sources in that precedence order.
//
// MacroTimeoutSeconds and MacroIterationLimit are null.Int (ported from
// cmd/k6/cmd/run.go's own use of null.Int for optional numeric flags like
// --vus-max) rather than plain int, so "not set by the user" is
// distinguishable from "set to zero" — a zero timeout or iteration limit
// is nonsensical and should fall through to the Macro Engine's own
// defaults instead of silently disabling expansion.
type GlobalOptions struct {
	Verbose             bool
	TraceMacros         bool
	MacroTimeoutSeconds null.Int
	MacroIterationLimit null.Int
	CacheDir            string
}

// ParseEnvKeyValue splits an environment variable string into key and
// value, ported verbatim from cmd/state/env.go.
func ParseEnvKeyValue(kv string) (string, string) {
	if idx := strings.IndexRune(kv, '='); idx != -1 {
		return kv[:idx], kv[idx+1:]
	}
	return kv, ""
}

// BuildEnvMap returns a map built from raw environment values such as
// os.Environ() returns, ported verbatim from cmd/state/env.go.
func BuildEnvMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v := ParseEnvKeyValue(kv)
		env[k] = v
	}
	return env
}

// consolidateGlobalOptions layers FUNEE_* environment variables over
// defaults, the way cmd/state/global_options.go's consolidateGlobalFlags
// layers K6_* variables over GetDefaultGlobalOptions.
func consolidateGlobalOptions(defaults GlobalOptions, env map[string]string) GlobalOptions {
	result := defaults

	if val, ok := env["FUNEE_MACRO_TIMEOUT_SECONDS"]; ok {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			result.MacroTimeoutSeconds = null.IntFrom(parsed)
		}
	}
	if val, ok := env["FUNEE_MACRO_ITERATION_LIMIT"]; ok {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			result.MacroIterationLimit = null.IntFrom(parsed)
		}
	}
	if val, ok := env["FUNEE_CACHE_DIR"]; ok {
		result.CacheDir = val
	}
	if _, ok := env["FUNEE_VERBOSE"]; ok {
		result.Verbose = true
	}

	return result
}
