package wisefetch

import (
	"os"
	"strings"
)

// Env is a read-only snapshot of the process environment with upper-cased
// keys, so lookups behave case-insensitively.
type Env map[string]string

// EnvFunc produces a fresh environment snapshot. It is called once per
// request because the owning process may mutate its environment between
// calls; snapshots must never be cached across requests.
type EnvFunc func() Env

// SystemEnv snapshots the real process environment.
func SystemEnv() Env {
	env := make(Env)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[strings.ToUpper(k)] = v
		}
	}
	return env
}

// applyProxyFallbacks fills the proxy and noProxy options from the
// npm-configuration environment variables when neither an explicit option
// nor an ecosystem-standard variable is present. The fetch engine handles
// the standard variables itself, so this layer only supplies the npm
// fallbacks; the effective precedence is therefore
//
//	explicit option > standard environment variable > npm variable > unset
//
// and the https/http asymmetry below reproduces the historical behavior of
// the npm ecosystem exactly, on purpose.
func applyProxyFallbacks(opts Options, env Env, targetScheme string) {
	if _, ok := opts["noProxy"]; !ok {
		if _, ok := env["NO_PROXY"]; !ok {
			if v := env["NPM_CONFIG_NO_PROXY"]; v != "" {
				opts["noProxy"] = v
			}
		}
	}

	if _, ok := opts["proxy"]; ok {
		return
	}
	if targetScheme == "https" {
		if _, ok := env["HTTPS_PROXY"]; !ok {
			if v := env["NPM_CONFIG_HTTPS_PROXY"]; v != "" {
				opts["proxy"] = v
			}
		}
		return
	}
	_, hasHTTPS := env["HTTPS_PROXY"]
	_, hasHTTP := env["HTTP_PROXY"]
	_, hasGeneric := env["PROXY"]
	if !hasHTTPS && !hasHTTP && !hasGeneric {
		if v := env["NPM_CONFIG_PROXY"]; v != "" {
			opts["proxy"] = v
		}
	}
}
