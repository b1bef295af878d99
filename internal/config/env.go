package config

import (
	"os"
	"strings"
)

// Environment variables consulted by the computed defaults. Each meaning lists
// the variables in priority order; the first non-empty one wins.
var (
	EnvPullRequest   = []string{"PULL_REQUEST", "TRAVIS_PULL_REQUEST"}
	EnvSkipDeploy    = []string{"SKIP_DEPLOY", "SKIP_COMMIT"}
	EnvSourceBranch  = []string{"SOURCE_BRANCH", "DEPLOY_FROM_BRANCH"}
	EnvCurrentBranch = []string{"TRAVIS_BRANCH", "GITHUB_REF_NAME"}
	EnvRepoSlug      = []string{"TRAVIS_REPO_SLUG", "GITHUB_REPOSITORY"}
	EnvToken         = []string{"GH_TOKEN", "GITHUB_TOKEN"}
)

// Env is a snapshot of environment variables taken once, so defaults never
// read the live process environment.
type Env map[string]string

// EnvFromOS snapshots the current process environment.
func EnvFromOS() Env {
	env := make(Env)
	for _, kv := range os.Environ() {
		if key, value, ok := strings.Cut(kv, "="); ok {
			env[key] = value
		}
	}
	return env
}

// Lookup returns the first non-empty, trimmed value among keys.
func (e Env) Lookup(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(e[key]); v != "" {
			return v
		}
	}
	return ""
}

// With returns a copy of the snapshot with key set to value.
func (e Env) With(key, value string) Env {
	out := make(Env, len(e)+1)
	for k, v := range e {
		out[k] = v
	}
	out[key] = value
	return out
}

var truthy = map[string]struct{}{"yes": {}, "y": {}, "true": {}, "1": {}}

func isTruthy(v string) bool {
	_, ok := truthy[strings.ToLower(strings.TrimSpace(v))]
	return ok
}
