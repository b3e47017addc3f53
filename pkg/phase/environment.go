package phase

import (
	"fmt"
	"os"
	"strconv"

	"github.com/hopic-ci/hopic/pkg/config"
)

// buildEnvironment assembles a step's environment in the order spec
// §4.6 point 5 mandates: sandbox HOME/_JAVA_OPTIONS when containerized,
// then allow-listed host passthroughs, then reproducible-build vars
// (skipped on an error path), then the step's own mapping (a null
// value removes a previously-set key).
func buildEnvironment(step config.Step, containerized bool, passThrough []string, ch ChangeContext, onErrorPath bool) map[string]string {
	env := map[string]string{}

	if containerized {
		env["HOME"] = "/home/sandbox"
		env["_JAVA_OPTIONS"] = "-Duser.home=/home/sandbox"
	}

	for _, name := range passThrough {
		if v, ok := os.LookupEnv(name); ok {
			env[name] = v
		}
	}

	if !onErrorPath {
		env["SOURCE_DATE_EPOCH"] = strconv.FormatInt(ch.SourceDateEpoch, 10)
		if ch.Version != "" {
			env["VERSION"] = ch.Version
		}
		if ch.PureVersion != "" {
			env["PURE_VERSION"] = ch.PureVersion
		}
		if ch.DebVersion != "" {
			env["DEBVERSION"] = ch.DebVersion
		}
		if ch.PublishVersion != "" {
			env["PUBLISH_VERSION"] = ch.PublishVersion
		}
	}

	for k, v := range step.Environment {
		if v == "" {
			delete(env, k)
			continue
		}
		env[k] = v
	}

	// LC_*/LANG/LANGUAGE are never allowed through as-is: the
	// environment contract replaces them outright.
	delete(env, "LANGUAGE")
	for k := range env {
		if len(k) >= 3 && k[:3] == "LC_" {
			delete(env, k)
		}
	}
	delete(env, "LANG")
	env["LANG"] = "C.UTF-8"

	return env
}

func envSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	return out
}
